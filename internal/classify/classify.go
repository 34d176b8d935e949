// Package classify maps free-text program names onto category labels and
// program codes using ordered substring rules.
package classify

import (
	"strings"

	"github.com/unaq/indicator-report/internal/model"
)

// Enrollment levels.
const (
	LevelTSU   = "TSU"
	LevelING   = "ING"
	LevelPOS   = "POS"
	LevelOther = "Otro"
)

// EnrollmentLevels lists the levels reported as auto-metrics, in order.
var EnrollmentLevels = []string{LevelTSU, LevelING, LevelPOS}

// Graduate levels.
const (
	GradMaestria   = "Maestría"
	GradIngenieria = "Ingeniería"
	GradTSU        = "TSU"
	GradMovilidad  = "Movilidad Académica"
	GradOther      = "Otro"
)

// GraduateLevels lists the graduate levels in display order.
var GraduateLevels = []string{GradMaestria, GradIngenieria, GradTSU, GradMovilidad, GradOther}

// Rule assigns Label when every group matches. A group matches when the
// name contains any of its substrings.
type Rule struct {
	Label  string
	Groups [][]string
}

// Matches reports whether the lowercased name satisfies every group.
func (r Rule) Matches(name string) bool {
	for _, group := range r.Groups {
		if !containsAny(name, group) {
			return false
		}
	}
	return len(r.Groups) > 0
}

// Rules is an ordered rule table. The first matching rule wins.
type Rules []Rule

// Apply returns the label of the first matching rule, or fallback.
func (rs Rules) Apply(name, fallback string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, r := range rs {
		if r.Matches(lower) {
			return r.Label
		}
	}
	return fallback
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var technical = []string{"técnico", "tsu"}

var enrollmentRules = Rules{
	{Label: LevelTSU, Groups: [][]string{technical}},
	{Label: LevelPOS, Groups: [][]string{{"maestría", "posgrado"}}},
	{Label: LevelING, Groups: [][]string{{"ingeniería"}}},
}

var graduateRules = Rules{
	{Label: GradMaestria, Groups: [][]string{{"maestría"}}},
	{Label: GradIngenieria, Groups: [][]string{{"ingeniería"}}},
	{Label: GradTSU, Groups: [][]string{technical}},
	{Label: GradMovilidad, Groups: [][]string{{"movilidad"}}},
}

// programRules are ordered so that the specific full-name rules run before
// the broader technical rules.
var programRules = Rules{
	{Label: string(model.ProgramMIA), Groups: [][]string{{"maestría en ingeniería aeroespacial"}}},
	{Label: string(model.ProgramIAM), Groups: [][]string{{"ingeniería aeronáutica en manufactura"}}},
	{Label: string(model.ProgramIDMA), Groups: [][]string{{"ingeniería en diseño mecánico aeronáutico"}}},
	{Label: string(model.ProgramIECSA), Groups: [][]string{{"electrónica y control de sistemas de aeronaves"}}},
	{Label: string(model.ProgramIMA), Groups: [][]string{{"ingeniería en mantenimiento aeronáutico"}}},
	{Label: string(model.ProgramTSUA), Groups: [][]string{technical, {"aviónica"}}},
	{Label: string(model.ProgramTSUM), Groups: [][]string{technical, {"mantenimiento", "planeador y motor"}}},
	{Label: string(model.ProgramTSUF), Groups: [][]string{technical, {"manufactura", "maquinados de precisión", "manufactura de aeronaves"}}},
}

// EnrollmentLevel classifies an enrolled student's program name.
func EnrollmentLevel(name string) string {
	return enrollmentRules.Apply(name, LevelOther)
}

// GraduateLevel classifies a graduate's program name.
func GraduateLevel(name string) string {
	return graduateRules.Apply(name, GradOther)
}

// ProgramCode maps a program name to its code. Unmatched names return "".
func ProgramCode(name string) model.ProgramCode {
	return model.ProgramCode(programRules.Apply(name, ""))
}
