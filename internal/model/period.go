package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Cuatrimestre identifies one of the three four-month academic periods.
type Cuatrimestre string

const (
	C1 Cuatrimestre = "C1"
	C2 Cuatrimestre = "C2"
	C3 Cuatrimestre = "C3"
)

// DefaultCuatrimestre is used when none is configured.
const DefaultCuatrimestre = C2

// Reporting years accepted by the period selector.
const (
	MinYear = 2020
	MaxYear = 2035
)

// PeriodColumn is the target-sheet column holding a period's target.
type PeriodColumn string

const (
	EneAbr PeriodColumn = "Ene-Abr"
	MayAgo PeriodColumn = "May-Ago"
	SepDic PeriodColumn = "Sep-Dic"
)

// PeriodColumns lists the period columns in calendar order.
var PeriodColumns = []PeriodColumn{EneAbr, MayAgo, SepDic}

var periodColumns = map[Cuatrimestre]PeriodColumn{
	C1: EneAbr,
	C2: MayAgo,
	C3: SepDic,
}

var periodMonths = map[PeriodColumn]string{
	EneAbr: "Enero – Abril",
	MayAgo: "Mayo – Agosto",
	SepDic: "Septiembre – Diciembre",
}

// ParseCuatrimestre accepts "C1".."C3" in any case. An empty string yields
// the default.
func ParseCuatrimestre(s string) (Cuatrimestre, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultCuatrimestre, nil
	}
	c := Cuatrimestre(s)
	if _, ok := periodColumns[c]; !ok {
		return "", eris.Errorf("model: unknown cuatrimestre %q", s)
	}
	return c, nil
}

// Column returns the target column for c. Unknown values fall back to Ene-Abr.
func (c Cuatrimestre) Column() PeriodColumn {
	if col, ok := periodColumns[c]; ok {
		return col
	}
	return EneAbr
}

// Months returns the spelled-out month range, e.g. "Mayo – Agosto".
func (c PeriodColumn) Months() string {
	return periodMonths[c]
}

// Period is the reporting period selected for a run.
type Period struct {
	Cuatrimestre Cuatrimestre `json:"cuatrimestre"`
	Year         int          `json:"year"`
}

// DefaultYear returns the current year, or the last accepted year when the
// current one is out of range.
func DefaultYear(now time.Time) int {
	y := now.Year()
	if y < MinYear || y > MaxYear {
		return MaxYear
	}
	return y
}

// Validate checks that the year lies in the accepted range.
func (p Period) Validate() error {
	if p.Year < MinYear || p.Year > MaxYear {
		return eris.Errorf("model: year %d outside %d..%d", p.Year, MinYear, MaxYear)
	}
	return nil
}

// Column returns the preferred target column.
func (p Period) Column() PeriodColumn { return p.Cuatrimestre.Column() }

// Label renders the short form, e.g. "C2 2025".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Cuatrimestre, p.Year)
}

// Extended renders the long form, e.g. "Mayo – Agosto 2025".
func (p Period) Extended() string {
	return fmt.Sprintf("%s %d", p.Column().Months(), p.Year)
}

// FileSuffix renders the form used in output file names, e.g. "C2_2025".
func (p Period) FileSuffix() string {
	return fmt.Sprintf("%s_%d", p.Cuatrimestre, p.Year)
}
