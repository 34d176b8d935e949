package model

import "strings"

// Column names recognized in the enrollment and graduate sheets.
const (
	ColProgram    = "Carrera"
	ColSex        = "Sexo"
	ColPeriod     = "Periodo"
	ColGroup      = "Grupo"
	ColCycle      = "Ciclo"
	ColGeneration = "Generación"
)

// FilterColumns are the columns offered as multi-select filters.
var FilterColumns = []string{ColProgram, ColSex, ColPeriod, ColGroup, ColCycle}

// ProgramCode is the short code of an academic program.
type ProgramCode string

const (
	ProgramTSUA  ProgramCode = "TSUA"
	ProgramTSUM  ProgramCode = "TSUM"
	ProgramTSUF  ProgramCode = "TSUF"
	ProgramIAM   ProgramCode = "IAM"
	ProgramIDMA  ProgramCode = "IDMA"
	ProgramIECSA ProgramCode = "IECSA"
	ProgramIMA   ProgramCode = "IMA"
	ProgramMIA   ProgramCode = "MIA"
)

// ProgramCodes lists every code in report order.
var ProgramCodes = []ProgramCode{
	ProgramTSUA, ProgramTSUM, ProgramTSUF,
	ProgramIAM, ProgramIDMA, ProgramIECSA, ProgramIMA,
	ProgramMIA,
}

// ParseProgramCode matches s against the known codes, ignoring case.
func ParseProgramCode(s string) (ProgramCode, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range ProgramCodes {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Record is one enrollment or graduate row.
type Record struct {
	Fields  map[string]string `json:"fields"`
	Level   string            `json:"level"`
	Program ProgramCode       `json:"program,omitempty"`
}

// Get returns the trimmed value of col, or "".
func (r Record) Get(col string) string {
	return strings.TrimSpace(r.Fields[col])
}

// Name returns the program name.
func (r Record) Name() string { return r.Get(ColProgram) }

// CountRow is one row of a value-count table.
type CountRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// EfficiencyRow is the terminal-efficiency figure for one program.
type EfficiencyRow struct {
	Program    ProgramCode `json:"programa"`
	Graduates  int         `json:"egresados"`
	Admissions int         `json:"ingresos"`
	Efficiency Num         `json:"eficiencia"`
}
