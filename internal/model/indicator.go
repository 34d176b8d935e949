package model

// Key identifies an indicator row by its normalized indicator text and
// normalized responsible party.
type Key struct {
	Indicator   string `json:"indicator"`
	Responsible string `json:"responsible"`
}

// TargetRow is one row of the target sheet.
type TargetRow struct {
	Indicator   string `json:"indicador"`
	Process     string `json:"proceso"`
	Periodicity string `json:"periodicidad"`
	Responsible string `json:"responsable"`
	EneAbr      Num    `json:"meta_ene_abr"`
	MayAgo      Num    `json:"meta_may_ago"`
	SepDic      Num    `json:"meta_sep_dic"`
	// IsPercent is set when any raw period cell carried a "%" sign.
	IsPercent bool `json:"is_percent"`
}

// Target returns the target for the given period column.
func (t TargetRow) Target(col PeriodColumn) Num {
	switch col {
	case EneAbr:
		return t.EneAbr
	case MayAgo:
		return t.MayAgo
	case SepDic:
		return t.SepDic
	}
	return Missing()
}

// Source tells where a result came from.
type Source string

const (
	SourceManual     Source = "manual"
	SourceEnrollment Source = "enrollment"
	SourceGraduates  Source = "graduates"
)

// ResultRow is one computed or captured indicator value.
type ResultRow struct {
	Indicator   string `json:"indicador"`
	Responsible string `json:"responsable"`
	Result      Num    `json:"resultado"`
	Source      Source `json:"source"`
}

// Status classifies a result against its effective target.
type Status string

const (
	StatusOnTarget    Status = "on-target"
	StatusBelowTarget Status = "below-target"
	StatusPending     Status = "pending"
	StatusNoData      Status = "no-data"
)

var statusLabels = map[Status]string{
	StatusOnTarget:    "verde",
	StatusBelowTarget: "rojo",
	StatusPending:     "pendiente",
	StatusNoData:      "sin dato",
}

var statusSemaphores = map[Status]string{
	StatusOnTarget:    "🟢 Verde",
	StatusBelowTarget: "🔴 Rojo",
	StatusPending:     "🟡 Pendiente",
	StatusNoData:      "⚪ Sin dato",
}

// Label returns the Spanish display label.
func (s Status) Label() string { return statusLabels[s] }

// Semaphore returns the traffic-light label.
func (s Status) Semaphore() string { return statusSemaphores[s] }

// ComparisonRow is one output row of the reconciliation join.
type ComparisonRow struct {
	Target    TargetRow `json:"target"`
	Effective Num       `json:"meta_efectiva"`
	Result    Num       `json:"resultado"`
	Status    Status    `json:"estatus"`
	Matched   bool      `json:"matched"`
	Source    Source    `json:"source,omitempty"`
}
