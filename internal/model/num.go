package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Num is a numeric cell value that may be missing. Missing is distinct from
// zero and never carries NaN or infinities.
type Num struct {
	Value float64
	Valid bool
}

// Some returns a present Num. Non-finite values become missing.
func Some(v float64) Num {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Num{}
	}
	return Num{Value: v, Valid: true}
}

// Missing returns the missing value.
func Missing() Num { return Num{} }

// IsMissing reports whether n carries no value.
func (n Num) IsMissing() bool { return !n.Valid }

// Or returns the value, or def when missing.
func (n Num) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

func (n Num) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// MarshalJSON encodes a missing value as null.
func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts a number or null.
func (n *Num) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Num{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}
