// Package format renders numbers and statuses for the report tables.
package format

import (
	"math"
	"strconv"

	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/normalize"
)

// Value renders n for display. Missing is "". Percentage rows show one
// decimal and a "%" sign, scaling proportions in [0,1] by 100. Other values
// print as integers when whole and with one decimal otherwise.
func Value(n model.Num, isPct bool) string {
	if n.IsMissing() {
		return ""
	}
	v := n.Value
	if isPct {
		if v >= 0 && v <= 1 {
			v *= 100
		}
		return strconv.FormatFloat(v, 'f', 1, 64) + "%"
	}
	if normalize.IsWhole(v) {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Ratio renders a proportion as a percentage with one decimal, always
// scaling by 100.
func Ratio(n model.Num) string {
	if n.IsMissing() {
		return ""
	}
	return strconv.FormatFloat(n.Value*100, 'f', 1, 64) + "%"
}

// Decimal renders n with the given number of decimals, or "".
func Decimal(n model.Num, places int) string {
	if n.IsMissing() {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', places, 64)
}

// Date is the dd/mm/yyyy layout used in report headers.
const Date = "02/01/2006"
