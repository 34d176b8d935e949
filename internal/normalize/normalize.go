// Package normalize converts raw spreadsheet cells into numbers and builds
// the normalized identity keys used to join indicator rows.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/unaq/indicator-report/internal/model"
)

// missingSentinels are compared after trimming and upper-casing.
var missingSentinels = map[string]bool{
	"":     true,
	"N/A":  true,
	"NA":   true,
	"NONE": true,
}

// ParseNum converts cell text into a number or missing. It never fails:
// anything unparseable is missing.
//  1. Trimming whitespace
//  2. Replacing the decimal comma with a point
//  3. Treating N/A, NA, None and blank as missing
//  4. Stripping one trailing "%" without scaling
func ParseNum(s string) model.Num {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if missingSentinels[strings.ToUpper(s)] {
		return model.Missing()
	}
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Missing()
	}
	return model.Some(v)
}

// ToNum converts an arbitrary cell value into a number or missing.
func ToNum(v any) model.Num {
	switch x := v.(type) {
	case nil:
		return model.Missing()
	case model.Num:
		if !x.Valid {
			return x
		}
		return model.Some(x.Value)
	case float64:
		return model.Some(x)
	case float32:
		return model.Some(float64(x))
	case int:
		return model.Some(float64(x))
	case int32:
		return model.Some(float64(x))
	case int64:
		return model.Some(float64(x))
	case string:
		return ParseNum(x)
	case []byte:
		return ParseNum(string(x))
	}
	return model.Missing()
}

// IsPercentText reports whether the raw cell text carries a percent sign.
func IsPercentText(s string) bool {
	return strings.Contains(s, "%")
}

// Text lowercases and trims s. Inner whitespace and accents are kept.
func Text(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Key builds the join key for an indicator and responsible pair.
func Key(indicator, responsible string) model.Key {
	return model.Key{Indicator: Text(indicator), Responsible: Text(responsible)}
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// Fold strips accents, lowercases and collapses inner whitespace. It is
// looser than Text and only used to suggest near-miss matches.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = multiSpaceRe.ReplaceAllString(strings.TrimSpace(out), " ")
	return strings.ToLower(out)
}

// FoldKey is Key with Fold applied to both parts.
func FoldKey(indicator, responsible string) model.Key {
	return model.Key{Indicator: Fold(indicator), Responsible: Fold(responsible)}
}

// IsWhole reports whether v is within 1e-9 of an integer.
func IsWhole(v float64) bool {
	return math.Abs(v-math.Round(v)) < 1e-9
}
