// Package indicator selects effective targets, pools indicator results and
// reconciles them against the target sheet.
package indicator

import (
	"strings"

	"github.com/unaq/indicator-report/internal/fetcher"
	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/normalize"
)

// Target sheet columns.
const (
	ColIndicator   = "Indicador"
	ColProcess     = "proceso"
	ColPeriodicity = "Periodicidad"
	ColResponsible = "Responsable"
)

// TargetSheet is the preferred sheet name for targets.
const TargetSheet = "Hoja2"

// TargetColumns lists the required target-sheet columns.
var TargetColumns = []string{
	ColIndicator, ColProcess, ColPeriodicity, ColResponsible,
	string(model.EneAbr), string(model.MayAgo), string(model.SepDic),
}

// ParseTargets reads target rows. Every required column must be present;
// the error lists the missing ones.
func ParseTargets(sheet string, tbl *fetcher.Table) ([]model.TargetRow, error) {
	if sheet == "" {
		sheet = TargetSheet
	}
	if err := tbl.Require(sheet, TargetColumns...); err != nil {
		return nil, err
	}

	rows := make([]model.TargetRow, 0, tbl.Len())
	for _, r := range tbl.Rows {
		raw := map[model.PeriodColumn]string{}
		pct := false
		for _, col := range model.PeriodColumns {
			raw[col] = tbl.Get(r, string(col))
			if normalize.IsPercentText(raw[col]) {
				pct = true
			}
		}
		rows = append(rows, model.TargetRow{
			Indicator:   strings.TrimSpace(tbl.Get(r, ColIndicator)),
			Process:     strings.TrimSpace(tbl.Get(r, ColProcess)),
			Periodicity: strings.TrimSpace(tbl.Get(r, ColPeriodicity)),
			Responsible: strings.TrimSpace(tbl.Get(r, ColResponsible)),
			EneAbr:      normalize.ParseNum(raw[model.EneAbr]),
			MayAgo:      normalize.ParseNum(raw[model.MayAgo]),
			SepDic:      normalize.ParseNum(raw[model.SepDic]),
			IsPercent:   pct,
		})
	}
	return rows, nil
}

// EffectiveTarget picks the target for the preferred column. When it is
// missing and exactly one of the other two columns has a value, that value
// is used; otherwise the target is missing.
func EffectiveTarget(row model.TargetRow, preferred model.PeriodColumn) model.Num {
	if t := row.Target(preferred); t.Valid {
		return t
	}
	var found []model.Num
	for _, col := range model.PeriodColumns {
		if col == preferred {
			continue
		}
		if t := row.Target(col); t.Valid {
			found = append(found, t)
		}
	}
	if len(found) == 1 {
		return found[0]
	}
	return model.Missing()
}
