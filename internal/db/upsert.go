package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig defines the parameters for an upsert.
type UpsertConfig struct {
	Table        string   // target table (e.g., "report.captures")
	Columns      []string // all columns being inserted
	ConflictKeys []string // columns forming the unique constraint
	UpdateCols   []string // columns to update on conflict; nil = all non-conflict columns
}

// UpsertSQL builds INSERT ... ON CONFLICT (keys) DO UPDATE SET ... with one
// positional parameter per column.
func UpsertSQL(cfg UpsertConfig) (string, error) {
	if len(cfg.Columns) == 0 {
		return "", eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return "", eris.New("db: upsert: no conflict keys specified")
	}

	updateCols := cfg.UpdateCols
	if updateCols == nil {
		conflictSet := make(map[string]bool, len(cfg.ConflictKeys))
		for _, k := range cfg.ConflictKeys {
			conflictSet[k] = true
		}
		for _, c := range cfg.Columns {
			if !conflictSet[c] {
				updateCols = append(updateCols, c)
			}
		}
	}

	params := make([]string, len(cfg.Columns))
	for i := range cfg.Columns {
		params[i] = fmt.Sprintf("$%d", i+1)
	}

	action := "DO NOTHING"
	if len(updateCols) > 0 {
		setClauses := make([]string, len(updateCols))
		for i, col := range updateCols {
			setClauses[i] = fmt.Sprintf("%s = EXCLUDED.%s", pgx.Identifier{col}.Sanitize(), pgx.Identifier{col}.Sanitize())
		}
		action = "DO UPDATE SET " + strings.Join(setClauses, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		sanitizeTable(cfg.Table),
		quoteAndJoin(cfg.Columns),
		strings.Join(params, ", "),
		quoteAndJoin(cfg.ConflictKeys),
		action,
	), nil
}

// Upsert writes each row with UpsertSQL and returns the rows affected.
func Upsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	sql, err := UpsertSQL(cfg)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, row := range rows {
		if len(row) != len(cfg.Columns) {
			return n, eris.Errorf("db: upsert: row has %d values, want %d", len(row), len(cfg.Columns))
		}
		tag, err := pool.Exec(ctx, sql, row...)
		if err != nil {
			return n, eris.Wrapf(err, "db: upsert into %s", cfg.Table)
		}
		n += tag.RowsAffected()
	}
	return n, nil
}

// sanitizeTable handles schema-qualified table names like "report.captures".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
