package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune   // default ','
	Comment    rune   // comment character (0 = none)
	Encoding   string // e.g. "windows-1252"; empty means UTF-8
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads a CSV file and sends rows to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		if opts.Encoding != "" {
			enc, err := htmlindex.Get(opts.Encoding)
			if err != nil {
				errCh <- eris.Wrapf(err, "csv: unsupported encoding %q", opts.Encoding)
				return
			}
			r = enc.NewDecoder().Reader(r)
		}

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if first && len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
			}
			first = false

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV drains StreamCSV into memory.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([][]string, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}
