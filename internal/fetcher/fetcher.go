// Package fetcher reads spreadsheet inputs (XLSX and CSV) into header-keyed tables.
package fetcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a supported input file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the reader from the file extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	}
	return "", eris.Errorf("fetcher: unsupported file format %q", filepath.Ext(name))
}

// LoadOptions selects what to read from an input file.
type LoadOptions struct {
	XLSX XLSXOptions
	CSV  CSVOptions
}

// LoadFile reads a file from disk into a Table.
func LoadFile(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", path)
	}
	return LoadBytes(ctx, path, data, opts)
}

// LoadBytes reads in-memory file contents into a Table. The name is only
// used to detect the format.
func LoadBytes(ctx context.Context, name string, data []byte, opts LoadOptions) (*Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		wb, err := OpenWorkbookBytes(data)
		if err != nil {
			return nil, err
		}
		rows, err = wb.Rows(opts.XLSX)
		if err != nil {
			return nil, err
		}
	case FormatCSV:
		rows, err = ReadCSV(ctx, bytes.NewReader(data), opts.CSV)
		if err != nil {
			return nil, err
		}
	}
	return NewTable(rows), nil
}
