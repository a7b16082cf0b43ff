// Package sources defines where the raw salary dataset comes from.
package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "datajobs/internal/errors"
)

type (
	// RawTable is a dataset exactly as read: a header and string cells.
	// Rows may be shorter than the header; missing cells count as missing values.
	RawTable struct {
		Header []string
		Rows   [][]string
		Origin string
	}

	// DatasetSource fetches the raw dataset. Implementations perform no
	// retries and no fallback: a failure is returned as is.
	DatasetSource interface {
		Fetch(ctx context.Context) (RawTable, error)
		Name() string
	}
)

// Index returns the position of column name in the header, or -1.
func (t RawTable) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ParseCSV reads a comma separated dataset whose first record is the header.
// Structural problems (no header, bad quoting, rows wider than the header)
// are reported as schema errors.
func ParseCSV(r io.Reader, origin string) (RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return RawTable{}, apperrors.Schema(fmt.Sprintf("%s: empty dataset", origin), nil)
	}
	if err != nil {
		return RawTable{}, apperrors.Schema(fmt.Sprintf("%s: malformed header", origin), err)
	}

	table := RawTable{Header: cleanHeader(header), Origin: origin}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return RawTable{}, apperrors.Schema(fmt.Sprintf("%s: malformed csv", origin), err)
		}
		if len(row) > len(table.Header) {
			line, _ := reader.FieldPos(0)
			return RawTable{}, apperrors.Schema(
				fmt.Sprintf("%s: line %d has %d fields, header has %d", origin, line, len(row), len(table.Header)), nil)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
