// Package memory serves the dataset from memory or from a local CSV file.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	apperrors "datajobs/internal/errors"
	"datajobs/internal/sources"
)

var _ sources.DatasetSource = (*Source)(nil)

// Source returns a fixed table, or re-reads a CSV file on every Fetch.
type Source struct {
	mu     sync.Mutex
	table  sources.RawTable
	path   string
	name   string
	copies int
}

// New serves table as is. Each Fetch returns a copy of the rows slice.
func New(table sources.RawTable) *Source {
	name := table.Origin
	if name == "" {
		name = "memory"
	}
	return &Source{table: table, name: name}
}

// NewFromFile reads path on every Fetch.
func NewFromFile(path string) *Source {
	return &Source{path: path, name: "file:" + path}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Fetch(ctx context.Context) (sources.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return sources.RawTable{}, err
	}
	if s.path != "" {
		return s.readFile()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.copies++
	out := sources.RawTable{
		Header: append([]string(nil), s.table.Header...),
		Rows:   make([][]string, len(s.table.Rows)),
		Origin: s.name,
	}
	for i, r := range s.table.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out, nil
}

// Fetches reports how many in-memory fetches were served.
func (s *Source) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copies
}

func (s *Source) readFile() (sources.RawTable, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return sources.RawTable{}, apperrors.Unavailable(fmt.Sprintf("opening %s", s.path), err)
	}
	defer f.Close()
	return sources.ParseCSV(f, s.name)
}
