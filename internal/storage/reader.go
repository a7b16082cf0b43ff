package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"datajobs/internal/core"
	apperrors "datajobs/internal/errors"
)

// ReadSnapshot loads a snapshot file written by CSVSnapshot.
func ReadSnapshot(path string) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NotFound("snapshot "+path, err)
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	table, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	table.Source = "csv:" + path
	return table, nil
}

// ReadRecords decodes CSV in Columns order, header included.
func ReadRecords(r io.Reader) (*core.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(core.Columns)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, apperrors.Schema("empty snapshot", nil)
	}
	if err != nil {
		return nil, apperrors.Schema("snapshot header", err)
	}
	for i, col := range core.Columns {
		if strings.TrimSpace(header[i]) != col {
			return nil, apperrors.Schema(fmt.Sprintf("snapshot column %d is %q, want %q", i+1, header[i], col), nil)
		}
	}

	table := &core.Table{}
	for line := 2; ; line++ {
		values, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Schema(fmt.Sprintf("snapshot line %d", line), err)
		}
		rec, err := recordFromValues(values)
		if err != nil {
			return nil, apperrors.Schema(fmt.Sprintf("snapshot line %d", line), err)
		}
		table.Records = append(table.Records, rec)
	}
	table.RawRows = len(table.Records)
	return table, nil
}

func recordFromValues(v []string) (core.Record, error) {
	year, err := strconv.Atoi(v[0])
	if err != nil {
		return core.Record{}, fmt.Errorf("year %q: %w", v[0], err)
	}
	amount, err := core.ParseAmount(v[4])
	if err != nil {
		return core.Record{}, fmt.Errorf("salary amount %q: %w", v[4], err)
	}
	usd, err := core.ParseAmount(v[6])
	if err != nil {
		return core.Record{}, fmt.Errorf("salary usd %q: %w", v[6], err)
	}
	return core.Record{
		Year:             year,
		Seniority:        v[1],
		ContractType:     v[2],
		JobTitle:         v[3],
		SalaryAmount:     amount,
		SalaryCurrency:   v[5],
		SalaryUSD:        usd,
		ResidenceCountry: v[7],
		RemoteRatio:      v[8],
		CompanyLocation:  v[9],
		CompanySize:      v[10],
	}, nil
}
