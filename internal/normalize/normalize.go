// Package normalize turns a raw salary dataset into a core.Table.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"datajobs/internal/core"
	apperrors "datajobs/internal/errors"
	"datajobs/internal/sources"
)

// Rename maps the dataset's column names onto the working vocabulary.
var Rename = []struct{ From, To string }{
	{"work_year", core.FieldYear},
	{"experience_level", core.FieldSeniority},
	{"employment_type", core.FieldContractType},
	{"job_title", core.FieldJobTitle},
	{"salary", core.FieldSalaryAmount},
	{"salary_currency", core.FieldSalaryCurrency},
	{"salary_in_usd", core.FieldSalaryUSD},
	{"employee_residence", core.FieldResidenceCountry},
	{"remote_ratio", core.FieldRemoteRatio},
	{"company_location", core.FieldCompanyLocation},
	{"company_size", core.FieldCompanySize},
}

// nullMarkers are cell values treated as missing, compared after trimming.
// "NA" is not among them: it is Namibia's country code.
var nullMarkers = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"NAN":  {},
	"-nan": {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"N/A":  {},
	"n/a":  {},
	"#N/A": {},
	"#NA":  {},
	"<NA>": {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(cell string) bool {
	_, ok := nullMarkers[strings.TrimSpace(cell)]
	return ok
}

// Normalize renames, drops incomplete rows, decodes categorical codes and
// coerces numeric columns. A missing column is a schema error; a value that
// cannot be coerced is an invalid-input error. Row order is preserved.
func Normalize(raw sources.RawTable) (*core.Table, error) {
	idx, err := columnIndex(raw)
	if err != nil {
		return nil, err
	}

	table := &core.Table{
		Source:  raw.Origin,
		RawRows: len(raw.Rows),
		Records: make([]core.Record, 0, len(raw.Rows)),
	}

	for n, row := range raw.Rows {
		cells, complete := pick(row, idx)
		if !complete {
			table.Dropped++
			continue
		}
		rec, err := toRecord(cells)
		if err != nil {
			// header is line 1
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s: line %d: %s", raw.Origin, n+2, err.Error()), nil)
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// columnIndex resolves every renamed column, reporting all that are absent.
func columnIndex(raw sources.RawTable) ([]int, error) {
	idx := make([]int, len(Rename))
	var missing []string
	for i, r := range Rename {
		idx[i] = raw.Index(r.From)
		if idx[i] < 0 {
			missing = append(missing, r.From)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Schema(fmt.Sprintf("%s: missing columns: %s", raw.Origin, strings.Join(missing, ", ")), nil)
	}
	return idx, nil
}

// pick returns the renamed cells of row in Rename order, trimmed.
func pick(row []string, idx []int) ([]string, bool) {
	cells := make([]string, len(idx))
	for i, j := range idx {
		if j >= len(row) || IsMissing(row[j]) {
			return nil, false
		}
		cells[i] = strings.TrimSpace(row[j])
	}
	return cells, true
}

func toRecord(c []string) (core.Record, error) {
	year, err := parseYear(c[0])
	if err != nil {
		return core.Record{}, fmt.Errorf("column %s: %q is not an integer year", core.FieldYear, c[0])
	}
	amount, err := core.ParseAmount(c[4])
	if err != nil {
		return core.Record{}, fmt.Errorf("column %s: %q is not a number", core.FieldSalaryAmount, c[4])
	}
	usd, err := core.ParseAmount(c[6])
	if err != nil {
		return core.Record{}, fmt.Errorf("column %s: %q is not a number", core.FieldSalaryUSD, c[6])
	}

	return core.Record{
		Year:             year,
		Seniority:        core.DecodeSeniority(c[1]),
		ContractType:     core.DecodeContractType(c[2]),
		JobTitle:         c[3],
		SalaryAmount:     amount,
		SalaryCurrency:   c[5],
		SalaryUSD:        usd,
		ResidenceCountry: c[7],
		RemoteRatio:      core.DecodeRemoteRatio(c[8]),
		CompanyLocation:  c[9],
		CompanySize:      core.DecodeCompanySize(c[10]),
	}, nil
}

// parseYear accepts "2023" and float spellings with no fraction such as "2023.0".
func parseYear(s string) (int, error) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}
