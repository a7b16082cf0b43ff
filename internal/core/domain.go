package core

import (
	"strconv"
	"time"
)

// Field names of the working vocabulary. They are the snapshot header,
// the JSON keys of the API and the keys used in logs.
const (
	FieldYear             = "year"
	FieldSeniority        = "seniority"
	FieldContractType     = "contract_type"
	FieldJobTitle         = "job_title"
	FieldSalaryAmount     = "salary_amount"
	FieldSalaryCurrency   = "salary_currency"
	FieldSalaryUSD        = "salary_usd"
	FieldResidenceCountry = "residence_country"
	FieldRemoteRatio      = "remote_ratio"
	FieldCompanyLocation  = "company_location"
	FieldCompanySize      = "company_size"
)

// Columns lists the working vocabulary in snapshot column order.
var Columns = []string{
	FieldYear,
	FieldSeniority,
	FieldContractType,
	FieldJobTitle,
	FieldSalaryAmount,
	FieldSalaryCurrency,
	FieldSalaryUSD,
	FieldResidenceCountry,
	FieldRemoteRatio,
	FieldCompanyLocation,
	FieldCompanySize,
}

type (
	// Record is one normalized salary observation. Categorical fields hold
	// decoded display labels.
	Record struct {
		Year             int     `json:"year"`
		Seniority        string  `json:"seniority"`
		ContractType     string  `json:"contract_type"`
		JobTitle         string  `json:"job_title"`
		SalaryAmount     float64 `json:"salary_amount"`
		SalaryCurrency   string  `json:"salary_currency"`
		SalaryUSD        float64 `json:"salary_usd"`
		ResidenceCountry string  `json:"residence_country"` // ISO 3166 alpha-2
		RemoteRatio      string  `json:"remote_ratio"`
		CompanyLocation  string  `json:"company_location"`
		CompanySize      string  `json:"company_size"`
	}

	// Table is the normalized dataset of one load. It is never modified
	// after construction; filters produce new slices.
	Table struct {
		Records  []Record
		Source   string
		LoadedAt time.Time
		RawRows  int
		Dropped  int
	}
)

// Values renders the record as strings in Columns order.
func (r Record) Values() []string {
	return []string{
		strconv.Itoa(r.Year),
		r.Seniority,
		r.ContractType,
		r.JobTitle,
		formatFloat(r.SalaryAmount),
		r.SalaryCurrency,
		formatFloat(r.SalaryUSD),
		r.ResidenceCountry,
		r.RemoteRatio,
		r.CompanyLocation,
		r.CompanySize,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TableStats is the row accounting of one load.
type TableStats struct {
	RawRows     int `json:"raw_rows"`
	KeptRows    int `json:"kept_rows"`
	DroppedRows int `json:"dropped_rows"`
}

// Stats reports how many raw rows were read, kept and dropped.
func (t *Table) Stats() TableStats {
	if t == nil {
		return TableStats{}
	}
	return TableStats{RawRows: t.RawRows, KeptRows: len(t.Records), DroppedRows: t.Dropped}
}

// Len returns the number of records; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
