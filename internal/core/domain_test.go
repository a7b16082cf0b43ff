package core

import (
	"testing"
)

func TestRecordValuesFollowColumnOrder(t *testing.T) {
	r := Record{
		Year:             2023,
		Seniority:        SenioritySenior,
		ContractType:     ContractFullTime,
		JobTitle:         "Data Scientist",
		SalaryAmount:     80000,
		SalaryCurrency:   "EUR",
		SalaryUSD:        85847.5,
		ResidenceCountry: "ES",
		RemoteRatio:      RemoteFull,
		CompanyLocation:  "ES",
		CompanySize:      CompanyLarge,
	}

	got := r.Values()
	if len(got) != len(Columns) {
		t.Fatalf("expected %d values, got %d", len(Columns), len(got))
	}
	want := []string{"2023", "Senior", "Tempo Integral", "Data Scientist", "80000", "EUR", "85847.5", "ES", "Remoto", "ES", "Grande"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %s: expected %q, got %q", Columns[i], want[i], got[i])
		}
	}
}

func TestTableLen(t *testing.T) {
	var nilTable *Table
	if nilTable.Len() != 0 {
		t.Fatalf("nil table should be empty")
	}
	tbl := &Table{Records: make([]Record, 3)}
	if tbl.Len() != 3 {
		t.Fatalf("expected 3, got %d", tbl.Len())
	}
}
