package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"datajobs/internal/core"
	"datajobs/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() engine.FilterSpec {
	return engine.FilterSpec{
		Years:         []int{2021, 2022},
		Seniority:     []string{"Junior", "Senior"},
		ContractTypes: []string{"Integral"},
		CompanySizes:  []string{"Média"},
		JobTitle:      engine.AllJobTitles,
	}
}

func sampleTable() *core.Table {
	return &core.Table{Records: []core.Record{
		{Year: 2021, Seniority: "Junior", ContractType: "Integral", JobTitle: "Data Analyst", SalaryUSD: 50000, ResidenceCountry: "BR", RemoteRatio: core.RemoteOnSite, CompanySize: "Média"},
		{Year: 2022, Seniority: "Senior", ContractType: "Integral", JobTitle: "Data Engineer", SalaryUSD: 150000, ResidenceCountry: "US", RemoteRatio: core.RemoteFull, CompanySize: "Média"},
	}}
}

func TestApplyFlags(t *testing.T) {
	spec, err := ApplyFlags(map[string]string{
		FlagYears:     "2022, 2021",
		FlagSeniority: "",
		FlagJobTitle:  " Data Engineer ",
	}, defaults())
	require.NoError(t, err)

	assert.Equal(t, []int{2022, 2021}, spec.Years)
	assert.Equal(t, []string{}, spec.Seniority)
	assert.Equal(t, []string{"Integral"}, spec.ContractTypes)
	assert.Equal(t, "Data Engineer", spec.JobTitle)

	_, err = ApplyFlags(map[string]string{FlagYears: "2021,abc"}, defaults())
	assert.EqualError(t, err, `invalid year "abc"`)
}

func TestWriteText(t *testing.T) {
	table := sampleTable()
	res := engine.Recompute(table, engine.DefaultSpec(table), engine.WithResolver(core.ResolveISO3))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, FormatText))

	out := buf.String()
	assert.Contains(t, out, "$100,000.00")
	assert.Contains(t, out, "Top 10 Cargos")
	assert.Contains(t, out, "USA")
	assert.Contains(t, out, "50.0%")
}

func TestWriteTextEmpty(t *testing.T) {
	table := sampleTable()
	spec := engine.DefaultSpec(table)
	spec.Years = []int{}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, engine.Recompute(table, spec), FormatText))
	assert.Contains(t, buf.String(), "Nenhum dado encontrado")
	assert.Contains(t, buf.String(), engine.NotAvailable)
}

func TestWriteJSON(t *testing.T) {
	table := sampleTable()
	res := engine.Recompute(table, engine.DefaultSpec(table), engine.WithoutRecords())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, FormatJSON))

	var decoded engine.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Summary.Count)

	assert.Error(t, Write(&buf, res, "yaml"))
}
