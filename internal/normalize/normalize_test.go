package normalize

import (
	"strings"
	"testing"

	"datajobs/internal/core"
	apperrors "datajobs/internal/errors"
	"datajobs/internal/sources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{
	"work_year", "experience_level", "employment_type", "job_title", "salary",
	"salary_currency", "salary_in_usd", "employee_residence", "remote_ratio",
	"company_location", "company_size",
}

func raw(rows ...string) sources.RawTable {
	t := sources.RawTable{Header: header, Origin: "test"}
	for _, r := range rows {
		t.Rows = append(t.Rows, strings.Split(r, ";"))
	}
	return t
}

func TestNormalizeDecodesAndCoerces(t *testing.T) {
	table, err := Normalize(raw(
		"2023;SE;FT;Data Scientist;80000;EUR;85847;ES;100;ES;L",
		"2022.0;EN;CT;Data Analyst;50000;USD;50000;US;50.0;US;S",
		"2021;XX;ZZ;ML Engineer;90000;USD;90000;BR;75;BR;XL",
	))
	require.NoError(t, err)
	require.Len(t, table.Records, 3)

	first := table.Records[0]
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, "Senior", first.Seniority)
	assert.Equal(t, "Tempo Integral", first.ContractType)
	assert.Equal(t, "Remoto", first.RemoteRatio)
	assert.Equal(t, "Grande", first.CompanySize)
	assert.Equal(t, 85847.0, first.SalaryUSD)
	assert.Equal(t, "ES", first.ResidenceCountry)

	second := table.Records[1]
	assert.Equal(t, 2022, second.Year)
	assert.Equal(t, "Junior", second.Seniority)
	assert.Equal(t, "Contrato", second.ContractType)
	assert.Equal(t, "Hibrido", second.RemoteRatio)
	assert.Equal(t, "Pequena", second.CompanySize)

	unknown := table.Records[2]
	assert.Equal(t, "XX", unknown.Seniority)
	assert.Equal(t, "ZZ", unknown.ContractType)
	assert.Equal(t, "75", unknown.RemoteRatio)
	assert.Equal(t, "XL", unknown.CompanySize)

	assert.Equal(t, core.TableStats{RawRows: 3, KeptRows: 3, DroppedRows: 0}, table.Stats())
	assert.Equal(t, "test", table.Source)
}

func TestNormalizeDropsIncompleteRows(t *testing.T) {
	table, err := Normalize(raw(
		"2023;SE;FT;Data Scientist;80000;EUR;85847;ES;100;ES;L",
		"2023;SE;FT;;80000;EUR;85847;ES;100;ES;L",
		"2023;SE;FT;Data Scientist;80000;EUR;NaN;ES;100;ES;L",
		"2023;SE;FT;Data Scientist;80000;EUR;85847;ES;100;ES",
		"2023;MI;FT;Data Scientist;80000;EUR;85847;NA;100;NA;M",
		"2023;SE;FT;Data Scientist;N/A;EUR;85847;ES;100;ES;L",
	))
	require.NoError(t, err)

	assert.Equal(t, core.TableStats{RawRows: 6, KeptRows: 2, DroppedRows: 4}, table.Stats())
	assert.Equal(t, "NA", table.Records[1].ResidenceCountry, "Namibia must survive")
}

func TestNormalizeIgnoresExtraColumnsAndOrder(t *testing.T) {
	reordered := append([]string{"extra"}, header...)
	reordered[1], reordered[2] = reordered[2], reordered[1]
	in := sources.RawTable{
		Header: reordered,
		Rows:   [][]string{{"x", "SE", "2024", "FT", "Engineer", "1", "USD", "1", "US", "0", "US", "M"}},
	}

	table, err := Normalize(in)
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, 2024, table.Records[0].Year)
	assert.Equal(t, "Senior", table.Records[0].Seniority)
	assert.Equal(t, "Presencial", table.Records[0].RemoteRatio)
}

func TestNormalizeMissingColumnsIsSchemaError(t *testing.T) {
	in := sources.RawTable{Header: []string{"work_year", "job_title"}, Origin: "test"}

	_, err := Normalize(in)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeSchema, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "salary_in_usd")
	assert.Contains(t, err.Error(), "experience_level")
	assert.NotContains(t, err.Error(), "job_title,")
}

func TestNormalizeCoercionFailure(t *testing.T) {
	cases := map[string]string{
		"year":   "twenty;SE;FT;DS;1;USD;1;US;0;US;M",
		"frac":   "2023.5;SE;FT;DS;1;USD;1;US;0;US;M",
		"salary": "2023;SE;FT;DS;lots;USD;1;US;0;US;M",
		"usd":    "2023;SE;FT;DS;1;USD;1k;US;0;US;M",
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(raw("2023;SE;FT;DS;1;USD;1;US;0;US;M", row))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrTypeInvalidInput, apperrors.TypeOf(err))
			assert.Contains(t, err.Error(), "line 3")
		})
	}
}

func TestNormalizeEmptyDataset(t *testing.T) {
	table, err := Normalize(sources.RawTable{Header: header})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestIsMissing(t *testing.T) {
	for _, v := range []string{"", "  ", "NaN", "nan", "null", "N/A", "#N/A", "None"} {
		assert.True(t, IsMissing(v), v)
	}
	for _, v := range []string{"NA", "0", "US", "Todos"} {
		assert.False(t, IsMissing(v), v)
	}
}
