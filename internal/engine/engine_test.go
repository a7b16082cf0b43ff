package engine

import (
	"testing"

	"datajobs/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordOption func(*core.Record)

func withYear(y int) recordOption         { return func(r *core.Record) { r.Year = y } }
func withTitle(t string) recordOption     { return func(r *core.Record) { r.JobTitle = t } }
func withUSD(v float64) recordOption      { return func(r *core.Record) { r.SalaryUSD = v } }
func withSeniority(s string) recordOption { return func(r *core.Record) { r.Seniority = s } }
func withSize(s string) recordOption      { return func(r *core.Record) { r.CompanySize = s } }
func withRemote(s string) recordOption    { return func(r *core.Record) { r.RemoteRatio = s } }
func withResidence(c string) recordOption { return func(r *core.Record) { r.ResidenceCountry = c } }
func withContract(c string) recordOption  { return func(r *core.Record) { r.ContractType = c } }

func newRecord(opts ...recordOption) core.Record {
	r := core.Record{
		Year:             2022,
		Seniority:        core.SenioritySenior,
		ContractType:     core.ContractFullTime,
		JobTitle:         "Data Scientist",
		SalaryAmount:     100000,
		SalaryCurrency:   "USD",
		SalaryUSD:        100000,
		ResidenceCountry: "US",
		RemoteRatio:      core.RemoteFull,
		CompanyLocation:  "US",
		CompanySize:      core.CompanyMedium,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// fiveRecords spans 2021 and 2022.
func fiveRecords() *core.Table {
	return &core.Table{Records: []core.Record{
		newRecord(withYear(2021), withUSD(50000), withTitle("Data Analyst"), withResidence("BR"), withRemote(core.RemoteOnSite)),
		newRecord(withYear(2021), withUSD(70000), withTitle("Data Engineer"), withSeniority(core.SeniorityPleno)),
		newRecord(withYear(2022), withUSD(100000), withTitle("Data Scientist")),
		newRecord(withYear(2022), withUSD(120000), withTitle("Data Engineer"), withResidence("DE"), withRemote(core.RemoteHybrid)),
		newRecord(withYear(2022), withUSD(200000), withTitle("Data Scientist"), withSize(core.CompanyLarge), withContract(core.ContractContract)),
	}}
}

func TestFilterSingleYearScenario(t *testing.T) {
	table := fiveRecords()
	spec := DefaultSpec(table)
	spec.Years = []int{2022}

	res := Recompute(table, spec)

	require.Len(t, res.Records, 3)
	for _, r := range res.Records {
		assert.Equal(t, 2022, r.Year)
	}

	s := res.Summary
	require.Len(t, s.YearlyStats, 1)
	ys := s.YearlyStats[0]
	assert.Equal(t, ys.Mean, s.MeanSalary)
	assert.Equal(t, ys.Max, s.MaxSalary)
	assert.Equal(t, ys.Min, s.MinSalary)
	assert.Equal(t, ys.Median, s.MedianSalary)
	assert.InDelta(t, 140000.0, s.MeanSalary, 1e-9)
	assert.Equal(t, 200000.0, s.MaxSalary)
	assert.Equal(t, 100000.0, s.MinSalary)
	assert.Equal(t, 120000.0, s.MedianSalary)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 5, res.TotalRows)
}

func TestFilterOutputIsSubsetAndMembers(t *testing.T) {
	table := fiveRecords()
	specs := []FilterSpec{
		DefaultSpec(table),
		{Years: []int{2021}, Seniority: []string{core.SeniorityPleno}, ContractTypes: []string{core.ContractFullTime}, CompanySizes: []string{core.CompanyMedium}},
		{Years: []int{2021, 2022}, Seniority: []string{core.SenioritySenior}, ContractTypes: []string{core.ContractFullTime, core.ContractContract}, CompanySizes: []string{core.CompanyMedium, core.CompanyLarge}, JobTitle: "Data Scientist"},
		{Years: []int{1999}, Seniority: []string{"x"}, ContractTypes: []string{"y"}, CompanySizes: []string{"z"}},
	}

	for _, spec := range specs {
		out := Filter(table.Records, spec)
		for _, r := range out {
			assert.Contains(t, table.Records, r)
			assert.Contains(t, spec.Years, r.Year)
			assert.Contains(t, spec.Seniority, r.Seniority)
			assert.Contains(t, spec.ContractTypes, r.ContractType)
			assert.Contains(t, spec.CompanySizes, r.CompanySize)
			if !spec.AllTitles() {
				assert.Equal(t, spec.JobTitle, r.JobTitle)
			}
		}
		assert.Equal(t, out, Filter(out, spec), "filter must be idempotent")
	}
}

func TestFilterPreservesOrderAndInput(t *testing.T) {
	table := fiveRecords()
	before := append([]core.Record(nil), table.Records...)
	spec := DefaultSpec(table)
	spec.JobTitle = "Data Engineer"

	out := Filter(table.Records, spec)

	require.Len(t, out, 2)
	assert.Equal(t, 2021, out[0].Year)
	assert.Equal(t, 2022, out[1].Year)
	assert.Equal(t, before, table.Records)
}

func TestFilterEmptyAcceptedSetYieldsNothing(t *testing.T) {
	table := fiveRecords()
	spec := DefaultSpec(table)
	spec.CompanySizes = nil

	out := Filter(table.Records, spec)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSelectAllIsNoOp(t *testing.T) {
	table := fiveRecords()
	assert.Len(t, Filter(table.Records, DefaultSpec(table)), 5)

	spec := DefaultSpec(table)
	spec.JobTitle = ""
	assert.Len(t, Filter(table.Records, spec), 5)
}

func TestOptionsFor(t *testing.T) {
	opts := OptionsFor(fiveRecords())

	assert.Equal(t, []int{2021, 2022}, opts.Years)
	assert.Equal(t, []string{"Pleno", "Senior"}, opts.Seniority)
	assert.Equal(t, []string{"Contrato", "Tempo Integral"}, opts.ContractTypes)
	assert.Equal(t, []string{"Grande", "Media"}, opts.CompanySizes)
	assert.Equal(t, []string{"Todos", "Data Analyst", "Data Engineer", "Data Scientist"}, opts.JobTitles)

	empty := OptionsFor(nil)
	assert.Empty(t, empty.Years)
	assert.Equal(t, []string{AllJobTitles}, empty.JobTitles)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, nil)

	assert.False(t, s.HasData)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, "N/A", s.MostCommonTitle)
	assert.Zero(t, s.MeanSalary)
	assert.Zero(t, s.MaxSalary)
	assert.Zero(t, s.MinSalary)
	assert.Zero(t, s.MedianSalary)
	assert.NotNil(t, s.TopTitles)
	assert.Empty(t, s.Histogram)
	assert.Empty(t, s.RemoteRatio)
	assert.Empty(t, s.Countries)

	charts := BuildCharts(s, "")
	assert.Equal(t, EmptyTitlesMessage, charts.TopTitles.Empty)
	assert.Equal(t, EmptyHistogramMessage, charts.Histogram.Empty)
	assert.Equal(t, EmptyRemoteMessage, charts.RemoteRatio.Empty)
	assert.Equal(t, EmptyCountriesMessage, charts.Countries.Empty)
	assert.Equal(t, EmptyCountriesMessage, charts.Choropleth.Empty)
}

func TestAggregateTwoLevelStatistics(t *testing.T) {
	table := fiveRecords()
	s := Aggregate(table.Records, nil)

	require.Len(t, s.YearlyStats, 2)
	assert.Equal(t, YearStats{Year: 2021, Count: 2, Mean: 60000, Max: 70000, Min: 50000, Median: 60000}, s.YearlyStats[0])
	assert.InDelta(t, 140000.0, s.YearlyStats[1].Mean, 1e-9)

	// mean of yearly means, not the flat mean (108000)
	assert.InDelta(t, 100000.0, s.MeanSalary, 1e-9)
	assert.Equal(t, 200000.0, s.MaxSalary)
	assert.Equal(t, 50000.0, s.MinSalary)
	assert.Equal(t, 90000.0, s.MedianSalary)
}

func TestMostCommonTitleTieGoesToFirstSeen(t *testing.T) {
	records := []core.Record{
		newRecord(withTitle("B")),
		newRecord(withTitle("A")),
		newRecord(withTitle("A")),
		newRecord(withTitle("B")),
	}
	assert.Equal(t, "B", Aggregate(records, nil).MostCommonTitle)

	records = append(records, newRecord(withTitle("A")))
	assert.Equal(t, "A", Aggregate(records, nil).MostCommonTitle)
}

func TestTopTitles(t *testing.T) {
	var records []core.Record
	for i := 0; i < 12; i++ {
		records = append(records, newRecord(withTitle(string(rune('A'+i))), withUSD(float64(1000*(i+1)))))
	}
	records = append(records, newRecord(withTitle("Z"), withUSD(12000)))

	top := Aggregate(records, nil).TopTitles

	require.Len(t, top, 10)
	assert.Equal(t, "L", top[0].JobTitle)
	assert.Equal(t, "Z", top[1].JobTitle, "ties break by title")
	assert.Equal(t, 12000.0, top[1].MeanUSD)
	assert.Equal(t, "K", top[2].JobTitle)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].MeanUSD, top[i].MeanUSD)
	}

	chart := BuildCharts(Aggregate(records, nil), AllJobTitles).TopTitles
	require.Len(t, chart.Series, 1)
	assert.Equal(t, "L", chart.Series[0].Data[9].Label, "best paid title is drawn last")
}

func TestHistogram(t *testing.T) {
	var records []core.Record
	for _, v := range []float64{0, 10, 20, 35, 300} {
		records = append(records, newRecord(withUSD(v)))
	}

	bins := Aggregate(records, nil).Histogram

	require.Len(t, bins, HistogramBins)
	assert.Equal(t, 0.0, bins[0].Lower)
	assert.Equal(t, 300.0, bins[HistogramBins-1].Upper)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Equal(t, 1, bins[2].Count)
	assert.Equal(t, 1, bins[3].Count)
	assert.Equal(t, 1, bins[HistogramBins-1].Count, "max lands in the last bin")
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(records), total)
}

func TestHistogramSingleValue(t *testing.T) {
	records := []core.Record{newRecord(withUSD(5)), newRecord(withUSD(5))}

	bins := Aggregate(records, nil).Histogram

	require.Len(t, bins, 1)
	assert.Equal(t, Bin{Lower: 5, Upper: 5, Count: 2}, bins[0])
}

func TestRemoteRatio(t *testing.T) {
	records := []core.Record{
		newRecord(withRemote(core.RemoteOnSite)),
		newRecord(withRemote(core.RemoteHybrid)),
		newRecord(withRemote(core.RemoteFull)),
		newRecord(withRemote(core.RemoteFull)),
	}

	got := Aggregate(records, nil).RemoteRatio

	require.Len(t, got, 3)
	assert.Equal(t, CategoryCount{Label: core.RemoteFull, Count: 2, Proportion: 0.5}, got[0])
	assert.Equal(t, core.RemoteOnSite, got[1].Label, "ties keep first-seen order")
	assert.Equal(t, core.RemoteHybrid, got[2].Label)
	assert.Equal(t, 0.25, got[2].Proportion)
}

func TestCountries(t *testing.T) {
	records := []core.Record{
		newRecord(withResidence("US"), withUSD(100000.333)),
		newRecord(withResidence("US"), withUSD(100000.333)),
		newRecord(withResidence("BR"), withUSD(30000)),
		newRecord(withResidence("ZZ"), withUSD(1)),
	}

	got := Aggregate(records, nil).Countries

	require.Len(t, got, 3)
	assert.Equal(t, "BRA", got[0].ISO3)
	assert.Equal(t, "USA", got[1].ISO3)
	assert.Equal(t, 100000.33, got[1].MeanUSD)
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, "ZZ", got[2].ISO3, "unknown codes pass through")

	charts := BuildCharts(Aggregate(records, nil), "Data Scientist")
	assert.Equal(t, "Média salarial para Data Scientist por país", charts.Countries.Title)
	assert.Equal(t, "USA", charts.Choropleth.Series[0].Data[1].Label)
}

func TestRecomputeUsesResolverAndCanSkipRecords(t *testing.T) {
	table := fiveRecords()
	calls := 0
	resolve := func(code string) string {
		calls++
		return "X" + code
	}

	res := Recompute(table, DefaultSpec(table), WithResolver(resolve), WithoutRecords())

	assert.Nil(t, res.Records)
	assert.Equal(t, 5, calls)
	assert.Equal(t, "XBR", res.Summary.Countries[0].ISO3)
	assert.Equal(t, 5, res.Summary.Count)
}

func TestScaleColor(t *testing.T) {
	assert.Equal(t, plasma[0], ScaleColor(10, 10, 20))
	assert.Equal(t, plasma[len(plasma)-1], ScaleColor(20, 10, 20))
	assert.Equal(t, plasma[len(plasma)-1], ScaleColor(5, 5, 5))
	assert.Equal(t, plasma[0], ScaleColor(-100, 0, 1))
}
