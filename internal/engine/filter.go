package engine

import (
	"sort"

	"datajobs/internal/core"
)

// Filter returns the records accepted by spec, in input order. Dimensions
// combine with AND, values within a dimension with OR. The input is not modified.
func Filter(records []core.Record, spec FilterSpec) []core.Record {
	out := make([]core.Record, 0)
	if len(spec.Years) == 0 || len(spec.Seniority) == 0 || len(spec.ContractTypes) == 0 || len(spec.CompanySizes) == 0 {
		return out
	}

	years := make(map[int]struct{}, len(spec.Years))
	for _, y := range spec.Years {
		years[y] = struct{}{}
	}
	seniority := toSet(spec.Seniority)
	contracts := toSet(spec.ContractTypes)
	sizes := toSet(spec.CompanySizes)
	allTitles := spec.AllTitles()

	for _, r := range records {
		if _, ok := years[r.Year]; !ok {
			continue
		}
		if _, ok := seniority[r.Seniority]; !ok {
			continue
		}
		if _, ok := contracts[r.ContractType]; !ok {
			continue
		}
		if _, ok := sizes[r.CompanySize]; !ok {
			continue
		}
		if !allTitles && r.JobTitle != spec.JobTitle {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// OptionsFor lists the sorted distinct values of every filter dimension.
// Job titles are prefixed by AllJobTitles.
func OptionsFor(table *core.Table) Options {
	var records []core.Record
	if table != nil {
		records = table.Records
	}

	years := map[int]struct{}{}
	seniority, contracts, sizes, titles := map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}
	for _, r := range records {
		years[r.Year] = struct{}{}
		seniority[r.Seniority] = struct{}{}
		contracts[r.ContractType] = struct{}{}
		sizes[r.CompanySize] = struct{}{}
		titles[r.JobTitle] = struct{}{}
	}

	opts := Options{
		Years:         make([]int, 0, len(years)),
		Seniority:     sortedKeys(seniority),
		ContractTypes: sortedKeys(contracts),
		CompanySizes:  sortedKeys(sizes),
		JobTitles:     append([]string{AllJobTitles}, sortedKeys(titles)...),
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	sort.Ints(opts.Years)
	return opts
}

// DefaultSpec selects every value of every dimension and all job titles,
// which is what the widgets show before the user touches them.
func DefaultSpec(table *core.Table) FilterSpec {
	opts := OptionsFor(table)
	return FilterSpec{
		Years:         opts.Years,
		Seniority:     opts.Seniority,
		ContractTypes: opts.ContractTypes,
		CompanySizes:  opts.CompanySizes,
		JobTitle:      AllJobTitles,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
