package engine

import "datajobs/internal/core"

// Recompute runs the whole filter and aggregate pipeline for one spec. It is a
// pure function of its inputs and is meant to run on every selection change.
func Recompute(table *core.Table, spec FilterSpec, opts ...Option) Result {
	cfg := applyOptions(opts)

	var records []core.Record
	if table != nil {
		records = table.Records
	}
	subset := Filter(records, spec)
	summary := Aggregate(subset, cfg.resolve)

	res := Result{
		Spec:      spec,
		Options:   OptionsFor(table),
		Summary:   summary,
		Charts:    BuildCharts(summary, spec.JobTitle),
		TotalRows: len(records),
	}
	if !cfg.skipRecords {
		res.Records = subset
	}
	return res
}
