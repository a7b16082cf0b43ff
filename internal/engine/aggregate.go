package engine

import (
	"sort"

	"datajobs/internal/core"
)

// ResolveFunc maps an ISO 3166 alpha-2 code to alpha-3.
type ResolveFunc func(string) string

// Aggregate summarizes records. An empty input yields zero figures,
// NotAvailable as the most common title and empty slices. A nil resolve
// uses core.ResolveISO3.
func Aggregate(records []core.Record, resolve ResolveFunc) Summary {
	if resolve == nil {
		resolve = core.ResolveISO3
	}

	s := Summary{
		Count:           len(records),
		MostCommonTitle: NotAvailable,
		YearlyStats:     []YearStats{},
		TopTitles:       []TitleSalary{},
		Histogram:       []Bin{},
		RemoteRatio:     []CategoryCount{},
		Countries:       []CountrySalary{},
	}
	if len(records) == 0 {
		return s
	}
	s.HasData = true

	s.YearlyStats = yearlyStats(records)
	means := make([]float64, len(s.YearlyStats))
	maxes := make([]float64, len(s.YearlyStats))
	mins := make([]float64, len(s.YearlyStats))
	medians := make([]float64, len(s.YearlyStats))
	for i, ys := range s.YearlyStats {
		means[i], maxes[i], mins[i], medians[i] = ys.Mean, ys.Max, ys.Min, ys.Median
	}
	s.MeanSalary = mean(means)
	s.MaxSalary = maxOf(maxes)
	s.MinSalary = minOf(mins)
	s.MedianSalary = median(medians)

	s.MostCommonTitle = mostCommonTitle(records)
	s.TopTitles = topTitles(records, TopTitlesLimit)
	s.Histogram = histogram(records, HistogramBins)
	s.RemoteRatio = remoteRatio(records)
	s.Countries = countries(records, resolve)
	return s
}

// yearlyStats groups SalaryUSD by year, ascending.
func yearlyStats(records []core.Record) []YearStats {
	byYear := make(map[int][]float64)
	for _, r := range records {
		byYear[r.Year] = append(byYear[r.Year], r.SalaryUSD)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearStats, 0, len(years))
	for _, y := range years {
		v := byYear[y]
		out = append(out, YearStats{
			Year:   y,
			Count:  len(v),
			Mean:   mean(v),
			Max:    maxOf(v),
			Min:    minOf(v),
			Median: median(v),
		})
	}
	return out
}

// mostCommonTitle returns the mode of JobTitle; ties go to the title seen first.
func mostCommonTitle(records []core.Record) string {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		if counts[r.JobTitle] == 0 {
			order = append(order, r.JobTitle)
		}
		counts[r.JobTitle]++
	}

	best, bestCount := NotAvailable, 0
	for _, title := range order {
		if counts[title] > bestCount {
			best, bestCount = title, counts[title]
		}
	}
	return best
}

// topTitles ranks titles by mean SalaryUSD, descending, ties by title.
func topTitles(records []core.Record, limit int) []TitleSalary {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		g, ok := groups[r.JobTitle]
		if !ok {
			g = &acc{}
			groups[r.JobTitle] = g
		}
		g.sum += r.SalaryUSD
		g.count++
	}

	out := make([]TitleSalary, 0, len(groups))
	for title, g := range groups {
		out = append(out, TitleSalary{JobTitle: title, MeanUSD: g.sum / float64(g.count), Count: g.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanUSD != out[j].MeanUSD {
			return out[i].MeanUSD > out[j].MeanUSD
		}
		return out[i].JobTitle < out[j].JobTitle
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// histogram splits [min, max] of SalaryUSD into equal-width bins. When every
// value is equal a single zero-width bin holds them all.
func histogram(records []core.Record, bins int) []Bin {
	lo, hi := records[0].SalaryUSD, records[0].SalaryUSD
	for _, r := range records[1:] {
		if r.SalaryUSD < lo {
			lo = r.SalaryUSD
		}
		if r.SalaryUSD > hi {
			hi = r.SalaryUSD
		}
	}
	if lo == hi {
		return []Bin{{Lower: lo, Upper: hi, Count: len(records)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, r := range records {
		i := int((r.SalaryUSD - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}

// remoteRatio counts records per work arrangement, descending; ties keep
// first-seen order.
func remoteRatio(records []core.Record) []CategoryCount {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		if counts[r.RemoteRatio] == 0 {
			order = append(order, r.RemoteRatio)
		}
		counts[r.RemoteRatio]++
	}

	out := make([]CategoryCount, len(order))
	for i, label := range order {
		out[i] = CategoryCount{
			Label:      label,
			Count:      counts[label],
			Proportion: float64(counts[label]) / float64(len(records)),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// countries averages SalaryUSD per resolved residence code, rounded to cents,
// ascending by code.
func countries(records []core.Record, resolve ResolveFunc) []CountrySalary {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		code := resolve(r.ResidenceCountry)
		g, ok := groups[code]
		if !ok {
			g = &acc{}
			groups[code] = g
		}
		g.sum += r.SalaryUSD
		g.count++
	}

	out := make([]CountrySalary, 0, len(groups))
	for code, g := range groups {
		out = append(out, CountrySalary{ISO3: code, MeanUSD: core.RoundTo2(g.sum / float64(g.count)), Count: g.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISO3 < out[j].ISO3 })
	return out
}
