package http

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"datajobs/internal/core"
	"datajobs/internal/engine"
)

// maxTableRows caps the raw data table. The full subset is available from
// /export.csv.
const maxTableRows = 200

// Page texts.
const (
	pageTitle     = "🎲 Dashboard Salários na Área de Dados 🎲"
	pageIntro     = "Explore os dados salariais na área de dados nos últimos anos. Utilize os filtros à esquerda para refinar sua análise."
	filtersTitle  = "🔍 Filtros"
	chartsTitle   = "📊 Gráficos"
	countryTitle  = "🗃️ Salários por países"
	rawDataTitle  = "📁 Dados brutos"
	metricsTitle  = "Métricas gerais (Salário anual em USD)"
	noDataMessage = "Nenhum dado encontrado para os filtros selecionados."
)

type (
	metricView struct {
		Label string
		Value string
	}

	barView struct {
		Label   string
		Display string
		Width   float64
		Color   string
	}

	chartView struct {
		Title string
		XAxis string
		YAxis string
		Empty string
		Bars  []barView
	}

	tileView struct {
		ISO3    string
		Name    string
		Display string
		Color   string
	}

	mapView struct {
		Title string
		Empty string
		Tiles []tileView
	}

	optionView struct {
		Value    string
		Selected bool
	}

	filtersView struct {
		Title         string
		Years         []optionView
		Seniority     []optionView
		ContractTypes []optionView
		CompanySizes  []optionView
		JobTitles     []optionView
	}

	tableView struct {
		Columns   []string
		Rows      [][]string
		Shown     int
		Total     int
		Truncated bool
	}

	dashboardView struct {
		MetricsTitle  string
		ChartsTitle   string
		CountryTitle  string
		RawDataTitle  string
		NoDataMessage string

		HasData     bool
		Metrics     []metricView
		TopTitles   chartView
		Histogram   chartView
		RemoteRatio chartView
		Countries   chartView
		Map         mapView
		Table       tableView

		TotalRows string
		ExportURL string
	}

	pageView struct {
		Title     string
		Intro     string
		SourceURL string
		LoadedAt  string
		Filters   filtersView
		Dashboard dashboardView
	}
)

// newPageView builds the full page from the options of the table and the
// result of the current spec.
func newPageView(opts engine.Options, res engine.Result, sourceURL string, loadedAt time.Time) pageView {
	return pageView{
		Title:     pageTitle,
		Intro:     pageIntro,
		SourceURL: sourceURL,
		LoadedAt:  formatLoadedAt(loadedAt),
		Filters:   newFiltersView(opts, res.Spec),
		Dashboard: newDashboardView(res),
	}
}

func newFiltersView(opts engine.Options, spec engine.FilterSpec) filtersView {
	years := make([]string, len(opts.Years))
	for i, y := range opts.Years {
		years[i] = strconv.Itoa(y)
	}
	selectedYears := make([]string, len(spec.Years))
	for i, y := range spec.Years {
		selectedYears[i] = strconv.Itoa(y)
	}

	jobTitle := spec.JobTitle
	if jobTitle == "" {
		jobTitle = engine.AllJobTitles
	}

	return filtersView{
		Title:         filtersTitle,
		Years:         optionViews(years, selectedYears),
		Seniority:     optionViews(opts.Seniority, spec.Seniority),
		ContractTypes: optionViews(opts.ContractTypes, spec.ContractTypes),
		CompanySizes:  optionViews(opts.CompanySizes, spec.CompanySizes),
		JobTitles:     optionViews(opts.JobTitles, []string{jobTitle}),
	}
}

func optionViews(values, selected []string) []optionView {
	out := make([]optionView, len(values))
	for i, v := range values {
		out[i] = optionView{Value: v, Selected: slices.Contains(selected, v)}
	}
	return out
}

func newDashboardView(res engine.Result) dashboardView {
	s := res.Summary
	return dashboardView{
		MetricsTitle:  metricsTitle,
		ChartsTitle:   chartsTitle,
		CountryTitle:  countryTitle,
		RawDataTitle:  rawDataTitle,
		NoDataMessage: noDataMessage,

		HasData: s.HasData,
		Metrics: []metricView{
			{Label: "Média Salarial (USD)", Value: core.FormatUSD(s.MeanSalary)},
			{Label: "Salário Máximo (USD)", Value: core.FormatUSD(s.MaxSalary)},
			{Label: "Salário Mínimo (USD)", Value: core.FormatUSD(s.MinSalary)},
			{Label: "Mediana Salarial (USD)", Value: core.FormatUSD(s.MedianSalary)},
			{Label: "Total de Entradas", Value: core.FormatCount(s.Count)},
			{Label: "Cargo Mais Comum", Value: s.MostCommonTitle},
		},
		TopTitles:   topTitlesView(res.Charts.TopTitles),
		Histogram:   histogramView(res.Charts.Histogram),
		RemoteRatio: remoteView(res.Charts.RemoteRatio, s.RemoteRatio),
		Countries:   countriesView(res.Charts.Countries),
		Map:         newMapView(res.Charts.Choropleth),
		Table:       newTableView(res.Records),

		TotalRows: core.FormatCount(res.TotalRows),
		ExportURL: "/export.csv?" + EncodeFilterValues(res.Spec).Encode(),
	}
}

func chartShell(cfg *engine.ChartConfig) chartView {
	if cfg == nil {
		return chartView{}
	}
	return chartView{Title: cfg.Title, XAxis: cfg.XAxis, YAxis: cfg.YAxis, Empty: cfg.Empty}
}

func firstSeries(cfg *engine.ChartConfig) []engine.ChartPoint {
	if cfg == nil || len(cfg.Series) == 0 {
		return nil
	}
	return cfg.Series[0].Data
}

// topTitlesView lists the best paid title first. The chart config is
// ordered bottom to top.
func topTitlesView(cfg *engine.ChartConfig) chartView {
	view := chartShell(cfg)
	points := firstSeries(cfg)
	peak := peakValue(points)
	for i := len(points) - 1; i >= 0; i-- {
		p := points[i]
		view.Bars = append(view.Bars, barView{
			Label:   p.Label,
			Display: core.FormatUSD(p.Value),
			Width:   barWidth(p.Value, peak),
			Color:   colorAt(cfg, i),
		})
	}
	return view
}

func histogramView(cfg *engine.ChartConfig) chartView {
	view := chartShell(cfg)
	points := firstSeries(cfg)
	peak := peakValue(points)
	color := ""
	if cfg != nil && len(cfg.Series) > 0 {
		color = cfg.Series[0].Color
	}
	for _, p := range points {
		view.Bars = append(view.Bars, barView{
			Label:   p.Label,
			Display: core.FormatCount(int(p.Value)),
			Width:   barWidth(p.Value, peak),
			Color:   color,
		})
	}
	return view
}

func remoteView(cfg *engine.ChartConfig, ratios []engine.CategoryCount) chartView {
	view := chartShell(cfg)
	for i, c := range ratios {
		view.Bars = append(view.Bars, barView{
			Label:   c.Label,
			Display: fmt.Sprintf("%.1f%% (%s)", c.Proportion*100, core.FormatCount(c.Count)),
			Width:   barWidth(c.Proportion, 1),
			Color:   colorAt(cfg, i),
		})
	}
	return view
}

func countriesView(cfg *engine.ChartConfig) chartView {
	view := chartShell(cfg)
	points := firstSeries(cfg)
	lo, hi := valueRange(points)
	for _, p := range points {
		view.Bars = append(view.Bars, barView{
			Label:   p.Label,
			Display: core.FormatUSD(p.Value),
			Width:   barWidth(p.Value, hi),
			Color:   engine.ScaleColor(p.Value, lo, hi),
		})
	}
	return view
}

func newMapView(cfg *engine.ChartConfig) mapView {
	shell := chartShell(cfg)
	view := mapView{Title: shell.Title, Empty: shell.Empty}
	points := firstSeries(cfg)
	lo, hi := valueRange(points)
	for _, p := range points {
		view.Tiles = append(view.Tiles, tileView{
			ISO3:    p.Label,
			Name:    core.CountryName(p.Label),
			Display: core.FormatUSD(p.Value),
			Color:   engine.ScaleColor(p.Value, lo, hi),
		})
	}
	return view
}

func newTableView(records []core.Record) tableView {
	shown := min(len(records), maxTableRows)
	rows := make([][]string, shown)
	for i := range shown {
		rows[i] = records[i].Values()
	}
	return tableView{
		Columns:   core.Columns,
		Rows:      rows,
		Shown:     shown,
		Total:     len(records),
		Truncated: len(records) > shown,
	}
}

func colorAt(cfg *engine.ChartConfig, i int) string {
	if cfg == nil || i < 0 || i >= len(cfg.Colors) {
		return ""
	}
	return cfg.Colors[i]
}

func peakValue(points []engine.ChartPoint) float64 {
	_, hi := valueRange(points)
	return hi
}

func valueRange(points []engine.ChartPoint) (lo, hi float64) {
	if len(points) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	return lo, hi
}

// barWidth is v as a percentage of peak, one decimal.
func barWidth(v, peak float64) float64 {
	if peak <= 0 || v <= 0 {
		return 0
	}
	return math.Round(v/peak*1000) / 10
}

func formatLoadedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02/01/2006 15:04 MST")
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
