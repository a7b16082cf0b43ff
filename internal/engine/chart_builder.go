package engine

import (
	"fmt"
	"strconv"

	"datajobs/internal/core"
)

// Sequential palette for single-series charts, dark to light.
var plasma = []string{
	"#0D0887", "#46039F", "#7201A8", "#9C179E", "#BD3786",
	"#D8576B", "#ED7953", "#FB9F3A", "#FDCA26", "#F0F921",
}

// Messages shown when a subset has no rows.
const (
	EmptyTitlesMessage    = "Nenhum dado disponível para exibir o gráfico de cargos."
	EmptyHistogramMessage = "Nenhum dado disponível para exibir o gráfico de salários."
	EmptyRemoteMessage    = "Nenhum dado disponível para exibir o gráfico de tipos de trabalho remoto."
	EmptyCountriesMessage = "Nenhum dado disponível para exibir os salários por país."
)

// BuildCharts derives the chart configs of a summary. jobTitle labels the
// country charts; the empty string and AllJobTitles read as all titles.
func BuildCharts(s Summary, jobTitle string) Charts {
	if jobTitle == "" {
		jobTitle = AllJobTitles
	}
	return Charts{
		TopTitles:   topTitlesChart(s),
		Histogram:   histogramChart(s),
		RemoteRatio: remoteChart(s),
		Countries:   countriesChart(s, jobTitle),
		Choropleth:  choroplethChart(s, jobTitle),
	}
}

// topTitlesChart lists titles ascending so a horizontal bar chart shows the
// best paid title on top.
func topTitlesChart(s Summary) *ChartConfig {
	cfg := &ChartConfig{
		ChartType: "horizontal_bar",
		Title:     "Top 10 Cargos por Média Salarial (USD)",
		XAxis:     "Média Salarial (USD)",
		YAxis:     "Cargo",
		ShowGrid:  true,
	}
	if len(s.TopTitles) == 0 {
		cfg.Empty = EmptyTitlesMessage
		cfg.Series = []ChartSeries{}
		return cfg
	}
	points := make([]ChartPoint, 0, len(s.TopTitles))
	for i := len(s.TopTitles) - 1; i >= 0; i-- {
		t := s.TopTitles[i]
		points = append(points, ChartPoint{Label: t.JobTitle, Value: core.RoundTo2(t.MeanUSD)})
	}
	cfg.Series = []ChartSeries{{Name: "Média Salarial (USD)", Data: points}}
	cfg.Colors = assignColors(len(points))
	return cfg
}

func histogramChart(s Summary) *ChartConfig {
	cfg := &ChartConfig{
		ChartType: "histogram",
		Title:     "Distribuição de salários anuais",
		XAxis:     "Faixa salarial (USD)",
		ShowGrid:  true,
	}
	if len(s.Histogram) == 0 {
		cfg.Empty = EmptyHistogramMessage
		cfg.Series = []ChartSeries{}
		return cfg
	}
	points := make([]ChartPoint, 0, len(s.Histogram))
	for _, b := range s.Histogram {
		points = append(points, ChartPoint{Label: binLabel(b), Value: float64(b.Count)})
	}
	cfg.Series = []ChartSeries{{Name: "count", Data: points, Color: plasma[0]}}
	return cfg
}

func remoteChart(s Summary) *ChartConfig {
	cfg := &ChartConfig{
		ChartType:  "donut",
		Title:      "Proporção de Tipos de Trabalho Remoto",
		ShowLegend: true,
	}
	if len(s.RemoteRatio) == 0 {
		cfg.Empty = EmptyRemoteMessage
		cfg.Series = []ChartSeries{}
		return cfg
	}
	points := make([]ChartPoint, 0, len(s.RemoteRatio))
	for _, c := range s.RemoteRatio {
		points = append(points, ChartPoint{Label: c.Label, Value: float64(c.Count)})
	}
	cfg.Series = []ChartSeries{{Name: "Quantidade", Data: points}}
	cfg.Colors = assignColors(len(points))
	return cfg
}

func countriesChart(s Summary, jobTitle string) *ChartConfig {
	cfg := &ChartConfig{
		ChartType: "bar",
		Title:     fmt.Sprintf("Média salarial para %s por país", jobTitle),
		XAxis:     "País",
		YAxis:     "Média Salarial Anual (USD)",
		ShowGrid:  true,
	}
	cfg.Series, cfg.Empty = countrySeries(s)
	return cfg
}

func choroplethChart(s Summary, jobTitle string) *ChartConfig {
	cfg := &ChartConfig{
		ChartType:  "choropleth",
		Title:      fmt.Sprintf("Média Salarial Anual (USD) para %s por País", jobTitle),
		ShowLegend: true,
	}
	cfg.Series, cfg.Empty = countrySeries(s)
	return cfg
}

// countrySeries keys points by ISO3 code, the location mode of the map.
func countrySeries(s Summary) ([]ChartSeries, string) {
	if len(s.Countries) == 0 {
		return []ChartSeries{}, EmptyCountriesMessage
	}
	points := make([]ChartPoint, 0, len(s.Countries))
	for _, c := range s.Countries {
		points = append(points, ChartPoint{Label: c.ISO3, Value: c.MeanUSD})
	}
	return []ChartSeries{{Name: "usd", Data: points}}, ""
}

func binLabel(b Bin) string {
	return strconv.FormatFloat(core.RoundTo2(b.Lower), 'f', -1, 64) + "-" +
		strconv.FormatFloat(core.RoundTo2(b.Upper), 'f', -1, 64)
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = plasma[i%len(plasma)]
	}
	return colors
}

// ScaleColor picks the palette entry for v within [lo, hi].
func ScaleColor(v, lo, hi float64) string {
	if hi <= lo {
		return plasma[len(plasma)-1]
	}
	idx := int((v - lo) / (hi - lo) * float64(len(plasma)-1))
	idx = max(0, min(idx, len(plasma)-1))
	return plasma[idx]
}
