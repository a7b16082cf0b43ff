package engine

import "datajobs/internal/core"

const (
	// AllJobTitles is the job title selection that applies no title constraint.
	AllJobTitles = "Todos"
	// NotAvailable stands in for the most common title of an empty subset.
	NotAvailable = "N/A"

	HistogramBins  = 30
	TopTitlesLimit = 10
)

// FilterSpec is one combination of widget selections. Each slice is the set
// of accepted values for its dimension; an empty set accepts nothing.
type FilterSpec struct {
	Years         []int    `json:"years"`
	Seniority     []string `json:"seniority"`
	ContractTypes []string `json:"contract_types"`
	CompanySizes  []string `json:"company_sizes"`
	JobTitle      string   `json:"job_title"`
}

// AllTitles reports whether s leaves job titles unconstrained.
func (s FilterSpec) AllTitles() bool {
	return s.JobTitle == "" || s.JobTitle == AllJobTitles
}

// Options are the selectable values of each filter widget.
type Options struct {
	Years         []int    `json:"years"`
	Seniority     []string `json:"seniority"`
	ContractTypes []string `json:"contract_types"`
	CompanySizes  []string `json:"company_sizes"`
	JobTitles     []string `json:"job_titles"`
}

type (
	// YearStats are the descriptive statistics of SalaryUSD for one year.
	YearStats struct {
		Year   int     `json:"year"`
		Count  int     `json:"count"`
		Mean   float64 `json:"mean"`
		Max    float64 `json:"max"`
		Min    float64 `json:"min"`
		Median float64 `json:"median"`
	}

	TitleSalary struct {
		JobTitle string  `json:"job_title"`
		MeanUSD  float64 `json:"mean_usd"`
		Count    int     `json:"count"`
	}

	// Bin is one histogram bucket covering [Lower, Upper); the last bin also
	// includes Upper.
	Bin struct {
		Lower float64 `json:"lower"`
		Upper float64 `json:"upper"`
		Count int     `json:"count"`
	}

	CategoryCount struct {
		Label      string  `json:"label"`
		Count      int     `json:"count"`
		Proportion float64 `json:"proportion"`
	}

	CountrySalary struct {
		ISO3    string  `json:"iso3"`
		MeanUSD float64 `json:"mean_usd"`
		Count   int     `json:"count"`
	}
)

// Summary is everything the dashboard shows about a filtered subset.
// Headline figures reduce the per-year statistics: mean of yearly means,
// max of yearly maxima, min of yearly minima, median of yearly medians.
type Summary struct {
	HasData         bool            `json:"has_data"`
	Count           int             `json:"count"`
	MeanSalary      float64         `json:"mean_salary"`
	MaxSalary       float64         `json:"max_salary"`
	MinSalary       float64         `json:"min_salary"`
	MedianSalary    float64         `json:"median_salary"`
	MostCommonTitle string          `json:"most_common_title"`
	YearlyStats     []YearStats     `json:"yearly_stats"`
	TopTitles       []TitleSalary   `json:"top_titles"`
	Histogram       []Bin           `json:"histogram"`
	RemoteRatio     []CategoryCount `json:"remote_ratio"`
	Countries       []CountrySalary `json:"countries"`
}

// ChartConfig describes how to render one chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	Empty      string        `json:"empty,omitempty"` // message shown instead of an empty chart
}

type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Charts holds one config per dashboard chart.
type Charts struct {
	TopTitles   *ChartConfig `json:"top_titles"`
	Histogram   *ChartConfig `json:"histogram"`
	RemoteRatio *ChartConfig `json:"remote_ratio"`
	Countries   *ChartConfig `json:"countries"`
	Choropleth  *ChartConfig `json:"choropleth"`
}

// Result is the full bundle recomputed for one filter spec.
type Result struct {
	Spec      FilterSpec    `json:"spec"`
	Options   Options       `json:"options"`
	Summary   Summary       `json:"summary"`
	Charts    Charts        `json:"charts"`
	TotalRows int           `json:"total_rows"`
	Records   []core.Record `json:"-"`
}
