package http

import (
	"testing"

	"datajobs/internal/core"
	"datajobs/internal/engine"

	"github.com/stretchr/testify/assert"
)

func TestTopTitlesViewPutsBestFirst(t *testing.T) {
	charts := engine.BuildCharts(engine.Summary{
		TopTitles: []engine.TitleSalary{
			{JobTitle: "Head of Data", MeanUSD: 200000, Count: 1},
			{JobTitle: "Data Engineer", MeanUSD: 100000, Count: 3},
		},
	}, "")

	view := topTitlesView(charts.TopTitles)
	if assert.Len(t, view.Bars, 2) {
		assert.Equal(t, "Head of Data", view.Bars[0].Label)
		assert.Equal(t, 100.0, view.Bars[0].Width)
		assert.Equal(t, 50.0, view.Bars[1].Width)
		assert.Equal(t, "$200,000.00", view.Bars[0].Display)
	}
}

func TestChartViewsCarryEmptyMessages(t *testing.T) {
	charts := engine.BuildCharts(engine.Summary{}, "")

	assert.Equal(t, engine.EmptyTitlesMessage, topTitlesView(charts.TopTitles).Empty)
	assert.Equal(t, engine.EmptyHistogramMessage, histogramView(charts.Histogram).Empty)
	assert.Equal(t, engine.EmptyRemoteMessage, remoteView(charts.RemoteRatio, nil).Empty)
	assert.Equal(t, engine.EmptyCountriesMessage, newMapView(charts.Choropleth).Empty)
	assert.Empty(t, histogramView(nil).Bars)
}

func TestRemoteViewShowsProportions(t *testing.T) {
	view := remoteView(nil, []engine.CategoryCount{
		{Label: core.RemoteFull, Count: 3, Proportion: 0.75},
		{Label: core.RemoteOnSite, Count: 1, Proportion: 0.25},
	})

	assert.Equal(t, "75.0% (3)", view.Bars[0].Display)
	assert.Equal(t, 25.0, view.Bars[1].Width)
}

func TestNewTableViewTruncates(t *testing.T) {
	records := make([]core.Record, maxTableRows+5)

	view := newTableView(records)
	assert.Equal(t, maxTableRows, view.Shown)
	assert.Equal(t, maxTableRows+5, view.Total)
	assert.True(t, view.Truncated)
	assert.Len(t, view.Rows[0], len(core.Columns))
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 0.0, barWidth(5, 0))
	assert.Equal(t, 0.0, barWidth(-1, 10))
	assert.Equal(t, 33.3, barWidth(1, 3))
	assert.Equal(t, "33.3%", formatPercent(33.3))
}
