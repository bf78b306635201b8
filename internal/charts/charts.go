// Package charts turns view results into go-echarts figures.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/controls"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/views"
)

// Figure is a self-contained chart page.
type Figure interface {
	Render(w io.Writer) error
}

// sentimentColors follows the dashboard's fixed palette so a label keeps its color across views.
var sentimentColors = map[models.Sentiment]string{
	models.SentimentPositive: "#2ca02c",
	models.SentimentNeutral:  "#7f7f7f",
	models.SentimentNegative: "#d62728",
}

// countScale is the low-to-high ramp used to shade bars by count.
var countScale = []string{"#c6dbef", "#6baed6", "#2171b5", "#08306b"}

// Sentiment draws the (label, count) aggregate as a bar chart shaded by count, or a pie.
func Sentiment(counts []views.SentimentCount, kind controls.VizKind) Figure {
	if kind == controls.VizPie {
		return sentimentPie(counts)
	}
	return sentimentBar(counts)
}

func sentimentBar(counts []views.SentimentCount) *charts.Bar {
	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	maxCount := 0
	for i, c := range counts {
		labels[i] = string(c.Sentiment)
		data[i] = opts.BarData{Name: string(c.Sentiment), Value: c.Count}
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Number of Tweets by Sentiment", Width: "700px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Number of Tweets by Sentiment"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Sentiment"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Tweets"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min:     0,
			Max:     float32(maxCount),
			InRange: &opts.VisualMapInRange{Color: countScale},
		}),
	)
	bar.SetXAxis(labels).AddSeries("Tweets", data)
	return bar
}

func sentimentPie(counts []views.SentimentCount) *charts.Pie {
	data := make([]opts.PieData, len(counts))
	for i, c := range counts {
		data[i] = opts.PieData{
			Name:      string(c.Sentiment),
			Value:     c.Count,
			ItemStyle: &opts.ItemStyle{Color: sentimentColors[c.Sentiment]},
		}
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Number of Tweets by Sentiment", Width: "700px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Number of Tweets by Sentiment"}),
	)
	pie.AddSeries("Tweets", data)
	return pie
}

// GeoTime plots the matched posts that carry coordinates on a world map.
func GeoTime(res views.GeoTimeResult) Figure {
	data := make([]opts.GeoData, len(res.Points))
	for i, p := range res.Points {
		data[i] = opts.GeoData{Value: []float64{p.Lon, p.Lat, 1}}
	}
	geo := charts.NewGeo()
	geo.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tweet locations", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Tweets locations based on time of day", Subtitle: res.Caption}),
		charts.WithGeoComponentOpts(opts.GeoComponent{Map: "world"}),
	)
	geo.AddSeries(views.HourWindow(res.Hour), types.ChartScatter, data)
	return geo
}

// Breakdown draws one bar panel per sentiment facet, side by side on a single page.
func Breakdown(b views.Breakdown) Figure {
	page := components.NewPage()
	page.PageTitle = "Breakdown Airline Tweets by Sentiment"
	for _, f := range b.Facets {
		data := make([]opts.BarData, len(f.Bars))
		for i, bar := range f.Bars {
			data[i] = opts.BarData{Name: bar.Airline, Value: bar.Count}
		}
		panel := charts.NewBar()
		panel.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "270px", Height: "600px"}),
			charts.WithTitleOpts(opts.Title{Title: "Tweets=" + string(f.Sentiment)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "airline"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
		)
		panel.SetXAxis(b.Airlines).AddSeries(string(f.Sentiment), data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: sentimentColors[f.Sentiment]}),
		)
		page.AddCharts(panel)
	}
	return page
}

// WordCloud lays out the word frequencies on a white canvas; the cloud has no axes.
func WordCloud(res views.WordCloudResult) Figure {
	data := make([]opts.WordCloudData, len(res.Words))
	for i, w := range res.Words {
		data[i] = opts.WordCloudData{Name: w.Word, Value: w.Count}
	}
	wc := charts.NewWordCloud()
	wc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "Word Cloud",
			Width:           "800px",
			Height:          "640px",
			BackgroundColor: "white",
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Word Cloud for %s Sentiment", res.Sentiment.Title())}),
	)
	wc.AddSeries("words", data, charts.WithWorldCloudChartOpts(opts.WordCloudChart{
		Shape:     "rect",
		SizeRange: []float32{12, 72},
	}))
	return wc
}
