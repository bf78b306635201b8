package views

import (
	"sort"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

// AirlineCount is the height of one bar in a facet.
type AirlineCount struct {
	Airline string `json:"airline"`
	Count   int    `json:"count"`
}

// Facet is one histogram panel: the per-airline counts for a single sentiment.
type Facet struct {
	Sentiment models.Sentiment `json:"sentiment"`
	Bars      []AirlineCount   `json:"bars"`
}

// Breakdown is the faceted airline-by-sentiment histogram.
type Breakdown struct {
	Airlines []string `json:"airlines"` // shared x axis
	Facets   []Facet  `json:"facets"`
	Total    int      `json:"total"`
}

// AirlineBreakdown counts posts per (airline, sentiment) for the selected airlines.
// It reports false when the selection is empty, in which case nothing is drawn.
func AirlineBreakdown(t *dataset.Table, selected []string) (Breakdown, bool) {
	if len(selected) == 0 {
		return Breakdown{}, false
	}
	in := make(map[string]bool, len(selected))
	for _, a := range selected {
		in[a] = true
	}

	counts := make(map[models.Sentiment]map[string]int)
	present := make(map[string]bool)
	total := 0
	for _, p := range t.Posts() {
		if !in[p.Airline] {
			continue
		}
		if counts[p.Sentiment] == nil {
			counts[p.Sentiment] = make(map[string]int)
		}
		counts[p.Sentiment][p.Airline]++
		present[p.Airline] = true
		total++
	}

	b := Breakdown{Total: total}
	for a := range present {
		b.Airlines = append(b.Airlines, a)
	}
	sort.Slice(b.Airlines, func(i, j int) bool {
		ri, rj := models.AirlineRank(b.Airlines[i]), models.AirlineRank(b.Airlines[j])
		if ri != rj {
			return ri < rj
		}
		return b.Airlines[i] < b.Airlines[j]
	})
	for _, s := range models.Sentiments {
		byAirline, ok := counts[s]
		if !ok {
			continue
		}
		f := Facet{Sentiment: s}
		for _, a := range b.Airlines {
			f.Bars = append(f.Bars, AirlineCount{Airline: a, Count: byAirline[a]})
		}
		b.Facets = append(b.Facets, f)
	}
	return b, true
}
