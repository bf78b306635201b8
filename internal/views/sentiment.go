package views

import (
	"sort"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

// SentimentCount is one row of the (label, count) aggregate.
type SentimentCount struct {
	Sentiment models.Sentiment `json:"sentiment"`
	Count     int              `json:"count"`
}

// SentimentDistribution counts posts per observed label, most frequent first.
// Labels that never occur are absent rather than reported as zero.
func SentimentDistribution(t *dataset.Table) []SentimentCount {
	counts := make(map[models.Sentiment]int, len(models.Sentiments))
	for _, p := range t.Posts() {
		counts[p.Sentiment]++
	}
	out := make([]SentimentCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, SentimentCount{Sentiment: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sentiment.Rank() < out[j].Sentiment.Rank()
	})
	return out
}
