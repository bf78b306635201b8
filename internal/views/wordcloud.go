package views

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

// MaxCloudWords caps the number of distinct words laid out in the cloud.
const MaxCloudWords = 200

// ErrNoWords is returned when nothing is left to draw after filtering.
var ErrNoWords = errors.New("no words to plot in the word cloud")

// WordCount is one word of the cloud and its frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordCloudResult is the input to the cloud layout.
type WordCloudResult struct {
	Sentiment models.Sentiment `json:"sentiment"`
	Posts     int              `json:"posts"`
	Text      string           `json:"-"`
	Words     []WordCount      `json:"words"`
}

// WordCloud joins the bodies of posts with sentiment s, strips links, mentions and the
// retweet marker, and counts the remaining words.
func WordCloud(t *dataset.Table, s models.Sentiment) (WordCloudResult, error) {
	posts := t.Filter(func(p models.Post) bool { return p.Sentiment == s })
	bodies := make([]string, len(posts))
	for i, p := range posts {
		bodies[i] = p.Text
	}
	text := FilterTokens(strings.Join(bodies, " "))
	res := WordCloudResult{Sentiment: s, Posts: len(posts), Text: text, Words: Frequencies(text)}
	if len(res.Words) == 0 {
		return res, ErrNoWords
	}
	return res, nil
}

// FilterTokens splits text on whitespace and drops tokens containing "http", tokens
// starting with "@" and the token "RT". Survivors are re-joined with single spaces.
// Punctuation and case are left as they are.
func FilterTokens(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, w := range fields {
		if strings.Contains(w, "http") || strings.HasPrefix(w, "@") || w == "RT" {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_']*`)

// Frequencies tokenizes text the way the cloud layout does: words of any length,
// a trailing "'s" removed, numbers and stopwords dropped, plurals folded
// into an existing singular, and each word shown in its most common casing.
// The result is ordered by count, ties in first-seen order, and capped at MaxCloudWords.
func Frequencies(text string) []WordCount {
	type variants struct {
		order  []string
		counts map[string]int
	}
	byKey := make(map[string]*variants)
	var keys []string

	for _, w := range wordPattern.FindAllString(text, -1) {
		if strings.HasSuffix(lower(w), "'s") {
			w = w[:len(w)-2]
		}
		if w == "" || isNumber(w) || IsStopword(w) {
			continue
		}
		k := lower(w)
		v, ok := byKey[k]
		if !ok {
			v = &variants{counts: make(map[string]int)}
			byKey[k] = v
			keys = append(keys, k)
		}
		if _, seen := v.counts[w]; !seen {
			v.order = append(v.order, w)
		}
		v.counts[w]++
	}

	for _, k := range keys {
		if !strings.HasSuffix(k, "s") || strings.HasSuffix(k, "ss") {
			continue
		}
		singular, ok := byKey[k[:len(k)-1]]
		if !ok {
			continue
		}
		plural := byKey[k]
		for _, w := range plural.order {
			sw := w[:len(w)-1]
			if _, seen := singular.counts[sw]; !seen {
				singular.order = append(singular.order, sw)
			}
			singular.counts[sw] += plural.counts[w]
		}
		delete(byKey, k)
	}

	out := make([]WordCount, 0, len(byKey))
	for _, k := range keys {
		v, ok := byKey[k]
		if !ok {
			continue
		}
		best, total := "", 0
		for _, w := range v.order {
			if v.counts[w] > v.counts[best] || best == "" {
				best = w
			}
			total += v.counts[w]
		}
		out = append(out, WordCount{Word: best, Count: total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > MaxCloudWords {
		out = out[:MaxCloudWords]
	}
	return out
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func lower(s string) string {
	return strings.ToLower(s)
}
