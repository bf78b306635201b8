// Package controls holds the dashboard's sidebar widget values as an immutable snapshot.
// A snapshot travels as URL query parameters so every interaction is a plain GET.
package controls

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

// VizKind selects how the sentiment distribution is drawn.
type VizKind string

const (
	VizBar VizKind = "bar"
	VizPie VizKind = "pie"
)

// Query parameter names, one per widget.
const (
	ParamRandomSentiment = "random_sentiment"
	ParamViz             = "viz"
	ParamShowSentiment   = "show_sentiment"
	ParamShowGeo         = "show_geo"
	ParamShowWordCloud   = "show_wordcloud"
	ParamHour            = "hour"
	ParamRaw             = "raw"
	ParamAirline         = "airline"
	ParamCloudSentiment  = "cloud_sentiment"
)

var (
	ErrInvalidSentiment = errors.New("invalid sentiment")
	ErrInvalidVizKind   = errors.New("invalid visualization type")
	ErrInvalidHour      = errors.New("hour must be an integer in 0..23")
	ErrInvalidAirline   = errors.New("unknown airline")
	ErrInvalidBool      = errors.New("invalid boolean")
)

// State is one snapshot of every sidebar widget.
type State struct {
	RandomSentiment models.Sentiment `json:"randomSentiment"`
	VizKind         VizKind          `json:"vizKind"`
	ShowSentiment   bool             `json:"showSentiment"`
	ShowGeo         bool             `json:"showGeo"`
	ShowWordCloud   bool             `json:"showWordCloud"`
	Hour            int              `json:"hour"`
	ShowRaw         bool             `json:"showRaw"`
	Airlines        []string         `json:"airlines"`
	CloudSentiment  models.Sentiment `json:"cloudSentiment"`
}

// Default is the state of a freshly opened page: every section hidden, nothing selected.
func Default() State {
	return State{
		RandomSentiment: models.SentimentPositive,
		VizKind:         VizBar,
		CloudSentiment:  models.SentimentPositive,
	}
}

// Parse builds a State from query values. Absent parameters keep their default.
// Each widget is validated on its own; any combination of valid values is accepted.
func Parse(q url.Values) (State, error) {
	s := Default()
	var err error

	if v := q.Get(ParamRandomSentiment); v != "" {
		if s.RandomSentiment, err = parseSentiment(ParamRandomSentiment, v); err != nil {
			return State{}, err
		}
	}
	if v := q.Get(ParamCloudSentiment); v != "" {
		if s.CloudSentiment, err = parseSentiment(ParamCloudSentiment, v); err != nil {
			return State{}, err
		}
	}
	if v := q.Get(ParamViz); v != "" {
		if s.VizKind, err = ParseVizKind(v); err != nil {
			return State{}, err
		}
	}
	if v := q.Get(ParamHour); v != "" {
		h, convErr := strconv.Atoi(strings.TrimSpace(v))
		if convErr != nil || h < 0 || h > 23 {
			return State{}, fmt.Errorf("%s=%q: %w", ParamHour, v, ErrInvalidHour)
		}
		s.Hour = h
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{ParamShowSentiment, &s.ShowSentiment},
		{ParamShowGeo, &s.ShowGeo},
		{ParamShowWordCloud, &s.ShowWordCloud},
		{ParamRaw, &s.ShowRaw},
	}
	for _, f := range flags {
		if v := q.Get(f.name); v != "" {
			b, convErr := parseBool(v)
			if convErr != nil {
				return State{}, fmt.Errorf("%s=%q: %w", f.name, v, ErrInvalidBool)
			}
			*f.dst = b
		}
	}

	seen := make(map[string]bool)
	for _, raw := range q[ParamAirline] {
		name, ok := canonicalAirline(raw)
		if !ok {
			return State{}, fmt.Errorf("%s=%q: %w", ParamAirline, raw, ErrInvalidAirline)
		}
		if !seen[name] {
			seen[name] = true
			s.Airlines = append(s.Airlines, name)
		}
	}
	return s, nil
}

// Values encodes s as query parameters. Parse(s.Values()) reproduces s.
// Flags that are false and the hour 0 are still written so links are explicit.
func (s State) Values() url.Values {
	q := url.Values{}
	q.Set(ParamRandomSentiment, string(s.RandomSentiment))
	q.Set(ParamViz, string(s.VizKind))
	q.Set(ParamShowSentiment, strconv.FormatBool(s.ShowSentiment))
	q.Set(ParamShowGeo, strconv.FormatBool(s.ShowGeo))
	q.Set(ParamShowWordCloud, strconv.FormatBool(s.ShowWordCloud))
	q.Set(ParamHour, strconv.Itoa(s.Hour))
	q.Set(ParamRaw, strconv.FormatBool(s.ShowRaw))
	for _, a := range s.Airlines {
		q.Add(ParamAirline, a)
	}
	q.Set(ParamCloudSentiment, string(s.CloudSentiment))
	return q
}

// Selected reports whether airline is part of the multiselect value.
func (s State) Selected(airline string) bool {
	for _, a := range s.Airlines {
		if a == airline {
			return true
		}
	}
	return false
}

// ParseVizKind accepts "bar"/"pie" and the widget captions "Histogram"/"Pie Chart".
func ParseVizKind(v string) (VizKind, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "bar", "histogram":
		return VizBar, nil
	case "pie", "pie chart":
		return VizPie, nil
	}
	return "", fmt.Errorf("%s=%q: %w", ParamViz, v, ErrInvalidVizKind)
}

func parseSentiment(param, v string) (models.Sentiment, error) {
	s, err := models.ParseSentiment(v)
	if err != nil {
		return "", fmt.Errorf("%s=%q: %w", param, v, ErrInvalidSentiment)
	}
	return s, nil
}

// parseBool accepts strconv.ParseBool forms plus the HTML checkbox value "on".
func parseBool(v string) (bool, error) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "on") {
		return true, nil
	}
	if strings.EqualFold(v, "off") {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// canonicalAirline matches raw case-insensitively against the enumeration.
func canonicalAirline(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, a := range models.Airlines {
		if strings.EqualFold(a, raw) {
			return a, true
		}
	}
	return "", false
}
