package models

import (
	"fmt"
	"strings"
	"time"
)

// Sentiment is the fixed three-valued label attached to every post.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists the labels in canonical order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// ParseSentiment matches s case-insensitively against the label set.
func ParseSentiment(s string) (Sentiment, error) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive, nil
	case SentimentNeutral:
		return SentimentNeutral, nil
	case SentimentNegative:
		return SentimentNegative, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", s)
}

// Rank returns the canonical position of s, or len(Sentiments) when unknown.
func (s Sentiment) Rank() int {
	for i, v := range Sentiments {
		if v == s {
			return i
		}
	}
	return len(Sentiments)
}

// Title returns the label as shown in widgets ("Positive").
func (s Sentiment) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Airlines is the carrier enumeration offered by the breakdown multiselect.
var Airlines = []string{"American", "US Airways", "Delta", "Southwest", "United", "Virgin America"}

// AirlineRank returns the position of name in Airlines, or len(Airlines) when unknown.
func AirlineRank(name string) int {
	for i, a := range Airlines {
		if a == name {
			return i
		}
	}
	return len(Airlines)
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Post is one airline tweet with its labelled sentiment.
type Post struct {
	ID                  string       `json:"id,omitempty"`
	Text                string       `json:"text"`
	Sentiment           Sentiment    `json:"sentiment"`
	SentimentConfidence float64      `json:"sentimentConfidence,omitempty"`
	NegativeReason      string       `json:"negativeReason,omitempty"`
	Airline             string       `json:"airline"`
	Author              string       `json:"author,omitempty"`
	RetweetCount        int          `json:"retweetCount"`
	Coord               *Coordinates `json:"coord,omitempty"` // nil when the tweet carries no location
	Created             time.Time    `json:"created"`
	UserTimezone        string       `json:"userTimezone,omitempty"`
}
