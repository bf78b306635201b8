package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("dataset file is empty")
	// ErrBadTimestamp is returned when tweet_created does not parse.
	ErrBadTimestamp = errors.New("unparseable timestamp")
	// ErrBadSentiment is returned when airline_sentiment is not one of the three labels.
	ErrBadSentiment = errors.New("invalid sentiment label")
)

const (
	colText       = "text"
	colSentiment  = "airline_sentiment"
	colAirline    = "airline"
	colCreated    = "tweet_created"
	colCoord      = "tweet_coord"
	colLatitude   = "latitude"
	colLongitude  = "longitude"
	colID         = "tweet_id"
	colConfidence = "airline_sentiment_confidence"
	colNegReason  = "negativereason"
	colName       = "name"
	colRetweets   = "retweet_count"
	colTimezone   = "user_timezone"
)

var requiredColumns = []string{colText, colSentiment, colAirline, colCreated}

// timestampLayouts are tried in order. The first matches the published airline tweets export.
var timestampLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Parse reads a header row followed by one post per row.
func Parse(r io.Reader) ([]models.Post, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var posts []models.Post
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		p, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func parseRecord(rec []string, cols map[string]int) (models.Post, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	sentiment, err := models.ParseSentiment(get(colSentiment))
	if err != nil {
		return models.Post{}, fmt.Errorf("%w: %q", ErrBadSentiment, get(colSentiment))
	}
	created, err := ParseTimestamp(get(colCreated))
	if err != nil {
		return models.Post{}, err
	}

	p := models.Post{
		ID:             get(colID),
		Text:           get(colText),
		Sentiment:      sentiment,
		NegativeReason: get(colNegReason),
		Airline:        strings.TrimSpace(get(colAirline)),
		Author:         get(colName),
		Created:        created,
		UserTimezone:   get(colTimezone),
	}
	if v := strings.TrimSpace(get(colConfidence)); v != "" {
		p.SentimentConfidence, _ = strconv.ParseFloat(v, 64)
	}
	if v := strings.TrimSpace(get(colRetweets)); v != "" {
		p.RetweetCount, _ = strconv.Atoi(v)
	}
	if _, ok := cols[colCoord]; ok {
		p.Coord = ParseCoord(get(colCoord))
	} else {
		p.Coord = parseLatLon(get(colLatitude), get(colLongitude))
	}
	return p, nil
}

// ParseTimestamp parses a creation timestamp, keeping the UTC offset recorded in the file.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// ParseCoord parses "[lat, lon]". Empty, malformed and [0, 0] values yield nil.
func ParseCoord(s string) *models.Coordinates {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return nil
	}
	return parseLatLon(lat, lon)
}

func parseLatLon(latStr, lonStr string) *models.Coordinates {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return nil
	}
	if lat == 0 && lon == 0 {
		return nil
	}
	return &models.Coordinates{Lat: lat, Lon: lon}
}
