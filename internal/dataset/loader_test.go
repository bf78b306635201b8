package dataset

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

func copyFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "tweets.csv"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tweets.csv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoader_Load_ParsesFixture(t *testing.T) {
	table, err := NewLoader(filepath.Join("testdata", "tweets.csv")).Load()
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	first := table.Posts()[0]
	assert.Equal(t, "570306133677760513", first.ID)
	assert.Equal(t, models.SentimentNeutral, first.Sentiment)
	assert.Equal(t, "Virgin America", first.Airline)
	assert.Equal(t, 11, first.Created.Hour())
	assert.Nil(t, first.Coord)

	united := table.Posts()[2]
	require.NotNil(t, united.Coord)
	assert.InDelta(t, 40.74804263, united.Coord.Lat, 1e-9)
	assert.InDelta(t, -73.99295302, united.Coord.Lon, 1e-9)
	assert.Equal(t, 2, united.RetweetCount)
	assert.Equal(t, "Late Flight", united.NegativeReason)

	assert.Nil(t, table.Posts()[3].Coord, "[0.0, 0.0] is treated as absent")
	for _, p := range table.Posts() {
		assert.Less(t, p.Sentiment.Rank(), len(models.Sentiments))
	}
}

func TestLoader_Load_Memoized(t *testing.T) {
	path := copyFixture(t)
	l := NewLoader(path)

	first, err := l.Load()
	require.NoError(t, err)

	// The second call must not touch the disk.
	require.NoError(t, os.Remove(path))
	second, err := l.Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoader_Load_ConcurrentFirstAccess(t *testing.T) {
	l := NewLoader(copyFixture(t))

	const n = 16
	results := make([]*Table, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = l.Load()
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := l.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err2 := l.Load()
	assert.Equal(t, err, err2, "failure is memoized too")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmptyFile},
		{"missing column", "text,airline\nhi,Delta\n", ErrMissingColumn},
		{"bad timestamp", "text,airline_sentiment,airline,tweet_created\nhi,positive,Delta,yesterday\n", ErrBadTimestamp},
		{"bad sentiment", "text,airline_sentiment,airline,tweet_created\nhi,angry,Delta,2015-02-24 11:35:52 -0800\n", ErrBadSentiment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_LatLonColumns(t *testing.T) {
	in := "text,airline_sentiment,airline,tweet_created,latitude,longitude\n" +
		"hi,positive,Delta,2015-02-24T08:00:00Z,33.6,-84.4\n" +
		"yo,negative,United,2015-02-24 09:00:00,,\n"
	posts, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].Coord)
	assert.InDelta(t, 33.6, posts[0].Coord.Lat, 1e-9)
	assert.Nil(t, posts[1].Coord)
	assert.Equal(t, 9, posts[1].Created.Hour())
}

func TestParseCoord(t *testing.T) {
	assert.Nil(t, ParseCoord(""))
	assert.Nil(t, ParseCoord("[]"))
	assert.Nil(t, ParseCoord("[abc, 1]"))
	c := ParseCoord("[1.5, -2.25]")
	require.NotNil(t, c)
	assert.Equal(t, models.Coordinates{Lat: 1.5, Lon: -2.25}, *c)
}

func TestTable_Filter(t *testing.T) {
	table := NewTable([]models.Post{
		{Text: "a", Airline: "Delta"},
		{Text: "b", Airline: "United"},
		{Text: "c", Airline: "Delta"},
	})
	got := table.Filter(func(p models.Post) bool { return p.Airline == "Delta" })
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Text)
	assert.Equal(t, "c", got[1].Text)
	assert.Equal(t, 3, table.Len(), "Filter does not mutate the table")
}
