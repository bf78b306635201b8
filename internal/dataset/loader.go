package dataset

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
)

// DefaultPath is the dataset file shipped with the deployment, relative to the working directory.
const DefaultPath = "Tweets.csv"

// Table is the immutable in-memory collection of posts.
type Table struct {
	posts []models.Post
}

// NewTable wraps posts in a Table. The slice must not be modified afterwards.
func NewTable(posts []models.Post) *Table {
	return &Table{posts: posts}
}

// Len returns the number of posts.
func (t *Table) Len() int {
	return len(t.posts)
}

// Posts returns the shared backing slice. Callers must treat it as read-only.
func (t *Table) Posts() []models.Post {
	return t.posts
}

// Filter returns a new slice with the posts for which keep returns true.
func (t *Table) Filter(keep func(models.Post) bool) []models.Post {
	var out []models.Post
	for _, p := range t.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Loader reads a dataset file once and hands out the same Table on every call.
type Loader struct {
	path string
	load func() (*Table, error)
}

// NewLoader returns a Loader for path. Nothing is read until Load is called.
func NewLoader(path string) *Loader {
	l := &Loader{path: path}
	l.load = sync.OnceValues(l.read)
	return l
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load returns the parsed table. The first call reads and parses the file; every
// later call, including concurrent ones, returns the same pointer or the same error.
func (l *Loader) Load() (*Table, error) {
	return l.load()
}

func (l *Loader) read() (*Table, error) {
	start := time.Now()
	f, err := os.Open(l.path)
	if err != nil {
		observability.RecordDatasetLoad(time.Since(start), 0, err)
		return nil, fmt.Errorf("open dataset %s: %w", l.path, err)
	}
	defer f.Close()

	posts, err := Parse(f)
	observability.RecordDatasetLoad(time.Since(start), len(posts), err)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", l.path, err)
	}
	return NewTable(posts), nil
}

var defaultLoader = NewLoader(DefaultPath)

// Default returns the process-wide loader for DefaultPath.
func Default() *Loader {
	return defaultLoader
}
