package views

import (
	"errors"
	"math/rand/v2"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

// ErrNoMatchingPosts is returned when sampling from a sentiment with no posts.
var ErrNoMatchingPosts = errors.New("no posts with the requested sentiment")

// RandomPost picks one post with sentiment s uniformly at random.
// rng is not safe for concurrent use; callers serialize access.
func RandomPost(t *dataset.Table, s models.Sentiment, rng *rand.Rand) (models.Post, error) {
	matches := t.Filter(func(p models.Post) bool { return p.Sentiment == s })
	if len(matches) == 0 {
		return models.Post{}, ErrNoMatchingPosts
	}
	return matches[rng.IntN(len(matches))], nil
}
