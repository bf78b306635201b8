package views

import (
	"fmt"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

// GeoTimeResult is the slice of posts created during one hour of the day.
type GeoTimeResult struct {
	Hour    int                  `json:"hour"`
	Caption string               `json:"caption"`
	Posts   []models.Post        `json:"posts"`
	Points  []models.Coordinates `json:"points"`
}

// GeoTime keeps posts whose creation hour equals hour exactly. Posts without
// coordinates count toward the caption but contribute no map point.
func GeoTime(t *dataset.Table, hour int) GeoTimeResult {
	posts := t.Filter(func(p models.Post) bool { return p.Created.Hour() == hour })
	res := GeoTimeResult{Hour: hour, Posts: posts}
	for _, p := range posts {
		if p.Coord != nil {
			res.Points = append(res.Points, *p.Coord)
		}
	}
	res.Caption = fmt.Sprintf("%d tweets between %d:00 and %d:00", len(posts), hour, nextHour(hour))
	return res
}

// HourWindow labels the one-hour window starting at hour, wrapping 23 to 0.
func HourWindow(hour int) string {
	return fmt.Sprintf("%d:00 to %d:00", hour, nextHour(hour))
}

func nextHour(hour int) int {
	return (hour + 1) % 24
}
