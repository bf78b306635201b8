// Package dashboard runs the page top to bottom for one control snapshot.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/charts"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/controls"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/views"
)

// View names a togglable section. The values appear in chart URLs and metric labels.
type View string

const (
	ViewSentiment View = "sentiment"
	ViewGeo       View = "geo"
	ViewAirlines  View = "airlines"
	ViewWordCloud View = "wordcloud"
)

// Views lists the sections in page order.
var Views = []View{ViewSentiment, ViewGeo, ViewAirlines, ViewWordCloud}

// ParseView maps a URL segment to a View.
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

var (
	// ErrUnknownView is returned for a view name outside Views.
	ErrUnknownView = errors.New("unknown view")
	// ErrHidden is returned when a figure is requested for a section the controls gate off.
	ErrHidden = errors.New("view is hidden by the current controls")
)

// Page copy. These strings are part of what users see and are kept stable.
const (
	Title         = "Sentiment Analysis of Tweets about US Airlines"
	Intro         = "This application is a dashboard to analyze the Sentiment of Tweets 🐦"
	SidebarTitle  = "Analyze Sentiments"
	SidebarIntro  = "Analyze positive and negative mentions about Airlines on Twitter."
	sentimentHead = "### Number of Tweets by Sentiment"
	geoHead       = "### Tweets locations based on time of day"
	cloudHeadFmt  = "### Word Cloud for %s Sentiment"
)

// RandomPostWidget is the sidebar's "Show Random Tweet" output.
type RandomPostWidget struct {
	Sentiment models.Sentiment `json:"sentiment"`
	Post      *models.Post     `json:"post,omitempty"`
	Err       string           `json:"error,omitempty"`
	// Empty is set with Err when the category simply has no posts.
	Empty bool `json:"empty,omitempty"`
}

// Section is one rendered view. Exactly one payload field is set unless Err is.
type Section struct {
	View    View   `json:"view"`
	Heading string `json:"heading,omitempty"` // markdown
	Caption string `json:"caption,omitempty"` // markdown
	Err     string `json:"error,omitempty"`
	// Empty is set with Err when the view had nothing to draw rather than failing.
	Empty bool `json:"empty,omitempty"`

	Sentiment []views.SentimentCount `json:"sentiment,omitempty"`
	VizKind   controls.VizKind       `json:"vizKind,omitempty"`
	Geo       *views.GeoTimeResult   `json:"geo,omitempty"`
	ShowRaw   bool                   `json:"showRaw,omitempty"`
	Breakdown *views.Breakdown       `json:"breakdown,omitempty"`
	WordCloud *views.WordCloudResult `json:"wordCloud,omitempty"`
}

// Page is everything one render produces for the display surface.
type Page struct {
	Title        string           `json:"title"`
	Intro        string           `json:"intro"`
	SidebarTitle string           `json:"sidebarTitle"`
	SidebarIntro string           `json:"sidebarIntro"`
	Controls     controls.State   `json:"controls"`
	RandomPost   RandomPostWidget `json:"randomPost"`
	Sections     []Section        `json:"sections"`
	Rows         int              `json:"rows"`
}

// Failed reports whether any widget or section failed in this render. Empty results
// are shown to the user but do not count as failures.
func (p Page) Failed() bool {
	if p.RandomPost.Err != "" && !p.RandomPost.Empty {
		return true
	}
	for _, s := range p.Sections {
		if s.Err != "" && !s.Empty {
			return true
		}
	}
	return false
}

// IsEmptyResult reports whether err means "nothing to show" rather than a failure.
func IsEmptyResult(err error) bool {
	return errors.Is(err, views.ErrNoWords) || errors.Is(err, views.ErrNoMatchingPosts)
}

// Renderer renders pages against one loaded table.
type Renderer struct {
	table  *dataset.Table
	logger *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRenderer returns a Renderer. seed 0 seeds random post sampling from the clock.
func NewRenderer(table *dataset.Table, seed int64, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return &Renderer{
		table:  table,
		logger: logger,
		rng:    rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)),
	}
}

// loggerFromContext returns the request-scoped logger set by middleware, or the renderer's.
func (r *Renderer) loggerFromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return r.logger
}

// Render runs every widget and section for state, top to bottom. A failing section
// carries its error and does not stop the sections after it.
func (r *Renderer) Render(ctx context.Context, state controls.State) Page {
	logger := r.loggerFromContext(ctx)
	page := Page{
		Title:        Title,
		Intro:        Intro,
		SidebarTitle: SidebarTitle,
		SidebarIntro: SidebarIntro,
		Controls:     state,
		Rows:         r.table.Len(),
	}

	page.RandomPost = RandomPostWidget{Sentiment: state.RandomSentiment}
	if p, err := r.randomPost(state.RandomSentiment); err != nil {
		page.RandomPost.Err = err.Error()
		page.RandomPost.Empty = IsEmptyResult(err)
		logger.Debug("random post unavailable", zap.String("sentiment", string(state.RandomSentiment)), zap.Error(err))
	} else {
		page.RandomPost.Post = &p
	}

	for _, v := range Views {
		start := time.Now()
		sec, err := r.section(v, state)
		switch {
		case errors.Is(err, ErrHidden):
			observability.RecordViewRender(string(v), observability.OutcomeHidden, 0)
			continue
		case IsEmptyResult(err):
			observability.RecordViewRender(string(v), observability.OutcomeEmpty, time.Since(start))
			sec.Err = err.Error()
			sec.Empty = true
		case err != nil:
			observability.RecordViewRender(string(v), observability.OutcomeError, time.Since(start))
			logger.Debug("view render failed", zap.String("view", string(v)), zap.Error(err))
			sec.Err = err.Error()
		default:
			observability.RecordViewRender(string(v), observability.OutcomeOK, time.Since(start))
		}
		page.Sections = append(page.Sections, sec)
	}
	return page
}

// Figure renders the chart for a single view under state. It returns ErrHidden when the
// controls gate the view off, and the view's own error when it has nothing to draw.
func (r *Renderer) Figure(ctx context.Context, v View, state controls.State) (charts.Figure, error) {
	start := time.Now()
	sec, err := r.section(v, state)
	if err != nil {
		switch {
		case errors.Is(err, ErrHidden):
		case IsEmptyResult(err):
			observability.RecordViewRender(string(v), observability.OutcomeEmpty, time.Since(start))
		default:
			observability.RecordViewRender(string(v), observability.OutcomeError, time.Since(start))
			r.loggerFromContext(ctx).Debug("figure render failed", zap.String("view", string(v)), zap.Error(err))
		}
		return nil, err
	}
	observability.RecordViewRender(string(v), observability.OutcomeOK, time.Since(start))

	switch v {
	case ViewSentiment:
		return charts.Sentiment(sec.Sentiment, sec.VizKind), nil
	case ViewGeo:
		return charts.GeoTime(*sec.Geo), nil
	case ViewAirlines:
		return charts.Breakdown(*sec.Breakdown), nil
	case ViewWordCloud:
		return charts.WordCloud(*sec.WordCloud), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownView, v)
}

// Visible reports whether the controls let view v render at all.
func Visible(v View, state controls.State) bool {
	switch v {
	case ViewSentiment:
		return state.ShowSentiment
	case ViewGeo:
		return state.ShowGeo
	case ViewAirlines:
		return len(state.Airlines) > 0
	case ViewWordCloud:
		return state.ShowWordCloud
	}
	return false
}

// FigureKey identifies the figure for v under state. Two states with the same key draw the
// same figure; controls that do not affect v are left out. The key contains no whitespace.
func FigureKey(v View, state controls.State) string {
	var parts []string
	switch v {
	case ViewSentiment:
		parts = []string{string(state.VizKind)}
	case ViewGeo:
		parts = []string{strconv.Itoa(state.Hour)}
	case ViewAirlines:
		// the x axis follows the enumeration order, so selection order does not matter
		parts = append(parts, state.Airlines...)
		sort.Strings(parts)
	case ViewWordCloud:
		parts = []string{string(state.CloudSentiment)}
	}
	for i, p := range parts {
		parts[i] = url.QueryEscape(p)
	}
	return string(v) + ":" + strings.Join(parts, ",")
}

// section computes one view's payload, or ErrHidden when the controls gate it off.
func (r *Renderer) section(v View, state controls.State) (Section, error) {
	sec := Section{View: v}
	if _, err := ParseView(string(v)); err != nil {
		return sec, err
	}
	if !Visible(v, state) {
		return sec, ErrHidden
	}
	switch v {
	case ViewSentiment:
		sec.Heading = sentimentHead
		sec.VizKind = state.VizKind
		sec.Sentiment = views.SentimentDistribution(r.table)
	case ViewGeo:
		res := views.GeoTime(r.table, state.Hour)
		sec.Heading = geoHead
		sec.Caption = res.Caption
		sec.Geo = &res
		sec.ShowRaw = state.ShowRaw
	case ViewAirlines:
		b, ok := views.AirlineBreakdown(r.table, state.Airlines)
		if !ok {
			return sec, ErrHidden
		}
		sec.Breakdown = &b
	case ViewWordCloud:
		sec.Heading = fmt.Sprintf(cloudHeadFmt, state.CloudSentiment.Title())
		res, err := views.WordCloud(r.table, state.CloudSentiment)
		if err != nil {
			return sec, err
		}
		sec.WordCloud = &res
	}
	return sec, nil
}

func (r *Renderer) randomPost(s models.Sentiment) (models.Post, error) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return views.RandomPost(r.table, s, r.rng)
}
