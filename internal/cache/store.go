package cache

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/charts"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/controls"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dashboard"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
)

// FigureRenderer is implemented by dashboard.Renderer.
type FigureRenderer interface {
	Figure(ctx context.Context, v dashboard.View, state controls.State) (charts.Figure, error)
}

// ChartStore serves rendered chart pages, going through a Cache when one is configured.
// Cache failures are logged and fall through to rendering.
type ChartStore struct {
	cache  Cache
	ttl    time.Duration
	group  *renderGroup
	logger *zap.Logger
}

// NewChartStore returns a ChartStore. A nil cache renders every request.
func NewChartStore(c Cache, ttl time.Duration, logger *zap.Logger) *ChartStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartStore{cache: c, ttl: ttl, group: newRenderGroup(), logger: logger}
}

// Render returns the chart page for view v under state. Hidden views return
// dashboard.ErrHidden without touching the cache; render errors are never cached.
// Concurrent misses for one key share a single render.
func (s *ChartStore) Render(ctx context.Context, r FigureRenderer, v dashboard.View, state controls.State) ([]byte, error) {
	if s.cache == nil || !dashboard.Visible(v, state) {
		return renderFigure(ctx, r, v, state)
	}

	key := dashboard.FigureKey(v, state)
	body, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		observability.RecordChartCache("error")
		s.logger.Debug("chart cache get failed", zap.String("key", key), zap.Error(err))
	case ok:
		observability.RecordChartCache("hit")
		return body, nil
	default:
		observability.RecordChartCache("miss")
	}

	body, shared, err := s.group.Do(ctx, key, func() ([]byte, error) {
		body, err := renderFigure(ctx, r, v, state)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
			s.logger.Debug("chart cache set failed", zap.String("key", key), zap.Error(err))
		}
		return body, nil
	})
	if shared {
		observability.RecordChartCache("coalesced")
	}
	return body, err
}

func renderFigure(ctx context.Context, r FigureRenderer, v dashboard.View, state controls.State) ([]byte, error) {
	fig, err := r.Figure(ctx, v, state)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := fig.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
