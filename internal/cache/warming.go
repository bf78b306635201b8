package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/controls"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dashboard"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
)

// Target is one figure to prerender.
type Target struct {
	View  dashboard.View
	State controls.State
}

// DefaultTargets covers the figures reachable from single-widget changes: both sentiment
// chart kinds, every hour of the geo view, and a word cloud per sentiment.
func DefaultTargets() []Target {
	var out []Target
	for _, kind := range []controls.VizKind{controls.VizBar, controls.VizPie} {
		s := controls.Default()
		s.ShowSentiment = true
		s.VizKind = kind
		out = append(out, Target{dashboard.ViewSentiment, s})
	}
	for h := 0; h < 24; h++ {
		s := controls.Default()
		s.ShowGeo = true
		s.Hour = h
		out = append(out, Target{dashboard.ViewGeo, s})
	}
	for _, sent := range models.Sentiments {
		s := controls.Default()
		s.ShowWordCloud = true
		s.CloudSentiment = sent
		out = append(out, Target{dashboard.ViewWordCloud, s})
	}
	return out
}

// ChartWarmer prerenders figures into a ChartStore.
type ChartWarmer struct {
	store    *ChartStore
	renderer FigureRenderer
	logger   *zap.Logger
}

// NewChartWarmer creates a ChartWarmer.
func NewChartWarmer(store *ChartStore, renderer FigureRenderer, logger *zap.Logger) *ChartWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartWarmer{store: store, renderer: renderer, logger: logger}
}

// Warm renders every target concurrently and returns the joined failures. Targets whose
// view has nothing to draw (an empty word cloud) count as failures too.
func (w *ChartWarmer) Warm(ctx context.Context, targets []Target) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	w.logger.Info("warming chart cache", zap.Int("targets", len(targets)))

	var wg sync.WaitGroup
	errCh := make(chan error, len(targets))
	for _, t := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.store.Render(ctx, w.renderer, t.View, t.State); err != nil {
				errCh <- fmt.Errorf("warm %s: %w", dashboard.FigureKey(t.View, t.State), err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start)
	observability.CacheWarmingDurationSeconds.Observe(duration.Seconds())
	w.logger.Info("chart cache warming complete",
		zap.Int("targets", len(targets)),
		zap.Int("errors", len(errs)),
		zap.Duration("duration", duration))
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return errors.Join(errs...)
	}
	return nil
}
