//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dashboard"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	DatasetPath string
	Seed        int64
}

// GetIntegrationConfig locates the full dataset. INTEGRATION_DATASET overrides the default of
// Tweets.csv at the module root. Skips the test when the file is absent.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	path := os.Getenv("INTEGRATION_DATASET")
	if path == "" {
		path = filepath.Join("..", "..", dataset.DefaultPath)
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("dataset %s not available (%v), skipping integration test", path, err)
	}
	return IntegrationTestConfig{DatasetPath: path, Seed: 1}
}

// SetupIntegrationRenderer loads the dataset and returns a renderer over it plus the logger
// the renderer writes to.
func SetupIntegrationRenderer(t *testing.T, cfg IntegrationTestConfig) (*dashboard.Renderer, *zap.Logger) {
	t.Helper()
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	table, err := dataset.NewLoader(cfg.DatasetPath).Load()
	if err != nil {
		t.Fatalf("Load(%s) error = %v", cfg.DatasetPath, err)
	}
	t.Logf("loaded %d posts from %s", table.Len(), cfg.DatasetPath)
	return dashboard.NewRenderer(table, cfg.Seed, logger), logger
}
