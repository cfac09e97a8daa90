package viewer

import (
	"github.com/matheus3301/wpp-history/internal/config"
	"github.com/matheus3301/wpp-history/internal/metrics"
	"github.com/matheus3301/wpp-history/internal/primary"
	"github.com/matheus3301/wpp-history/internal/secondary"
	"go.uber.org/zap"
)

// FromConfig builds both backend clients and a Viewer from cfg. m may be nil.
func FromConfig(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Viewer {
	timeout := cfg.HTTPTimeout.Duration
	p := primary.NewClient(primary.Options{
		URL:      cfg.Primary.URL,
		AuthMode: cfg.Primary.AuthMode,
		APIKey:   cfg.Primary.APIKey,
		Timeout:  timeout,
	}, m, logger)
	s := secondary.NewClient(cfg.Secondary.URL, timeout, m, logger)
	return New(p, s, Options{SortNewestFirst: cfg.Primary.SortNewestFirst}, m, logger)
}
