// Package daemon composes historyd with fx.
package daemon

import (
	"context"
	"fmt"

	"github.com/matheus3301/wpp-history/internal/bus"
	"github.com/matheus3301/wpp-history/internal/config"
	"github.com/matheus3301/wpp-history/internal/logging"
	"github.com/matheus3301/wpp-history/internal/metrics"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/viewer"
	"github.com/matheus3301/wpp-history/internal/web"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params selects the configuration passed to the fx module.
type Params struct {
	ConfigPath string
	Config     *config.Config // takes precedence over ConfigPath when set
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			metrics.New,
			bus.New,
			provideStore,
			provideViewer,
			provideServer,
			newEventLog,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg := p.Config
	if cfg == nil {
		var err error
		if cfg, err = config.LoadOrDefault(p.ConfigPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Path:       cfg.Log.Path,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Service:    "historyd",
	})
}

func provideStore(cfg *config.Config, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *session.Store {
	return session.NewStore(cfg.Session.IdleTimeout.Duration, b, m, logger.Named("sessions"))
}

func provideViewer(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *viewer.Viewer {
	return viewer.FromConfig(cfg, m, logger)
}

func provideServer(cfg *config.Config, store *session.Store, v *viewer.Viewer, m *metrics.Metrics, logger *zap.Logger) (*web.Server, error) {
	return web.NewServer(web.Options{
		Addr:         cfg.ListenAddr,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
		Location:     cfg.Location(),
	}, store, v, m, logger)
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, srv *web.Server, store *session.Store, v *viewer.Viewer, events *eventLog, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			events.Start(context.Background())
			store.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()

			logger.Info("historyd started",
				zap.String("addr", srv.Addr()),
				zap.String("auth_mode", cfg.Primary.AuthMode),
				zap.Bool("secondary_configured", cfg.Secondary.URL != ""),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := srv.Stop(ctx)
			store.Stop()
			v.Close()
			events.Stop()
			logger.Info("historyd stopped")
			_ = logger.Sync()
			return err
		},
	})
}
