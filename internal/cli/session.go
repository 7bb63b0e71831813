package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/runtime"
	httpadapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

// Session is a machine loaded from the command line configuration.
type Session struct {
	Config     config.Config
	Logger     *slog.Logger
	Definition domain.StateDefinition
	Machine    *canopy.Machine
	Metrics    *prometheus.Registry
}

// NewLogger builds the stderr logger described by cfg.
func NewLogger(cfg config.Config) (*slog.Logger, slog.Level, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, level, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, level, err
	}
	return logging.NewWriter(os.Stderr, level, format), level, nil
}

// NewSession loads the definition and builds a machine with the built-in
// actions. Definitions calling actions other than the built-ins are
// rejected: the command line has no way to provide them.
func NewSession(ctx context.Context, cfg config.Config) (*Session, error) {
	logger, level, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	diag, err := runtime.ParseDiagnostics(cfg.Diagnostics)
	if err != nil {
		return nil, err
	}
	def, err := file.NewLoader(cfg.Definition).LoadDefinition(ctx)
	if err != nil {
		return nil, err
	}

	metricsReg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(metricsReg)
	if err != nil {
		return nil, err
	}

	opts := []canopy.Option{
		canopy.WithLogger(logger),
		canopy.WithDiagnostics(diag),
		canopy.WithPeriod(cfg.Period),
		canopy.WithBuiltins(),
		canopy.WithLifecycleHooks(metrics.Hooks()),
		canopy.WithLifecycleHooks(observability.TracingHooks()),
	}
	if level <= slog.LevelDebug {
		opts = append(opts, canopy.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	if cfg.AncestorCascade {
		opts = append(opts, canopy.WithAncestorCascade())
	}

	m, err := canopy.New(def, registry.New(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Definition, err)
	}
	if missing := m.Registry().Missing(def.ActionNames()...); len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", cfg.Definition, domain.ErrMissingAction, joinNames(missing))
	}

	return &Session{
		Config:     cfg,
		Logger:     logger,
		Definition: def,
		Machine:    m,
		Metrics:    metricsReg,
	}, nil
}

// Background starts the Redis pump and the HTTP server when configured.
// Both stop when ctx is done. Failures are sent on the returned channel.
func (s *Session) Background(ctx context.Context) <-chan error {
	errs := make(chan error, 2)

	if addr := s.Config.Redis.Addr; addr != "" {
		src := redis.New(addr, s.Config.Redis.Password, s.Config.Redis.DB,
			redis.WithKey(s.Config.Redis.Key),
			redis.WithPollTimeout(s.Config.Redis.Poll),
		)
		s.Logger.Info("Reading events from Redis", "addr", addr, "key", src.Key())
		go func() {
			defer src.Close()
			if err := canopy.Pump(ctx, src, s.Machine); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("redis source: %w", err)
			}
		}()
	}

	if addr := s.Config.HTTPAddr; addr != "" {
		srv := &http.Server{
			Addr: addr,
			Handler: httpadapter.NewHandler(s.Machine,
				httpadapter.WithLogger(s.Logger),
				httpadapter.WithMetrics(s.Metrics),
			),
			ReadHeaderTimeout: shutdownTimeout,
		}
		s.Logger.Info("Starting HTTP server", "addr", addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("http server: %w", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.Logger.Warn("Graceful shutdown did not complete", "error", err)
				_ = srv.Close()
			}
		}()
	}
	return errs
}

// Close runs the machine cleanup: exit actions up to the root and end_state.
func (s *Session) Close() error {
	return s.Machine.Cleanup(context.Background())
}
