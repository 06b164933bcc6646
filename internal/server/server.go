// Package server assembles the daemon: sampler, suspension controller,
// governor loop, and the HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	apihttp "github.com/headroom-sh/headroom/internal/api/http"
	"github.com/headroom-sh/headroom/internal/governor"
	"github.com/headroom-sh/headroom/internal/infrastructure/config"
	"github.com/headroom-sh/headroom/internal/infrastructure/monitoring"
	"github.com/headroom-sh/headroom/internal/logging"
	"github.com/headroom-sh/headroom/internal/sampler"
	"github.com/headroom-sh/headroom/internal/suspend"
)

// Server owns the daemon's components and lifecycle.
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	governor   *governor.Governor
	controller *suspend.Controller
	httpServer *http.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a fully-wired server from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: false,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}

	logger.Info("initializing headroom daemon",
		zap.String("port", cfg.Server.Port),
		zap.Float64("memory_threshold", cfg.Governor.MemoryThresholdPercent),
		zap.Duration("tick_interval", cfg.Governor.TickInterval),
	)

	metrics := monitoring.NewMetrics()

	querier := sampler.NewGopsutilQuerier(cfg.Sampler.ProcessMemoryFloorMB)
	smp := sampler.New(querier, cfg.Sampler.WindowSize, logger, metrics)

	journal := suspend.NewJournal(cfg.Suspend.JournalPath)
	controller := suspend.NewController(
		suspend.NewCgroupFreezer(cfg.Suspend.CgroupRoot),
		suspend.UnixSignaler{},
		journal,
		logger,
		metrics,
	)
	// Resume anything a crashed predecessor left frozen.
	controller.Recover()

	gov := governor.New(governor.Config{
		MemoryThresholdPercent: cfg.Governor.MemoryThresholdPercent,
		CandidateCutoff:        cfg.Governor.CandidateCutoff,
		MaxVictimsPerTick:      cfg.Governor.MaxVictimsPerTick,
		TickInterval:           cfg.Governor.TickInterval,
		MaxSuspendAge:          cfg.Governor.MaxSuspendAge,
		HistorySize:            cfg.Governor.HistorySize,
	}, smp, controller, logger, metrics)

	handlers := apihttp.NewHandlers(gov, logger)
	router := apihttp.NewRouter(handlers, metrics, cfg)

	return &Server{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		governor:   gov,
		controller: controller,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run starts the governor loop and serves HTTP until Close is called.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.governor.Run(ctx)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close stops the loop, drains HTTP, and resumes every suspended
// process so nothing stays frozen after the daemon exits.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown failed", zap.Error(err))
	}

	s.controller.Shutdown()
	s.logger.Info("daemon stopped, all suspensions released")
	_ = s.logger.Sync()
	return nil
}
