// Package gameserver is the composition root: it wires configuration,
// persistence, the dispatcher, the WebSocket transport, and the
// optional admin console into one process and owns its lifecycle.
// Grounded on the teacher's tui.SSHServer (internal/platform/tui/ssh_server.go):
// a single struct holding every wired component with NewXxx/ListenAndServe/
// Shutdown methods and the same signal-driven shutdown shape, generalized
// from one Wish SSH listener to an HTTP (WebSocket) listener plus a
// second, optional SSH listener for the admin console.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/duellab/pdserver/internal/admin"
	"github.com/duellab/pdserver/internal/config"
	"github.com/duellab/pdserver/internal/dispatch"
	"github.com/duellab/pdserver/internal/persistence"
	"github.com/duellab/pdserver/internal/transport"
)

// Server owns the public game listener, the dispatcher driving it, and
// (optionally) the admin console.
type Server struct {
	cfg    config.ServerConfig
	logger *log.Logger

	store persistence.Store
	loop  *dispatch.Loop
	http  *http.Server
	admin *admin.Console

	tickerStop chan struct{}
}

// New constructs every component from cfg but does not yet listen.
func New(cfg config.ServerConfig) (*Server, error) {
	logger := newLogger(cfg.Logging)

	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	loop := dispatch.New(logger, store)
	wsServer := transport.NewServer(loop, logger, transport.Config{
		WriteWait: cfg.Transport.WriteWait.Get(),
		PongWait:  cfg.Transport.PongWait.Get(),
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
		loop:   loop,
		http: &http.Server{
			Addr:    cfg.Listen.Address,
			Handler: mux,
		},
		tickerStop: make(chan struct{}),
	}

	if cfg.Admin.Enabled {
		console, err := admin.NewConsole(admin.Config{
			Address:     cfg.Admin.Address,
			HostKeyPath: cfg.Admin.HostKeyPath,
			IdleTimeout: cfg.Admin.IdleTimeout.Get(),
		}, loop, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create admin console: %w", err)
		}
		srv.admin = console
	}

	return srv, nil
}

func newLogger(cfg config.LoggingConfig) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "pdserver",
	})
	if lvl, err := log.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func openStore(cfg config.StorageConfig) (persistence.Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return persistence.OpenSQLiteStore(config.ExpandHome(cfg.SQLitePath))
	case "memory":
		return persistence.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ListenAndServe starts the game listener, the periodic sweep loop, and
// (if enabled) the admin console, then blocks until a termination
// signal arrives.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting game server", "address", s.cfg.Listen.Address)

	go s.runTicker()

	httpErr := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
			return
		}
		httpErr <- nil
	}()

	var adminErr chan error
	if s.admin != nil {
		adminErr = make(chan error, 1)
		go func() {
			adminErr <- s.admin.ListenAndServe()
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		s.logger.Info("shutting down...")
	case err := <-httpErr:
		if err != nil {
			s.logger.Error("game listener error", "error", err)
		}
	case err := <-adminErr:
		if err != nil {
			s.logger.Error("admin console error", "error", err)
		}
	}

	return s.Shutdown()
}

// runTicker drives the dispatcher's periodic sweep at the configured
// cadence until Shutdown stops it.
func (s *Server) runTicker() {
	interval := s.cfg.Transport.TickInterval.Get()
	if interval <= 0 {
		interval = dispatch.TickInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			s.loop.Tick(now)
		case <-s.tickerStop:
			return
		}
	}
}

// Shutdown gracefully stops every component.
func (s *Server) Shutdown() error {
	close(s.tickerStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.admin != nil {
		_ = s.admin.Shutdown(ctx)
	}
	err := s.http.Shutdown(ctx)
	if s.store != nil {
		_ = s.store.Close()
	}
	return err
}
