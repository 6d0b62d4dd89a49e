// Package admin implements a read-only operator console: an SSH server
// (no auth beyond the host key — intended for a trusted management
// network) rendering a live, auto-refreshing view of server load via
// dispatch.Loop.Stats. Grounded on the teacher's tui.SSHServer
// (internal/platform/tui/ssh_server.go): the same Wish
// address/host-key/idle-timeout wiring and bubbletea.Middleware
// teaHandler shape, narrowed to one read-only view instead of a full
// game-picking session.
package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/duellab/pdserver/internal/dispatch"
)

// Config holds the admin console's listen configuration.
type Config struct {
	// Address is the host:port to listen on (e.g., ":2222").
	Address string

	// HostKeyPath is the path to the host key file. If empty, a key is
	// auto-generated at ~/.pdserver/admin_host_key.
	HostKeyPath string

	// IdleTimeout closes an idle operator session.
	IdleTimeout time.Duration
}

// Console wraps a Wish SSH server serving the read-only stats view.
type Console struct {
	cfg    Config
	server *ssh.Server
	loop   *dispatch.Loop
	logger *log.Logger
}

// NewConsole creates the admin console. It does not yet listen.
func NewConsole(cfg Config, loop *dispatch.Loop, logger *log.Logger) (*Console, error) {
	c := &Console{cfg: cfg, loop: loop, logger: logger}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".pdserver", "admin_host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(c.teaHandler),
			c.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create admin SSH server: %w", err)
	}
	c.server = server
	return c, nil
}

// teaHandler builds the stats view model for each SSH session.
func (c *Console) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	if _, _, ok := sshSession.Pty(); !ok {
		c.logger.Warn("admin session without PTY", "user", sshSession.User())
		return nil, nil
	}
	return newStatsModel(c.loop), []tea.ProgramOption{tea.WithAltScreen()}
}

func (c *Console) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		c.logger.Info("admin session started", "user", sshSession.User(), "remote", sshSession.RemoteAddr().String())
		next(sshSession)
		c.logger.Info("admin session ended", "user", sshSession.User())
	}
}

// ListenAndServe starts the console and blocks until it is shut down.
func (c *Console) ListenAndServe() error {
	c.logger.Info("starting admin console", "address", c.cfg.Address)
	if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the console.
func (c *Console) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}
