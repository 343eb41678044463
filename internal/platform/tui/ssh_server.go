package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/popshot/internal/report"
	"github.com/vovakirdan/popshot/internal/storage"
)

// SSHServerConfig configures the report server.
type SSHServerConfig struct {
	Address     string        // host:port, e.g. ":23235"
	HostKeyPath string        // Empty generates ~/.popshot/host_key
	DBPath      string        // Results database the browser reads
	IdleTimeout time.Duration // Idle sessions are disconnected after this
}

// DefaultSSHServerConfig returns the report server defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23235",
		DBPath:      "~/.popshot/results.db",
		IdleTimeout: 30 * time.Minute,
	}
}

// BatchSource returns the batch a new SSH session browses.
type BatchSource func() (*report.Batch, error)

// SSHServer wraps a Wish SSH server that serves the report browser.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	source BatchSource
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
// Sessions browse the latest stored batch.
func NewSSHServer(cfg SSHServerConfig, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	srv, err := newSSHServer(cfg, store.LatestBatch, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	srv.store = store
	return srv, nil
}

// NewSSHServerWithSource creates a server whose sessions browse the batch
// returned by source.
func NewSSHServerWithSource(cfg SSHServerConfig, source BatchSource, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return newSSHServer(cfg, source, logger)
}

func newSSHServer(cfg SSHServerConfig, source BatchSource, logger *log.Logger) (*SSHServer, error) {
	srv := &SSHServer{
		config: cfg,
		source: source,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("tui: cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".popshot", "host_key")
	}

	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a report browser for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	batch, err := s.source()
	if err != nil {
		s.logger.Warn("could not load batch", "user", sshSession.User(), "error", err)
		batch = nil
	}

	model := NewBrowserModel(batch, pty.Window.Width, pty.Window.Height)
	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware records who browsed reports and for how long.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		start := time.Now()
		user, remote := sshSession.User(), sshSession.RemoteAddr().String()
		s.logger.Info("browser opened", "user", user, "remote", remote)
		next(sshSession)
		s.logger.Info("browser closed", "user", user, "remote", remote, "after", time.Since(start).Round(time.Second))
	}
}

// ListenAndServe serves until SIGINT or SIGTERM.
func (s *SSHServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve accepts connections until ctx is done, then shuts the server down.
// A listener failure also ends Serve and is returned.
func (s *SSHServer) Serve(ctx context.Context) error {
	s.logger.Info("serving reports", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if errors.Is(err, ssh.ErrServerClosed) {
			err = nil
		}
		errc <- err
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("stopping report server")
		return s.Shutdown()
	case err := <-errc:
		if err != nil {
			s.logger.Error("listener failed", "error", err)
		}
		if cerr := s.Shutdown(); err == nil {
			err = cerr
		}
		return err
	}
}

// Shutdown closes the listener and open sessions, waiting up to ten
// seconds, and closes the results store.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
	return err
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
