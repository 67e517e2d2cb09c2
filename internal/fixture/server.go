package fixture

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/wesleyorama2/stallserver/internal/output"
)

// Server binds the responder to a TCP listener. net/http serves every
// connection on its own goroutine, so one stalled request never blocks the
// accept loop.
type Server struct {
	cfg        Config
	responder  *Responder
	httpServer *http.Server
	startup    io.Writer
	logger     *output.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server for cfg. Unset fields take defaults.
func New(cfg Config, opts ...Option) *Server {
	cfg = cfg.withDefaults()
	o := buildOptions(opts)
	responder := newResponder(cfg, o)

	return &Server{
		cfg:       cfg,
		responder: responder,
		startup:   o.startup,
		logger:    o.logger,
		// No read, write or idle timeouts: callers must supply their own.
		httpServer: &http.Server{
			Addr:     cfg.Addr,
			Handler:  responder.Routes(),
			ErrorLog: log.New(logWriter{o.logger}, "", 0),
		},
	}
}

// ListenAndServe binds cfg.Addr and serves until the process is killed.
// A bind failure is returned with the underlying *net.OpError wrapped.
func (s *Server) ListenAndServe() error {
	l, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Listen binds cfg.Addr without serving. Addr reports the bound address as
// soon as Listen returns.
func (s *Server) Listen() (net.Listener, error) {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.setListener(l)
	return l, nil
}

// Serve prints the startup line and serves on l. It returns nil once Close
// has been called.
func (s *Server) Serve(l net.Listener) error {
	s.setListener(l)

	fmt.Fprintf(s.startup, "Server started at localhost:%s\n", portOf(l.Addr()))

	err := s.httpServer.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) setListener(l net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Addr returns the bound address, or the configured one before Serve.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// State reports Idle or HandlingDelayed.
func (s *Server) State() State {
	return s.responder.State()
}

// InFlight is the number of requests currently stalling or writing.
func (s *Server) InFlight() int {
	return s.responder.InFlight()
}

// Served is the number of responses attempted so far.
func (s *Server) Served() int64 {
	return s.responder.Served()
}

// Close closes the listener and all connections. The binary never calls
// it; it is for tests that start the fixture in-process.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

func portOf(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf("%d", tcp.Port)
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return port
}

// logWriter sends net/http's internal error log through the console logger.
type logWriter struct {
	logger *output.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Errorf("%s", strings.TrimSpace(string(p)))
	return len(p), nil
}
