package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8888
	DefaultWriteTimeout   = 5 * time.Second
	DefaultMaxMessageSize = 1 << 20

	shutdownGrace = 2 * time.Second
)

// ErrServerClosed is returned by Serve after Close or context cancellation.
var ErrServerClosed = errors.New("relay closed")

// Config holds the relay settings.
type Config struct {
	Host string
	// Port is the TCP port; the WebSocket listener uses Port+1.
	Port         int
	WriteTimeout time.Duration
	// MaxMessageSize caps one envelope line, delimiter included. Frames are
	// capped one byte lower since the relay appends the delimiter to them.
	MaxMessageSize int
	// CheckOrigin filters WebSocket upgrades. Nil accepts every origin.
	CheckOrigin func(*http.Request) bool
	// Registerer receives the relay metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		WriteTimeout:   DefaultWriteTimeout,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxMessageSize < 2 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	return c
}

// frameLimit is the largest frame whose relayed line still fits
// MaxMessageSize.
func (c Config) frameLimit() int64 { return int64(c.MaxMessageSize - 1) }

// Server runs both listeners over one Registry.
type Server struct {
	cfg      Config
	log      logrus.FieldLogger
	metrics  *Metrics
	registry *Registry
	upgrader *websocket.Upgrader

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
	streams net.Listener
	httpSrv *http.Server
}

// New builds a relay. log may be nil.
func New(cfg Config, log logrus.FieldLogger) *Server {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	var m *Metrics
	if cfg.Registerer != nil {
		m = NewMetrics(cfg.Registerer)
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		registry: NewRegistry(log, m),
		done:     make(chan struct{}),
	}
	s.upgrader = s.newUpgrader()
	return s
}

// Registry exposes the live client set.
func (s *Server) Registry() *Registry { return s.registry }

// Addrs returns the configured stream and framed listen addresses.
func (s *Server) Addrs() (stream, framed string) {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port+1))
}

// ListenAndServe binds Port and Port+1 and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.cfg.Port <= 0 || s.cfg.Port >= 65535 {
		return fmt.Errorf("relay port %d out of range", s.cfg.Port)
	}
	streamAddr, framedAddr := s.Addrs()

	var lc net.ListenConfig
	streamLn, err := lc.Listen(ctx, "tcp", streamAddr)
	if err != nil {
		return fmt.Errorf("listen tcp %s: %w", streamAddr, err)
	}
	framedLn, err := lc.Listen(ctx, "tcp", framedAddr)
	if err != nil {
		_ = streamLn.Close()
		return fmt.Errorf("listen ws %s: %w", framedAddr, err)
	}
	return s.Serve(ctx, streamLn, framedLn)
}

// Serve runs the relay on already-bound listeners and blocks until ctx is
// done or Close is called. Both listeners are closed on return.
func (s *Server) Serve(ctx context.Context, streamLn, framedLn net.Listener) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	router.HandleFunc("/*", s.serveFramed)

	httpSrv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = streamLn.Close()
		_ = framedLn.Close()
		return ErrServerClosed
	}
	s.streams = streamLn
	s.httpSrv = httpSrv
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"function": "Serve",
		"tcp":      streamLn.Addr().String(),
		"ws":       framedLn.Addr().String(),
	}).Info("Relay listening")
	if ip := LANAddress(); ip != "" {
		s.log.WithFields(logrus.Fields{
			"function": "Serve",
			"lan":      ip,
		}).Info("Share this address with peers on the local network")
	}

	errc := make(chan error, 2)
	go func() {
		s.acceptStream(streamLn)
		errc <- nil
	}()
	go func() {
		if err := httpSrv.Serve(framedLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("serve ws: %w", err)
			return
		}
		errc <- nil
	}()

	var err error
	select {
	case <-ctx.Done():
	case <-s.done:
	case err = <-errc:
	}
	s.Close()
	if err != nil {
		return err
	}
	return ErrServerClosed
}

// Close stops both listeners, closes every client and waits for the
// connection goroutines to exit. It is safe to call more than once.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	streams, httpSrv := s.streams, s.httpSrv
	s.mu.Unlock()

	if streams != nil {
		_ = streams.Close()
	}
	if httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		_ = httpSrv.Shutdown(ctx)
		cancel()
	}
	s.registry.CloseAll()
	s.wg.Wait()
	s.log.WithField("function", "Close").Info("Relay stopped")
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// track reserves a slot in the connection wait group unless the server is
// closing.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// admit registers h, backing out if Close already ran its CloseAll.
func (s *Server) admit(h Handle) bool {
	s.registry.Register(h)
	if s.isClosed() {
		s.registry.Unregister(h)
		_ = h.Close()
		return false
	}
	return true
}

// LANAddress returns the local address the host would use for outbound
// traffic, or "" when there is no route. No packets are sent.
func LANAddress() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}
