package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/moqwire/pkg/capture"
	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address.
	Address string

	// ReadLimit bounds request bodies and WebSocket messages in bytes.
	ReadLimit int64

	// MaxMessageSize bounds a single control message on the WebSocket.
	MaxMessageSize int

	// SelectedVersion is offered to WebSocket clients.
	SelectedVersion uint32

	// MaxPayloadPreview bounds the payload bytes shown per object.
	MaxPayloadPreview int

	// Observer, if set, sees every parse the server performs.
	Observer transport.Observer

	// Captures enables the capture routes.
	Captures capture.Store

	// MetricsHandler, if set, is mounted at MetricsPath.
	MetricsHandler http.Handler
	MetricsPath    string

	// CheckOrigin validates WebSocket origins. Default: allow all.
	CheckOrigin func(r *http.Request) bool

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:8080",
		ReadLimit:         1 << 20,
		MaxMessageSize:    transport.DefaultMaxMessageSize,
		SelectedVersion:   protocol.VersionDraft06,
		MaxPayloadPreview: 64,
		MetricsPath:       "/metrics",
		CheckOrigin:       func(*http.Request) bool { return true },
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Server is the moqwire HTTP server.
type Server struct {
	config     *Config
	router     chi.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config *Config) *Server {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	} else {
		// Fill in defaults for any unset fields
		if config.Address == "" {
			config.Address = defaults.Address
		}
		if config.ReadLimit <= 0 {
			config.ReadLimit = defaults.ReadLimit
		}
		if config.MaxMessageSize <= 0 {
			config.MaxMessageSize = defaults.MaxMessageSize
		}
		if config.SelectedVersion == 0 {
			config.SelectedVersion = defaults.SelectedVersion
		}
		if config.MaxPayloadPreview == 0 {
			config.MaxPayloadPreview = defaults.MaxPayloadPreview
		}
		if config.MetricsPath == "" {
			config.MetricsPath = defaults.MetricsPath
		}
		if config.CheckOrigin == nil {
			config.CheckOrigin = defaults.CheckOrigin
		}
		if config.ReadHeaderTimeout == 0 {
			config.ReadHeaderTimeout = defaults.ReadHeaderTimeout
		}
		if config.ShutdownTimeout == 0 {
			config.ShutdownTimeout = defaults.ShutdownTimeout
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: config.CheckOrigin,
		},
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	if s.config.MetricsHandler != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, s.config.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/decode", s.handleDecode)
		r.Post("/encode", s.handleEncode)
		r.Route("/captures", func(r chi.Router) {
			r.Get("/", s.handleListCaptures)
			r.Put("/{id}", s.handleSaveCapture)
			r.Get("/{id}", s.handleGetCapture)
		})
		r.Get("/ws", s.HandleWebSocket)
	})
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// logRequests logs one line per request at debug level, and at warn level
// for server errors.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= 500 {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
