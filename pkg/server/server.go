package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/auralens/auralens/pkg/render"
	"github.com/auralens/auralens/pkg/upload"
)

// Route paths served by the Server.
const (
	PathLive    = "/_live"
	PathUpload  = "/_upload"
	PathPreview = "/_preview/{id}"
	PathHealth  = "/healthz"
	PathMetrics = "/metrics"
)

// Server is the HTTP/WebSocket server for the landing page.
type Server struct {
	config   *ServerConfig
	factory  Factory
	sessions *SessionManager
	renderer *render.Renderer
	upgrader websocket.Upgrader
	router   chi.Router
	page     render.PageData

	uploads      upload.Store
	uploadConfig *upload.Config
	previews     http.Handler
	metrics      http.Handler

	middleware     []Middleware
	httpMiddleware []func(http.Handler) http.Handler
	observer       Observer
	logger         *slog.Logger

	httpServer *http.Server
	listener   net.Listener
	httpMu     sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPage sets the document shell (title, description, stylesheets,
// scripts, language). Body and SessionID are filled per request.
func WithPage(p render.PageData) Option {
	return func(s *Server) { s.page = p }
}

// WithUploads enables POST /_upload and lets event frames reference stored
// files.
func WithUploads(store upload.Store, cfg *upload.Config) Option {
	return func(s *Server) {
		s.uploads = store
		s.uploadConfig = cfg
	}
}

// WithPreviews serves h at /_preview/{id}.
func WithPreviews(h http.Handler) Option {
	return func(s *Server) { s.previews = h }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMiddleware adds event middleware. The first one is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) { s.middleware = append(s.middleware, mw...) }
}

// WithHTTPMiddleware adds HTTP middleware to the router.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.httpMiddleware = append(s.httpMiddleware, mw...) }
}

// WithObserver sets the session observer.
func WithObserver(o Observer) Option {
	return func(s *Server) { s.observer = o }
}

// New creates a Server whose sessions mount the components factory builds.
func New(config *ServerConfig, factory Factory, opts ...Option) *Server {
	config = config.withDefaults()

	s := &Server{
		config:   config,
		factory:  factory,
		renderer: render.NewRenderer(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}

	s.sessions = newSessionManager(sessionDeps{
		config:     config.SessionConfig,
		uploads:    s.uploads,
		middleware: s.middleware,
		observer:   s.observer,
		logger:     s.logger,
	}, config.MaxSessions, config.CleanupInterval)

	s.router = s.routes()
	return s
}

// routes builds the chi router.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	for _, mw := range s.httpMiddleware {
		r.Use(mw)
	}

	r.Get("/", s.handlePage)
	r.Get(PathLive, s.HandleWebSocket)
	r.Get(render.DefaultClientScript, s.serveThinClient)
	r.Head(render.DefaultClientScript, s.serveThinClient)
	r.Get(PathHealth, s.handleHealth)

	if s.uploads != nil {
		r.Method(http.MethodPost, PathUpload, upload.HandlerWithConfig(s.uploads, s.ownedUploadConfig()))
	}
	if s.previews != nil {
		r.Method(http.MethodGet, PathPreview, s.previews)
		r.Method(http.MethodHead, PathPreview, s.previews)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, PathMetrics, s.metrics)
	}
	return r
}

// ownedUploadConfig ties every upload to the pending or live session named
// by the sid query parameter.
func (s *Server) ownedUploadConfig() *upload.Config {
	cfg := upload.DefaultConfig()
	if s.uploadConfig != nil {
		c := *s.uploadConfig
		cfg = &c
	}
	cfg.Owner = func(r *http.Request) (string, bool) {
		sid := r.URL.Query().Get("sid")
		if sid == "" || s.sessions.Get(sid) == nil {
			return "", false
		}
		return sid, true
	}
	return cfg
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handlePage renders the page with a fresh pending session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.logger.Warn("session rejected", "error", err)
		http.Error(w, "Too many sessions", http.StatusServiceUnavailable)
		return
	}

	page := s.page
	page.Body = sess.Mount(s.factory)
	page.SessionID = sess.ID()

	var buf bytes.Buffer
	if err := s.renderer.RenderPage(&buf, page); err != nil {
		s.logger.Error("page render failed", "error", err)
		s.sessions.Close(sess.ID())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(buf.Bytes())
}

// HandleWebSocket claims the pending session named by ?sid= and serves it
// until the socket closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sid")
	sess, err := s.sessions.Claim(id)
	if err != nil {
		s.logger.Info("session claim failed", "session_id", id, "error", err)
		status := http.StatusNotFound
		if errors.Is(err, ErrSessionClaimed) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request.
		s.logger.Error("websocket upgrade failed", "error", err)
		s.sessions.Close(id)
		return
	}
	conn.SetReadLimit(s.config.SessionConfig.MaxMessageSize)

	sess.Logger().Debug("session claimed", "remote", r.RemoteAddr)
	sess.Serve(conn)
	s.sessions.Close(id)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("ok"))
}

// Run starts the server and blocks until an interrupt or a listener error.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx)
}

// ListenAndServe listens on the configured address and serves until ctx is
// done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpMu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}
	srv := s.httpServer
	s.httpMu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
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

// Addr returns the listener address once serving, or nil.
func (s *Server) Addr() net.Addr {
	s.httpMu.Lock()
	defer s.httpMu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown closes all sessions and stops the HTTP server within the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.sessions.Shutdown(ctx); err != nil {
		s.logger.Warn("session shutdown incomplete", "error", err)
	}

	s.httpMu.Lock()
	srv := s.httpServer
	s.httpMu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the effective server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
