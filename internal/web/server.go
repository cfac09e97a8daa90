// Package web serves the history viewer to the operator's browser.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/wpp-history/internal/metrics"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/viewer"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Addr         string
	CookieName   string
	SecureCookie bool
	Location     *time.Location
}

// Server manages the HTTP server lifecycle of historyd.
type Server struct {
	opts     Options
	engine   *gin.Engine
	http     *http.Server
	listener net.Listener
	store    *session.Store
	viewer   *viewer.Viewer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewServer binds opts.Addr and builds the router. m may be nil.
func NewServer(opts Options, store *session.Store, v *viewer.Viewer, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	s := &Server{
		opts:    opts,
		store:   store,
		viewer:  v,
		metrics: m,
		logger:  logger.Named("web"),
	}

	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", opts.Addr, err)
	}
	s.listener = listener
	s.http = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (*gin.Engine, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery(), s.accessLog(), s.observe())

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	pages := r.Group("/", s.withSession())
	pages.GET("/", s.index)
	pages.POST("/login", s.login)
	pages.POST("/logout", s.logout)
	pages.POST("/search", s.search)
	pages.GET("/api/state", s.state)
	pages.GET("/qr.png", s.qrCode)

	return r, nil
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start begins serving requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.Addr()))
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.http.Shutdown(ctx)
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
