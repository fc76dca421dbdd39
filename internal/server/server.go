// Package server serves the websocket event stream, the bindings API and the
// embedded viewer frontend.
package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/soar/pdincr/internal/hub"
)

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	bindings    Bindings
	frontendFS  fs.FS
	addr        string
	minify      bool
	logger      *slog.Logger
	httpServer  *http.Server
}

func New(h *hub.Hub, b *hub.Broadcaster, bindings Bindings, frontendFS fs.FS, addr string, minifyAssets bool, logger *slog.Logger) *Server {
	s := &Server{
		hub:         h,
		broadcaster: b,
		bindings:    bindings,
		frontendFS:  frontendFS,
		addr:        addr,
		minify:      minifyAssets,
		logger:      logger,
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", handleWebSocket(s.hub, s.broadcaster, s.bindings, s.logger))
	mux.HandleFunc("/api/bindings", handleBindings(s.broadcaster, s.bindings))

	// Static files (frontend)
	var fileServer http.Handler = http.FileServer(http.FS(s.frontendFS))
	if s.minify {
		fileServer = newMinifier().Middleware(fileServer)
	}
	mux.Handle("/", fileServer)
	return mux
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// ListenAndServe blocks until the server fails or Shutdown is called. After
// Shutdown it returns http.ErrServerClosed immediately.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown may run before ListenAndServe starts.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
