// Package server exposes data providers over HTTP using the datasource
// wire protocol: the tq query parameter, the tqx envelope, content
// negotiation between the JSON, JSONP, CSV, TSV and HTML renderers and
// the signature-based not_modified short-circuit.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	datasource "github.com/chartdata/go-datasource"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string
	// RequestTimeout bounds the execution of one query; zero means no
	// bound.
	RequestTimeout time.Duration
}

// Server mounts datasource endpoints, one per registered provider.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	http *http.Server
}

// New returns a server with no endpoints registered.
func New(cfg Config) *Server {
	mux := http.NewServeMux()
	return &Server{
		cfg: cfg,
		mux: mux,
		http: &http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
	}
}

// Handle mounts provider under /ds/<name>.
func (s *Server) Handle(name string, provider datasource.DataProvider, opts ...HandlerOption) {
	opts = append([]HandlerOption{WithTimeout(s.cfg.RequestTimeout)}, opts...)
	s.mux.Handle("/ds/"+name, NewHandler(provider, opts...))
	logrus.WithFields(logrus.Fields{
		"endpoint":     "/ds/" + name,
		"capabilities": provider.Capabilities().String(),
	}).Info("endpoint registered")
}

// ListenAndServe blocks serving requests until Shutdown or a listener
// failure.
func (s *Server) ListenAndServe() error {
	logrus.WithField("addr", s.cfg.Addr).Info("server listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
