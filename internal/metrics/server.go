package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/twm/internal/logfields"
)

// DefaultPath is where the exposition endpoint is mounted.
const DefaultPath = "/metrics"

// HTTPHandler serves reg in the Prometheus exposition format; nil serves the
// default registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Server exposes a registry on path plus a /healthz endpoint.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// NewServer binds addr. Serving begins with Start.
func NewServer(addr, path string, reg *prom.Registry) (*Server, error) {
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr is the bound address, useful when addr had port 0.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		slog.Info("Serving metrics", slog.String("addr", s.Addr()))
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

// Shutdown stops the server, waiting for in-flight scrapes until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
