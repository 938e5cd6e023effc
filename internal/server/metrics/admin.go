package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// AdminServer serves /metrics and /healthz over HTTP.
type AdminServer struct {
	address  string
	gatherer prom.Gatherer
	online   func() int
	logger   logging.Logger
}

// NewAdminServer builds the admin surface. online reports the current number
// of logged-in users for /healthz.
func NewAdminServer(address string, g prom.Gatherer, online func() int, l logging.Logger) *AdminServer {
	return &AdminServer{
		address:  address,
		gatherer: g,
		online:   online,
		logger:   l.With("module", "admin_http"),
	}
}

func (s *AdminServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "OK online=%d\n", s.online())
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *AdminServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping admin HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Warn(ctx, "admin HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting admin HTTP server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
