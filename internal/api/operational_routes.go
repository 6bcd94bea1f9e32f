package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// OpsServer exposes metrics and probes next to the worker.
type OpsServer struct {
	srv *http.Server
	log *slog.Logger
}

func New(l *slog.Logger, addr string, version string, metricRegistry *prometheus.Registry) *OpsServer {
	return &OpsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(version, metricRegistry),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: l.With(logger.ComponentKey, "ops_api"),
	}
}

func NewRouter(version string, metricRegistry *prometheus.Registry) http.Handler {
	mux := chi.NewRouter()
	metricHandler := promhttp.HandlerFor(metricRegistry, promhttp.HandlerOpts{Registry: metricRegistry})

	mux.Get("/version", versionHandler(version))
	mux.Handle("/metrics", metricHandler)

	mux.Get("/healthy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *OpsServer) ListenAndServe() error {
	s.log.Info("starting ops api", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *OpsServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func versionHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, err := json.Marshal(map[string]string{"version": version})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(response) //nolint:errcheck
	}
}
