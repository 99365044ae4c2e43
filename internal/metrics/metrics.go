package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/simpleflickr/internal/eventlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simpleflickr_search_events_total",
			Help: "Search coordinator events by name and severity",
		},
		[]string{"event", "severity"},
	)

	ItemsAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simpleflickr_items_added_total",
			Help: "Images appended to query caches",
		},
	)

	DuplicatesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simpleflickr_duplicates_dropped_total",
			Help: "Images discarded because their id was already cached",
		},
	)

	PagesFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simpleflickr_fetched_page_number",
			Help:    "Page numbers requested from the backend",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		},
	)
)

// Sink updates the collectors from coordinator events.
type Sink struct{}

func (Sink) Track(e eventlog.Event) {
	params := e.Params()
	SearchEventsTotal.WithLabelValues(e.Name(), e.Severity().String()).Inc()

	if n, err := strconv.Atoi(params["added"]); err == nil {
		ItemsAddedTotal.Add(float64(n))
	}
	if n, err := strconv.Atoi(params["dropped"]); err == nil {
		DuplicatesDroppedTotal.Add(float64(n))
	}
	if _, isFetch := params["added"]; isFetch {
		if page, err := strconv.Atoi(params["page"]); err == nil {
			PagesFetched.Observe(float64(page))
		}
	}
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
