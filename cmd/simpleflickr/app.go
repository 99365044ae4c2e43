package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/FranksOps/simpleflickr/internal/config"
	"github.com/FranksOps/simpleflickr/internal/details"
	"github.com/FranksOps/simpleflickr/internal/eventlog"
	"github.com/FranksOps/simpleflickr/internal/fingerprint"
	"github.com/FranksOps/simpleflickr/internal/flickr"
	"github.com/FranksOps/simpleflickr/internal/metrics"
	"github.com/FranksOps/simpleflickr/internal/search"
	"github.com/FranksOps/simpleflickr/internal/storage"
	"github.com/FranksOps/simpleflickr/internal/storage/csvbackend"
	"github.com/FranksOps/simpleflickr/internal/storage/jsonbackend"
	"github.com/FranksOps/simpleflickr/internal/storage/memory"
	"github.com/FranksOps/simpleflickr/internal/storage/postgres"
	"github.com/FranksOps/simpleflickr/internal/storage/sqlite"
	"github.com/FranksOps/simpleflickr/pkg/httpclient"
)

// app is the wired object graph behind every command.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	recorded    *eventlog.Memory
	history     storage.Backend
	flickr      *flickr.Client
	coordinator *search.Coordinator
	metrics     *metrics.Server
}

func (g *globals) open(ctx context.Context) (*app, error) {
	cfg, err := config.Load(g.v, g.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, recorded: &eventlog.Memory{}}
	events := eventlog.NewManager(logger, eventlog.NewSlogSink(logger), a.recorded)
	if cfg.Metrics.Port > 0 {
		a.metrics = metrics.Start(cfg.Metrics.Port, logger)
		events.Add(metrics.Sink{})
	}

	var backend search.Backend
	switch cfg.Backend {
	case config.BackendMock:
		backend = flickr.NewMock(cfg.Flickr.MockPages)
	default:
		profile, _ := fingerprint.ParseProfile(cfg.Flickr.TLSProfile)
		a.flickr, err = flickr.New(flickr.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.Flickr.BaseURL,
			Timeout:           cfg.Flickr.Timeout,
			RequestsPerSecond: cfg.Flickr.RPS,
			Jitter:            cfg.Flickr.Jitter,
			TLSProfile:        profile,
			UserAgent:         cfg.Flickr.UserAgent,
			Logger:            logger,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		backend = a.flickr
	}

	a.history, err = openHistory(ctx, cfg.History)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.coordinator, err = search.New(backend, a.history, events, search.Config{
		PageSize: cfg.PageSize,
		Logger:   logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug("application ready", "backend", cfg.Backend, "history", cfg.History.Driver)
	return a, nil
}

// openHistory opens the history store selected by h.
func openHistory(ctx context.Context, h config.History) (storage.Backend, error) {
	driver, err := storage.ParseDriver(h.Driver)
	if err != nil {
		return nil, err
	}

	var b storage.Backend
	switch driver {
	case storage.DriverSQLite:
		b, err = sqlite.New(h.DSN)
	case storage.DriverPostgres:
		b, err = postgres.New(ctx, h.DSN)
	case storage.DriverJSON:
		b, err = jsonbackend.New(h.DSN)
	case storage.DriverCSV:
		b, err = csvbackend.New(h.DSN)
	case storage.DriverMemory:
		b = memory.New()
	}
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", driver, err)
	}
	return b, nil
}

// describer scrapes photo pages, sharing the API client's transport when
// there is one.
func (a *app) describer() (*details.Describer, error) {
	agent := a.cfg.Flickr.UserAgent
	if agent == "" {
		agent = flickr.DefaultUserAgent
	}

	var client *httpclient.Client
	if a.flickr != nil {
		client = a.flickr.HTTPClient()
	} else {
		profile, _ := fingerprint.ParseProfile(a.cfg.Flickr.TLSProfile)
		transport, err := fingerprint.Transport(profile, fingerprint.Options{})
		if err != nil {
			return nil, err
		}
		client, err = httpclient.New(httpclient.Config{
			Timeout:      a.cfg.Flickr.Timeout,
			MaxRedirects: 5,
			Transport:    transport,
			Headers:      http.Header{"User-Agent": {agent}},
		})
		if err != nil {
			return nil, err
		}
	}
	return details.New(client, details.Config{
		RespectRobots: a.cfg.Details.RespectRobots,
		Agent:         agent,
		Logger:        a.logger,
	})
}

// Close releases everything open holds. It is safe on a partially built app.
func (a *app) Close() {
	if a.flickr != nil {
		a.flickr.Close()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("closing history store", "err", err)
		}
	}
	if err := a.metrics.Stop(context.Background()); err != nil {
		a.logger.Warn("stopping metrics server", "err", err)
	}
}
