package details

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/FranksOps/simpleflickr/pkg/httpclient"
	"github.com/temoto/robotstxt"
)

// robotsPolicy fetches and caches robots.txt per host. Hosts whose
// robots.txt cannot be fetched or parsed are treated as allowing everything;
// such failures are not cached and the next lookup tries again. A 4xx
// response is cached as allowing everything.
type robotsPolicy struct {
	client *httpclient.Client
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData
}

func newRobotsPolicy(client *httpclient.Client, logger *slog.Logger) *robotsPolicy {
	return &robotsPolicy{
		client: client,
		logger: logger,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// allowed reports whether agent may fetch target.
func (r *robotsPolicy) allowed(ctx context.Context, target *url.URL, agent string) bool {
	host := target.Scheme + "://" + target.Host

	data, err := r.getOrFetch(ctx, host)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing", "host", host, "err", err)
		return true
	}
	if data == nil {
		return true
	}
	return data.FindGroup(agent).Test(target.EscapedPath())
}

func (r *robotsPolicy) getOrFetch(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, exists := r.cache[host]
	r.mu.RUnlock()
	if exists {
		return data, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if data, exists = r.cache[host]; exists {
		return data, nil
	}

	data, err := r.fetch(ctx, host)
	if err != nil {
		return nil, err
	}
	r.cache[host] = data
	return data, nil
}

func (r *robotsPolicy) fetch(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("robots: build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("robots: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("robots: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("robots: read body: %w", err)
	}
	parsed, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("robots: parse: %w", err)
	}
	return parsed, nil
}
