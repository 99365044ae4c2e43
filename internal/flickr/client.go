package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/simpleflickr/internal/bypass"
	"github.com/FranksOps/simpleflickr/internal/catalog"
	"github.com/FranksOps/simpleflickr/internal/fingerprint"
	"github.com/FranksOps/simpleflickr/pkg/httpclient"
	"github.com/FranksOps/simpleflickr/pkg/ratelimit"
)

const (
	// DefaultBaseURL is the REST endpoint of the public API.
	DefaultBaseURL = "https://api.flickr.com/services/rest"
	// DefaultUserAgent identifies the client to the API.
	DefaultUserAgent = "simpleflickr/1.0"

	searchMethod = "flickr.photos.search"
	searchExtras = "url_q,url_o,o_dims,owner_name"
	maxBodyBytes = 8 << 20
)

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Jitter            float64
	TLSProfile        fingerprint.Profile
	UserAgent         string
	// Transport replaces the fingerprinted transport, mainly for tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client searches photos through the REST API. It satisfies search.Backend.
type Client struct {
	cfg       Config
	endpoint  *url.URL
	http      *httpclient.Client
	limiter   *ratelimit.Limiter
	detectors []bypass.Detector
	logger    *slog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.TLSProfile == "" {
		cfg.TLSProfile = fingerprint.ProfileGo
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("flickr: base url: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport, err = fingerprint.Transport(cfg.TLSProfile, fingerprint.Options{})
		if err != nil {
			return nil, fmt.Errorf("flickr: transport: %w", err)
		}
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 3,
		Transport:    transport,
		Headers: http.Header{
			"User-Agent":      {cfg.UserAgent},
			"Accept":          {"application/json"},
			"Accept-Language": {"en-US,en;q=0.5"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("flickr: http client: %w", err)
	}

	return &Client{
		cfg:       cfg,
		endpoint:  endpoint,
		http:      client,
		limiter:   ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.Jitter),
		detectors: bypass.DefaultDetectors(),
		logger:    cfg.Logger,
	}, nil
}

// Close releases the rate limiter.
func (c *Client) Close() {
	c.limiter.Stop()
}

// HTTPClient exposes the underlying client so other fetchers share its
// transport and headers.
func (c *Client) HTTPClient() *httpclient.Client {
	return c.http
}

// FetchPage runs flickr.photos.search for one page.
func (c *Client) FetchPage(ctx context.Context, query string, page, perPage int) (*catalog.Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrBadRequest)
	}
	if page < 1 || perPage < 1 {
		return nil, fmt.Errorf("%w: page %d, per page %d", ErrBadRequest, page, perPage)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, page, perPage), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, &TransportError{Err: redact(err, c.cfg.APIKey)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	c.logger.Debug("flickr search", "query", query, "page", page, "status", resp.StatusCode,
		"bytes", len(body), "duration", time.Since(start))

	if v := bypass.Analyze(&bypass.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, c.detectors); v.Blocked {
		return nil, &BlockedError{Source: v.Source, StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	return decodeSearch(body)
}

func (c *Client) searchURL(query string, page, perPage int) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("method", searchMethod)
	q.Set("text", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("format", "json")
	q.Set("nojsoncallback", "1")
	q.Set("extras", searchExtras)
	q.Set("api_key", c.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func decodeSearch(body []byte) (*catalog.Response, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodingError{Err: err}
	}

	if env.Stat != "ok" {
		code := -1
		if env.Code.Valid {
			code = env.Code.Value
		}
		return nil, &ServiceError{Code: code, Message: env.Message}
	}
	if env.Photos == nil {
		return nil, ErrInvalidResponse
	}

	return env.Photos.toResponse(), nil
}

// redact strips the API key from URLs embedded in transport errors.
func redact(err error, key string) error {
	var urlErr *url.Error
	if key == "" || !errors.As(err, &urlErr) {
		return err
	}
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		q := u.Query()
		if q.Has("api_key") {
			q.Set("api_key", "REDACTED")
			u.RawQuery = q.Encode()
			urlErr.URL = u.String()
		}
	}
	return err
}
