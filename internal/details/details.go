package details

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FranksOps/simpleflickr/internal/bypass"
	"github.com/FranksOps/simpleflickr/internal/catalog"
	"github.com/FranksOps/simpleflickr/pkg/httpclient"
	"github.com/PuerkitoBio/goquery"
)

const maxPageBytes = 4 << 20

var (
	// ErrNoPage is returned for images whose photo page cannot be derived.
	ErrNoPage = errors.New("details: image has no photo page")
	// ErrNoClient is returned by New without an HTTP client.
	ErrNoClient = errors.New("details: http client is required")
	// ErrDisallowed is returned when robots.txt forbids fetching a page.
	ErrDisallowed = errors.New("details: disallowed by robots.txt")
)

// DefaultAgent is the robots.txt agent name used when Config.Agent is empty.
const DefaultAgent = "simpleflickr"

// Details is the metadata shown on a public photo page.
type Details struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// BlockedError reports a page served by an anti-bot challenge.
type BlockedError struct {
	URL    string
	Source string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("details: %s blocked by %s", e.URL, e.Source)
}

// Config tunes a Describer.
type Config struct {
	// BaseURL replaces catalog.PhotoHost, mainly for tests.
	BaseURL string
	// RespectRobots checks the host's robots.txt before every page fetch.
	RespectRobots bool
	// Agent is matched against robots.txt user-agent groups.
	Agent  string
	Logger *slog.Logger
}

// Describer scrapes photo pages.
type Describer struct {
	client    *httpclient.Client
	baseURL   string
	agent     string
	robots    *robotsPolicy
	detectors []bypass.Detector
	logger    *slog.Logger
}

// New creates a Describer fetching pages through client.
func New(client *httpclient.Client, cfg Config) (*Describer, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = catalog.PhotoHost
	}
	if cfg.Agent == "" {
		cfg.Agent = DefaultAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	d := &Describer{
		client:    client,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		agent:     cfg.Agent,
		detectors: bypass.DefaultDetectors(),
		logger:    cfg.Logger,
	}
	if cfg.RespectRobots {
		d.robots = newRobotsPolicy(client, cfg.Logger)
	}
	return d, nil
}

// Describe fetches the photo page of img. Fields missing from the page fall
// back to what the search result already carries.
func (d *Describer) Describe(ctx context.Context, img catalog.Image) (*Details, error) {
	path := img.PagePath()
	if path == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoPage, img.ID)
	}
	pageURL := d.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("details: build request: %w", err)
	}
	if d.robots != nil && !d.robots.allowed(ctx, req.URL, d.agent) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, pageURL)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("details: fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("details: read body: %w", err)
	}

	if v := bypass.Analyze(&bypass.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, d.detectors); v.Blocked {
		return nil, &BlockedError{URL: pageURL, Source: v.Source}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("details: %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("details: parse html: %w", err)
	}

	out := &Details{
		URL:         pageURL,
		Title:       first(meta(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text()), img.Title),
		Description: first(meta(doc, "og:description"), meta(doc, "description")),
		ImageURL:    first(meta(doc, "og:image"), img.Original, img.Thumbnail),
		Owner:       first(strings.TrimSpace(doc.Find(".owner-name").First().Text()), img.OwnerName, img.Owner),
	}
	d.logger.Debug("photo page described", "url", pageURL, "title", out.Title)
	return out, nil
}

// meta returns the content of a <meta> tag matched by property or name.
func meta(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
