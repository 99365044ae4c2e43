package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of an HTTP exchange the detectors look at.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Verdict describes an upstream block. The zero value means not blocked.
type Verdict struct {
	Blocked bool
	Source  string // e.g. "Cloudflare", "Akamai", "DataDome", "PerimeterX", "RateLimit"
}

// Detector inspects a response and reports whether an edge protection layer
// or throttle answered instead of the API.
type Detector func(res *Response) Verdict

// DefaultDetectors returns the detectors used by the API clients.
func DefaultDetectors() []Detector {
	return []Detector{
		detectRateLimit,
		signature("Cloudflare", []int{http.StatusForbidden, http.StatusServiceUnavailable},
			[]string{"cloudflare"}, nil,
			"cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare"),
		signature("Akamai", []int{http.StatusForbidden},
			[]string{"akamai"}, nil),
		signature("DataDome", []int{http.StatusForbidden},
			[]string{"datadome"}, []string{"X-DataDome", "X-DataDome-Response"},
			"geo.captcha-delivery.com", "datadome"),
		signature("PerimeterX", []int{http.StatusForbidden},
			nil, []string{"X-Px-Captcha"},
			"client.perimeterx.net", "px-captcha", "_pxBlock"),
		detectAkamaiReference,
	}
}

// Analyze runs res through detectors and returns the first block found.
func Analyze(res *Response, detectors []Detector) Verdict {
	if res == nil {
		return Verdict{}
	}
	for _, d := range detectors {
		if v := d(res); v.Blocked {
			return v
		}
	}
	return Verdict{}
}

// signature builds a detector that fires on one of statuses when the Server
// header contains one of servers, any of headers is present, or the body
// contains one of markers.
func signature(source string, statuses []int, servers, headers []string, markers ...string) Detector {
	return func(res *Response) Verdict {
		if !hasStatus(res.StatusCode, statuses) {
			return Verdict{}
		}
		server := strings.ToLower(getHeader(res.Headers, "Server"))
		for _, s := range servers {
			if strings.Contains(server, s) {
				return Verdict{Blocked: true, Source: source}
			}
		}
		for _, h := range headers {
			if getHeader(res.Headers, h) != "" {
				return Verdict{Blocked: true, Source: source}
			}
		}
		for _, m := range markers {
			if bytes.Contains(res.Body, []byte(m)) {
				return Verdict{Blocked: true, Source: source}
			}
		}
		return Verdict{}
	}
}

// Akamai often returns a generic "Reference #" block page
func detectAkamaiReference(res *Response) Verdict {
	if res.StatusCode == http.StatusForbidden &&
		bytes.Contains(res.Body, []byte("Reference #")) &&
		bytes.Contains(res.Body, []byte("Access Denied")) {
		return Verdict{Blocked: true, Source: "Akamai"}
	}
	return Verdict{}
}

func detectRateLimit(res *Response) Verdict {
	if res.StatusCode == http.StatusTooManyRequests {
		return Verdict{Blocked: true, Source: "RateLimit"}
	}
	return Verdict{}
}

// getHeader tolerates header maps built without canonical keys.
func getHeader(headers http.Header, key string) string {
	if v := headers.Get(key); v != "" {
		return v
	}
	for k, vals := range headers {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func hasStatus(code int, statuses []int) bool {
	for _, s := range statuses {
		if s == code {
			return true
		}
	}
	return false
}
