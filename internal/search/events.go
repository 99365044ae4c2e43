package search

import (
	"errors"
	"strconv"

	"github.com/FranksOps/simpleflickr/internal/eventlog"
)

// Event names emitted by the Coordinator.
const (
	EventFetchStart     = "search.fetch.start"
	EventFetchSuccess   = "search.fetch.success"
	EventFetchFail      = "search.fetch.fail"
	EventCacheHit       = "search.cache.hit"
	EventCacheExhausted = "search.cache.exhausted"
	EventHistoryFail    = "search.history.fail"
)

// StartEvent is emitted right before a backend fetch.
type StartEvent struct {
	Query string
	Page  int
}

func (e StartEvent) Name() string { return EventFetchStart }
func (e StartEvent) Params() map[string]string {
	return map[string]string{"query": e.Query, "page": strconv.Itoa(e.Page)}
}
func (e StartEvent) Severity() eventlog.Severity { return eventlog.Analytic }

// SuccessEvent is emitted after a fetch has been merged into the cache.
// Added counts new records, Dropped counts duplicates filtered out.
type SuccessEvent struct {
	Query   string
	Page    int
	Added   int
	Dropped int
}

func (e SuccessEvent) Name() string { return EventFetchSuccess }
func (e SuccessEvent) Params() map[string]string {
	return map[string]string{
		"query":   e.Query,
		"page":    strconv.Itoa(e.Page),
		"added":   strconv.Itoa(e.Added),
		"dropped": strconv.Itoa(e.Dropped),
	}
}
func (e SuccessEvent) Severity() eventlog.Severity { return eventlog.Analytic }

// FailEvent is emitted when the backend returns an error.
type FailEvent struct {
	Query string
	Page  int
	Err   error
}

func (e FailEvent) Name() string { return EventFetchFail }
func (e FailEvent) Params() map[string]string {
	return map[string]string{
		"query":     e.Query,
		"page":      strconv.Itoa(e.Page),
		"error":     errString(e.Err),
		"retryable": strconv.FormatBool(retryable(e.Err)),
	}
}
func (e FailEvent) Severity() eventlog.Severity { return eventlog.Severe }

// CacheHitEvent is emitted when a fresh search is answered from the cache.
type CacheHitEvent struct {
	Query string
	Count int
}

func (e CacheHitEvent) Name() string { return EventCacheHit }
func (e CacheHitEvent) Params() map[string]string {
	return map[string]string{"query": e.Query, "count": strconv.Itoa(e.Count)}
}
func (e CacheHitEvent) Severity() eventlog.Severity { return eventlog.Analytic }

// ExhaustedEvent is emitted when a query has no further pages to fetch.
type ExhaustedEvent struct {
	Query    string
	NextPage int
}

func (e ExhaustedEvent) Name() string { return EventCacheExhausted }
func (e ExhaustedEvent) Params() map[string]string {
	return map[string]string{"query": e.Query, "next_page": strconv.Itoa(e.NextPage)}
}
func (e ExhaustedEvent) Severity() eventlog.Severity { return eventlog.Info }

// HistoryFailEvent is emitted when the history store reports an error.
type HistoryFailEvent struct {
	Op  string
	Err error
}

func (e HistoryFailEvent) Name() string { return EventHistoryFail }
func (e HistoryFailEvent) Params() map[string]string {
	return map[string]string{"op": e.Op, "error": errString(e.Err)}
}
func (e HistoryFailEvent) Severity() eventlog.Severity { return eventlog.Warning }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// retryable reports whether err, or an error it wraps, marks itself transient.
func retryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
