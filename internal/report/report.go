package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/template"

	"github.com/FranksOps/simpleflickr/internal/eventlog"
	"github.com/FranksOps/simpleflickr/internal/search"
)

// QueryStats aggregates the events of a single query.
type QueryStats struct {
	Query     string `json:"query"`
	Fetches   int    `json:"fetches"`
	Failures  int    `json:"failures"`
	CacheHits int    `json:"cache_hits"`
	Exhausted bool   `json:"exhausted"`
	Added     int    `json:"added"`
	Dropped   int    `json:"dropped"`
	LastPage  int    `json:"last_page"`
}

// Summary contains aggregated figures about a search session.
type Summary struct {
	Fetches         int            `json:"fetches"`
	Failures        int            `json:"failures"`
	CacheHits       int            `json:"cache_hits"`
	ExhaustedHits   int            `json:"exhausted_hits"`
	HistoryFailures int            `json:"history_failures"`
	ItemsAdded      int            `json:"items_added"`
	Duplicates      int            `json:"duplicates_dropped"`
	BySeverity      map[string]int `json:"by_severity"`
	Errors          []string       `json:"errors,omitempty"`
	Queries         []QueryStats   `json:"queries"`
}

// GenerateSummary folds recorded events into a Summary. Queries are sorted
// by name.
func GenerateSummary(events []eventlog.Event) Summary {
	s := Summary{
		BySeverity: make(map[string]int),
		Queries:    []QueryStats{},
	}

	byQuery := make(map[string]*QueryStats)
	stats := func(q string) *QueryStats {
		qs, ok := byQuery[q]
		if !ok {
			qs = &QueryStats{Query: q}
			byQuery[q] = qs
		}
		return qs
	}

	for _, e := range events {
		s.BySeverity[e.Severity().String()]++
		p := e.Params()

		switch e.Name() {
		case search.EventFetchSuccess:
			added, dropped, page := atoi(p["added"]), atoi(p["dropped"]), atoi(p["page"])
			s.Fetches++
			s.ItemsAdded += added
			s.Duplicates += dropped
			qs := stats(p["query"])
			qs.Fetches++
			qs.Added += added
			qs.Dropped += dropped
			qs.LastPage = max(qs.LastPage, page)
		case search.EventFetchFail:
			s.Failures++
			line := fmt.Sprintf("%s (page %s): %s", p["query"], p["page"], p["error"])
			if p["retryable"] == "true" {
				line += " (retryable)"
			}
			s.Errors = append(s.Errors, line)
			stats(p["query"]).Failures++
		case search.EventCacheHit:
			s.CacheHits++
			stats(p["query"]).CacheHits++
		case search.EventCacheExhausted:
			s.ExhaustedHits++
			stats(p["query"]).Exhausted = true
		case search.EventHistoryFail:
			s.HistoryFailures++
			s.Errors = append(s.Errors, fmt.Sprintf("history %s: %s", p["op"], p["error"]))
		}
	}

	for _, qs := range byQuery {
		s.Queries = append(s.Queries, *qs)
	}
	sort.Slice(s.Queries, func(i, j int) bool { return s.Queries[i].Query < s.Queries[j].Query })

	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

const textTmpl = `Search Session Summary
----------------------
Fetches:        {{.Fetches}}
Failures:       {{.Failures}}
Cache hits:     {{.CacheHits}}
Exhausted hits: {{.ExhaustedHits}}
Items added:    {{.ItemsAdded}}
Duplicates:     {{.Duplicates}}

Queries:
{{- range .Queries}}
  {{printf "%q" .Query}}: {{.Added}} items over {{.Fetches}} pages (last page {{.LastPage}}){{if .Exhausted}}, exhausted{{end}}{{if .Failures}}, {{.Failures}} failed{{end}}
{{- else}}
  None
{{- end}}
{{- if .Errors}}

Errors:
{{- range .Errors}}
  {{.}}
{{- end}}
{{- end}}
`

var textReport = template.Must(template.New("textReport").Parse(textTmpl))

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render text: %w", err)
	}
	return nil
}
