package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/FranksOps/simpleflickr/internal/analyzer"
	"github.com/FranksOps/simpleflickr/internal/catalog"
	"github.com/FranksOps/simpleflickr/internal/details"
	"github.com/FranksOps/simpleflickr/internal/report"
	"github.com/FranksOps/simpleflickr/internal/storage"
)

func printImages(w io.Writer, offset int, items []catalog.Image) {
	for i, img := range items {
		title := img.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%4d. %s [%s]\n      %s\n", offset+i, title, img.ID, img.Thumbnail)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkReportFormat(format string) error {
	switch format {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeReport(w io.Writer, format string, summary report.Summary) error {
	switch format {
	case "text":
		return report.WriteText(w, summary)
	case "json":
		return report.WriteJSON(w, summary)
	default:
		return checkReportFormat(format)
	}
}

func printHistory(w io.Writer, entries []*storage.SearchEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Title)
	}
}

// describedImage is a photo page with the query terms found on it.
type describedImage struct {
	*details.Details
	Matches []analyzer.TermMatch `json:"matches,omitempty"`
}

func describe(d *details.Details, query string) describedImage {
	text := d.Title + "\n" + d.Description
	return describedImage{Details: d, Matches: analyzer.FindTermMatches(text, analyzer.QueryTerms(query))}
}

func printDetails(w io.Writer, d describedImage) {
	fmt.Fprintf(w, "Title:       %s\n", d.Title)
	if d.Owner != "" {
		fmt.Fprintf(w, "Owner:       %s\n", d.Owner)
	}
	if d.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", d.Description)
	}
	fmt.Fprintf(w, "Image:       %s\n", d.ImageURL)
	fmt.Fprintf(w, "Page:        %s\n", d.URL)
	for _, m := range d.Matches {
		fmt.Fprintf(w, "Mentions %q %d times:\n", m.Term, m.Count)
		for _, s := range m.Sentences {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}
