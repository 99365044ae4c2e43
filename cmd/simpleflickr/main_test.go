package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FranksOps/simpleflickr/internal/config"
	"github.com/FranksOps/simpleflickr/internal/storage"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := rootCommand()
	root.SetArgs(append([]string{"--backend", "mock", "--log-level", "error"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSearchCommand(t *testing.T) {
	out, errOut, err := run(t, "", "--history-driver", "memory", "--page-size", "5",
		"search", "--pages", "2", "--report", "text", "cat", "dog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"== cat (10 results)", "== dog (10 results)", "test-cat-p2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(errOut, "Fetches:        4") {
		t.Errorf("expected report on stderr, got:\n%s", errOut)
	}
}

func TestSearchCommand_JSON(t *testing.T) {
	out, _, err := run(t, "", "--history-driver", "memory", "search", "--json", "owl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var results []queryResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(results) != 1 || results[0].Query != "owl" || len(results[0].Items) != 20 {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestSearchCommand_BadPages(t *testing.T) {
	if _, _, err := run(t, "", "--history-driver", "memory", "search", "--pages", "0", "cat"); err == nil {
		t.Errorf("expected error for --pages 0")
	}
}

func TestSearchCommand_BadReportRunsNothing(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.db")
	_, _, err := run(t, "", "--history-dsn", dsn, "search", "--report", "xml", "cat")
	if err == nil || !strings.Contains(err.Error(), `unknown report format "xml"`) {
		t.Fatalf("expected report format error, got %v", err)
	}

	out, _, err := run(t, "", "--history-dsn", dsn, "history")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "cat") {
		t.Errorf("expected no search recorded, got:\n%s", out)
	}
}

func TestHistoryCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.db")
	for _, q := range []string{"cat", "dog", "owl"} {
		if _, _, err := run(t, "", "--history-dsn", dsn, "search", q); err != nil {
			t.Fatalf("search %s: %v", q, err)
		}
	}

	out, _, err := run(t, "", "--history-dsn", dsn, "history", "--limit", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recent, earlier, _ := strings.Cut(out, "Earlier:")
	if !strings.Contains(recent, "owl") {
		t.Errorf("expected owl as most recent, got:\n%s", out)
	}
	if !strings.Contains(earlier, "dog") || strings.Contains(earlier, "cat") || strings.Contains(earlier, "owl") {
		t.Errorf("expected only dog among earlier searches, got:\n%s", out)
	}

	if _, _, err := run(t, "", "--history-dsn", dsn, "history", "--clear"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, _, _ = run(t, "", "--history-dsn", dsn, "history")
	if strings.Contains(out, "owl") {
		t.Errorf("expected empty history after clear, got:\n%s", out)
	}
}

func TestShellCommand(t *testing.T) {
	out, _, err := run(t, "cat\n:more\n:history\n:recent\n:open 99\n:bogus\n:quit\n",
		"--history-driver", "memory", "--page-size", "3", "shell")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"== dog (loaded, 3 results)",
		"== cat (loaded, 3 results)",
		"test-cat-p2",
		"out of range",
		"unknown command :bogus",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "simpleflickr dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestOpenHistory(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, h := range []config.History{
		{Driver: "sqlite", DSN: filepath.Join(dir, "h.db")},
		{Driver: "json", DSN: filepath.Join(dir, "h.ndjson")},
		{Driver: "csv", DSN: filepath.Join(dir, "h.csv")},
		{Driver: "memory"},
	} {
		t.Run(h.Driver, func(t *testing.T) {
			b, err := openHistory(ctx, h)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer b.Close()

			if err := b.Save(ctx, storage.NewSearchEntry("cat")); err != nil {
				t.Fatalf("save: %v", err)
			}
			if recent, err := b.MostRecent(ctx); err != nil || recent == nil || recent.Title != "cat" {
				t.Errorf("expected cat, got %v, %v", recent, err)
			}
		})
	}

	if _, err := openHistory(ctx, config.History{Driver: "mongo"}); err == nil {
		t.Errorf("expected error for unknown driver")
	}
}
