package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FranksOps/simpleflickr/internal/catalog"
	"github.com/FranksOps/simpleflickr/internal/session"
	"github.com/FranksOps/simpleflickr/internal/storage"
	"github.com/spf13/cobra"
)

const shellHelp = `Type a query to search. Commands:
  :more        load the next page
  :refresh     reload the current query from page 1
  :history     list earlier searches
  :recent      show the most recent search
  :open N      show the photo page details of result N
  :quit        exit`

func shellCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive search with paging and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sh := &shell{app: a, sess: session.New(a.coordinator, a.logger), out: cmd.OutOrStdout()}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

type shell struct {
	app  *app
	sess *session.Session
	out  io.Writer
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	query, err := sh.sess.Restore(ctx)
	if err != nil {
		fmt.Fprintln(sh.out, "history unavailable:", err)
	}
	fmt.Fprintln(sh.out, shellHelp)
	if err := sh.sess.Reload(ctx); err != nil {
		fmt.Fprintln(sh.out, "error:", err)
	}
	sh.show(query, 0, sh.sess.Items())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := sh.handle(ctx, strings.TrimSpace(scanner.Text())); quit {
			return nil
		}
	}
}

func (sh *shell) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "":
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(sh.out, shellHelp)
	case ":more":
		before := len(sh.sess.Items())
		n, err := sh.sess.LoadMore(ctx)
		if err != nil {
			fmt.Fprintln(sh.out, "error:", err)
			return false
		}
		if n == 0 {
			fmt.Fprintln(sh.out, "no more results")
			return false
		}
		sh.show(sh.sess.Query(), before, sh.sess.Items()[before:])
	case ":refresh":
		if err := sh.sess.Reload(ctx); err != nil {
			fmt.Fprintln(sh.out, "error:", err)
		}
		sh.show(sh.sess.Query(), 0, sh.sess.Items())
	case ":history":
		entries, err := sh.app.coordinator.SearchHistory(ctx)
		if err != nil {
			fmt.Fprintln(sh.out, "error:", err)
			return false
		}
		printHistory(sh.out, entries)
	case ":recent":
		recent, err := sh.app.coordinator.RecentSearch(ctx)
		switch {
		case err != nil:
			fmt.Fprintln(sh.out, "error:", err)
		case recent == nil:
			fmt.Fprintln(sh.out, "no searches yet")
		default:
			printHistory(sh.out, []*storage.SearchEntry{recent})
		}
	case ":open":
		i, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			fmt.Fprintln(sh.out, "usage: :open N")
			return false
		}
		sh.open(ctx, i)
	default:
		if strings.HasPrefix(cmd, ":") {
			fmt.Fprintf(sh.out, "unknown command %s\n", cmd)
			return false
		}
		if err := sh.sess.Submit(ctx, line); err != nil {
			fmt.Fprintln(sh.out, "error:", err)
		}
		sh.show(sh.sess.Query(), 0, sh.sess.Items())
	}
	return false
}

func (sh *shell) show(query string, offset int, items []catalog.Image) {
	if offset == 0 {
		fmt.Fprintf(sh.out, "== %s (%s, %d results)\n", query, sh.sess.State(), len(items))
	}
	printImages(sh.out, offset, items)
}

func (sh *shell) open(ctx context.Context, i int) {
	img, err := sh.sess.Item(i)
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
		return
	}
	d, err := sh.app.describer()
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
		return
	}
	info, err := d.Describe(ctx, img)
	if err != nil {
		fmt.Fprintln(sh.out, "error:", err)
		return
	}
	printDetails(sh.out, describe(info, sh.sess.Query()))
}
