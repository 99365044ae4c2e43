package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// globals carries the persistent flags shared by every command.
type globals struct {
	v          *viper.Viper
	configPath string
}

func rootCommand() *cobra.Command {
	g := &globals{v: viper.New()}

	root := &cobra.Command{
		Use:           "simpleflickr",
		Short:         "Search public photos with cached pagination and search history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Configuration file (yaml, toml or json)")
	flags.String("api-key", "", "Flickr API key")
	flags.String("backend", "", "Image backend: flickr or mock")
	flags.Int("page-size", 0, "Results per page")
	flags.String("history-driver", "", "History store: sqlite, postgres, json, csv or memory")
	flags.String("history-dsn", "", "History store location")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.Int("metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")

	for key, flag := range map[string]string{
		"api_key":        "api-key",
		"backend":        "backend",
		"page_size":      "page-size",
		"history.driver": "history-driver",
		"history.dsn":    "history-dsn",
		"log.level":      "log-level",
		"log.format":     "log-format",
		"metrics.port":   "metrics-port",
	} {
		// Lookup cannot fail for flags registered above.
		_ = g.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		searchCommand(g),
		shellCommand(g),
		historyCommand(g),
		detailsCommand(g),
		versionCommand(),
	)
	return root
}
