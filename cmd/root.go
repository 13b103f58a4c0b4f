/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"curius/client"
	"curius/config"
	"curius/graph"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "curius",
		Usage: "Browse curius reading feeds from the terminal",
		Description: `A terminal client for curius.app, the social bookmarking site.

		Curius merges the reading feeds of everyone a user follows into one
		reverse chronological stream. Pages are fetched lazily so only the
		sources that can still contribute recent links are asked for more,
		and links saved by several people are shown once with everyone who
		saved them.

		Flags can generally be set via environment variables, e.g.:

		--user => CURIUS_USER=ada-lovelace
		--port => CURIUS_PORT=3000
		`,
		Commands: []*cli.Command{
			browseCmd(),
			feedCmd(),
			crawlCmd(),
			serveCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Flags shared by every command that talks to the curius API
func apiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "Base URL of the curius API",
			EnvVars: []string{"CURIUS_API_URL"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the TOML config file",
			EnvVars: []string{"CURIUS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn or error",
			EnvVars: []string{"CURIUS_LOG_LEVEL"},
		},
	}
}

// loadSettings merges the config file with command line overrides and
// applies the log level.
func loadSettings(ctx *cli.Context) (config.Config, error) {
	path := ctx.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	if ctx.IsSet("api-url") {
		cfg.ApiUrl = ctx.String("api-url")
	}
	if ctx.IsSet("user") {
		cfg.User = ctx.String("user")
	}
	if ctx.IsSet("limit") {
		cfg.Limit = ctx.Int("limit")
	}
	if ctx.IsSet("attribution") {
		cfg.Attribution = ctx.Bool("attribution")
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	return cfg, nil
}

// newCache wires the API client behind a fresh session cache.
func newCache(cfg config.Config) *graph.Cache {
	opts := []client.Option{}
	if cfg.ApiUrl != "" {
		opts = append(opts, client.WithBaseURL(cfg.ApiUrl))
	}
	if token := client.ReadToken(); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	return graph.NewCache(client.New(opts...))
}
