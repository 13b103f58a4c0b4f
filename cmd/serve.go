/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"curius/server"
)

// serveCmd represents the serve command
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve merged curius feeds over HTTP",
		Description: `Starts the curius feed HTTP server.

Exposes the merged feed of everyone a user follows on /feed/:user and
profiles on /profile/:user. Feed responses carry a cursor; pass it back
to continue where the previous page stopped.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Interface to listen on",
				EnvVars: []string{"CURIUS_HOST"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"CURIUS_PORT"},
				Value:   3000,
			},
			&cli.BoolFlag{
				Name:    "attribution",
				Usage:   "Prefix titles with the people who saved the link",
				EnvVars: []string{"CURIUS_ATTRIBUTION"},
				Value:   true,
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Usage:   "How long an idle feed session keeps its cursor alive",
				EnvVars: []string{"CURIUS_SESSION_TTL"},
				Value:   5 * time.Minute,
			},
		}, apiFlags()...),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadSettings(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Starting curius feed server...")

			app := server.Server(&server.ServerConfig{
				Directory:   newCache(cfg),
				Attribution: cfg.Attribution,
				SessionTTL:  ctx.Duration("session-ttl"),
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				app.ShutdownWithTimeout(60 * time.Second)
			}()

			if err := app.Listen(fmt.Sprintf("%s:%d", ctx.String("host"), ctx.Int("port"))); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}

			fmt.Println("Done!")
			return nil
		},
	}
}
