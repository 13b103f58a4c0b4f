/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"curius/feed"
	"curius/models"
)

// feedCmd represents the feed command
func feedCmd() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Print a user's merged feed to the command line",
		Description: `Merges the reading feeds of everyone the user follows and prints
the newest links first.

Can be used to collect a feed by passing the output to a file or
another application.

Returns each link as a JSON object on a single line. Use a tool like jq to
process the output.

Prints all other log messages to stderr.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User link of the profile whose feed to print",
				EnvVars: []string{"CURIUS_USER"},
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Stop after this many links, 0 prints the whole feed",
				EnvVars: []string{"CURIUS_LIMIT"},
				Value:   20,
			},
			&cli.BoolFlag{
				Name:    "attribution",
				Usage:   "Prefix titles with the people who saved the link",
				EnvVars: []string{"CURIUS_ATTRIBUTION"},
				Value:   true,
			},
		}, apiFlags()...),
		Action: func(ctx *cli.Context) error {
			// Disable logging to stdout
			log.SetOutput(os.Stderr)

			cfg, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if cfg.User == "" {
				return errors.New("please specify a user")
			}

			cache := newCache(cfg)
			user, err := cache.User(ctx.Context, cfg.User)
			if err != nil {
				return fmt.Errorf("failed to load user %s: %w", cfg.User, err)
			}

			buffer := feed.New(cache.Sources(user.FollowingUsers), cfg.Attribution)

			limit := cfg.Limit
			printed := 0
			for {
				batch := 50
				if limit > 0 && limit-printed < batch {
					batch = limit - printed
				}
				if batch <= 0 {
					break
				}

				links, err := buffer.GetNextN(ctx.Context, batch)
				if err != nil {
					return fmt.Errorf("failed to fetch feed page: %w", err)
				}
				if len(links) == 0 {
					break
				}

				for _, link := range links {
					printStdout(link)
				}
				printed += len(links)
			}

			log.WithFields(log.Fields{
				"user":  cfg.User,
				"links": printed,
			}).Info("Feed complete")
			return nil
		},
	}
}

func printStdout(link *models.Link) {
	// Print as single JSON string on a single line

	// Convert Link to JSON string
	linkJson, err := json.Marshal(link)
	if err == nil {
		fmt.Println(string(linkJson))
	}
}
