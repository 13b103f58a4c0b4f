/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

// crawlCmd represents the crawl command
func crawlCmd() *cli.Command {
	return &cli.Command{
		Name:  "crawl",
		Usage: "Walk the following graph and report what it holds",
		Description: `Walks the following graph depth first from the given user, fetching
every profile and saved-link list it passes, and prints how many users and
links were seen.

Useful to gauge how large a merged feed will be before browsing it.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User link of the profile to start from",
				EnvVars: []string{"CURIUS_USER"},
			},
			&cli.IntFlag{
				Name:    "max-users",
				Usage:   "Visit at most this many users, 0 removes the bound",
				EnvVars: []string{"CURIUS_MAX_USERS"},
				Value:   25,
			},
		}, apiFlags()...),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if cfg.User == "" {
				return errors.New("please specify a user")
			}

			stats, err := newCache(cfg).Expand(ctx.Context, cfg.User, ctx.Int("max-users"))
			if err != nil {
				return err
			}

			fmt.Printf("Crawled %d users holding %d links\n", stats.Users, stats.Links)
			return nil
		},
	}
}
