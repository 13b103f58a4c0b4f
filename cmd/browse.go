/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"io"

	"github.com/cqroot/prompt"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"curius/tui"
)

// browseCmd represents the browse command
func browseCmd() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse curius interactively",
		Description: `Opens the interactive terminal browser.

Starts on the given user's pane with their saved links, the people they
follow, and the merged feed of everyone they follow. Selecting a link
opens it in the default browser.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User link of the profile to start on, e.g. ada-lovelace",
				EnvVars: []string{"CURIUS_USER"},
			},
			&cli.IntFlag{
				Name:    "page-size",
				Usage:   "Links per feed page",
				EnvVars: []string{"CURIUS_PAGE_SIZE"},
				Value:   30,
			},
			&cli.BoolFlag{
				Name:    "attribution",
				Usage:   "Prefix feed titles with the people who saved the link",
				EnvVars: []string{"CURIUS_ATTRIBUTION"},
				Value:   true,
			},
		}, apiFlags()...),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadSettings(ctx)
			if err != nil {
				return err
			}

			user := cfg.User
			if user == "" {
				user, err = prompt.New().Ask("Curius user:").Input("ada-lovelace")
				if err != nil {
					return err
				}
			}

			// Logs would tear the alternate screen, keep them out of the way
			log.SetOutput(io.Discard)

			return tui.Run(ctx.Context, newCache(cfg), user, tui.Config{
				PageSize:    ctx.Int("page-size"),
				Attribution: cfg.Attribution,
			})
		},
	}
}
