// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func subscriberFlag(required bool) *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "subscriber",
		Aliases:  []string{"s"},
		Usage:    "Telegram chat ID of the subscriber",
		Required: required,
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// serveCommand runs the bot, the scheduler and the optional status server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the Telegram bot and the playlist scheduler",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "server",
				Usage: "Start the status server even when [server] enabled = false",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a default config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the new config file (defaults to --config)",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// collectionsCommand manages tracked playlists without the bot.
func collectionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collections",
		Aliases: []string{"playlists", "pl"},
		Usage:   "Manage tracked playlists",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Track a playlist for a subscriber and store its baseline",
				Arguments: []cli.Argument{&cli.StringArg{Name: "reference"}},
				Flags: []cli.Flag{
					subscriberFlag(true),
					&cli.IntFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Check interval in seconds (defaults to scheduler.default_interval)",
					},
					&cli.BoolFlag{
						Name:  "no-baseline",
						Usage: "Skip the initial fetch",
					},
				},
				Action: r.CollectionsAdd,
			},
			{
				Name:   "list",
				Usage:  "List tracked playlists",
				Flags:  append([]cli.Flag{subscriberFlag(false)}, outputFlags()...),
				Action: r.CollectionsList,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Stop tracking a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{subscriberFlag(true)},
				Action:    r.CollectionsRemove,
			},
			{
				Name:      "activate",
				Usage:     "Resume monitoring of a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.CollectionsActivate,
			},
			{
				Name:      "deactivate",
				Usage:     "Pause monitoring of a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.CollectionsActivate,
			},
			{
				Name:  "interval",
				Usage: "Change the check interval of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "seconds"},
				},
				Action: r.CollectionsInterval,
			},
		},
	}
}

// checkCommand runs the poll pipeline once.
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check playlists now and notify subscribers of changes",
		Flags: append([]cli.Flag{
			&cli.Int64Flag{
				Name:    "subscriber",
				Aliases: []string{"s"},
				Usage:   "Check all playlists of one subscriber instead of every active playlist",
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Print notifications to stdout instead of sending them",
			},
		}, outputFlags()...),
		Action: r.Check,
	}
}

// resolveCommand looks up a playlist reference.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a playlist link or ID and show its current items",
		Arguments: []cli.Argument{&cli.StringArg{Name: "reference"}},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "items",
				Usage: "Fetch and list the playlist items",
			},
		}, outputFlags()...),
		Action: r.Resolve,
	}
}

// exportCommand writes stored snapshots to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored playlist snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Playlist ID to export",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every tracked playlist",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (single) or directory (--all)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers for --all",
				Value: 4,
			},
		},
		Action: r.Export,
	}
}

// authCommand handles provider authentication.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "youtube",
				Usage: "Authorize read access to private playlists and store the refresh token",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultAuthTimeout,
					},
				},
				Action: r.AuthYouTube,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured",
				Action: r.AuthStatus,
			},
		},
	}
}

// apiCommand handles direct provider API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct YouTube Data API calls for debugging",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a YouTube Data API path, prints raw JSON",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}
