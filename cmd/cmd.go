// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// addCommand records a mood
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Record how you feel today",
		ArgsUsage: "<happy|sad|calm|anxious|excited|tired>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "mood"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "note",
				Aliases: []string{"n"},
				Usage:   "Optional note (up to 500 characters)",
			},
		},
		Action: r.Add,
	}
}

// todayCommand shows today's mood
func todayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "today",
		Usage: "Show the mood recorded today",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Today,
	}
}

// historyCommand lists past moods
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"ls"},
		Usage:   "List recorded moods, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "First date to include (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Last date to include (YYYY-MM-DD, default: today)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries to show (0 for all)",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.History,
	}
}

// editCommand patches an entry
func editCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change the mood or note of an entry",
		ArgsUsage: "<id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mood",
				Usage: "New mood",
			},
			&cli.StringFlag{
				Name:  "note",
				Usage: "New note (empty to remove it)",
			},
		},
		Action: r.Edit,
	}
}

// deleteCommand removes an entry
func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete an entry",
		ArgsUsage: "<id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Delete,
	}
}

// clearCommand removes every entry
func clearCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete the whole history of the active backend",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Confirm deletion",
			},
		},
		Action: r.Clear,
	}
}

// chartCommand draws the recent mood chart
func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Chart the mood of recent days",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Number of days to chart",
				Value: 7,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Chart,
	}
}

// exportCommand writes the history to a file
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the history to CSV, Markdown, or JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (csv, md, json)",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: moodx_history.<format>)",
			},
		},
		Action: r.Export,
	}
}

// tipsCommand prints wellness tips
func tipsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tips",
		Usage:     "Show wellness tips for a mood (default: today's)",
		ArgsUsage: "[mood]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "mood"},
		},
		Action: r.Tips,
	}
}

// authCommand handles remote sign-in
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the remote account",
		Commands: []*cli.Command{
			{
				Name:      "signup",
				Usage:     "Create a remote account and sign in",
				ArgsUsage: "<email>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "username",
						Usage: "Display name (default: the email's local part)",
					},
				},
				Action: r.AuthSignup,
			},
			{
				Name:      "login",
				Usage:     "Sign in; moods are then stored remotely",
				ArgsUsage: "<email>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out; moods are then stored on this device",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in account and active backend",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// adminCommand handles service-key operations
func adminCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Administrative commands (requires the service key)",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Count moods per user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "service-key",
						Usage:   "Service key (default: remote.service_key)",
						Sources: cli.EnvVars("MOODX_SERVICE_KEY"),
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AdminStats,
			},
		},
	}
}

// serveCommand runs the reference backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the reference remote backend over SQLite",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen address (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file to --config",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
