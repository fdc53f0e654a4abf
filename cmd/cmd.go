// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// searchCommand searches the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search for books, authors, or subjects",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "Result page (40 books per page)",
				Value:   1,
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort the page by relevance, title, author or newest",
				Value: "relevance",
			},
			&cli.BoolFlag{
				Name:  "series",
				Usage: "Treat the query as a series name",
			},
		}, jsonFlags()...),
		Action: r.Search,
	}
}

func detailsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "details",
		Usage: "Show a book's description along with web info and reviews",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "key"},
		},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "no-assist",
				Usage: "Skip the web info and review digest",
			},
		}, jsonFlags()...),
		Action: r.Details,
	}
}

func subjectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "subject",
		Usage: "List books filed under a subject",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name"},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of books",
				Value: 50,
			},
		}, jsonFlags()...),
		Action: r.Subject,
	}
}

func coverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cover",
		Usage: "Print or save a book's cover image",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "key"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "size",
				Usage: "Cover size: S, M or L",
				Value: "M",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Save the image to this path instead of printing the URL",
			},
		},
		Action: r.Cover,
	}
}

func homeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "home",
		Usage: "Load the home feed: every category row plus recommendations",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "show",
				Usage: "Titles to print per row",
				Value: 5,
			},
		}, jsonFlags()...),
		Action: r.Home,
	}
}

func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Summarize web coverage of a book, with sources",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "key"},
		},
		Flags:  jsonFlags(),
		Action: r.Info,
	}
}

func summaryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Generate an AI summary of a book",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "key"},
		},
		Flags:  jsonFlags(),
		Action: r.Summary,
	}
}

func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite books",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorite books",
				Flags:  jsonFlags(),
				Action: r.FavoritesList,
			},
			{
				Name:  "add",
				Usage: "Add a book to favorites by key",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Action: r.FavoritesAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a book from favorites",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Action: r.FavoritesRemove,
			},
			{
				Name:  "export",
				Usage: "Export favorites to csv, markdown, txt, json or yaml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (directory for markdown)",
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Download cover images alongside a markdown export",
					},
				},
				Action: r.FavoritesExport,
			},
		},
	}
}

func reviewsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reviews",
		Usage: "Read and write your own book reviews",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your reviews of a book, newest first",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Flags:  jsonFlags(),
				Action: r.ReviewsList,
			},
			{
				Name:      "add",
				Usage:     "Write a review",
				ArgsUsage: "<key> <text...>",
				Action:    r.ReviewsAdd,
			},
		},
	}
}

func downloadsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "downloads",
		Usage: "Download public books and show download counts",
		Commands: []*cli.Command{
			{
				Name:  "count",
				Usage: "Show download counts, for one book or all",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Flags:  jsonFlags(),
				Action: r.DownloadsCount,
			},
			{
				Name:      "get",
				Usage:     "Download the PDF scans of one or more public books",
				ArgsUsage: "<key...>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory",
						Value:   ".",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent downloads (max 4)",
						Value: 2,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Downloads started per second",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "favorites",
						Usage: "Download every readable favorite",
					},
					&cli.BoolFlag{
						Name:  "manifest",
						Usage: "Write download_manifest.json to the output directory",
					},
				},
				Action: r.DownloadsGet,
			},
		},
	}
}

func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Show or change the TUI theme",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the current theme",
				Action: r.ThemeShow,
			},
			{
				Name:   "toggle",
				Usage:  "Switch between light and dark",
				Action: r.ThemeToggle,
			},
		},
	}
}

// setupCommand handles setup operations for the database and config file.
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
				Name:   "config",
				Usage:  "Write a config.toml with default settings",
				Action: r.SetupConfig,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive book browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory for downloaded books",
				Value: ".",
			},
		},
		Action: r.TUI,
	}
}
