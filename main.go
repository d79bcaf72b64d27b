package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/genre-tally/internal/tally"
	"github.com/dtnitsch/genre-tally/models"
	"github.com/dtnitsch/genre-tally/pkg/help"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	outputFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "top",
			Usage: "Keep only the N most frequent categories (0 keeps all)",
		},
		&cli.IntFlag{
			Name:  "min-count",
			Usage: "Drop categories seen fewer than N times",
		},
		&cli.BoolFlag{
			Name:  "rank",
			Usage: "Sort categories by count instead of first appearance",
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format: text, json, yaml",
			DefaultText: models.DefaultFormat,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report to a file instead of stdout",
		},
	}

	countFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Input file, '-' for stdin (also accepted as an argument)",
		},
		&cli.StringFlag{
			Name:        "input-format",
			Usage:       "Input format: auto, json, jsonl, sqlite",
			DefaultText: "auto",
		},
		&cli.StringFlag{
			Name:        "field",
			Usage:       "Record field holding the category list",
			DefaultText: models.DefaultField,
		},
		&cli.StringFlag{
			Name:        "id-key",
			Usage:       "Category key that identifies a category",
			DefaultText: models.DefaultIDKey,
		},
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "Partitions counted in parallel",
			DefaultText: fmt.Sprint(models.DefaultWorkers),
		},
		&cli.StringFlag{
			Name:        "sqlite-table",
			Usage:       "Table to read from a SQLite input",
			DefaultText: "movies",
		},
		&cli.StringFlag{
			Name:        "sqlite-key",
			Usage:       "Record id column of the SQLite table",
			DefaultText: "id",
		},
		&cli.StringFlag{
			Name:        "sqlite-column",
			Usage:       "Column holding the categories as JSON text",
			DefaultText: models.DefaultField,
		},
	}

	return &cli.App{
		Name:  "gtally",
		Usage: "Count how often each category appears across a collection of records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug details",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "count",
				Usage:     "Tally the categories of every record in an input",
				ArgsUsage: "[INPUT]",
				Flags:     append(countFlags, outputFlags...),
				Action:    tally.CountAction,
			},
			{
				Name:      "merge",
				Usage:     "Combine JSON or YAML reports from earlier count runs",
				ArgsUsage: "REPORT...",
				Flags:     outputFlags,
				Action:    tally.MergeAction,
			},
			{
				Name:  "quickstart",
				Usage: "Print usage examples",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return nil
				},
			},
		},
	}
}
