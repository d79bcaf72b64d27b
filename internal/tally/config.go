package tally

import (
	"github.com/dtnitsch/genre-tally/models"
	"github.com/urfave/cli/v2"
)

// loadConfig layers command-line flags over the config file and environment.
// Only flags the user actually set override lower layers.
func loadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("input") {
		cfg.Input = c.String("input")
	}
	if c.Command.Name == "count" && c.NArg() > 0 {
		cfg.Input = c.Args().First()
	}
	if c.IsSet("input-format") {
		cfg.InputFormat = c.String("input-format")
	}
	if c.IsSet("field") {
		cfg.Field = c.String("field")
	}
	if c.IsSet("id-key") {
		cfg.IDKey = c.String("id-key")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("top") {
		cfg.Top = c.Int("top")
	}
	if c.IsSet("min-count") {
		cfg.MinCount = c.Int("min-count")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("sqlite-table") {
		cfg.SQLite.Table = c.String("sqlite-table")
	}
	if c.IsSet("sqlite-key") {
		cfg.SQLite.KeyColumn = c.String("sqlite-key")
	}
	if c.IsSet("sqlite-column") {
		cfg.SQLite.TagsColumn = c.String("sqlite-column")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
