package models

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultField   = "genres"
	DefaultIDKey   = "id"
	DefaultFormat  = "text"
	DefaultWorkers = 1
	MaxWorkers     = 256
)

// Config holds runtime configuration for a tally run.
// Values are layered: defaults, YAML file, GTALLY_* environment, CLI flags.
type Config struct {
	Input       string `yaml:"input" env:"GTALLY_INPUT"`
	InputFormat string `yaml:"input_format" env:"GTALLY_INPUT_FORMAT"`
	Field       string `yaml:"field" env:"GTALLY_FIELD"`
	IDKey       string `yaml:"id_key" env:"GTALLY_ID_KEY"`
	Workers     int    `yaml:"workers" env:"GTALLY_WORKERS"`

	Top      int    `yaml:"top" env:"GTALLY_TOP"`
	MinCount int    `yaml:"min_count" env:"GTALLY_MIN_COUNT"`
	Format   string `yaml:"format" env:"GTALLY_FORMAT"`
	Output   string `yaml:"output" env:"GTALLY_OUTPUT"`

	SQLite SQLiteConfig `yaml:"sqlite" envPrefix:"GTALLY_SQLITE_"`
}

// SQLiteConfig names the table and columns read by the SQLite source.
type SQLiteConfig struct {
	Table      string `yaml:"table" env:"TABLE"`
	KeyColumn  string `yaml:"key_column" env:"KEY_COLUMN"`
	TagsColumn string `yaml:"tags_column" env:"TAGS_COLUMN"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Field:   DefaultField,
		IDKey:   DefaultIDKey,
		Workers: DefaultWorkers,
		Format:  DefaultFormat,
		SQLite: SQLiteConfig{
			Table:      "movies",
			KeyColumn:  "id",
			TagsColumn: DefaultField,
		},
	}
}

// LoadConfig builds a Config from defaults, the optional YAML file at path
// and GTALLY_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is safe to use as a SQL table or column name.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Field) == "" {
		problems = append(problems, "tag field cannot be empty")
	}
	if strings.TrimSpace(c.IDKey) == "" {
		problems = append(problems, "id key cannot be empty")
	}

	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("invalid workers %d: must be at least 1", c.Workers))
	} else if c.Workers > MaxWorkers {
		problems = append(problems, fmt.Sprintf("invalid workers %d: must be at most %d", c.Workers, MaxWorkers))
	}

	if c.Top < 0 {
		problems = append(problems, fmt.Sprintf("invalid top %d: must not be negative", c.Top))
	}
	if c.MinCount < 0 {
		problems = append(problems, fmt.Sprintf("invalid min count %d: must not be negative", c.MinCount))
	}

	switch c.Format {
	case "text", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("invalid format '%s': must be one of [text json yaml]", c.Format))
	}

	format, err := ParseInputFormat(c.InputFormat)
	if err != nil {
		problems = append(problems, err.Error())
	}

	if ResolveInputFormat(c.Input, format) == InputFormatSQLite {
		if c.Input == "" || c.Input == "-" {
			problems = append(problems, "sqlite input needs a database file path")
		}
		for _, name := range []string{c.SQLite.Table, c.SQLite.KeyColumn, c.SQLite.TagsColumn} {
			if !IsIdentifier(name) {
				problems = append(problems, fmt.Sprintf("invalid sqlite identifier '%s'", name))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
