package tally

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dtnitsch/genre-tally/internal/common"
	"github.com/dtnitsch/genre-tally/models"
	"github.com/dtnitsch/genre-tally/pkg/mapreduce"
	"github.com/dtnitsch/genre-tally/pkg/report"
	"github.com/dtnitsch/genre-tally/pkg/source"
	"github.com/dtnitsch/genre-tally/pkg/storage"
	tallypkg "github.com/dtnitsch/genre-tally/pkg/tally"
	"github.com/urfave/cli/v2"
)

const (
	exitUsage       = 1
	exitUnavailable = 2
)

func CountAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	if c.NArg() > 1 {
		return cli.Exit(fmt.Sprintf("count takes at most one input, got %q (flags go before the input)", c.Args().Slice()), exitUsage)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	src, err := source.New(cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	logger.Info("Counting categories", "source", src.Name(), "field", cfg.Field, "workers", cfg.Workers)
	startTime := time.Now()

	t, err := Count(c.Context, logger, src, cfg)
	if err != nil {
		if errors.Is(err, source.ErrUnavailable) {
			logger.Error("Input unavailable", "source", src.Name(), "error", err)
			return cli.Exit(err.Error(), exitUnavailable)
		}
		return fmt.Errorf("failed to count categories: %w", err)
	}

	stats := t.Stats()
	logger.Info("Tally complete",
		"records", stats.Records,
		"tagged", stats.TaggedRecords,
		"untagged", stats.UntaggedRecords,
		"malformed", stats.MalformedRecords,
		"skipped_tags", stats.SkippedTags,
		"categories", t.Len(),
		"elapsed", time.Since(startTime).String())
	if stats.MalformedRecords > 0 || stats.SkippedTags > 0 {
		logger.Warn("Skipped malformed input", "records", stats.MalformedRecords, "tags", stats.SkippedTags)
	}

	r := report.Build(t, report.Meta{
		Sources:  []string{src.Name()},
		Field:    cfg.Field,
		Top:      cfg.Top,
		MinCount: cfg.MinCount,
		Rank:     c.Bool("rank"),
	})
	return emit(c, logger, r, cfg)
}

// Count tallies every record of src. A single worker streams records straight
// into the tally; more workers load the input first and split it.
func Count(ctx context.Context, logger *slog.Logger, src source.Source, cfg *models.Config) (*tallypkg.Tally, error) {
	opts := tallypkg.Options{Field: cfg.Field, IDKey: cfg.IDKey}

	if cfg.Workers <= 1 {
		b := tallypkg.NewBuilder(opts)
		err := src.Each(ctx, func(r models.Record) error {
			b.Observe(r)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return b.Tally(), nil
	}

	records, err := source.Collect(ctx, src)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded records", "count", len(records))

	return mapreduce.Run(ctx, logger, records, opts, cfg.Workers)
}

func MergeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	if c.NArg() == 0 {
		return cli.Exit("merge needs at least one report file", exitUsage)
	}
	for _, arg := range c.Args().Slice() {
		if strings.HasPrefix(arg, "-") {
			return cli.Exit(fmt.Sprintf("unexpected %q after report files (flags go before the reports)", arg), exitUsage)
		}
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	s := &storage.Storage{}
	var merged *tallypkg.Tally
	var sources []string
	field := ""

	for _, path := range c.Args().Slice() {
		loaded, err := report.Load(s, path)
		if err != nil {
			logger.Error("Report unavailable", "path", path, "error", err)
			return cli.Exit(err.Error(), exitUnavailable)
		}
		if loaded.Partial {
			logger.Warn("Report was cut by top or min-count, merged counts cover only its kept entries", "path", path)
		}
		if field == "" {
			field = loaded.Field
		} else if loaded.Field != "" && loaded.Field != field {
			logger.Warn("Merging reports of different fields", "path", path, "field", loaded.Field, "expected", field)
		}

		t, err := loaded.Tally()
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid report %s: %v", path, err), exitUnavailable)
		}
		merged = tallypkg.Merge(merged, t)

		if len(loaded.Sources) == 0 {
			sources = append(sources, filepath.Base(path))
		} else {
			sources = append(sources, loaded.Sources...)
		}
		logger.Debug("Merged report", "path", path, "categories", t.Len())
	}

	logger.Info("Merge complete", "reports", c.NArg(), "categories", merged.Len(), "total", merged.Total())

	r := report.Build(merged, report.Meta{
		Sources:  sources,
		Field:    field,
		Top:      cfg.Top,
		MinCount: cfg.MinCount,
		Rank:     c.Bool("rank"),
	})
	return emit(c, logger, r, cfg)
}

func emit(c *cli.Context, logger *slog.Logger, r report.Report, cfg *models.Config) error {
	if cfg.Output == "" || cfg.Output == "-" {
		if err := report.Write(c.App.Writer, r, cfg.Format); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}

	s := &storage.Storage{}
	if s.HasFile(cfg.Output) {
		logger.Warn("Overwriting existing report", "path", cfg.Output)
	}
	if err := report.Save(s, cfg.Output, r, cfg.Format); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	if fileStats, err := s.GetFileStats(cfg.Output); err == nil {
		logger.Info("Report saved", "path", cfg.Output, "size_bytes", fileStats.SizeBytes, "run_id", r.RunID)
	}
	return nil
}
