// Package mapreduce tallies large record sets in parallel partitions and
// folds the partial results back together.
package mapreduce

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/genre-tally/models"
	"github.com/dtnitsch/genre-tally/pkg/tally"
)

// minPartitionSize keeps tiny inputs on the sequential path.
const minPartitionSize = 1024

// Map splits records into contiguous partitions and tallies each partition
// on its own goroutine. Partials are returned in partition order.
func Map(ctx context.Context, logger *slog.Logger, records []models.Record, opts tally.Options, workers int) ([]*tally.Tally, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}

	parts := partition(len(records), workers)
	partials := make([]*tally.Tally, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i] = tally.Run(records[p.start:p.end], opts)
			logger.Debug("Partition tallied", "partition", i, "records", p.end-p.start, "categories", partials[i].Len())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

// Reduce folds partial tallies left to right. Given partials from Map, the
// result equals a sequential tally of the same records.
func Reduce(partials []*tally.Tally) *tally.Tally {
	var final *tally.Tally
	for _, p := range partials {
		final = tally.Merge(final, p)
	}
	if final == nil {
		return tally.Run(nil, tally.Options{})
	}
	return final
}

// Run tallies records with up to workers goroutines.
func Run(ctx context.Context, logger *slog.Logger, records []models.Record, opts tally.Options, workers int) (*tally.Tally, error) {
	if workers <= 1 || len(records) < 2*minPartitionSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return tally.Run(records, opts), nil
	}

	partials, err := Map(ctx, logger, records, opts, workers)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Map phase complete", "partitions", len(partials))

	return Reduce(partials), nil
}

type span struct {
	start, end int
}

// partition splits n items into at most workers contiguous spans of nearly
// equal size.
func partition(n, workers int) []span {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if workers == 0 {
		return nil
	}

	spans := make([]span, 0, workers)
	size, extra := n/workers, n%workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + size
		if i < extra {
			end++
		}
		spans = append(spans, span{start: start, end: end})
		start = end
	}
	return spans
}
