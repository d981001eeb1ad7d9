// Package scan runs one duplicate search over a mail source:
// fingerprints are computed on a worker pool and folded into a
// dedup.Grouper in source order.
package scan

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/dupmail/internal/dedup"
	"github.com/nhle/dupmail/internal/fingerprint"
	"github.com/nhle/dupmail/internal/logger"
	"github.com/nhle/dupmail/internal/source"
)

// windowPerWorker bounds how many messages may be read ahead of the
// oldest one still being fingerprinted.
const windowPerWorker = 8

// ProgressFunc is told how many messages have been folded so far. total
// is 0 when the source could not count its messages.
type ProgressFunc func(done, total int)

// Options configures a Scanner.
type Options struct {
	Fields        []fingerprint.Field
	SkipThreshold int

	// Workers defaults to runtime.NumCPU().
	Workers int

	Logger   logger.Logger
	Progress ProgressFunc
}

// Scanner fingerprints every message of a source and groups duplicates.
type Scanner struct {
	src       source.Source
	builder   *fingerprint.Builder
	threshold int
	workers   int
	log       logger.Logger
	progress  ProgressFunc
}

type job struct {
	seq  int
	item source.Item
}

type result struct {
	seq        int
	entry      dedup.Entry
	unreadable []string
}

// New validates opts and returns a Scanner for src.
func New(src source.Source, opts Options) (*Scanner, error) {
	builder, err := fingerprint.NewBuilder(opts.Fields)
	if err != nil {
		return nil, err
	}
	if opts.SkipThreshold < 0 {
		return nil, fmt.Errorf("skip threshold must not be negative, got %d", opts.SkipThreshold)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NopLogger()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(int, int) {}
	}

	return &Scanner{
		src:       src,
		builder:   builder,
		threshold: opts.SkipThreshold,
		workers:   workers,
		log:       log.With("source", src.Name()),
		progress:  progress,
	}, nil
}

// Run walks the source once and returns the grouping result. When ctx
// is cancelled Run returns ctx.Err() and no result.
func (s *Scanner) Run(ctx context.Context) (*dedup.Result, error) {
	total, err := s.src.Count(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warnw("could not count messages", "error", err)
		total = 0
	}
	s.log.Debugw("scan started", "messages", total, "workers", s.workers)
	s.progress(0, total)

	g, gctx := errgroup.WithContext(ctx)

	window := make(chan struct{}, s.workers*windowPerWorker)
	jobs := make(chan job, s.workers)
	results := make(chan result, s.workers)

	g.Go(func() error {
		defer close(jobs)
		seq := 0
		return s.src.Walk(gctx, func(item source.Item) error {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- job{seq: seq, item: item}:
				seq++
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				res := s.builder.BuildRaw(j.item.Raw)
				r := result{
					seq: j.seq,
					entry: dedup.Entry{
						ID:          j.item.ID,
						Failures:    res.Failures,
						Fingerprint: res.Fingerprint,
					},
					unreadable: fingerprint.Names(res.Unreadable),
				}
				select {
				case results <- r:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	grouper := dedup.NewGrouper(s.threshold)
	pending := make(map[int]result)
	next := 0
	for r := range results {
		pending[r.seq] = r
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			s.fold(grouper, p)
			next++
			<-window
			s.progress(next, total)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := grouper.Result()
	s.log.Debugw("scan finished",
		"scanned", res.Scanned,
		"skipped", len(res.Skipped),
		"groups", len(res.Groups),
		"duplicates", res.Count(),
	)
	return res, nil
}

func (s *Scanner) fold(g *dedup.Grouper, r result) {
	e := r.entry
	if !g.Add(e) {
		s.log.Warnw("skipping message with too many unreadable fields",
			"id", e.ID, "failures", e.Failures, "fields", r.unreadable)
		return
	}
	if len(r.unreadable) > 0 {
		s.log.Debugw("unreadable fields", "id", e.ID, "fields", r.unreadable)
	}
}
