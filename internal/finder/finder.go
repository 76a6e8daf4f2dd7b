// Package finder selects the records whose value for a metadata key is
// meaningful.
package finder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldradar/fieldradar/internal/meta"
	"github.com/fieldradar/fieldradar/internal/metrics"
	"github.com/fieldradar/fieldradar/internal/store"
)

// Mode selects how candidate values are read
type Mode string

const (
	// Sequential reads one value per candidate, in order
	Sequential Mode = "sequential"
	// Parallel reads values concurrently and re-sorts the result
	Parallel Mode = "parallel"
	// Batch reads values in chunks with one query per chunk
	Batch Mode = "batch"
)

// Defaults
const (
	DefaultConcurrency = 8
	DefaultBatchSize   = 500
)

// ParseMode parses a mode name. The empty string selects Sequential.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Sequential:
		return Sequential, nil
	case Parallel:
		return Parallel, nil
	case Batch:
		return Batch, nil
	default:
		return "", fmt.Errorf("unknown finder mode %q (want sequential, parallel or batch)", s)
	}
}

// Options configures a Finder
type Options struct {
	Mode        Mode
	Concurrency int
	BatchSize   int
	// Policy classifies values; nil selects meta.DefaultPolicy
	Policy  *meta.Policy
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Finder computes used sets
type Finder struct {
	store       store.Store
	mode        Mode
	concurrency int
	batchSize   int
	policy      meta.Policy
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// New creates a finder. Zero options fall back to the defaults.
func New(s store.Store, opts Options) *Finder {
	f := &Finder{
		store:       s,
		mode:        opts.Mode,
		concurrency: opts.Concurrency,
		batchSize:   opts.BatchSize,
		policy:      meta.DefaultPolicy(),
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if f.mode == "" {
		f.mode = Sequential
	}
	if f.concurrency < 1 {
		f.concurrency = DefaultConcurrency
	}
	if f.batchSize < 1 {
		f.batchSize = DefaultBatchSize
	}
	if opts.Policy != nil {
		f.policy = *opts.Policy
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// Policy returns the policy used to classify values
func (f *Finder) Policy() meta.Policy {
	return f.policy
}

// Mode returns the configured read mode
func (f *Finder) Mode() Mode {
	return f.mode
}

// FindUsed returns the IDs of contentType records whose value for key is
// meaningful, in ascending order. Storage errors abort the scan.
func (f *Finder) FindUsed(ctx context.Context, contentType, key string) ([]store.RecordID, error) {
	start := time.Now()

	candidates, err := f.store.CandidateIDs(ctx, contentType, key)
	if err != nil {
		f.metrics.RecordStorageError("candidates")
		f.metrics.RecordFinderRun(string(f.mode), 0, 0, time.Since(start), err)
		return nil, fmt.Errorf("failed to find candidates for %q: %w", key, err)
	}

	used, err := f.Filter(ctx, candidates, key)
	f.metrics.RecordFinderRun(string(f.mode), len(candidates), len(used), time.Since(start), err)
	if err != nil {
		f.metrics.RecordStorageError("values")
		return nil, err
	}

	f.logger.Debug("found used records",
		zap.String("type", contentType),
		zap.String("key", key),
		zap.String("mode", string(f.mode)),
		zap.Int("candidates", len(candidates)),
		zap.Int("used", len(used)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return used, nil
}

// Filter keeps the candidates whose value for key is meaningful. candidates
// must be ascending; the result keeps that order.
func (f *Finder) Filter(ctx context.Context, candidates []store.RecordID, key string) ([]store.RecordID, error) {
	var (
		used []store.RecordID
		err  error
	)
	switch f.mode {
	case Parallel:
		used, err = f.parallel(ctx, candidates, key)
	case Batch:
		used, err = f.batch(ctx, candidates, key)
	default:
		used, err = f.sequential(ctx, candidates, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read values for %q: %w", key, err)
	}
	return used, nil
}

// CountUsed returns the size of the used set for key
func (f *Finder) CountUsed(ctx context.Context, contentType, key string) (int, error) {
	used, err := f.FindUsed(ctx, contentType, key)
	if err != nil {
		return 0, err
	}
	return len(used), nil
}

func (f *Finder) sequential(ctx context.Context, candidates []store.RecordID, key string) ([]store.RecordID, error) {
	used := make([]store.RecordID, 0, len(candidates))
	for _, id := range candidates {
		v, err := f.store.MetaValue(ctx, id, key)
		if err != nil {
			return nil, err
		}
		if f.policy.IsMeaningful(v) {
			used = append(used, id)
		}
	}
	return used, nil
}

func (f *Finder) parallel(ctx context.Context, candidates []store.RecordID, key string) ([]store.RecordID, error) {
	var (
		mu   sync.Mutex
		used = make([]store.RecordID, 0, len(candidates))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(f.concurrency)
	for _, id := range candidates {
		id := id
		eg.Go(func() error {
			v, err := f.store.MetaValue(egCtx, id, key)
			if err != nil {
				return err
			}
			if f.policy.IsMeaningful(v) {
				mu.Lock()
				used = append(used, id)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(used, func(i, j int) bool { return used[i] < used[j] })
	return used, nil
}

func (f *Finder) batch(ctx context.Context, candidates []store.RecordID, key string) ([]store.RecordID, error) {
	used := make([]store.RecordID, 0, len(candidates))
	for start := 0; start < len(candidates); start += f.batchSize {
		end := start + f.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		chunk := candidates[start:end]

		values, err := f.store.MetaValues(ctx, chunk, key)
		if err != nil {
			return nil, err
		}
		for _, id := range chunk {
			v, ok := values[id]
			if !ok {
				// a candidate whose row vanished reads as empty text
				v = meta.Text("")
			}
			if f.policy.IsMeaningful(v) {
				used = append(used, id)
			}
		}
	}
	return used, nil
}
