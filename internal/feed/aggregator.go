package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrAllSourcesFailed is returned when every source of a request failed.
var ErrAllSourcesFailed = errors.New("all sources failed")

// DefaultSourceTimeout bounds a single source call.
const DefaultSourceTimeout = 8 * time.Second

// Source is one named category fetch.
type Source[T any] struct {
	Name  string
	Fetch func(ctx context.Context) ([]T, error)
}

// Adapt builds a Source that normalizes each fetched row.
func Adapt[R, T any](name string, fetch func(ctx context.Context) ([]R, error), normalize func(R) T) Source[T] {
	return Source[T]{
		Name: name,
		Fetch: func(ctx context.Context) ([]T, error) {
			rows, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			records := make([]T, 0, len(rows))
			for _, row := range rows {
				records = append(records, normalize(row))
			}
			return records, nil
		},
	}
}

// Aggregator runs sources concurrently. A failing or slow source never
// cancels the others; it contributes an empty list.
type Aggregator struct {
	Timeout time.Duration
	Logger  *log.Logger
}

// NewAggregator creates an Aggregator with the given per-source timeout.
func NewAggregator(timeout time.Duration, logger *log.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Aggregator{Timeout: timeout, Logger: logging.OrDiscard(logger)}
}

// Gathered holds per-source results in source order.
type Gathered[T any] struct {
	Lists  [][]T
	Failed []string
}

// Gather fetches every source and returns the lists indexed like sources.
// It returns ErrAllSourcesFailed, alongside the empty lists, only when no
// source succeeded.
func Gather[T any](ctx context.Context, a *Aggregator, sources []Source[T]) (Gathered[T], error) {
	if a == nil {
		a = NewAggregator(0, nil)
	}

	out := Gathered[T]{Lists: make([][]T, len(sources))}
	if len(sources) == 0 {
		return out, nil
	}

	errs := make([]error, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			list, err := fetchSource(ctx, a, src)
			if err != nil {
				errs[i] = err
				return nil
			}
			out.Lists[i] = list
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			out.Failed = append(out.Failed, sources[i].Name)
		}
	}
	if len(out.Failed) == len(sources) {
		return out, fmt.Errorf("%w: %s", ErrAllSourcesFailed, strings.Join(out.Failed, ", "))
	}
	return out, nil
}

// fetchSource runs one source under its own deadline. A source that ignores
// its context is abandoned when the deadline passes. Errors and panics are
// logged, counted, and returned to the caller.
func fetchSource[T any](ctx context.Context, a *Aggregator, src Source[T]) ([]T, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := logging.OrDiscard(a.Logger).With("source", src.Name)
	started := time.Now()

	type result struct {
		list []T
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("source %s panicked: %v", src.Name, r)}
			}
		}()
		if src.Fetch == nil {
			done <- result{err: fmt.Errorf("source %s has no fetch function", src.Name)}
			return
		}
		list, err := src.Fetch(callCtx)
		done <- result{list: list, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = result{err: fmt.Errorf("source %s: %w", src.Name, callCtx.Err())}
	}

	latency := time.Since(started)
	if res.err != nil {
		timedOut := errors.Is(res.err, context.DeadlineExceeded)
		metrics.RecordSourceFailure(src.Name, latency, timedOut, res.err)
		logger.Warn("source failed", "err", res.err, "timed_out", timedOut, "latency", latency)
		return nil, res.err
	}

	metrics.RecordSourceSuccess(src.Name, latency)
	logger.Debug("source fetched", "rows", len(res.list), "latency", latency)
	if res.list == nil {
		res.list = []T{}
	}
	return res.list, nil
}
