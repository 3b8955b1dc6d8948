package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/feed"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/metrics"
)

// ErrAllStrategiesFailed is returned when every personalized strategy and the
// trending fallback failed.
var ErrAllStrategiesFailed = errors.New("all recommendation strategies failed")

// Result is one window over the blended list.
type Result struct {
	Records  []Record
	Total    int
	HasMore  bool
	FellBack bool
}

// Blender runs strategies in a fixed order and merges their output.
type Blender struct {
	strategies []Strategy
	fallback   Strategy
	aggregator *feed.Aggregator
	logger     *log.Logger
}

// NewBlender creates a Blender. Strategies are blended in the order given.
func NewBlender(strategies []Strategy, fallback Strategy, aggregator *feed.Aggregator, logger *log.Logger) *Blender {
	return &Blender{
		strategies: strategies,
		fallback:   fallback,
		aggregator: aggregator,
		logger:     logging.OrDiscard(logger),
	}
}

// DefaultStrategies returns the personalized strategies in blend order.
// searcher may be nil, in which case genre exploration always fails.
func DefaultStrategies(store TrackStore, searcher GenreSearcher, now func() time.Time) []Strategy {
	genre := &GenreExploration{Store: store}
	if searcher != nil {
		genre.Catalog = searcher
	}
	return []Strategy{
		&SimilarArtist{Store: store},
		&TrendingFriends{Store: store, Now: now},
		genre,
		&MoodBased{Store: store},
	}
}

// Recommend blends strategy output, deduplicates it, and windows it by
// req.Offset and req.Limit. It falls back to trending when every strategy
// failed or nothing was produced.
func (b *Blender) Recommend(ctx context.Context, req Request) (Result, error) {
	if req.TrendingOnly {
		records, err := b.runFallback(ctx, req)
		if err != nil {
			b.logger.Error("trending recommendations unavailable", "user_id", req.UserID, "err", err)
			return Result{}, fmt.Errorf("%w: %w", ErrAllStrategiesFailed, err)
		}
		return Window(Dedup(records), req.Offset, req.Limit), nil
	}

	sources := make([]feed.Source[Record], 0, len(b.strategies))
	for _, s := range b.strategies {
		sources = append(sources, strategySource(s, req))
	}

	gathered, gatherErr := feed.Gather(ctx, b.aggregator, sources)
	allFailed := gatherErr != nil

	blended := Dedup(concat(gathered.Lists...))
	if !allFailed && len(blended) > 0 {
		return Window(blended, req.Offset, req.Limit), nil
	}

	fallback, err := b.runFallback(ctx, req)
	if err != nil {
		if allFailed {
			b.logger.Error("recommendations unavailable", "user_id", req.UserID, "err", err, "strategies_err", gatherErr)
			return Result{}, fmt.Errorf("%w: %w", ErrAllStrategiesFailed, err)
		}
		b.logger.Warn("trending fallback failed", "user_id", req.UserID, "err", err)
		return Window(blended, req.Offset, req.Limit), nil
	}

	metrics.RecordFallback("recommendations.trending")
	result := Window(Dedup(fallback), req.Offset, req.Limit)
	result.FellBack = true
	return result, nil
}

func (b *Blender) runFallback(ctx context.Context, req Request) ([]Record, error) {
	if b.fallback == nil {
		return nil, errors.New("no fallback strategy configured")
	}
	gathered, err := feed.Gather(ctx, b.aggregator, []feed.Source[Record]{strategySource(b.fallback, req)})
	if err != nil {
		return nil, err
	}
	return gathered.Lists[0], nil
}

// strategySource adapts a strategy to an aggregator source, enforcing its cap.
func strategySource(s Strategy, req Request) feed.Source[Record] {
	return feed.Source[Record]{
		Name: "recommendations." + string(s.Type()),
		Fetch: func(ctx context.Context) ([]Record, error) {
			records, err := s.Recommend(ctx, req, s.Cap())
			if err != nil {
				return nil, err
			}
			if len(records) > s.Cap() {
				records = records[:s.Cap()]
			}
			return records, nil
		},
	}
}

func concat(lists ...[]Record) []Record {
	var out []Record
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}

// Dedup keeps the first record for each dedup key, preserving order.
func Dedup(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := r.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Window slices records at offset without reordering them.
func Window(records []Record, offset, limit int) Result {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	total := len(records)
	result := Result{
		Records: []Record{},
		Total:   total,
		HasMore: offset+limit < total,
	}
	if limit == 0 || offset >= total {
		return result
	}

	end := offset + limit
	if end > total {
		end = total
	}
	result.Records = records[offset:end]
	return result
}
