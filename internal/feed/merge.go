package feed

import (
	"sort"

	"github.com/samhotchkiss/trackshare/internal/models"
)

// Page is one window over a merged, sorted timeline.
type Page[T any] struct {
	Records []T
	Total   int
	HasMore bool
}

// Merge concatenates lists in the order given. Records without a timestamp
// are dropped. Merge does not sort.
func Merge[T Timestamped](lists ...[]T) []T {
	size := 0
	for _, list := range lists {
		size += len(list)
	}

	merged := make([]T, 0, size)
	for _, list := range lists {
		for _, record := range list {
			if record.SortTime().IsZero() {
				continue
			}
			merged = append(merged, record)
		}
	}
	return merged
}

// FilterRange keeps records whose timestamp falls inside r.
func FilterRange[T Timestamped](records []T, r models.DateRange) []T {
	if r.Start == nil && r.End == nil {
		return records
	}
	kept := make([]T, 0, len(records))
	for _, record := range records {
		if r.Contains(record.SortTime()) {
			kept = append(kept, record)
		}
	}
	return kept
}

// Paginate sorts records newest first and returns the window at offset.
// Records with equal timestamps keep their merge order. Negative offset or
// limit are treated as zero, so a zero limit always yields an empty page.
func Paginate[T Timestamped](records []T, offset, limit int) Page[T] {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	sorted := make([]T, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortTime().After(sorted[j].SortTime())
	})

	total := len(sorted)
	page := Page[T]{
		Records: []T{},
		Total:   total,
		HasMore: offset+limit < total,
	}
	if limit == 0 || offset >= total {
		return page
	}

	end := offset + limit
	if end > total {
		end = total
	}
	page.Records = sorted[offset:end]
	return page
}
