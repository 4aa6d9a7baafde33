package concurrency

import (
	"sync"

	"go.uber.org/zap"

	"github.com/trackql/fetcher/internal/identifiers"
)

// oversizedBatchOnce fires the "oversized split item" warning at most once
// per process, matching the once-per-kind warning discipline used
// throughout the spec (spec.md §4.6).
var oversizedBatchOnce sync.Once

// SplitSysIDs yields sys_ids in groups sized by ceil(len/3) (producing
// three roughly equal batches for the typical case), capped at batchSize.
// The "3" is a fixed fan-out target chosen to saturate a worker pool of the
// default size without overcommitting it (spec.md §4.6).
func SplitSysIDs(sysIDs []identifiers.SysId, batchSize int) [][]identifiers.SysId {
	if len(sysIDs) == 0 {
		return nil
	}
	groupSize := (len(sysIDs) + 2) / 3
	if groupSize <= 0 {
		groupSize = 1
	}
	if batchSize > 0 && groupSize > batchSize {
		groupSize = batchSize
	}

	var out [][]identifiers.SysId
	for i := 0; i < len(sysIDs); i += groupSize {
		end := i + groupSize
		if end > len(sysIDs) {
			end = len(sysIDs)
		}
		out = append(out, sysIDs[i:end])
	}
	return out
}

// SplitSeriesAttributes packs items into batches so that both len(batch) <=
// itemLimit and the sum of utf8(getPath(item)) across the batch <=
// byteLimit. Packing is greedy and stable: items are consumed in input
// order, and a new batch starts as soon as either budget would be
// exceeded. A single item whose own path exceeds byteLimit is emitted alone
// in its own batch, with a one-time warning (spec.md §4.6 invariant: never
// emit an empty batch).
func SplitSeriesAttributes[T any](items []T, getPath func(T) string, itemLimit, byteLimit int, logger *zap.Logger) [][]T {
	if len(items) == 0 {
		return nil
	}

	var out [][]T
	var current []T
	currentBytes := 0

	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
			currentBytes = 0
		}
	}

	for _, item := range items {
		pathLen := len([]byte(getPath(item)))

		if pathLen > byteLimit {
			flush()
			out = append(out, []T{item})
			warnOversized(logger, getPath(item))
			continue
		}

		wouldExceedItems := itemLimit > 0 && len(current)+1 > itemLimit
		wouldExceedBytes := currentBytes+pathLen > byteLimit
		if len(current) > 0 && (wouldExceedItems || wouldExceedBytes) {
			flush()
		}

		current = append(current, item)
		currentBytes += pathLen
	}
	flush()

	return out
}

func warnOversized(logger *zap.Logger, path string) {
	oversizedBatchOnce.Do(func() {
		if logger == nil {
			return
		}
		logger.Warn("attribute path exceeds the query size limit on its own; emitting it as a singleton batch",
			zap.String("path", path))
	})
}
