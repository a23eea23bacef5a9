package extsort

import (
	"context"
	"math"
	"time"
)

// Result is the outcome of a completed sort: Offset is the absolute
// position in store at which the sorted output begins.
type Result struct {
	Offset  int64
	Metrics Metrics
}

// Sort drives the full adaptive pipeline: it generates sorted runs from
// it, then chooses between NOB-merge and Flash MinSort to combine them
// into a single sorted run, switching strategy between merge passes as
// the run count falls into MinSort's favorable range.
//
// buf must be at least cfg.NumPages*cfg.PageSize bytes. cfg.WriteToReadRatio
// expresses the relative cost of a write versus a read (per-10ths, matching
// the cost model's integer arithmetic); 10 means writes and reads cost the
// same.
func Sort(ctx context.Context, it Iterator, store PageStore, buf []byte, startOffset int64, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	m := &Metrics{}
	start := time.Now()

	genResult, err := generateRuns(ctx, it, store, buf, startOffset, cfg, m)
	if err != nil {
		return Result{}, err
	}
	m.NumRuns = int64(genResult.numRuns)
	m.GenTime = time.Since(start)

	if genResult.numRuns <= 1 || cfg.RunGenOnly {
		m.Time = time.Since(start)
		return Result{Offset: startOffset, Metrics: *m}, nil
	}

	lastMergeStart := startOffset
	lastMergeEnd := genResult.endOffset
	lastWritePos := genResult.endOffset
	numSublist := genResult.numRuns
	avgDistinctX10 := genResult.avgDistinctX10
	passNumber := 1

	resultOffset, err := mergeUntilSorted(ctx, store, buf, cfg, numSublist, avgDistinctX10, lastMergeStart, lastMergeEnd, lastWritePos, passNumber, m)
	if err != nil {
		return Result{}, err
	}
	m.Time = time.Since(start)
	return Result{Offset: resultOffset, Metrics: *m}, nil
}

// mergeUntilSorted reduces numSublist sublists to one. The NOB-merge
// versus Flash MinSort choice is made once, up front, by
// maybeFinishWithMinSort: NOB-merge's cost is proportional to the number
// of merge passes remaining (log base buffer-size of the sublist count),
// while MinSort's cost is proportional to the average number of distinct
// keys per sublist. If NOB-merge wins that one-time comparison, the loop
// below drives merge passes to completion, still watching each pass for
// the narrow sublist-count window where switching to the sorted-sublist
// MinSort variant is always a win regardless of the cost model. The
// sorted-sublist variant is used whenever the sublist count is small
// enough to index one min-key pointer per sublist in the buffer;
// otherwise the costlier full-region-rescan variant is used.
func mergeUntilSorted(ctx context.Context, store PageStore, buf []byte, cfg Config, numSublist, avgDistinctX10 int, lastMergeStart, lastMergeEnd, lastWritePos int64, passNumber int, m *Metrics) (int64, error) {
	bufferSizeInBlocks := cfg.NumPages
	tuplesPerPage := cfg.ValuesPerPage()

	// The NOB-merge-versus-MinSort cost comparison happens once, up
	// front: if MinSort wins here the whole sort finishes without any
	// merge pass at all.
	if decided, offset, err := maybeFinishWithMinSort(store, cfg, numSublist, avgDistinctX10, tuplesPerPage, bufferSizeInBlocks, lastMergeStart, lastMergeEnd, m); err != nil {
		return 0, err
	} else if decided {
		return offset, nil
	}

	for numSublist > 1 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		if numSublist >= minCutIn && numSublist <= maxCutIn {
			out, err := finishWithSortedSublistMinSort(store, cfg, numSublist, lastMergeStart, lastMergeEnd, lastMergeEnd, m)
			if err != nil {
				return 0, err
			}
			return out, nil
		}

		if passNumber%runRepassInterval == 0 {
			lastWritePos = 0
		}
		passNumber++

		newNumSublist, newLastWritePos, err := mergePass(ctx, store, buf, cfg, numSublist, lastMergeStart, lastMergeEnd, lastWritePos, m)
		if err != nil {
			return 0, err
		}
		lastMergeStart = lastWritePos
		lastMergeEnd = newLastWritePos
		lastWritePos = newLastWritePos
		numSublist = newNumSublist
	}

	return lastMergeStart, nil
}

// maybeFinishWithMinSort evaluates the NOB-merge-versus-MinSort cost
// model for the current sublist count; if MinSort wins, it finishes the
// sort with the appropriate MinSort variant and reports the result
// offset. If NOB-merge wins, it reports decided=false so the caller
// performs another merge pass instead.
func maybeFinishWithMinSort(store PageStore, cfg Config, numSublist, avgDistinctX10, tuplesPerPage, bufferSizeInBlocks int, lastMergeStart, lastMergeEnd int64, m *Metrics) (decided bool, offset int64, err error) {
	bufferSizeBytes := (bufferSizeInBlocks - 1) * cfg.PageSize
	sublistVersionPossible := numSublist <= bufferSizeBytes/(cfg.KeySize+sublistPointerSize)

	if sublistVersionPossible && avgDistinctX10 > tuplesPerPage*10 {
		avgDistinctX10 = tuplesPerPage * 10
	}

	numPasses := int(math.Ceil(math.Log(float64(numSublist)) / math.Log(float64(bufferSizeInBlocks))))
	nobSortCost := numPasses * (10 + cfg.WriteToReadRatio) / 10

	if avgDistinctX10/10 >= nobSortCost {
		return false, 0, nil
	}

	if sublistVersionPossible {
		out, err := finishWithSortedSublistMinSort(store, cfg, numSublist, lastMergeStart, lastMergeEnd, lastMergeEnd, m)
		return true, out, err
	}
	out, err := finishWithRegionMinSort(store, cfg, numSublist, lastMergeStart, lastMergeEnd, lastMergeEnd, m)
	return true, out, err
}

// finishWithSortedSublistMinSort drains the sorted sublists between
// lastMergeStart and lastMergeEnd with sublistMinSort, writing the final
// sorted output starting at writeOffset and returning its start offset.
func finishWithSortedSublistMinSort(store PageStore, cfg Config, numSublist int, lastMergeStart, lastMergeEnd, writeOffset int64, m *Metrics) (int64, error) {
	numBlocks := int((lastMergeEnd - lastMergeStart) / int64(cfg.PageSize))
	ms, err := newSublistMinSort(store, cfg, lastMergeStart, numBlocks, numSublist, m)
	if err != nil {
		return 0, err
	}
	return drainMinSort(store, cfg, ms.next, writeOffset, m)
}

// finishWithRegionMinSort drains numSublist equal-sized, not necessarily
// sorted regions between lastMergeStart and lastMergeEnd with
// regionMinSort, writing the final sorted output starting at writeOffset.
func finishWithRegionMinSort(store PageStore, cfg Config, numSublist int, lastMergeStart, lastMergeEnd, writeOffset int64, m *Metrics) (int64, error) {
	numBlocks := int((lastMergeEnd - lastMergeStart) / int64(cfg.PageSize))
	regionPages := make([]int, numSublist)
	base := numBlocks / numSublist
	extra := numBlocks % numSublist
	for i := range regionPages {
		regionPages[i] = base
		if i < extra {
			regionPages[i]++
		}
	}
	rs, err := newRegionMinSort(store, cfg, lastMergeStart, regionPages, m)
	if err != nil {
		return 0, err
	}
	return drainMinSort(store, cfg, rs.next, writeOffset, m)
}

// drainMinSort pulls records one at a time from next, packing them into
// pages of cfg.ValuesPerPage() and writing each full page to store
// starting at writeOffset, until next reports no records remain.
func drainMinSort(store PageStore, cfg Config, next func([]byte) (bool, error), writeOffset int64, m *Metrics) (int64, error) {
	startOffset := writeOffset
	valuesPerPage := cfg.ValuesPerPage()
	page := make([]byte, cfg.PageSize)
	var blockID uint32
	count := 0

	flush := func() error {
		if count == 0 {
			return nil
		}
		if err := WritePage(store, writeOffset, page, blockID, uint16(count), m); err != nil {
			return err
		}
		blockID++
		writeOffset += int64(cfg.PageSize)
		count = 0
		return nil
	}

	for {
		rec := pageRecord(page, cfg, count)
		ok, err := next(rec)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		count++
		if count == valuesPerPage {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return startOffset, nil
}
