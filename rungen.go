package extsort

import "context"

// runGenResult summarizes a run-generation pass.
type runGenResult struct {
	numRuns        int
	avgDistinctX10 int
	endOffset      int64
}

// generateRuns implements replacement selection: it produces zero or more
// sorted runs from it, appended to store starting at startOffset, using
// buf (NumPages*PageSize bytes) as working memory. Page 0 of buf is the
// input/output page; the rest of buf holds a reverse heap (growing from
// the high-address end) and an unsorted overflow list (growing from the
// low-address end of page 1), per the buffer-aliasing discipline.
func generateRuns(ctx context.Context, it Iterator, store PageStore, buf []byte, startOffset int64, cfg Config, m *Metrics) (runGenResult, error) {
	valuesPerPage := cfg.ValuesPerPage()
	recordSize := cfg.RecordSize
	cmp := cfg.compareFunc()

	page0 := buf[:cfg.PageSize]
	heapListCap := (cfg.NumPages - 1) * valuesPerPage
	heapList := buf[cfg.PageSize : cfg.PageSize+heapListCap*recordSize]
	heapAcc := reverseSlots{region: heapList, recordSize: recordSize}
	listSlot := func(i int) []byte { return heapList[i*recordSize : (i+1)*recordSize] }

	tmp := make([]byte, recordSize)
	lastOutKey := make([]byte, recordSize)
	haveOutput := false

	heapSize := 0
	listSize := 0
	numSublist := 0
	numDistinctInRun := 0
	avgDistinctX10 := 0
	offset := startOffset

	// extractTop removes the current heap top, moving the last heap slot
	// into the root and sifting down, mirroring the C source's
	// "heapSize--; if heapSize>0 heapify_rev(...)" idiom.
	extractTop := func() {
		heapSize--
		if heapSize > 0 {
			m.memcpy(tmp, heapAcc.slot(heapSize))
			heapify(heapAcc, tmp, heapSize, cmp, m)
		}
	}

	updateAvgDistinct := func() {
		if numSublist == 0 {
			return
		}
		avgDistinctX10 += (numDistinctInRun*10 - (avgDistinctX10/10)*10) / numSublist
	}

	startNewRun := func() {
		numSublist++
		updateAvgDistinct()
		numDistinctInRun = 1
		haveOutput = false
	}

	promoteListIntoHeap := func() {
		for listSize > 0 {
			listSize--
			shiftUp(heapAcc, listSlot(listSize), heapSize, cmp, m)
			heapSize++
		}
	}

	// Step 1: fill the heap region directly from the iterator.
	filled := 0
	for filled < heapListCap {
		ok, err := it.Next(tmp)
		if err != nil {
			return runGenResult{}, err
		}
		if !ok {
			break
		}
		shiftUp(heapAcc, tmp, heapSize, cmp, m)
		heapSize++
		filled++
	}
	if filled > 0 {
		numSublist++
	}

	sublistSize := 0
	outputCount := 0
	recordsLeft := filled

	for recordsLeft != 0 {
		select {
		case <-ctx.Done():
			return runGenResult{}, ctx.Err()
		default:
		}

		// Step 2.a: read one more page and sort it in place.
		recordsRead := 0
		for recordsRead < valuesPerPage {
			rec := pageRecord(page0, cfg, recordsRead)
			ok, err := it.Next(rec)
			if err != nil {
				return runGenResult{}, err
			}
			if !ok {
				break
			}
			recordsRead++
		}
		recordsLeft += recordsRead

		if recordsRead > 1 {
			SortPage(page0[cfg.HeaderSize:], cfg, recordsRead, m)
		} else if heapSize < valuesPerPage {
			promoteListIntoHeap()
			if heapSize > 0 && haveOutput && m.compare(cmp, heapAcc.slot(0), lastOutKey) < 0 {
				startNewRun()
				sublistSize = 0
				outputCount = 0
			}
		}

		// Step 2.b: fill page 0 from the heap/list and the freshly read page.
		for i := 0; i < valuesPerPage; i++ {
			if recordsRead == 0 {
				m.memcpy(pageRecord(page0, cfg, i), heapAcc.slot(0))
				outputCount++
				recordsLeft--
				extractTop()
				if recordsLeft == 0 {
					break
				}
				continue
			}

			inputVal := pageRecord(page0, cfg, i)

			mustEndRun := haveOutput &&
				(heapSize == 0 || m.compare(cmp, heapAcc.slot(0), lastOutKey) < 0) &&
				m.compare(cmp, inputVal, lastOutKey) < 0
			if mustEndRun {
				startNewRun()
				promoteListIntoHeap()
				sublistSize = 0
				outputCount = 0
				recordsLeft += i
				i = -1
				continue
			}

			heapQualifies := heapSize > 0 &&
				m.compare(cmp, heapAcc.slot(0), inputVal) < 0 &&
				(!haveOutput || m.compare(cmp, heapAcc.slot(0), lastOutKey) >= 0)
			inputDisqualified := haveOutput && m.compare(cmp, inputVal, lastOutKey) < 0

			if heapQualifies || inputDisqualified {
				m.memcpy(tmp, inputVal)
				m.memcpy(inputVal, heapAcc.slot(0))
				if numDistinctInRun < maxDistinctInRun && haveOutput && m.compare(cmp, lastOutKey, inputVal) < 0 {
					numDistinctInRun++
				}
				m.memcpy(lastOutKey, inputVal)
				haveOutput = true

				if m.compare(cmp, tmp, lastOutKey) < 0 {
					extractTop()
					m.memcpy(listSlot(listSize), tmp)
					listSize++
				} else {
					heapify(heapAcc, tmp, heapSize, cmp, m)
				}
			} else {
				if numDistinctInRun < maxDistinctInRun && haveOutput && m.compare(cmp, lastOutKey, inputVal) < 0 {
					numDistinctInRun++
				}
				m.memcpy(lastOutKey, inputVal)
				haveOutput = true
			}

			outputCount++
			recordsLeft--
			if recordsLeft == 0 {
				break
			}
		}

		if err := WritePage(store, offset, page0, uint32(sublistSize), uint16(outputCount), m); err != nil {
			return runGenResult{}, err
		}
		offset += int64(cfg.PageSize)
		sublistSize++
		outputCount = 0
	}

	updateAvgDistinct()

	return runGenResult{
		numRuns:        numSublist,
		avgDistinctX10: avgDistinctX10,
		endOffset:      offset,
	}, nil
}
