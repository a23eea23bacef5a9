package extsort

// sublistMinSort is Flash MinSort over sorted sublists: each region is
// exactly one sublist (post run-generation), so only a single pointer
// needs to advance within each region rather than a full rescan.
// Grounded directly on the original flash_minsort_sublist algorithm's
// init/next pair.
type sublistMinSort struct {
	store PageStore
	cfg   Config
	cmp   CompareFunc
	m     *Metrics

	segStart   int64
	numBlocks  int
	numRegions int

	// recordOffset[r] is the absolute offset of region r's next
	// candidate record; -1 once the region is spent.
	recordOffset []int64
	minKey       [][]byte // nil once the region is spent
}

// newSublistMinSort discovers numRegions sublist boundaries by reading
// backward from the last page of the numBlocks-page segment starting at
// segStart, per the back-to-front discovery rule: the last page's
// block_id gives the offset, within the segment, of its sublist's first
// page.
func newSublistMinSort(store PageStore, cfg Config, segStart int64, numBlocks, numRegions int, m *Metrics) (*sublistMinSort, error) {
	ms := &sublistMinSort{
		store:      store,
		cfg:        cfg,
		cmp:        cfg.compareFunc(),
		m:          m,
		segStart:   segStart,
		numBlocks:  numBlocks,
		numRegions: numRegions,
	}
	ms.recordOffset = make([]int64, numRegions)
	ms.minKey = make([][]byte, numRegions)

	page := make([]byte, cfg.PageSize)
	lastBlock := numBlocks - 1
	regionIdx := numRegions - 1

	for lastBlock >= 0 && regionIdx >= 0 {
		if err := ReadPage(store, segStart+int64(lastBlock)*int64(cfg.PageSize), page, m); err != nil {
			return nil, err
		}
		blockID := int(pageBlockID(page))
		firstPage := lastBlock - blockID

		if err := ReadPage(store, segStart+int64(firstPage)*int64(cfg.PageSize), page, m); err != nil {
			return nil, err
		}
		key := append([]byte(nil), pageRecord(page, cfg, 0)...)
		ms.minKey[regionIdx] = key
		ms.recordOffset[regionIdx] = segStart + int64(firstPage)*int64(cfg.PageSize) + int64(cfg.HeaderSize)

		regionIdx--
		lastBlock = firstPage - 1
	}
	return ms, nil
}

// next finds the region with the smallest current key, copies its
// record into out, and advances that region's pointer: within the same
// page if records remain, to the next page of the sublist otherwise, or
// marks the region spent if the next page belongs to a different
// sublist (detected by a non-increasing block_id).
func (ms *sublistMinSort) next(out []byte) (bool, error) {
	regionIdx := -1
	var current []byte
	for i, k := range ms.minKey {
		if k == nil {
			continue
		}
		if current == nil || ms.m.compare(ms.cmp, k, current) < 0 {
			current = k
			regionIdx = i
		}
	}
	if regionIdx == -1 {
		return false, nil
	}

	recOffset := ms.recordOffset[regionIdx]
	pageRel := (recOffset - ms.segStart) % int64(ms.cfg.PageSize)
	pageOffset := recOffset - pageRel
	i := (int(pageRel) - ms.cfg.HeaderSize) / ms.cfg.RecordSize

	page := make([]byte, ms.cfg.PageSize)
	if err := ReadPage(ms.store, pageOffset, page, ms.m); err != nil {
		return false, err
	}
	ms.m.memcpy(out, pageRecord(page, ms.cfg, i))

	i++
	if i >= int(pageCount(page)) {
		currentBlockID := pageBlockID(page)
		currentBlock := int((pageOffset - ms.segStart) / int64(ms.cfg.PageSize))
		nextPageOffset := pageOffset + int64(ms.cfg.PageSize)

		// A region's last page may be the segment's last page, in which
		// case there is no next page to read at all: reading past
		// numBlocks would run off the end of the scratch segment (and,
		// for a region that also happens to be physically last, straight
		// into the output area drainMinSort is writing to). Treat running
		// off the segment the same as finding a lower block_id: the
		// region is spent.
		if currentBlock+1 >= ms.numBlocks {
			ms.recordOffset[regionIdx] = -1
			ms.minKey[regionIdx] = nil
		} else if err := ReadPage(ms.store, nextPageOffset, page, ms.m); err != nil {
			return false, err
		} else if pageBlockID(page) <= currentBlockID {
			ms.recordOffset[regionIdx] = -1
			ms.minKey[regionIdx] = nil
		} else {
			ms.recordOffset[regionIdx] = nextPageOffset + int64(ms.cfg.HeaderSize)
			ms.minKey[regionIdx] = append([]byte(nil), pageRecord(page, ms.cfg, 0)...)
		}
	} else {
		ms.recordOffset[regionIdx] += int64(ms.cfg.RecordSize)
		ms.minKey[regionIdx] = append([]byte(nil), pageRecord(page, ms.cfg, i)...)
	}

	return true, nil
}
