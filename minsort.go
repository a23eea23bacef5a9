package extsort

// minSortSentinelByte fills a record's bytes once Flash MinSort (regions)
// has emitted it, so subsequent region rescans skip it without needing
// any per-record consumed-tracking memory beyond the region's current
// min key and offset.
const minSortSentinelByte = 0xFF

// regionMinSort is Flash MinSort over plain (not necessarily sorted)
// regions: each region stores only its current minimum key and the
// absolute offset of the record holding it; advancing rescans the whole
// region. Grounded on the shape of the sorted-sublist variant
// (minsort_sublist.go) with the sorted precondition dropped.
type regionMinSort struct {
	store PageStore
	cfg   Config
	cmp   CompareFunc
	m     *Metrics

	regionStart []int64
	regionPages []int
	minKey      [][]byte
	minOffset   []int64
}

// newRegionMinSort partitions the segment starting at segStart into
// len(regionPages) consecutive regions (region r spanning
// regionPages[r] pages) and finds each region's initial minimum.
func newRegionMinSort(store PageStore, cfg Config, segStart int64, regionPages []int, m *Metrics) (*regionMinSort, error) {
	rs := &regionMinSort{
		store:       store,
		cfg:         cfg,
		cmp:         cfg.compareFunc(),
		m:           m,
		regionPages: regionPages,
	}
	n := len(regionPages)
	rs.regionStart = make([]int64, n)
	rs.minKey = make([][]byte, n)
	rs.minOffset = make([]int64, n)

	off := segStart
	for r := 0; r < n; r++ {
		rs.regionStart[r] = off
		if err := rs.rescanRegion(r); err != nil {
			return nil, err
		}
		off += int64(regionPages[r]) * int64(cfg.PageSize)
	}
	return rs, nil
}

// rescanRegion walks every page of region r, recording the smallest
// not-yet-tombstoned record and its absolute offset.
func (rs *regionMinSort) rescanRegion(r int) error {
	page := make([]byte, rs.cfg.PageSize)
	var bestKey []byte
	var bestOffset int64 = -1

	for p := 0; p < rs.regionPages[r]; p++ {
		pageOffset := rs.regionStart[r] + int64(p)*int64(rs.cfg.PageSize)
		if err := ReadPage(rs.store, pageOffset, page, rs.m); err != nil {
			return err
		}
		count := int(pageCount(page))
		for i := 0; i < count; i++ {
			rec := pageRecord(page, rs.cfg, i)
			if isSentinelRecord(rec) {
				continue
			}
			if bestKey == nil || rs.m.compare(rs.cmp, rec, bestKey) < 0 {
				bestKey = append([]byte(nil), rec...)
				bestOffset = pageOffset + int64(rs.cfg.HeaderSize) + int64(i*rs.cfg.RecordSize)
			}
		}
	}
	rs.minKey[r] = bestKey
	rs.minOffset[r] = bestOffset
	return nil
}

func isSentinelRecord(rec []byte) bool {
	for _, b := range rec {
		if b != minSortSentinelByte {
			return false
		}
	}
	return true
}

// next finds the region with the overall-smallest current key, copies
// its record into out, tombstones that record in the scratch store, and
// rescans the region to establish its new minimum.
func (rs *regionMinSort) next(out []byte) (bool, error) {
	regionIdx := -1
	var current []byte
	for i, k := range rs.minKey {
		if k == nil {
			continue
		}
		if current == nil || rs.m.compare(rs.cmp, k, current) < 0 {
			current = k
			regionIdx = i
		}
	}
	if regionIdx == -1 {
		return false, nil
	}

	off := rs.minOffset[regionIdx]
	pageRel := (off - rs.regionStart[regionIdx]) % int64(rs.cfg.PageSize)
	pageOffset := off - pageRel
	i := (int(pageRel) - rs.cfg.HeaderSize) / rs.cfg.RecordSize

	page := make([]byte, rs.cfg.PageSize)
	if err := ReadPage(rs.store, pageOffset, page, rs.m); err != nil {
		return false, err
	}
	rec := pageRecord(page, rs.cfg, i)
	rs.m.memcpy(out, rec)
	for j := range rec {
		rec[j] = minSortSentinelByte
	}
	if err := overwritePage(rs.store, pageOffset, page, rs.m); err != nil {
		return false, err
	}

	return true, rs.rescanRegion(regionIdx)
}
