package extsort

import "testing"

// writeSortedSublists lays out each of sublists as one sorted run of its
// own length, back to back starting at offset 0, with block_id
// restarting at 0 for each sublist, matching what generateRuns produces.
func writeSortedSublists(t *testing.T, store *memStore, cfg Config, sublists [][]int) int64 {
	t.Helper()
	m := &Metrics{}
	offset := int64(0)
	valuesPerPage := cfg.ValuesPerPage()

	for _, keys := range sublists {
		blockID := uint32(0)
		for start := 0; start < len(keys); start += valuesPerPage {
			end := start + valuesPerPage
			if end > len(keys) {
				end = len(keys)
			}
			page := make([]byte, cfg.PageSize)
			for i, k := range keys[start:end] {
				copy(pageRecord(page, cfg, i), makeRecord(k, cfg.RecordSize))
			}
			if err := WritePage(store, offset, page, blockID, uint16(end-start), m); err != nil {
				t.Fatalf("WritePage: %v", err)
			}
			offset += int64(cfg.PageSize)
			blockID++
		}
	}
	return offset
}

func sortedKeys(start, n int) []int {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = start + i
	}
	return keys
}

func TestSublistMinSortMergesInOrder(t *testing.T) {
	cfg := testConfig()
	sublists := [][]int{
		{1, 4, 7, 10, 20},
		{2, 3, 8, 9},
		{0, 5, 6, 11, 12, 13},
		sortedKeys(100, 70), // spans multiple pages (values_per_page=31)
	}
	store := newMemStore(cfg.PageSize * 32)
	end := writeSortedSublists(t, store, cfg, sublists)
	m := &Metrics{}

	numBlocks := int(end / int64(cfg.PageSize))
	ms, err := newSublistMinSort(store, cfg, 0, numBlocks, len(sublists), m)
	if err != nil {
		t.Fatalf("newSublistMinSort: %v", err)
	}

	var got []int
	out := make([]byte, cfg.RecordSize)
	for {
		ok, err := ms.next(out)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, keyOf(out))
	}

	total := 0
	for _, s := range sublists {
		total += len(s)
	}
	if len(got) != total {
		t.Fatalf("got %d records, want %d", len(got), total)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("not sorted at %d: %d > %d", i, got[i-1], got[i])
		}
	}
}

func TestRegionMinSortMergesInOrder(t *testing.T) {
	cfg := testConfig()
	valuesPerPage := cfg.ValuesPerPage()
	regions := [][]int{
		{5, 1, 9, 3},
		{2, 8, 0},
		{7, 4, 6, 10, 11},
	}
	store := newMemStore(cfg.PageSize * 32)
	m := &Metrics{}

	regionPages := make([]int, len(regions))
	offset := int64(0)
	for r, keys := range regions {
		pages := (len(keys) + valuesPerPage - 1) / valuesPerPage
		regionPages[r] = pages
		idx := 0
		for p := 0; p < pages; p++ {
			page := make([]byte, cfg.PageSize)
			n := 0
			for idx < len(keys) && n < valuesPerPage {
				copy(pageRecord(page, cfg, n), makeRecord(keys[idx], cfg.RecordSize))
				idx++
				n++
			}
			if err := WritePage(store, offset, page, uint32(p), uint16(n), m); err != nil {
				t.Fatalf("WritePage: %v", err)
			}
			offset += int64(cfg.PageSize)
		}
	}

	rs, err := newRegionMinSort(store, cfg, 0, regionPages, m)
	if err != nil {
		t.Fatalf("newRegionMinSort: %v", err)
	}

	var got []int
	out := make([]byte, cfg.RecordSize)
	for {
		ok, err := rs.next(out)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, keyOf(out))
	}

	total := 0
	for _, r := range regions {
		total += len(r)
	}
	if len(got) != total {
		t.Fatalf("got %d records, want %d", len(got), total)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("not sorted at %d: %d > %d", i, got[i-1], got[i])
		}
	}
}

func TestIsSentinelRecord(t *testing.T) {
	rec := make([]byte, 16)
	for i := range rec {
		rec[i] = minSortSentinelByte
	}
	if !isSentinelRecord(rec) {
		t.Errorf("isSentinelRecord(all-0xFF) = false")
	}
	rec[3] = 0
	if isSentinelRecord(rec) {
		t.Errorf("isSentinelRecord(mixed) = true")
	}
}
