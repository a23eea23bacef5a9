package extsort

import "testing"

func testConfig() Config {
	return Config{RecordSize: 16, KeySize: 4, HeaderSize: 6, PageSize: 512, NumPages: 4}
}

type memStore struct {
	data []byte
}

func newMemStore(size int) *memStore {
	return &memStore{data: make([]byte, size)}
}

func (s *memStore) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, s.data[off:]), nil
}

func (s *memStore) WriteAt(p []byte, off int64) (int, error) {
	return copy(s.data[off:], p), nil
}

func (s *memStore) Size() (int64, error) {
	return int64(len(s.data)), nil
}

func TestPageHeaderRoundTrip(t *testing.T) {
	cfg := testConfig()
	store := newMemStore(cfg.PageSize * 2)
	m := &Metrics{}

	page := make([]byte, cfg.PageSize)
	copy(pageRecord(page, cfg, 0), []byte{1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	if err := WritePage(store, 0, page, 7, 3, m); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	readBack := make([]byte, cfg.PageSize)
	if err := ReadPage(store, 0, readBack, m); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if pageBlockID(readBack) != 7 {
		t.Errorf("block id = %d, want 7", pageBlockID(readBack))
	}
	if pageCount(readBack) != 3 {
		t.Errorf("count = %d, want 3", pageCount(readBack))
	}
	if got := pageRecord(readBack, cfg, 0)[0]; got != 1 {
		t.Errorf("record byte 0 = %d, want 1", got)
	}
	if m.NumReads != 1 || m.NumWrites != 1 {
		t.Errorf("metrics = %+v, want 1 read 1 write", m)
	}
}

func TestOverwritePagePreservesHeader(t *testing.T) {
	cfg := testConfig()
	store := newMemStore(cfg.PageSize)
	m := &Metrics{}

	page := make([]byte, cfg.PageSize)
	if err := WritePage(store, 0, page, 42, 5, m); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	page2 := make([]byte, cfg.PageSize)
	if err := ReadPage(store, 0, page2, m); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	pageSetBlockID(page2, 42)
	pageSetCount(page2, 5)
	pageRecord(page2, cfg, 0)[0] = 0xAB
	if err := overwritePage(store, 0, page2, m); err != nil {
		t.Fatalf("overwritePage: %v", err)
	}

	final := make([]byte, cfg.PageSize)
	if err := ReadPage(store, 0, final, m); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if pageBlockID(final) != 42 || pageCount(final) != 5 {
		t.Errorf("header changed across overwritePage: block=%d count=%d", pageBlockID(final), pageCount(final))
	}
	if pageRecord(final, cfg, 0)[0] != 0xAB {
		t.Errorf("record not overwritten")
	}
}

func TestValuesPerPage(t *testing.T) {
	cfg := testConfig()
	if got := cfg.ValuesPerPage(); got != 31 {
		t.Errorf("ValuesPerPage() = %d, want 31", got)
	}
}
