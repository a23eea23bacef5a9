package extsort

import (
	"math/rand"
	"testing"
)

func TestSortPageOrdersRecords(t *testing.T) {
	cfg := testConfig()
	const count = 20
	buf := make([]byte, count*cfg.RecordSize)
	m := &Metrics{}

	rng := rand.New(rand.NewSource(4))
	for i := 0; i < count; i++ {
		copy(recordAt(buf, cfg.RecordSize, i), makeRecord(rng.Intn(1000), cfg.RecordSize))
	}

	SortPage(buf, cfg, count, m)

	for i := 1; i < count; i++ {
		if keyOf(recordAt(buf, cfg.RecordSize, i-1)) > keyOf(recordAt(buf, cfg.RecordSize, i)) {
			t.Fatalf("records not sorted at position %d", i)
		}
	}
}

func TestSortPageSingleRecordNoop(t *testing.T) {
	cfg := testConfig()
	buf := makeRecord(42, cfg.RecordSize)
	m := &Metrics{}
	SortPage(buf, cfg, 1, m)
	if keyOf(buf) != 42 {
		t.Errorf("single record mutated")
	}
}
