package extsort

import (
	"sync"

	"golang.org/x/exp/slices"
)

var memsortScratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0)
		return &b
	},
}

// SortPage sorts the first count records of a freshly read page in
// place, by cfg's comparator. Any O(n log n) in-place sort suffices; this
// one delegates ordering to slices.SortFunc over an index permutation (so
// the comparator only ever sees whole records) and then materializes the
// permutation through a pooled scratch buffer.
func SortPage(buf []byte, cfg Config, count int, m *Metrics) {
	if count < 2 {
		return
	}
	recordSize := cfg.RecordSize
	cmp := cfg.compareFunc()

	idx := make([]int, count)
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		return m.compare(cmp, recordAt(buf, recordSize, a), recordAt(buf, recordSize, b))
	})

	scratchPtr := memsortScratchPool.Get().(*[]byte)
	need := count * recordSize
	scratch := *scratchPtr
	if cap(scratch) < need {
		scratch = make([]byte, need)
	}
	scratch = scratch[:need]
	for outPos, srcIdx := range idx {
		m.memcpy(scratch[outPos*recordSize:(outPos+1)*recordSize], recordAt(buf, recordSize, srcIdx))
	}
	copy(buf[:need], scratch)
	*scratchPtr = scratch
	memsortScratchPool.Put(scratchPtr)
}

func recordAt(buf []byte, recordSize, i int) []byte {
	return buf[i*recordSize : (i+1)*recordSize]
}
