package extsort

import "time"

// Metrics is the counter record exposed to callers: every page read/write,
// comparator invocation, and record copy across heap/list/merge-slot
// boundaries increments the corresponding field.
type Metrics struct {
	NumReads    int64
	NumWrites   int64
	NumCompares int64
	NumMemcpys  int64
	NumRuns     int64
	GenTime     time.Duration
	Time        time.Duration
}

func (m *Metrics) compare(cmp CompareFunc, a, b []byte) int {
	m.NumCompares++
	return cmp(a, b)
}

func (m *Metrics) memcpy(dst, src []byte) int {
	m.NumMemcpys++
	return copy(dst, src)
}
