package extsort

import "testing"

func TestMetricsCompareAndMemcpyCount(t *testing.T) {
	m := &Metrics{}
	cmp := KeyPrefixCompare(4)
	a := makeRecord(1, 16)
	b := makeRecord(2, 16)

	if m.compare(cmp, a, b) >= 0 {
		t.Errorf("compare(1, 2) >= 0")
	}
	if m.NumCompares != 1 {
		t.Errorf("NumCompares = %d, want 1", m.NumCompares)
	}

	dst := make([]byte, 16)
	n := m.memcpy(dst, a)
	if n != 16 {
		t.Errorf("memcpy returned %d, want 16", n)
	}
	if m.NumMemcpys != 1 {
		t.Errorf("NumMemcpys = %d, want 1", m.NumMemcpys)
	}
}
