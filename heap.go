package extsort

// slots addresses the records of a heap by logical index: slot(0) is
// always the top. reverseSlots and forwardSlots differ only in which
// physical direction the index walks, per the design note that the
// choice of growth direction is incidental to the heap's semantics.
type slots interface {
	slot(i int) []byte
}

// reverseSlots indexes a region from its high-address end downward:
// slot(0) is the region's last recordSize bytes. Used by the
// replacement-selection heap, which shares buffer space with an
// overflow list growing from the low-address end.
type reverseSlots struct {
	region     []byte
	recordSize int
}

func (r reverseSlots) slot(i int) []byte {
	end := len(r.region) - i*r.recordSize
	return r.region[end-r.recordSize : end]
}

// forwardSlots indexes a region from its low-address end upward:
// slot(0) is the region's first recordSize bytes. Used by the
// parked-output heaps inside NOB-merge's non-output slots.
type forwardSlots struct {
	region     []byte
	recordSize int
}

func (f forwardSlots) slot(i int) []byte {
	start := i * f.recordSize
	return f.region[start : start+f.recordSize]
}

func swapSlots(s slots, i, j int, m *Metrics) {
	a, b := s.slot(i), s.slot(j)
	var tmp [64]byte // large enough for any record size used in practice
	var buf []byte
	if len(a) > len(tmp) {
		buf = make([]byte, len(a))
	} else {
		buf = tmp[:len(a)]
	}
	m.memcpy(buf, a)
	m.memcpy(a, b)
	m.memcpy(b, buf)
}

// siftDown restores the heap property for the subtree rooted at i, given
// n active slots.
func siftDown(s slots, i, n int, cmp CompareFunc, m *Metrics) {
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && m.compare(cmp, s.slot(left), s.slot(smallest)) < 0 {
			smallest = left
		}
		if right < n && m.compare(cmp, s.slot(right), s.slot(smallest)) < 0 {
			smallest = right
		}
		if smallest == i {
			return
		}
		swapSlots(s, i, smallest, m)
		i = smallest
	}
}

// buildHeap arranges the first n slots of s into heap order.
func buildHeap(s slots, n int, cmp CompareFunc, m *Metrics) {
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(s, i, n, cmp, m)
	}
}

// shiftUp inserts incoming at slot(n), extending the heap by one element,
// and sifts it toward the top.
func shiftUp(s slots, incoming []byte, n int, cmp CompareFunc, m *Metrics) {
	m.memcpy(s.slot(n), incoming)
	i := n
	for i > 0 {
		parent := (i - 1) / 2
		if m.compare(cmp, s.slot(parent), s.slot(i)) <= 0 {
			return
		}
		swapSlots(s, parent, i, m)
		i = parent
	}
}

// heapify replaces the top of an n-element heap with incoming and sifts
// it down to restore the heap property.
func heapify(s slots, incoming []byte, n int, cmp CompareFunc, m *Metrics) {
	m.memcpy(s.slot(0), incoming)
	siftDown(s, 0, n, cmp, m)
}
