package extsort

import "io"

// Iterator pulls one record at a time from an upstream source. Next
// copies the next record into out (which must be at least RecordSize
// bytes) and reports whether a record was produced.
type Iterator interface {
	Next(out []byte) (bool, error)
}

// SliceIterator is an Iterator over an in-memory slice of records, for
// tests and small inputs.
type SliceIterator struct {
	records [][]byte
	pos     int
}

// NewSliceIterator returns an Iterator yielding records in order.
func NewSliceIterator(records [][]byte) *SliceIterator {
	return &SliceIterator{records: records}
}

func (it *SliceIterator) Next(out []byte) (bool, error) {
	if it.pos >= len(it.records) {
		return false, nil
	}
	copy(out, it.records[it.pos])
	it.pos++
	return true, nil
}

// Remaining reports how many records have not yet been read.
func (it *SliceIterator) Remaining() int {
	return len(it.records) - it.pos
}

// PageFileIterator reads fixed-size records directly off an io.ReaderAt,
// one record at a time, tracking how many of a known total it has read.
type PageFileIterator struct {
	r          io.ReaderAt
	recordSize int
	total      int
	read       int
}

// NewPageFileIterator returns an Iterator over total fixed-size records
// of recordSize bytes stored back-to-back starting at offset 0 of r.
func NewPageFileIterator(r io.ReaderAt, recordSize, total int) *PageFileIterator {
	return &PageFileIterator{r: r, recordSize: recordSize, total: total}
}

func (it *PageFileIterator) Next(out []byte) (bool, error) {
	if it.read >= it.total {
		return false, nil
	}
	off := int64(it.read) * int64(it.recordSize)
	n, err := it.r.ReadAt(out[:it.recordSize], off)
	if err != nil && err != io.EOF {
		return false, WrapError(ErrCodeRead, err)
	}
	if n < it.recordSize {
		return false, NewError(ErrCodeRead)
	}
	it.read++
	return true, nil
}

// Remaining reports how many records have not yet been read.
func (it *PageFileIterator) Remaining() int {
	return it.total - it.read
}
