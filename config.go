package extsort

import "bytes"

// CompareFunc orders two records (or two key-sized prefixes of records),
// returning a negative, zero, or positive value per a strict total order.
type CompareFunc func(a, b []byte) int

// CompareBytes is the default CompareFunc: a plain lexicographic compare
// over whatever slice is handed to it (callers typically pass a
// KeySize-length key prefix, not the whole record).
func CompareBytes(a, b []byte) int {
	return bytes.Compare(a, b)
}

// KeyPrefixCompare builds a CompareFunc that compares only the first
// keySize bytes of each record, which is the usual case when Compare is
// handed whole records by the engine.
func KeyPrefixCompare(keySize int) CompareFunc {
	return func(a, b []byte) int {
		return bytes.Compare(a[:keySize], b[:keySize])
	}
}

// Config describes record and page geometry plus the knobs the adaptive
// controller needs.
type Config struct {
	// RecordSize is the fixed size, in bytes, of one record.
	RecordSize int

	// KeySize is the number of leading bytes of a record that form its
	// comparison key.
	KeySize int

	// HeaderSize is the fixed page header size (block_id + count).
	HeaderSize int

	// PageSize is the fixed size, in bytes, of one scratch page.
	PageSize int

	// NumPages is M, the number of pages in the caller-owned buffer.
	NumPages int

	// Compare orders two records (or key prefixes); defaults to
	// KeyPrefixCompare(KeySize) if nil when passed to Sort.
	Compare CompareFunc

	// WriteToReadRatio is (write time / read time) x10, an integer
	// encoding preserved to keep the adaptive decision boundary exact.
	WriteToReadRatio int

	// RunGenOnly, if set, stops after run generation: Sort returns the
	// offset of the first run without merging or MinSort-ing.
	RunGenOnly bool
}

// ValuesPerPage is values_per_page = floor((PageSize-HeaderSize)/RecordSize).
func (c Config) ValuesPerPage() int {
	return (c.PageSize - c.HeaderSize) / c.RecordSize
}

// Validate checks the geometry invariants implied throughout the data
// model and component design: a Config that fails Validate must not be
// used to construct a buffer or run Sort.
func (c Config) Validate() error {
	switch {
	case c.RecordSize <= 0:
		return invalidConfig("record size must be positive")
	case c.KeySize <= 0 || c.KeySize > c.RecordSize:
		return invalidConfig("key size must be positive and not exceed record size")
	case c.HeaderSize < 0 || c.HeaderSize >= c.PageSize:
		return invalidConfig("header size must be non-negative and smaller than page size")
	case c.PageSize <= 0:
		return invalidConfig("page size must be positive")
	case c.NumPages < 2:
		return invalidConfig("at least two buffer pages (M >= 2) are required")
	case c.ValuesPerPage() < 1:
		return invalidConfig("page size and header size leave no room for a single record")
	}
	return nil
}

func invalidConfig(msg string) error {
	e := NewError(ErrCodeInvalidConfig)
	e.Message = msg
	return e
}

// compareFunc returns c.Compare if set, else the key-prefix default.
func (c Config) compareFunc() CompareFunc {
	if c.Compare != nil {
		return c.Compare
	}
	return KeyPrefixCompare(c.KeySize)
}
