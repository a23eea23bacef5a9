package extsort

// Page header accessors: bytes 0-3 are block_id (u32 LE), bytes 4-5 are
// count (u16 LE). Direct byte-accessor style: compute an offset, call an
// endian helper, rather than a struct overlay.

func pageBlockID(buf []byte) uint32 {
	return getUint32LE(buf[headerBlockIDOffset:])
}

func pageSetBlockID(buf []byte, id uint32) {
	putUint32LE(buf[headerBlockIDOffset:], id)
}

func pageCount(buf []byte) uint16 {
	return getUint16LE(buf[headerCountOffset:])
}

func pageSetCount(buf []byte, n uint16) {
	putUint16LE(buf[headerCountOffset:], n)
}

// pageRecord returns the i'th record slot of a page buffer, i.e. the
// bytes at HeaderSize + i*RecordSize.
func pageRecord(buf []byte, cfg Config, i int) []byte {
	off := cfg.HeaderSize + i*cfg.RecordSize
	return buf[off : off+cfg.RecordSize]
}

// ReadPage fills buf (one PageSize slice) from store at offset.
func ReadPage(store PageStore, offset int64, buf []byte, m *Metrics) error {
	n, err := store.ReadAt(buf, offset)
	m.NumReads++
	if err != nil {
		return WrapErrorf(ErrCodeRead, err, "read page at offset %d", offset)
	}
	if n < len(buf) {
		return WrapErrorf(ErrCodeRead, nil, "short read at offset %d: got %d of %d bytes", offset, n, len(buf))
	}
	return nil
}

// overwritePage rewrites buf's bytes at offset without touching the
// header fields already present in buf (used by Flash MinSort region
// scans to tombstone an emitted record in place).
func overwritePage(store PageStore, offset int64, buf []byte, m *Metrics) error {
	n, err := store.WriteAt(buf, offset)
	m.NumWrites++
	if err != nil {
		return WrapErrorf(ErrCodeWrite, err, "rewrite page at offset %d", offset)
	}
	if n < len(buf) {
		return WrapErrorf(ErrCodeWrite, nil, "short rewrite at offset %d: wrote %d of %d bytes", offset, n, len(buf))
	}
	return nil
}

// WritePage stamps {blockID, count} into buf's header, then writes buf
// (one PageSize slice) to store at offset.
func WritePage(store PageStore, offset int64, buf []byte, blockID uint32, count uint16, m *Metrics) error {
	pageSetBlockID(buf, blockID)
	pageSetCount(buf, count)
	n, err := store.WriteAt(buf, offset)
	m.NumWrites++
	if err != nil {
		return WrapErrorf(ErrCodeWrite, err, "write page at offset %d", offset)
	}
	if n < len(buf) {
		return WrapErrorf(ErrCodeWrite, nil, "short write at offset %d: wrote %d of %d bytes", offset, n, len(buf))
	}
	return nil
}
