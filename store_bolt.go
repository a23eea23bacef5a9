package extsort

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

var scratchBucket = []byte("extsort-scratch")

// BoltPageStore is a PageStore that keeps scratch pages as values in a
// single go.etcd.io/bbolt bucket, keyed by big-endian page offset. It
// demonstrates that the page abstraction is storage-agnostic; its pages
// persist in the bbolt file and can be inspected with ordinary bbolt
// tooling.
type BoltPageStore struct {
	db   *bolt.DB
	size int64
}

// OpenBoltPageStore opens (creating if necessary) path as a bbolt-backed
// scratch store.
func OpenBoltPageStore(path string) (*BoltPageStore, error) {
	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		return nil, WrapError(ErrCodeWrite, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(scratchBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, WrapError(ErrCodeWrite, err)
	}
	s := &BoltPageStore{db: db}
	db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(scratchBucket).Cursor()
		if k, v := c.Last(); k != nil {
			s.size = int64(binary.BigEndian.Uint64(k)) + int64(len(v))
		}
		return nil
	})
	return s, nil
}

func (s *BoltPageStore) ReadAt(p []byte, off int64) (int, error) {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(off))
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(scratchBucket).Get(key[:])
		if v == nil {
			return nil
		}
		n = copy(p, v)
		return nil
	})
	if err != nil {
		return 0, WrapError(ErrCodeRead, err)
	}
	return n, nil
}

func (s *BoltPageStore) WriteAt(p []byte, off int64) (int, error) {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(off))
	val := make([]byte, len(p))
	copy(val, p)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(scratchBucket).Put(key[:], val)
	})
	if err != nil {
		return 0, WrapError(ErrCodeWrite, err)
	}
	if end := off + int64(len(p)); end > s.size {
		s.size = end
	}
	return len(p), nil
}

func (s *BoltPageStore) Size() (int64, error) {
	return s.size, nil
}

// Close closes the underlying database.
func (s *BoltPageStore) Close() error {
	return s.db.Close()
}
