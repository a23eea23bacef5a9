package extsort

import "os"

// FileStore is a PageStore backed directly by an *os.File, with
// positional reads/writes routed through platform pread/pwrite (see
// store_file_unix.go / store_file_other.go).
type FileStore struct {
	f *os.File
}

// OpenFileStore opens (creating if necessary) path as a scratch store.
func OpenFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, WrapError(ErrCodeWrite, err)
	}
	return &FileStore{f: f}, nil
}

// NewFileStore wraps an already-open file as a scratch store.
func NewFileStore(f *os.File) *FileStore {
	return &FileStore{f: f}
}

// Close closes the underlying file. The engine itself never calls this;
// it is the caller's responsibility per the resource model.
func (s *FileStore) Close() error {
	return s.f.Close()
}

func (s *FileStore) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, WrapError(ErrCodeRead, err)
	}
	return fi.Size(), nil
}
