//go:build unix

package extsort

import "golang.org/x/sys/unix"

// ReadAt and WriteAt on unix platforms issue direct pread(2)/pwrite(2)
// syscalls via golang.org/x/sys/unix rather than going through the Go
// runtime's internal file-offset locking, looping over short reads/writes
// the way a raw syscall wrapper must.

func (s *FileStore) ReadAt(p []byte, off int64) (int, error) {
	fd := int(s.f.Fd())
	total := 0
	for total < len(p) {
		n, err := unix.Pread(fd, p[total:], off+int64(total))
		if n > 0 {
			total += n
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

func (s *FileStore) WriteAt(p []byte, off int64) (int, error) {
	fd := int(s.f.Fd())
	total := 0
	for total < len(p) {
		n, err := unix.Pwrite(fd, p[total:], off+int64(total))
		if n > 0 {
			total += n
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
