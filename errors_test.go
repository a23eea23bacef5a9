package extsort

import (
	"errors"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	readErr := NewError(ErrCodeRead)
	if !IsReadError(readErr) || IsWriteError(readErr) || IsOOM(readErr) {
		t.Errorf("predicates mismatched for read error")
	}

	wrapped := WrapErrorf(ErrCodeWrite, errors.New("disk full"), "flush page %d", 3)
	if !IsWriteError(wrapped) {
		t.Errorf("IsWriteError(wrapped) = false")
	}
	if errors.Unwrap(wrapped).Error() != "disk full" {
		t.Errorf("Unwrap() = %v, want disk full", errors.Unwrap(wrapped))
	}
}

func TestCodeOfNilIsSuccess(t *testing.T) {
	if Code(nil) != ErrCodeSuccess {
		t.Errorf("Code(nil) != ErrCodeSuccess")
	}
}

func TestCodeOfPlainErrorIsOOM(t *testing.T) {
	if Code(errors.New("boom")) != ErrCodeOOM {
		t.Errorf("Code(plain error) should default to ErrCodeOOM")
	}
}
