package extsort

import (
	"fmt"

	"github.com/google/uuid"
)

// NewScratchName generates a collision-free scratch file name, for
// callers that create their own scratch file (for example with
// OpenFileStore) before passing the resulting store to Sort.
func NewScratchName() string {
	return fmt.Sprintf("scratch-%s.dat", uuid.NewString())
}
