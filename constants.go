package extsort

// DefaultHeaderSize is the fixed scratch-page header size: a 4-byte
// block_id followed by a 2-byte count, per the scratch store layout.
const DefaultHeaderSize = 6

// headerBlockIDOffset and headerCountOffset locate the two header fields
// within a page's leading DefaultHeaderSize bytes.
const (
	headerBlockIDOffset = 0
	headerCountOffset   = 4
)

// minCutIn and maxCutIn bound the adaptive cut-in window: when the
// number of live sublists in a NOB-merge pass falls in [minCutIn, maxCutIn],
// the controller abandons NOB-merge in favor of MinSort over sorted
// sublists.
const (
	minCutIn = 32
	maxCutIn = 64
)

// runRepassInterval: every this-many NOB-merge passes, last_write_pos
// resets to the start of the scratch area to bound file growth.
const runRepassInterval = 3

// maxDistinctInRun caps the per-run distinct-value counter, matching the
// 8-bit saturating counter of the run generator's distinct tracking.
const maxDistinctInRun = 255

// sublistPointerSize is the per-sublist file-offset pointer size used by
// the adaptive controller's sorted-sublist MinSort feasibility check
// (num_sublists <= (M-1)*page_size/(key_size+sublistPointerSize)).
const sublistPointerSize = 4
