// Package extsort is an adaptive external sorting engine for
// memory-constrained devices: it sorts a sequence of fixed-size records,
// possibly far exceeding available RAM, using a block-structured scratch
// store and a caller-owned buffer as small as two pages.
//
// The engine generates sorted runs with replacement selection, then chooses
// between two finishing strategies based on a cost model computed during run
// generation: a multi-way no-output-buffer merge (NOB-merge) that tolerates
// tight buffer budgets by shuffling records across in-RAM block slots, and a
// Flash MinSort scan that exploits low key cardinality by tracking one
// minimum per region.
//
// Basic usage:
//
//	cfg := extsort.Config{
//	    RecordSize: 16,
//	    KeySize:    4,
//	    HeaderSize: 6,
//	    PageSize:   512,
//	    NumPages:   4,
//	    Compare:    extsort.CompareBytes,
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	store, err := extsort.OpenFileStore("/tmp/scratch.dat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	buf := make([]byte, cfg.NumPages*cfg.PageSize)
//	result, err := extsort.Sort(context.Background(), it, store, buf, 0, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("sorted output begins at", result.Offset)
package extsort
