package extsort

import "context"

// outputBlockID is the buffer slot that accumulates merged output records.
// The run setup always arranges for the sublist with the smallest last
// page to land in this slot, which minimizes displacement traffic.
const outputBlockID = 0

// mergePass performs one NOB-merge pass: it combines the numSublist sorted
// sublists living in [lastMergeStart, lastMergeEnd) of store, up to
// cfg.NumPages sublists at a time, and writes the merged output starting
// at lastWritePos. Each cfg.NumPages-way combination produces one new
// sublist, so a pass turns numSublist sublists into
// ceil(numSublist/cfg.NumPages) of them. buf must hold cfg.NumPages pages;
// buf[i*PageSize:(i+1)*PageSize] is slot i's page.
//
// Grounded closely on the merge phase of the original adaptive sort: each
// buffer slot holds one input block and doubles as scratch space for
// records displaced out of the output block while it is full
// (record2, a small forward heap built with shiftUp/heapify).
func mergePass(ctx context.Context, store PageStore, buf []byte, cfg Config, numSublist int, lastMergeStart, lastMergeEnd, lastWritePos int64, m *Metrics) (newNumSublist int, newLastWritePos int64, err error) {
	bufferSizeInBlocks := cfg.NumPages
	pageSize := int64(cfg.PageSize)
	headerSize := int64(cfg.HeaderSize)
	recordSize := int64(cfg.RecordSize)
	valuesPerPage := cfg.ValuesPerPage()
	cmp := cfg.compareFunc()

	numRuns := (numSublist + bufferSizeInBlocks - 1) / bufferSizeInBlocks

	sublsFilePtr := make([]int64, bufferSizeInBlocks)
	sublsBlkPos := make([]int, bufferSizeInBlocks)
	blocksInSublist := make([]int, bufferSizeInBlocks)
	record1 := make([]int64, bufferSizeInBlocks)
	record2 := make([]int64, bufferSizeInBlocks)

	slot := func(i int) []byte { return buf[int64(i)*pageSize : int64(i+1)*pageSize] }
	heapBase := func(i int) forwardSlots {
		return forwardSlots{region: buf[int64(i)*pageSize+headerSize : int64(i+1)*pageSize], recordSize: cfg.RecordSize}
	}
	heapCount := func(i int) int {
		return int((record2[i] + recordSize - int64(i)*pageSize) / recordSize)
	}

	var currentBlockID uint32
	ptrLastBlock := lastMergeEnd
	remaining := numSublist

	for run := 0; run < numRuns; run++ {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		default:
		}

		sublistsInRun := bufferSizeInBlocks
		if remaining < bufferSizeInBlocks {
			sublistsInRun = remaining
		}
		remaining -= sublistsInRun

		// Discover each sublist's first block by reading backward from
		// its last block, keeping the sublist with the smallest last
		// block's first record in slot 0 (fewest swaps follow,
		// especially for already-sorted input).
		for i := 0; i < sublistsInRun; i++ {
			if err := ReadPage(store, ptrLastBlock-pageSize, slot(i), m); err != nil {
				return 0, 0, err
			}
			blockID := pageBlockID(slot(i))
			ptrLastBlock = ptrLastBlock - int64(blockID)*pageSize - pageSize
			blocksInSublist[i] = int(blockID) + 1

			if ptrLastBlock < lastMergeStart {
				return 0, 0, NewError(ErrCodeRead)
			}
			sublsFilePtr[i] = ptrLastBlock
			sublsBlkPos[i] = 0

			if i != 0 {
				m.NumCompares++
				if cmp(slot(0)[cfg.HeaderSize:], slot(i)[cfg.HeaderSize:]) > 0 {
					sublsFilePtr[0], sublsFilePtr[i] = sublsFilePtr[i], sublsFilePtr[0]
					blocksInSublist[0], blocksInSublist[i] = blocksInSublist[i], blocksInSublist[0]
				}
			}
		}

		for i := 0; i < sublistsInRun; i++ {
			if err := ReadPage(store, sublsFilePtr[i], slot(i), m); err != nil {
				return 0, 0, err
			}
			record1[i] = int64(i)*pageSize + headerSize
			record2[i] = -1
		}

		for {
			resultBlock := -1
			resultRecOffset := int64(-1)
			isRecord2 := false

			i := 0
			for i < sublistsInRun && record1[i] == -1 {
				i++
			}
			if i < sublistsInRun {
				resultRecOffset = record1[i]
				resultBlock = i
				i++
			}
			for ; i < sublistsInRun; i++ {
				if record1[i] == -1 {
					continue
				}
				m.NumCompares++
				if cmp(buf[resultRecOffset:resultRecOffset+recordSize], buf[record1[i]:record1[i]+recordSize]) > 0 {
					resultRecOffset = record1[i]
					resultBlock = i
				}
			}
			for i := 1; i < sublistsInRun; i++ {
				if record2[i] == -1 {
					continue
				}
				off := int64(i)*pageSize + headerSize
				if resultBlock != -1 {
					m.NumCompares++
				}
				if resultBlock == -1 || cmp(buf[resultRecOffset:resultRecOffset+recordSize], buf[off:off+recordSize]) > 0 {
					resultRecOffset = off
					resultBlock = i
					isRecord2 = true
				}
			}
			if resultBlock == -1 {
				break
			}

			if record2[outputBlockID] == -1 {
				record2[outputBlockID] = int64(outputBlockID)*pageSize + headerSize
			} else {
				record2[outputBlockID] += recordSize
			}

			if resultBlock != outputBlockID {
				if record1[outputBlockID] == record2[outputBlockID] && record1[outputBlockID] != -1 {
					// Output slot has no free record, so the result
					// displaces the output record currently there; the
					// displaced record is parked in its source block's
					// heap (record2 of resultBlock).
					tuple := append([]byte(nil), buf[record1[outputBlockID]:record1[outputBlockID]+recordSize]...)
					m.memcpy(buf[record2[outputBlockID]:], buf[resultRecOffset:resultRecOffset+recordSize])

					if !isRecord2 {
						if record2[resultBlock] == -1 {
							record2[resultBlock] = int64(resultBlock)*pageSize + headerSize
						} else {
							record2[resultBlock] += recordSize
						}
						shiftUp(heapBase(resultBlock), tuple, heapCount(resultBlock)-1, cmp, m)
					} else {
						heapify(heapBase(resultBlock), tuple, heapCount(resultBlock), cmp, m)
					}

					record1[outputBlockID] += recordSize
					if record1[outputBlockID] >= int64(outputBlockID)*pageSize+int64(pageCount(slot(outputBlockID)))*recordSize+headerSize {
						record1[outputBlockID] = -1
					}
				} else {
					m.memcpy(buf[record2[outputBlockID]:], buf[resultRecOffset:resultRecOffset+recordSize])
					if isRecord2 {
						record2[resultBlock] -= recordSize
						if record2[resultBlock] < int64(resultBlock)*pageSize+headerSize {
							record2[resultBlock] = -1
						} else {
							heapify(heapBase(resultBlock), buf[record2[resultBlock]+recordSize:], heapCount(resultBlock), cmp, m)
						}
					}
				}
				if !isRecord2 {
					record1[resultBlock] += recordSize
				}
			} else {
				if record2[resultBlock] != record1[resultBlock] {
					m.memcpy(buf[record2[resultBlock]:], buf[record1[resultBlock]:record1[resultBlock]+recordSize])
				}
				record1[resultBlock] += recordSize
			}

			if record1[resultBlock] >= int64(resultBlock)*pageSize+int64(pageCount(slot(resultBlock)))*recordSize+headerSize {
				record1[resultBlock] = -1
			}

			if record2[outputBlockID] >= int64(outputBlockID)*pageSize+int64(valuesPerPage)*recordSize-recordSize {
				if err := WritePage(store, lastWritePos, slot(outputBlockID), currentBlockID, uint16(valuesPerPage), m); err != nil {
					return 0, 0, err
				}
				currentBlockID++
				lastWritePos += pageSize
				record2[outputBlockID] = -1
			}

			if record1[resultBlock] == -1 && sublsBlkPos[resultBlock] != -1 && resultBlock != outputBlockID {
				if sublsBlkPos[resultBlock] >= blocksInSublist[resultBlock]-1 {
					sublsBlkPos[resultBlock] = -1
					record1[resultBlock] = -1
				} else {
					sublsBlkPos[resultBlock]++
					sublsFilePtr[resultBlock] += pageSize

					if err := redistributeOutgoing(buf, cfg, record1, record2, resultBlock, bufferSizeInBlocks, cmp, m); err != nil {
						return 0, 0, err
					}

					if err := ReadPage(store, sublsFilePtr[resultBlock], slot(resultBlock), m); err != nil {
						return 0, 0, err
					}
					record2[resultBlock] = -1
					record1[resultBlock] = int64(resultBlock)*pageSize + headerSize
				}
			}

			outputIsEmpty := record1[outputBlockID] == -1
			if outputIsEmpty {
				for i := 0; i < sublistsInRun; i++ {
					if i == outputBlockID {
						continue
					}
					if record2[i] != -1 {
						outputIsEmpty = false
						break
					}
				}
			}

			if outputIsEmpty && sublsBlkPos[outputBlockID] != -1 {
				if sublsBlkPos[outputBlockID] >= blocksInSublist[outputBlockID]-1 {
					sublsBlkPos[outputBlockID] = -1
					record1[outputBlockID] = -1
				} else {
					sublsBlkPos[outputBlockID]++
					sublsFilePtr[outputBlockID] += pageSize

					if err := evacuateOutputSlot(buf, cfg, record1, record2, bufferSizeInBlocks, m); err != nil {
						return 0, 0, err
					}

					if err := ReadPage(store, sublsFilePtr[outputBlockID], slot(outputBlockID), m); err != nil {
						return 0, 0, err
					}
					numRecords := int(pageCount(slot(outputBlockID)))
					record1[outputBlockID] = int64(outputBlockID)*pageSize + headerSize

					if record2[outputBlockID] != -1 {
						restoreOutputSlot(buf, cfg, record1, record2, numRecords, sublistsInRun, m)
					}
				}
			}
		}

		if record2[outputBlockID] > 0 {
			count := int((record2[outputBlockID]-headerSize)/recordSize) + 1
			if err := WritePage(store, lastWritePos, slot(outputBlockID), currentBlockID, uint16(count), m); err != nil {
				return 0, 0, err
			}
			currentBlockID++
			lastWritePos += pageSize
			record2[outputBlockID] = -1
		}
	}

	return numRuns, lastWritePos, nil
}

// redistributeOutgoing moves resultBlock's parked output records
// (record2[resultBlock]) into whichever blocks currently have spare
// capacity before its page is overwritten with the sublist's next block.
func redistributeOutgoing(buf []byte, cfg Config, record1, record2 []int64, resultBlock, bufferSizeInBlocks int, cmp CompareFunc, m *Metrics) error {
	pageSize := int64(cfg.PageSize)
	headerSize := int64(cfg.HeaderSize)
	recordSize := int64(cfg.RecordSize)
	valuesPerPage := cfg.ValuesPerPage()

	originPtr := int64(resultBlock)*pageSize + headerSize
	destBlk := outputBlockID
	numTransfer := int((record2[resultBlock]-originPtr)/recordSize) + 1

	for record2[resultBlock] != -1 && originPtr <= record2[resultBlock] {
		blk := -1
		space := 0
		for blk == -1 {
			if record1[destBlk] != -1 {
				space += int(record1[destBlk] - (int64(destBlk)*pageSize + headerSize))
			} else {
				space += int(pageSize - headerSize)
			}
			if record2[destBlk] != -1 {
				space -= int(record2[destBlk] - int64(destBlk)*pageSize + recordSize - headerSize)
			}
			space /= int(recordSize)

			if space >= 1 {
				blk = destBlk
			} else {
				destBlk++
			}
			if resultBlock == destBlk {
				destBlk++
			}
			if destBlk >= bufferSizeInBlocks {
				return NewError(ErrCodeOOM)
			}
		}

		numTransferThisPass := space
		if space > numTransfer {
			numTransferThisPass = numTransfer
		}
		numTransfer -= numTransferThisPass

		if destBlk == outputBlockID {
			if record1[destBlk] == -1 {
				record1[destBlk] = int64(destBlk)*pageSize + int64(valuesPerPage-numTransferThisPass)*recordSize + headerSize
				offset := record1[destBlk]
				for i := 0; i < numTransferThisPass; i++ {
					m.memcpy(buf[record1[destBlk]:], buf[originPtr:originPtr+recordSize])
					heapCnt := int((record2[resultBlock]+recordSize-int64(resultBlock)*pageSize)/recordSize) - 1
					heapify(forwardSlots{region: buf[int64(resultBlock)*pageSize + headerSize : int64(resultBlock+1)*pageSize], recordSize: cfg.RecordSize}, buf[record2[resultBlock]:record2[resultBlock]+recordSize], heapCnt, cmp, m)
					record1[destBlk] += recordSize
					record2[resultBlock] -= recordSize
				}
				record1[destBlk] = offset
			} else {
				for i := 0; i < numTransferThisPass; i++ {
					record1[destBlk] -= recordSize
					insertPtr := record1[destBlk]
					limit := int64(destBlk)*pageSize + int64(valuesPerPage-1)*recordSize
					for insertPtr < limit {
						m.NumCompares++
						if cmp(buf[originPtr:originPtr+recordSize], buf[insertPtr+recordSize:insertPtr+recordSize+recordSize]) > 0 {
							m.memcpy(buf[insertPtr:], buf[insertPtr+recordSize:insertPtr+recordSize+recordSize])
						} else {
							break
						}
						insertPtr += recordSize
					}
					m.memcpy(buf[insertPtr:], buf[originPtr:originPtr+recordSize])
					originPtr += recordSize
				}
			}
		} else {
			for i := 0; i < numTransferThisPass; i++ {
				if record2[destBlk] == -1 {
					record2[destBlk] = int64(destBlk)*pageSize + headerSize
				} else {
					record2[destBlk] += recordSize
				}
				heapCnt := int((record2[destBlk]+recordSize-pageSize*int64(destBlk))/recordSize) - 1
				shiftUp(forwardSlots{region: buf[int64(destBlk)*pageSize + headerSize : int64(destBlk+1)*pageSize], recordSize: cfg.RecordSize}, buf[originPtr:originPtr+recordSize], heapCnt, cmp, m)
				originPtr += recordSize
			}
		}
	}
	return nil
}

// evacuateOutputSlot moves any records currently parked in the output
// slot (record2[outputBlockID]) into other slots' heaps before the
// output slot's page is overwritten with its sublist's next block.
func evacuateOutputSlot(buf []byte, cfg Config, record1, record2 []int64, bufferSizeInBlocks int, m *Metrics) error {
	if record2[outputBlockID] == -1 {
		return nil
	}
	pageSize := int64(cfg.PageSize)
	headerSize := int64(cfg.HeaderSize)
	recordSize := int64(cfg.RecordSize)

	outputCursor := int64(outputBlockID)*pageSize + headerSize
	destBlk := 1
	for outputCursor <= record2[outputBlockID] {
		blk := -1
		space := 0
		for blk == -1 {
			if record1[destBlk] != -1 {
				space += int(record1[destBlk] - (int64(destBlk)*pageSize + headerSize))
			} else {
				space += int(pageSize - headerSize)
			}
			if record2[destBlk] != -1 {
				space -= int(record2[destBlk] - int64(destBlk)*pageSize + recordSize - headerSize)
			}
			space /= int(recordSize)
			if space >= 1 {
				blk = destBlk
			} else {
				destBlk++
			}
			if destBlk >= bufferSizeInBlocks {
				return NewError(ErrCodeOOM)
			}
		}
		if record2[destBlk] == -1 {
			record2[destBlk] = int64(destBlk)*pageSize + headerSize
		} else {
			record2[destBlk] += recordSize
		}
		m.memcpy(buf[record2[destBlk]:], buf[outputCursor:outputCursor+recordSize])
		outputCursor += recordSize
	}
	return nil
}

// restoreOutputSlot swaps the freshly-read output block's actual input
// records with the parked records evacuated earlier, so the output
// slot's page holds input records again (in sorted order) and the
// parked values move into the now-free tail space.
func restoreOutputSlot(buf []byte, cfg Config, record1, record2 []int64, numRecords, sublistsInRun int, m *Metrics) {
	pageSize := int64(cfg.PageSize)
	headerSize := int64(cfg.HeaderSize)
	recordSize := int64(cfg.RecordSize)

	outputCursor := int64(outputBlockID)*pageSize + headerSize
	for blk := 0; blk < sublistsInRun; blk++ {
		if record2[blk] == -1 || blk == outputBlockID {
			continue
		}
		blkCursor := int64(blk)*pageSize + headerSize
		limit := record2[blk]

		i := 0
		for blkCursor <= limit && i < numRecords {
			i++
			var tuple [64]byte
			var tmp []byte
			if int64(len(tuple)) < recordSize {
				tmp = make([]byte, recordSize)
			} else {
				tmp = tuple[:recordSize]
			}
			m.memcpy(tmp, buf[blkCursor:blkCursor+recordSize])
			m.memcpy(buf[blkCursor:blkCursor+recordSize], buf[outputCursor:outputCursor+recordSize])
			m.memcpy(buf[outputCursor:outputCursor+recordSize], tmp)
			outputCursor += recordSize
			blkCursor += recordSize
		}
		for blkCursor <= limit {
			m.memcpy(buf[outputCursor:outputCursor+recordSize], buf[blkCursor:blkCursor+recordSize])
			outputCursor += recordSize
			blkCursor += recordSize
			record2[blk] -= recordSize
		}
	}

	record1[outputBlockID] = record2[outputBlockID] + recordSize
	if record1[outputBlockID] >= int64(outputBlockID)*pageSize+headerSize+int64(numRecords)*recordSize {
		record1[outputBlockID] = -1
	}
}
