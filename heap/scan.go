package heap

import "github.com/coldharbor/heapstore/status"

// HeapFileScan implements a filtered forward scan over a heap file, with
// mark/reset snapshot-restore semantics.
type HeapFileScan struct {
	*HeapFile
	pred predicate

	markedPageNo int32
	markedRec    RID
	started      bool
}

// NewHeapFileScan wraps an already-open HeapFile for scanning.
func NewHeapFileScan(hf *HeapFile) *HeapFileScan {
	return &HeapFileScan{HeapFile: hf, pred: noFilter()}
}

// StartScan validates and installs the scan predicate. Passing a nil filter
// makes the scan accept every record.
func (s *HeapFileScan) StartScan(offset, length int, typ FieldType, filter []byte, op Op) error {
	if filter == nil {
		s.pred = noFilter()
		return nil
	}

	if offset < 0 || length < 1 {
		return status.New("heap.HeapFileScan.StartScan", status.BADSCANPARM)
	}
	switch typ {
	case StringType:
	case IntegerType, FloatType:
		width, _ := canonicalWidth(typ)
		if length != width {
			return status.New("heap.HeapFileScan.StartScan", status.BADSCANPARM)
		}
	default:
		return status.New("heap.HeapFileScan.StartScan", status.BADSCANPARM)
	}
	switch op {
	case LT, LTE, EQ, GTE, GT, NE:
	default:
		return status.New("heap.HeapFileScan.StartScan", status.BADSCANPARM)
	}

	pred, err := newPredicate(offset, length, typ, filter, op)
	if err != nil {
		return status.Wrap("heap.HeapFileScan.StartScan", status.BADSCANPARM, err)
	}
	s.pred = pred
	return nil
}

// ScanNext advances to the next matching record, or returns FILEEOF once the
// page chain is exhausted.
func (s *HeapFileScan) ScanNext() (RID, error) {
	advance := true

	if !s.started {
		if s.curPage == nil || s.curPageNo != s.firstPage() {
			if err := s.moveCursor(s.firstPage()); err != nil {
				return NULLRID, err
			}
		}
		s.started = true
		s.curRec = RID{PageNo: s.curPageNo, SlotNo: int32(firstRecordOnPage(s.curPage))}
		if s.curRec.SlotNo < 0 {
			if err := s.advancePastEmptyPage(); err != nil {
				return NULLRID, err
			}
		}
		advance = false
	}

	for {
		if advance {
			next := nextRecordOnPage(s.curPage, int(s.curRec.SlotNo))
			if next >= 0 {
				s.curRec = RID{PageNo: s.curPageNo, SlotNo: int32(next)}
			} else {
				if err := s.advancePastEmptyPage(); err != nil {
					return NULLRID, err
				}
			}
		}
		advance = true

		rec, err := getRecordOnPage(s.curPage, int(s.curRec.SlotNo))
		if err != nil {
			return NULLRID, err
		}
		if s.pred.matches(rec) {
			return s.curRec, nil
		}
	}
}

// advancePastEmptyPage follows nextPage links, skipping pages with no live
// records, until it finds one with a record or hits end of file.
func (s *HeapFileScan) advancePastEmptyPage() error {
	for {
		next := getNextPage(s.curPage)
		if next == -1 {
			return status.New("heap.HeapFileScan.ScanNext", status.FILEEOF)
		}
		if err := s.moveCursor(next); err != nil {
			return err
		}
		if slot := firstRecordOnPage(s.curPage); slot >= 0 {
			s.curRec = RID{PageNo: s.curPageNo, SlotNo: int32(slot)}
			return nil
		}
	}
}

// MarkScan snapshots the current (page, RID) position.
func (s *HeapFileScan) MarkScan() {
	s.markedPageNo = s.curPageNo
	s.markedRec = s.curRec
}

// ResetScan restores the position saved by MarkScan.
func (s *HeapFileScan) ResetScan() error {
	if s.curPage == nil || s.curPageNo != s.markedPageNo {
		if err := s.moveCursor(s.markedPageNo); err != nil {
			return err
		}
	}
	s.curRec = s.markedRec
	return nil
}

// EndScan unpins the cursor page, if pinned, and clears it.
func (s *HeapFileScan) EndScan() error {
	if s.curPage == nil {
		return nil
	}
	err := s.bm.UnpinPage(s.file, s.curPageNo, s.curDirty)
	s.curPage = nil
	s.curDirty = false
	s.started = false
	return err
}

// DeleteRecord deletes the record at curRec and decrements the header's
// live record count, marking both the data page and the header dirty.
func (s *HeapFileScan) DeleteRecord() error {
	if s.curRec.IsNull() {
		return status.New("heap.HeapFileScan.DeleteRecord", status.HASHNOTFOUND)
	}
	if err := deleteRecordOnPage(s.curPage, int(s.curRec.SlotNo)); err != nil {
		return err
	}
	s.curDirty = true
	s.setRecCnt(s.GetRecCnt() - 1)
	return nil
}

// MarkDirty flags the cursor page as modified without deleting anything
// (used by callers that mutate a record returned from GetRecord in place).
func (s *HeapFileScan) MarkDirty() {
	s.curDirty = true
}
