package heap

import "github.com/coldharbor/heapstore/status"

// InsertFileScan supports append-only insertion into a heap file, handling
// page overflow by allocating and linking a fresh data page.
type InsertFileScan struct {
	*HeapFile
}

// NewInsertFileScan wraps an already-open HeapFile for inserting.
func NewInsertFileScan(hf *HeapFile) *InsertFileScan {
	return &InsertFileScan{HeapFile: hf}
}

// InsertRecord appends rec, returning its RID. Records longer than a data
// page can ever hold (PageSize - DPFIXED) are rejected outright.
func (s *InsertFileScan) InsertRecord(rec []byte) (RID, error) {
	if len(rec) > s.file.PageSize()-DPFIXED {
		return NULLRID, status.New("heap.InsertFileScan.InsertRecord", status.INVALIDRECLEN)
	}

	if s.curPage == nil {
		if err := s.pinLastPageAsCursor(); err != nil {
			return NULLRID, err
		}
	}

	slotNo, err := insertRecordOnPage(s.curPage, rec)
	if err == nil {
		rid := RID{PageNo: s.curPageNo, SlotNo: int32(slotNo)}
		s.setRecCnt(s.GetRecCnt() + 1)
		s.curRec = rid
		s.curDirty = true
		return rid, nil
	}
	if !status.IsNoSpace(err) {
		return NULLRID, err
	}

	return s.insertOnNewPage(rec)
}

// pinLastPageAsCursor pins headerPage.lastPage as the cursor. If a cursor is
// already held it is unpinned first; if none is held, lastPage is pinned
// directly (the source's bug was unpinning a null cursor in this branch).
func (s *InsertFileScan) pinLastPageAsCursor() error {
	if s.curPage != nil {
		if err := s.bm.UnpinPage(s.file, s.curPageNo, s.curDirty); err != nil {
			return err
		}
		s.curDirty = false
	}
	page, err := s.bm.ReadPage(s.file, s.lastPage())
	if err != nil {
		s.curPage = nil
		return err
	}
	s.curPage = page
	s.curPageNo = s.lastPage()
	return nil
}

// insertOnNewPage allocates a new data page, links it after the current
// last page, and retries the insert there (which must now succeed given the
// size check already performed).
func (s *InsertFileScan) insertOnNewPage(rec []byte) (RID, error) {
	priorPageNo := s.curPageNo
	priorPage := s.curPage

	newPageNo, newPage, err := s.bm.AllocPage(s.file)
	if err != nil {
		return NULLRID, err
	}
	initHeapPage(newPage, s.file.PageSize())

	setNextPage(priorPage, newPageNo)
	if err := s.bm.UnpinPage(s.file, priorPageNo, true); err != nil {
		return NULLRID, err
	}

	s.setLastPage(newPageNo)
	s.setPageCnt(s.pageCnt() + 1)

	s.curPage = newPage
	s.curPageNo = newPageNo
	s.curDirty = false

	slotNo, err := insertRecordOnPage(s.curPage, rec)
	if err != nil {
		return NULLRID, err
	}

	rid := RID{PageNo: s.curPageNo, SlotNo: int32(slotNo)}
	s.setRecCnt(s.GetRecCnt() + 1)
	s.curRec = rid
	s.curDirty = true
	return rid, nil
}
