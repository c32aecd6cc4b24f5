// Package heap implements the heap-file layer atop the buffer manager: an
// unordered collection of variable-length records addressed by RID, with
// filtered forward scans (HeapFileScan) and append-only insertion
// (InsertFileScan).
package heap

import (
	"github.com/coldharbor/heapstore/bufpool"
	"github.com/coldharbor/heapstore/logger"
	"github.com/coldharbor/heapstore/pagefile"
	"github.com/coldharbor/heapstore/status"
	"github.com/coldharbor/heapstore/util"
)

// DPFIXED is the fixed overhead (the page header plus one slot directory
// entry) a data page must reserve, mirroring the source's DPFIXED constant
// used to bound maximum record length.
const DPFIXED = pageHeaderSize + slotEntrySize

// header page layout: firstPage, lastPage, pageCnt, recCnt (int32 each),
// followed by a length-prefixed fileName.
const (
	hdrOffFirstPage = 0
	hdrOffLastPage  = 4
	hdrOffPageCnt   = 8
	hdrOffRecCnt    = 12
	hdrOffFileName  = 16
)

func writeHdrInt32(pg *bufpool.Page, off int, v int32) {
	copy(pg.Data[off:off+4], util.WriteUB4(nil, uint32(v)))
}

func readHdrInt32(pg *bufpool.Page, off int) int32 {
	_, v := util.ReadUB4(pg.Data, off)
	return int32(v)
}

func initHeaderPage(pg *bufpool.Page, fileName string, firstPage int32) {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	writeHdrInt32(pg, hdrOffFirstPage, firstPage)
	writeHdrInt32(pg, hdrOffLastPage, firstPage)
	writeHdrInt32(pg, hdrOffPageCnt, 1)
	writeHdrInt32(pg, hdrOffRecCnt, 0)
	buf := util.WriteWithLength(nil, []byte(fileName))
	copy(pg.Data[hdrOffFileName:], buf)
}

// HeapFile is a per-open-file handle: it owns the permanently-pinned header
// page and a single cursor data page.
type HeapFile struct {
	bm   *bufpool.BufMgr
	file pagefile.File

	headerPage   *bufpool.Page
	headerPageNo int32
	hdrDirty     bool

	curPage   *bufpool.Page
	curPageNo int32
	curDirty  bool

	curRec RID
}

// CreateHeapFile creates a brand-new heap file backed by file: a header
// page followed by one empty data page. Fails with FILEEXISTS if file
// already has pages allocated (callers are expected to pass a freshly
// created pagefile.File; see catalog.CreateFile for the probe-then-create
// sequencing the original source uses at this boundary).
func CreateHeapFile(bm *bufpool.BufMgr, file pagefile.File, fileName string) error {
	if file.PageCount() > 0 {
		return status.New("heap.CreateHeapFile", status.FILEEXISTS)
	}

	hdrPageNo, hdrPage, err := bm.AllocPage(file)
	if err != nil {
		return err
	}

	dataPageNo, dataPage, err := bm.AllocPage(file)
	if err != nil {
		bm.UnpinPage(file, hdrPageNo, false)
		return err
	}

	initHeaderPage(hdrPage, fileName, dataPageNo)
	initHeapPage(dataPage, file.PageSize())

	if err := bm.UnpinPage(file, hdrPageNo, true); err != nil {
		logger.Errorf("heap.CreateHeapFile: unpin header: %v", err)
	}
	if err := bm.UnpinPage(file, dataPageNo, true); err != nil {
		logger.Errorf("heap.CreateHeapFile: unpin data page: %v", err)
	}

	return bm.FlushFile(file)
}

// OpenHeapFile opens an already-created heap file, pinning its header page
// and its first data page as the cursor.
func OpenHeapFile(bm *bufpool.BufMgr, file pagefile.File) (*HeapFile, error) {
	hdrPageNo, err := file.GetFirstPage()
	if err != nil {
		return nil, err
	}

	hdrPage, err := bm.ReadPage(file, hdrPageNo)
	if err != nil {
		return nil, err
	}

	firstDataPage := readHdrInt32(hdrPage, hdrOffFirstPage)
	curPage, err := bm.ReadPage(file, firstDataPage)
	if err != nil {
		bm.UnpinPage(file, hdrPageNo, false)
		return nil, err
	}

	return &HeapFile{
		bm:           bm,
		file:         file,
		headerPage:   hdrPage,
		headerPageNo: hdrPageNo,
		curPage:      curPage,
		curPageNo:    firstDataPage,
		curRec:       NULLRID,
	}, nil
}

// GetRecCnt returns the number of live records across the whole file.
func (hf *HeapFile) GetRecCnt() int32 {
	return readHdrInt32(hf.headerPage, hdrOffRecCnt)
}

// FileName returns the name the file was created with, read back from the
// header page's length-prefixed trailer.
func (hf *HeapFile) FileName() string {
	_, name := util.ReadLengthString(hf.headerPage.Data, hdrOffFileName)
	return name
}

func (hf *HeapFile) firstPage() int32 { return readHdrInt32(hf.headerPage, hdrOffFirstPage) }
func (hf *HeapFile) lastPage() int32  { return readHdrInt32(hf.headerPage, hdrOffLastPage) }
func (hf *HeapFile) pageCnt() int32   { return readHdrInt32(hf.headerPage, hdrOffPageCnt) }

func (hf *HeapFile) setRecCnt(n int32) {
	writeHdrInt32(hf.headerPage, hdrOffRecCnt, n)
	hf.hdrDirty = true
}

func (hf *HeapFile) setLastPage(p int32) {
	writeHdrInt32(hf.headerPage, hdrOffLastPage, p)
	hf.hdrDirty = true
}

func (hf *HeapFile) setPageCnt(n int32) {
	writeHdrInt32(hf.headerPage, hdrOffPageCnt, n)
	hf.hdrDirty = true
}

// GetRecord looks up rid, moving the cursor if needed.
func (hf *HeapFile) GetRecord(rid RID) ([]byte, error) {
	if hf.curPage == nil || hf.curPageNo != rid.PageNo {
		if err := hf.moveCursor(rid.PageNo); err != nil {
			return nil, err
		}
	}
	rec, err := getRecordOnPage(hf.curPage, int(rid.SlotNo))
	if err != nil {
		return nil, err
	}
	hf.curRec = rid
	return rec, nil
}

// moveCursor unpins the current cursor page (if any) and pins pageNo as the
// new cursor.
func (hf *HeapFile) moveCursor(pageNo int32) error {
	if hf.curPage != nil {
		if err := hf.bm.UnpinPage(hf.file, hf.curPageNo, hf.curDirty); err != nil {
			return err
		}
		hf.curDirty = false
	}
	page, err := hf.bm.ReadPage(hf.file, pageNo)
	if err != nil {
		hf.curPage = nil
		return err
	}
	hf.curPage = page
	hf.curPageNo = pageNo
	return nil
}

// Close unpins the cursor and header pages, flushes the file's remaining
// resident pages out of the buffer manager, and closes the underlying file.
// The flush matters because the residency index keys frames by file name,
// not by *pagefile.File identity: without it, a frame left behind by this
// HeapFile would still answer lookups against a later re-open of the same
// name, and an eventual eviction would try to write through this now-closed
// file. Errors are logged, never propagated past the first one, matching the
// "destructor must not throw" requirement.
func (hf *HeapFile) Close() error {
	var firstErr error
	note := func(err error, op string) {
		if err == nil {
			return
		}
		logger.Errorf("heap.HeapFile.Close: %s: %v", op, err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if hf.curPage != nil {
		note(hf.bm.UnpinPage(hf.file, hf.curPageNo, hf.curDirty), "unpin cursor page")
		hf.curPage = nil
	}

	if hf.headerPage != nil {
		note(hf.bm.UnpinPage(hf.file, hf.headerPageNo, hf.hdrDirty), "unpin header page")
		hf.headerPage = nil
	}

	note(hf.bm.FlushFile(hf.file), "flush remaining pages")
	note(hf.file.Close(), "close file")

	return firstErr
}
