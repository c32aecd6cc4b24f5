// Package bufpool implements the buffer manager: a bounded pool of
// fixed-size frames, a hash-based residency index, and clock replacement.
// It is the hard core of this module; everything else sits on top of it.
package bufpool

import (
	"fmt"
	"strings"

	"github.com/coldharbor/heapstore/logger"
	"github.com/coldharbor/heapstore/pagefile"
	"github.com/coldharbor/heapstore/status"
)

// BufMgr owns a fixed-size array of page-sized frames and a parallel array
// of frame descriptors, a residency index, and the clock hand. No method is
// safe for concurrent use; callers are assumed to invoke at most one
// operation at a time, per the single-threaded cooperative scheduling this
// module targets.
type BufMgr struct {
	numBufs   int
	pageSize  int
	pool      []*Page
	frames    []frameDesc
	index     *residencyTable
	clockHand int
}

// New allocates a buffer manager with numBufs frames of pageSize bytes each.
func New(numBufs, pageSize int) *BufMgr {
	bm := &BufMgr{
		numBufs:  numBufs,
		pageSize: pageSize,
		pool:     make([]*Page, numBufs),
		frames:   make([]frameDesc, numBufs),
		index:    newResidencyTable(numBufs),
	}
	for i := 0; i < numBufs; i++ {
		bm.pool[i] = newPage(pageSize)
		bm.frames[i] = frameDesc{frameNo: i}
		bm.frames[i].clear()
	}
	bm.clockHand = numBufs - 1
	return bm
}

func (bm *BufMgr) NumBufs() int { return bm.numBufs }

// allocBuf selects a frame for reuse via clock replacement, writing back a
// dirty victim first. Returns the chosen frame number.
func (bm *BufMgr) allocBuf() (int, error) {
	pinnedSeen := 0
	for {
		if pinnedSeen == bm.numBufs {
			return -1, status.New("bufpool.allocBuf", status.BUFFEREXCEEDED)
		}

		bm.clockHand = (bm.clockHand + 1) % bm.numBufs
		f := &bm.frames[bm.clockHand]

		if !f.valid {
			f.clear()
			return f.frameNo, nil
		}
		if f.refbit {
			f.refbit = false
			continue
		}
		if f.pinCnt > 0 {
			pinnedSeen++
			continue
		}

		// Victim: write back if dirty, then evict.
		if f.dirty {
			if err := f.file.WritePage(f.pageNo, bm.pool[f.frameNo].Data); err != nil {
				return -1, status.Wrap("bufpool.allocBuf", status.UNIXERR, err)
			}
		}
		if err := bm.index.remove(f.file, f.pageNo); err != nil {
			return -1, err
		}
		f.clear()
		return f.frameNo, nil
	}
}

// ReadPage pins the requested page, reading it from disk on a miss. On OK
// the returned *Page aliases the in-pool frame; the caller must release it
// with UnpinPage.
func (bm *BufMgr) ReadPage(file pagefile.File, pageNo int32) (*Page, error) {
	frameNo, err := bm.index.lookup(file, pageNo)
	if err == nil {
		f := &bm.frames[frameNo]
		f.refbit = true
		f.pinCnt++
		return bm.pool[frameNo], nil
	}
	if !status.IsHashNotFound(err) {
		return nil, err
	}

	frameNo, err = bm.allocBuf()
	if err != nil {
		return nil, err
	}
	page := bm.pool[frameNo]
	if rerr := file.ReadPage(pageNo, page.Data); rerr != nil {
		bm.frames[frameNo].clear()
		if derr := bm.DisposePage(file, pageNo); derr != nil {
			logger.Errorf("bufpool.ReadPage: dispose page after read failure: %v", derr)
		}
		return nil, status.Wrap("bufpool.ReadPage", status.UNIXERR, rerr)
	}
	if err := bm.index.insert(file, pageNo, frameNo); err != nil {
		return nil, err
	}
	bm.frames[frameNo].set(file, pageNo)
	return page, nil
}

// AllocPage requests a new page from file, pins it, and returns it along
// with its page number.
func (bm *BufMgr) AllocPage(file pagefile.File) (int32, *Page, error) {
	pageNo, err := file.AllocatePage()
	if err != nil {
		return -1, nil, err
	}

	frameNo, err := bm.allocBuf()
	if err != nil {
		return -1, nil, err
	}

	if err := bm.index.insert(file, pageNo, frameNo); err != nil {
		return -1, nil, err
	}
	bm.frames[frameNo].set(file, pageNo)
	return pageNo, bm.pool[frameNo], nil
}

// UnpinPage releases one pin on (file, pageNo). If dirty is true the frame's
// dirty bit is set (and never cleared here); passing dirty=false never clears
// a previously-set dirty bit.
func (bm *BufMgr) UnpinPage(file pagefile.File, pageNo int32, dirty bool) error {
	frameNo, err := bm.index.lookup(file, pageNo)
	if err != nil {
		return err
	}
	f := &bm.frames[frameNo]
	if f.pinCnt == 0 {
		return status.New("bufpool.UnpinPage", status.PAGENOTPINNED)
	}
	if dirty {
		f.dirty = true
	}
	f.pinCnt--
	return nil
}

// DisposePage clears the frame holding (file, pageNo), if any, regardless of
// pin count, and always asks file to deallocate the page. Callers must not
// hold a reference to a page they are about to dispose.
func (bm *BufMgr) DisposePage(file pagefile.File, pageNo int32) error {
	if frameNo, err := bm.index.lookup(file, pageNo); err == nil {
		bm.frames[frameNo].clear()
		if rerr := bm.index.remove(file, pageNo); rerr != nil {
			return rerr
		}
	}
	return file.DisposePage(pageNo)
}

// FlushFile writes back every dirty frame belonging to file and evicts all
// of its resident pages. Returns PAGEPINNED if any of file's pages are still
// pinned, and BADBUFFER if it finds a descriptor left invalid-but-stale by a
// Clear() that failed to null its file field (defensive; clear() here always
// nulls file, so this should never trigger against frames this package
// manages).
func (bm *BufMgr) FlushFile(file pagefile.File) error {
	for i := range bm.frames {
		f := &bm.frames[i]
		if f.valid && f.file == file {
			if f.pinCnt > 0 {
				return status.New("bufpool.FlushFile", status.PAGEPINNED)
			}
			if f.dirty {
				if err := file.WritePage(f.pageNo, bm.pool[f.frameNo].Data); err != nil {
					return status.Wrap("bufpool.FlushFile", status.UNIXERR, err)
				}
				f.dirty = false
			}
			if err := bm.index.remove(file, f.pageNo); err != nil {
				return err
			}
			f.clear()
		} else if !f.valid && f.file == file {
			return status.New("bufpool.FlushFile", status.BADBUFFER)
		}
	}
	return nil
}

// Close is the buffer manager's destructor: it makes a best-effort pass
// writing back every valid dirty frame, ignoring errors, since at shutdown
// there is nothing left to propagate them to.
func (bm *BufMgr) Close() {
	for i := range bm.frames {
		f := &bm.frames[i]
		if f.valid && f.dirty {
			if err := f.file.WritePage(f.pageNo, bm.pool[f.frameNo].Data); err != nil {
				logger.Errorf("bufpool: best-effort write-back of frame %d failed: %v", f.frameNo, err)
			}
		}
	}
}

// DebugDump renders the current state of every frame, in the spirit of the
// original buffer manager's printSelf diagnostic.
func (bm *BufMgr) DebugDump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "buffer pool: %d frames, %d resident\n", bm.numBufs, bm.index.size())
	for i := range bm.frames {
		f := &bm.frames[i]
		if !f.valid {
			fmt.Fprintf(&b, "  frame %d: empty\n", i)
			continue
		}
		fmt.Fprintf(&b, "  frame %d: file=%s page=%d pinCnt=%d dirty=%v refbit=%v\n",
			i, f.file.Name(), f.pageNo, f.pinCnt, f.dirty, f.refbit)
	}
	return b.String()
}
