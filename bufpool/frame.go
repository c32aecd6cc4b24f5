package bufpool

import "github.com/coldharbor/heapstore/pagefile"

// frameDesc is the per-frame descriptor tracked alongside each pool slot.
// Set/Clear are private state transitions, never exposed to callers, per the
// aliasing design note: a client only ever sees a pinned Page, not the
// descriptor itself.
type frameDesc struct {
	frameNo int
	valid   bool
	file    pagefile.File
	pageNo  int32
	pinCnt  int
	dirty   bool
	refbit  bool
}

// set initialises a descriptor for a freshly-resident page in one canonical
// path, used by both readPage misses and allocPage — there is no separate
// manual-pin bookkeeping step.
func (f *frameDesc) set(file pagefile.File, pageNo int32) {
	f.valid = true
	f.file = file
	f.pageNo = pageNo
	f.pinCnt = 1
	f.dirty = false
	f.refbit = true
}

// clear restores the descriptor to its unused state, preserving frameNo.
// file is explicitly nulled so flushFile's stale-descriptor check can never
// trigger on a frame this package itself cleared.
func (f *frameDesc) clear() {
	f.valid = false
	f.file = nil
	f.pageNo = -1
	f.pinCnt = 0
	f.dirty = false
	f.refbit = false
}
