package heap

import (
	"github.com/coldharbor/heapstore/bufpool"
	"github.com/coldharbor/heapstore/status"
	"github.com/coldharbor/heapstore/util"
)

// Slotted data-page layout, header fields little-endian via the teacher's
// own UB2/UB4 byte helpers rather than encoding/binary:
//
//	offset  size  field
//	0       4     nextPage (int32, -1 = end of list)
//	4       2     slotCount (total slots, live + tombstone)
//	6       2     recordEndPtr (first free byte after last record)
//	8       2     slotRegionStart (first byte of the slot directory)
//	10      2     numRecords (live record count)
//	12            pageHeaderSize
//
// Records grow forward from pageHeaderSize; the slot directory grows
// backward from the end of the page. A slot is 4 bytes: offset uint16,
// length uint16 (0 = tombstone).
const (
	offNextPage        = 0
	offSlotCount        = 4
	offRecordEndPtr     = 6
	offSlotRegionStart  = 8
	offNumRecords       = 10
	pageHeaderSize      = 12
	slotEntrySize       = 4
)

func initHeapPage(pg *bufpool.Page, pageSize int) {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	writeInt32(pg, offNextPage, -1)
	writeUint16(pg, offSlotCount, 0)
	writeUint16(pg, offRecordEndPtr, pageHeaderSize)
	writeUint16(pg, offSlotRegionStart, uint16(pageSize))
	writeUint16(pg, offNumRecords, 0)
}

func writeInt32(pg *bufpool.Page, off int, v int32) {
	b := util.WriteUB4(nil, uint32(v))
	copy(pg.Data[off:off+4], b)
}

func readInt32(pg *bufpool.Page, off int) int32 {
	_, v := util.ReadUB4(pg.Data, off)
	return int32(v)
}

func writeUint16(pg *bufpool.Page, off int, v uint16) {
	b := util.WriteUB2(nil, v)
	copy(pg.Data[off:off+2], b)
}

func readUint16(pg *bufpool.Page, off int) uint16 {
	_, v := util.ReadUB2(pg.Data, off)
	return v
}

func getNextPage(pg *bufpool.Page) int32          { return readInt32(pg, offNextPage) }
func setNextPage(pg *bufpool.Page, next int32)     { writeInt32(pg, offNextPage, next) }
func getSlotCount(pg *bufpool.Page) uint16         { return readUint16(pg, offSlotCount) }
func getRecordEndPtr(pg *bufpool.Page) uint16      { return readUint16(pg, offRecordEndPtr) }
func getSlotRegionStart(pg *bufpool.Page) uint16   { return readUint16(pg, offSlotRegionStart) }
func getNumRecords(pg *bufpool.Page) uint16        { return readUint16(pg, offNumRecords) }

func slotOffset(pageSize, slotNo int) int { return pageSize - (slotNo+1)*slotEntrySize }

func readSlot(pg *bufpool.Page, slotNo int) (offset, length uint16) {
	so := slotOffset(len(pg.Data), slotNo)
	_, offset = util.ReadUB2(pg.Data, so)
	_, length = util.ReadUB2(pg.Data, so+2)
	return
}

func writeSlot(pg *bufpool.Page, slotNo int, offset, length uint16) {
	so := slotOffset(len(pg.Data), slotNo)
	copy(pg.Data[so:so+2], util.WriteUB2(nil, offset))
	copy(pg.Data[so+2:so+4], util.WriteUB2(nil, length))
}

// freeSpace returns the raw gap between the end of the records and the start
// of the slot directory; it does not account for a new slot entry (see
// usableSpaceForInsert).
func freeSpace(pg *bufpool.Page) int {
	gap := int(getSlotRegionStart(pg)) - int(getRecordEndPtr(pg))
	if gap < 0 {
		return 0
	}
	return gap
}

// usableSpaceForInsert accounts for whether inserting would need a brand new
// slot entry (no tombstone to reuse) by subtracting slotEntrySize from the
// naive gap when no tombstone exists.
func usableSpaceForInsert(pg *bufpool.Page) int {
	space := freeSpace(pg)
	if findTombstone(pg) < 0 {
		space -= slotEntrySize
	}
	if space < 0 {
		return 0
	}
	return space
}

func findTombstone(pg *bufpool.Page) int {
	count := int(getSlotCount(pg))
	for i := 0; i < count; i++ {
		if _, length := readSlot(pg, i); length == 0 {
			return i
		}
	}
	return -1
}

// insertRecordOnPage writes rec into pg, returning its slot number.
func insertRecordOnPage(pg *bufpool.Page, rec []byte) (int, error) {
	recLen := uint16(len(rec))
	if recLen == 0 {
		return 0, status.New("heap.insertRecordOnPage", status.INVALIDRECLEN)
	}
	if usableSpaceForInsert(pg) < len(rec) {
		return 0, status.New("heap.insertRecordOnPage", status.NOSPACE)
	}

	slotNo := findTombstone(pg)
	isNewSlot := slotNo < 0
	if isNewSlot {
		slotNo = int(getSlotCount(pg))
	}

	recOff := getRecordEndPtr(pg)
	copy(pg.Data[recOff:], rec)
	writeUint16(pg, offRecordEndPtr, recOff+recLen)
	writeSlot(pg, slotNo, recOff, recLen)

	if isNewSlot {
		writeUint16(pg, offSlotCount, getSlotCount(pg)+1)
		writeUint16(pg, offSlotRegionStart, getSlotRegionStart(pg)-slotEntrySize)
	}
	writeUint16(pg, offNumRecords, getNumRecords(pg)+1)
	return slotNo, nil
}

// getRecordOnPage returns the record at slotNo as a live subslice of the
// page's backing array. The caller holds an implicit read borrow on the
// returned bytes until the next cursor move; callers that mutate the bytes
// in place must mark the page dirty themselves.
func getRecordOnPage(pg *bufpool.Page, slotNo int) ([]byte, error) {
	if slotNo < 0 || slotNo >= int(getSlotCount(pg)) {
		return nil, status.New("heap.getRecordOnPage", status.HASHNOTFOUND)
	}
	offset, length := readSlot(pg, slotNo)
	if length == 0 {
		return nil, status.New("heap.getRecordOnPage", status.HASHNOTFOUND)
	}
	return pg.Data[offset : offset+length], nil
}

// deleteRecordOnPage tombstones the slot at slotNo.
func deleteRecordOnPage(pg *bufpool.Page, slotNo int) error {
	if slotNo < 0 || slotNo >= int(getSlotCount(pg)) {
		return status.New("heap.deleteRecordOnPage", status.HASHNOTFOUND)
	}
	if _, length := readSlot(pg, slotNo); length == 0 {
		return status.New("heap.deleteRecordOnPage", status.HASHNOTFOUND)
	}
	writeSlot(pg, slotNo, 0, 0)
	writeUint16(pg, offNumRecords, getNumRecords(pg)-1)
	return nil
}

// firstRecordOnPage returns the slot number of the first live record on pg,
// or -1 if the page has none.
func firstRecordOnPage(pg *bufpool.Page) int {
	return nextRecordOnPage(pg, -1)
}

// nextRecordOnPage returns the slot number of the first live record after
// afterSlot, or -1 if there is none.
func nextRecordOnPage(pg *bufpool.Page, afterSlot int) int {
	count := int(getSlotCount(pg))
	for i := afterSlot + 1; i < count; i++ {
		if _, length := readSlot(pg, i); length > 0 {
			return i
		}
	}
	return -1
}
