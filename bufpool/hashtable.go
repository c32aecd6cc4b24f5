package bufpool

import (
	"github.com/coldharbor/heapstore/pagefile"
	"github.com/coldharbor/heapstore/status"
	"github.com/coldharbor/heapstore/util"
)

// pageKey identifies a resident page by (file identity, page number). File
// identity is its Name(), which is sufficient for hash keying per the
// spec's "identity suffices" note — the hash table never dereferences it.
type pageKey struct {
	fileName string
	pageNo   int32
}

type bucketEntry struct {
	key     pageKey
	frameNo int
	next    *bucketEntry
}

// residencyTable is a chained hash map from pageKey to frame number, sized
// roughly 1.2x the buffer pool's frame count, hashed with the same
// xxhash-backed util.HashCode the teacher uses for its own key hashing.
type residencyTable struct {
	buckets []*bucketEntry
	count   int
}

func newResidencyTable(numBufs int) *residencyTable {
	size := (numBufs * 12) / 10
	if size < 1 {
		size = 1
	}
	return &residencyTable{buckets: make([]*bucketEntry, size)}
}

func (t *residencyTable) bucketFor(key pageKey) int {
	raw := append([]byte(key.fileName), util.ConvertInt4Bytes(key.pageNo)...)
	return int(util.HashCode(raw) % uint64(len(t.buckets)))
}

func (t *residencyTable) lookup(file pagefile.File, pageNo int32) (int, error) {
	key := pageKey{fileName: file.Name(), pageNo: pageNo}
	idx := t.bucketFor(key)
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			return e.frameNo, nil
		}
	}
	return -1, status.New("residencyTable.lookup", status.HASHNOTFOUND)
}

func (t *residencyTable) insert(file pagefile.File, pageNo int32, frameNo int) error {
	key := pageKey{fileName: file.Name(), pageNo: pageNo}
	idx := t.bucketFor(key)
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			return status.New("residencyTable.insert", status.HASHTBLERROR)
		}
	}
	t.buckets[idx] = &bucketEntry{key: key, frameNo: frameNo, next: t.buckets[idx]}
	t.count++
	return nil
}

func (t *residencyTable) remove(file pagefile.File, pageNo int32) error {
	key := pageKey{fileName: file.Name(), pageNo: pageNo}
	idx := t.bucketFor(key)
	var prev *bucketEntry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.count--
			return nil
		}
		prev = e
	}
	return status.New("residencyTable.remove", status.HASHNOTFOUND)
}

func (t *residencyTable) size() int { return t.count }
