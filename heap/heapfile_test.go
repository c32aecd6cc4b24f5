package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldharbor/heapstore/bufpool"
	"github.com/coldharbor/heapstore/pagefile"
	"github.com/coldharbor/heapstore/status"
)

// memFile is an in-memory pagefile.File used across this package's tests, so
// heap-file/scan/insert behavior can be exercised without touching disk.
type memFile struct {
	name     string
	pageSize int
	pages    [][]byte
}

func newMemFile(name string, pageSize int) *memFile {
	return &memFile{name: name, pageSize: pageSize}
}

func (m *memFile) Name() string  { return m.name }
func (m *memFile) PageSize() int { return m.pageSize }

func (m *memFile) AllocatePage() (int32, error) {
	pageNo := int32(len(m.pages))
	m.pages = append(m.pages, make([]byte, m.pageSize))
	return pageNo, nil
}

func (m *memFile) DisposePage(pageNo int32) error { return nil }

func (m *memFile) ReadPage(pageNo int32, buf []byte) error {
	if pageNo < 0 || int(pageNo) >= len(m.pages) {
		return status.New("memFile.ReadPage", status.HASHNOTFOUND)
	}
	copy(buf, m.pages[pageNo])
	return nil
}

func (m *memFile) WritePage(pageNo int32, buf []byte) error {
	copy(m.pages[pageNo], buf)
	return nil
}

func (m *memFile) GetFirstPage() (int32, error) {
	if len(m.pages) == 0 {
		return -1, status.New("memFile.GetFirstPage", status.HASHNOTFOUND)
	}
	return 0, nil
}

func (m *memFile) PageCount() int32 { return int32(len(m.pages)) }
func (m *memFile) Sync() error      { return nil }
func (m *memFile) Close() error     { return nil }

var _ pagefile.File = (*memFile)(nil)

const testPageSize = 128

func newTestHeapFile(t *testing.T) (*bufpool.BufMgr, *memFile, *HeapFile) {
	t.Helper()
	f := newMemFile(t.Name(), testPageSize)
	bm := bufpool.New(8, testPageSize)

	require.NoError(t, CreateHeapFile(bm, f, t.Name()))

	hf, err := OpenHeapFile(bm, f)
	require.NoError(t, err)
	return bm, f, hf
}

func TestCreateHeapFileRejectsExistingFile(t *testing.T) {
	f := newMemFile(t.Name(), testPageSize)
	bm := bufpool.New(4, testPageSize)

	require.NoError(t, CreateHeapFile(bm, f, t.Name()))

	err := CreateHeapFile(bm, f, t.Name())
	require.Error(t, err)
	assert.Equal(t, status.FILEEXISTS, mustCode(t, err))
}

func TestOpenHeapFileStartsWithZeroRecords(t *testing.T) {
	_, _, hf := newTestHeapFile(t)
	defer hf.Close()

	assert.EqualValues(t, 0, hf.GetRecCnt())
	assert.EqualValues(t, 1, hf.pageCnt())
}

func TestFileNameRoundTrips(t *testing.T) {
	_, _, hf := newTestHeapFile(t)
	defer hf.Close()

	assert.Equal(t, t.Name(), hf.FileName())
}

func TestGetRecordRoundTrips(t *testing.T) {
	_, _, hf := newTestHeapFile(t)
	defer hf.Close()

	ins := NewInsertFileScan(hf)
	rid, err := ins.InsertRecord([]byte("payload"))
	require.NoError(t, err)

	rec, err := hf.GetRecord(rid)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(rec))
}

func TestHeapFileCloseUnpinsEverything(t *testing.T) {
	bm, f, hf := newTestHeapFile(t)

	ins := NewInsertFileScan(hf)
	_, err := ins.InsertRecord([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, hf.Close())
	require.NoError(t, bm.FlushFile(f))
}
