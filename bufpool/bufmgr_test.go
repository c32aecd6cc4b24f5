package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldharbor/heapstore/status"
)

// memFile is an in-memory pagefile.File stand-in for buffer manager tests:
// no real disk I/O, just a slice of page-sized buffers and a write counter
// per page so tests can assert write-back actually happened.
type memFile struct {
	name     string
	pageSize int
	pages    [][]byte
	writes   map[int32]int
	disposed map[int32]int
	failRead map[int32]bool
}

func newMemFile(name string, pageSize int) *memFile {
	return &memFile{
		name:     name,
		pageSize: pageSize,
		writes:   map[int32]int{},
		disposed: map[int32]int{},
		failRead: map[int32]bool{},
	}
}

func (m *memFile) Name() string  { return m.name }
func (m *memFile) PageSize() int { return m.pageSize }

func (m *memFile) AllocatePage() (int32, error) {
	pageNo := int32(len(m.pages))
	m.pages = append(m.pages, make([]byte, m.pageSize))
	return pageNo, nil
}

func (m *memFile) DisposePage(pageNo int32) error {
	m.disposed[pageNo]++
	return nil
}

func (m *memFile) ReadPage(pageNo int32, buf []byte) error {
	if m.failRead[pageNo] {
		return status.New("memFile.ReadPage", status.UNIXERR)
	}
	copy(buf, m.pages[pageNo])
	return nil
}

func (m *memFile) WritePage(pageNo int32, buf []byte) error {
	copy(m.pages[pageNo], buf)
	m.writes[pageNo]++
	return nil
}

func (m *memFile) GetFirstPage() (int32, error) { return 0, nil }
func (m *memFile) PageCount() int32             { return int32(len(m.pages)) }
func (m *memFile) Sync() error                  { return nil }
func (m *memFile) Close() error                 { return nil }

func makeFile(t *testing.T, numPages int) *memFile {
	f := newMemFile(t.Name(), 64)
	for i := 0; i < numPages; i++ {
		if _, err := f.AllocatePage(); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestClockEviction(t *testing.T) {
	f := makeFile(t, 4)
	bm := New(3, 64)

	for p := int32(0); p < 3; p++ {
		page, err := bm.ReadPage(f, p)
		require.NoError(t, err)
		require.NotNil(t, page)
		require.NoError(t, bm.UnpinPage(f, p, false))
	}
	assert.Equal(t, 3, bm.index.size())

	_, err := bm.ReadPage(f, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, bm.index.size())

	evicted := 0
	for p := int32(0); p < 3; p++ {
		if _, err := bm.index.lookup(f, p); err != nil {
			evicted++
		}
	}
	assert.Equal(t, 1, evicted)
}

func TestReferenceBitSurvival(t *testing.T) {
	f := makeFile(t, 5)
	bm := New(3, 64)

	for p := int32(0); p < 3; p++ {
		_, err := bm.ReadPage(f, p)
		require.NoError(t, err)
		require.NoError(t, bm.UnpinPage(f, p, false))
	}

	_, err := bm.ReadPage(f, 3)
	require.NoError(t, err)
	require.NoError(t, bm.UnpinPage(f, 3, false))

	_, err = bm.index.lookup(f, 0)
	assert.Error(t, err, "frame 0 should have been evicted first")
}

func TestDirtyWriteBack(t *testing.T) {
	f := makeFile(t, 8)
	bm := New(2, 64)

	page, err := bm.ReadPage(f, 0)
	require.NoError(t, err)
	page.Data[0] = 0xAB
	require.NoError(t, bm.UnpinPage(f, 0, true))

	for p := int32(1); p < 3; p++ {
		_, err := bm.ReadPage(f, p)
		require.NoError(t, err)
		require.NoError(t, bm.UnpinPage(f, p, false))
	}

	assert.Equal(t, 1, f.writes[0], "dirty page 0 must be written back before eviction")
	assert.Equal(t, byte(0xAB), f.pages[0][0])
}

func TestAllPinnedBufferExceeded(t *testing.T) {
	f := makeFile(t, 3)
	bm := New(2, 64)

	_, err := bm.ReadPage(f, 0)
	require.NoError(t, err)
	_, err = bm.ReadPage(f, 1)
	require.NoError(t, err)

	_, err = bm.ReadPage(f, 2)
	require.Error(t, err)
	assert.True(t, status.IsBufferExceeded(err))
}

func TestUnpinPageNotPinned(t *testing.T) {
	f := makeFile(t, 2)
	bm := New(2, 64)

	_, err := bm.ReadPage(f, 0)
	require.NoError(t, err)
	require.NoError(t, bm.UnpinPage(f, 0, false))

	err = bm.UnpinPage(f, 0, false)
	require.Error(t, err)
	assert.True(t, status.IsPageNotPinned(err))
}

func TestFlushFilePagePinned(t *testing.T) {
	f := makeFile(t, 2)
	bm := New(2, 64)

	_, err := bm.ReadPage(f, 0)
	require.NoError(t, err)

	err = bm.FlushFile(f)
	require.Error(t, err)
	assert.True(t, status.Is(err, status.PAGEPINNED))
}

func TestFlushFileEvictsAll(t *testing.T) {
	f := makeFile(t, 2)
	bm := New(2, 64)

	page, err := bm.ReadPage(f, 0)
	require.NoError(t, err)
	page.Data[0] = 1
	require.NoError(t, bm.UnpinPage(f, 0, true))

	require.NoError(t, bm.FlushFile(f))
	assert.Equal(t, 0, bm.index.size())
	assert.Equal(t, byte(1), f.pages[0][0])
}

func TestReadPageMissDisposesOnFailure(t *testing.T) {
	f := makeFile(t, 2)
	bm := New(2, 64)
	f.failRead[1] = true

	_, err := bm.ReadPage(f, 1)
	require.Error(t, err)
	assert.True(t, status.Is(err, status.UNIXERR))
	assert.Equal(t, 1, f.disposed[1], "read failure must dispose the page it failed to read")

	_, err = bm.index.lookup(f, 1)
	assert.Error(t, err, "a failed read must not leave a residency entry behind")
}

func TestDisposePageDropsPinnedFrame(t *testing.T) {
	f := makeFile(t, 2)
	bm := New(2, 64)

	_, err := bm.ReadPage(f, 0)
	require.NoError(t, err)

	require.NoError(t, bm.DisposePage(f, 0))
	_, err = bm.index.lookup(f, 0)
	assert.Error(t, err)
}
