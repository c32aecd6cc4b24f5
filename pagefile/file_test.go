package pagefile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldharbor/heapstore/status"
)

func TestCreateThenOpenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.heap")

	f, err := Create(path, 64)
	require.NoError(t, err)

	pageNo, err := f.AllocatePage()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pageNo)

	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = byte(i)
	}
	require.NoError(t, f.WritePage(pageNo, buf))
	require.NoError(t, f.Close())

	reopened, err := Open(path, 64)
	require.NoError(t, err)
	defer reopened.Close()

	assert.EqualValues(t, 1, reopened.PageCount())

	out := make([]byte, 64)
	require.NoError(t, reopened.ReadPage(pageNo, out))
	assert.Equal(t, buf, out)
}

func TestCreateFailsIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.heap")

	f, err := Create(path, 64)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Create(path, 64)
	require.Error(t, err)
	assert.True(t, status.IsFileExists(err))
}

func TestAllocatePageZeroFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.heap")
	f, err := Create(path, 16)
	require.NoError(t, err)
	defer f.Close()

	pageNo, err := f.AllocatePage()
	require.NoError(t, err)

	buf := make([]byte, 16)
	require.NoError(t, f.ReadPage(pageNo, buf))
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

func TestGetFirstPageOnEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.heap")
	f, err := Create(path, 16)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.GetFirstPage()
	require.Error(t, err)
}

func TestExistsAndDestroy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.heap")
	assert.False(t, Exists(path))

	f, err := Create(path, 16)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.True(t, Exists(path))

	require.NoError(t, Destroy(path))
	assert.False(t, Exists(path))
}
