package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldharbor/heapstore/status"
)

func TestInsertRecordRejectsOversizedRecord(t *testing.T) {
	_, f, hf := newTestHeapFile(t)
	defer hf.Close()

	ins := NewInsertFileScan(hf)
	big := make([]byte, f.PageSize())
	_, err := ins.InsertRecord(big)
	require.Error(t, err)
	assert.Equal(t, status.INVALIDRECLEN, mustCode(t, err))
}

func TestInsertRecordIncrementsRecCnt(t *testing.T) {
	_, _, hf := newTestHeapFile(t)
	defer hf.Close()

	ins := NewInsertFileScan(hf)
	for i := 0; i < 3; i++ {
		_, err := ins.InsertRecord([]byte("row"))
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, hf.GetRecCnt())
}

func TestInsertAcrossPageOverflowLinksPages(t *testing.T) {
	_, _, hf := newTestHeapFile(t)
	defer hf.Close()

	firstPageNo := hf.firstPage()
	ins := NewInsertFileScan(hf)

	payload := make([]byte, 40)
	var overflowRID RID
	for i := 0; i < 10; i++ {
		rid, err := ins.InsertRecord(payload)
		require.NoError(t, err)
		if rid.PageNo != firstPageNo {
			overflowRID = rid
			break
		}
	}

	require.False(t, overflowRID.IsNull(), "expected at least one record to land past the first page")
	assert.EqualValues(t, 2, hf.pageCnt())
	assert.Equal(t, overflowRID.PageNo, hf.lastPage())

	firstPage, err := hf.bm.ReadPage(hf.file, firstPageNo)
	require.NoError(t, err)
	defer hf.bm.UnpinPage(hf.file, firstPageNo, false)
	assert.Equal(t, hf.lastPage(), getNextPage(firstPage))

	lastPage, err := hf.bm.ReadPage(hf.file, hf.lastPage())
	require.NoError(t, err)
	defer hf.bm.UnpinPage(hf.file, hf.lastPage(), false)
	assert.EqualValues(t, -1, getNextPage(lastPage))
}

func TestInsertRecordSurvivesAcrossCursorSwitch(t *testing.T) {
	_, _, hf := newTestHeapFile(t)
	defer hf.Close()

	ins := NewInsertFileScan(hf)
	payload := make([]byte, 40)
	var rids []RID
	for i := 0; i < 10; i++ {
		rid, err := ins.InsertRecord(payload)
		require.NoError(t, err)
		rids = append(rids, rid)
	}

	for _, rid := range rids {
		rec, err := hf.GetRecord(rid)
		require.NoError(t, err)
		assert.Len(t, rec, 40)
	}
}
