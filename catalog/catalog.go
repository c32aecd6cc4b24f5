// Package catalog is the database catalog collaborator: it resolves heap
// file names to paths under a configured data directory and wires together
// a pagefile.File with the buffer manager to hand back an open heap.HeapFile,
// in the spirit of the teacher's initdb.InitDBDir bootstrap.
package catalog

import (
	"os"
	"path/filepath"

	juju "github.com/juju/errors"

	"github.com/coldharbor/heapstore/bufpool"
	"github.com/coldharbor/heapstore/config"
	"github.com/coldharbor/heapstore/heap"
	"github.com/coldharbor/heapstore/pagefile"
)

// Catalog creates, opens, closes, and destroys named heap files against a
// single configured data directory, sharing one buffer manager across them.
type Catalog struct {
	cfg *config.Cfg
	bm  *bufpool.BufMgr
}

// Open constructs a Catalog over cfg's data directory, creating it if
// necessary, and allocates a buffer manager sized per cfg.
func Open(cfg *config.Cfg) (*Catalog, error) {
	if err := ensureDataDir(cfg.DataDir); err != nil {
		return nil, err
	}
	return &Catalog{
		cfg: cfg,
		bm:  bufpool.New(cfg.NumBufs, cfg.PageSize),
	}, nil
}

func (c *Catalog) path(name string) string {
	return filepath.Join(c.cfg.DataDir, name+".heap")
}

// CreateFile creates a brand-new heap file named name, following the
// original's probe-then-create sequencing: check whether the file exists
// first, and only create it if it does not, so an existing file surfaces as
// AlreadyExists
// rather than being silently overwritten.
func (c *Catalog) CreateFile(name string) (*heap.HeapFile, error) {
	path := c.path(name)
	if pagefile.Exists(path) {
		return nil, juju.AlreadyExistsf("heap file %q", name)
	}

	pf, err := pagefile.Create(path, c.cfg.PageSize)
	if err != nil {
		return nil, err
	}

	if err := heap.CreateHeapFile(c.bm, pf, name); err != nil {
		pf.Close()
		pagefile.Destroy(path)
		return nil, err
	}
	if err := pf.Close(); err != nil {
		return nil, err
	}

	return c.OpenFile(name)
}

// OpenFile opens an existing heap file named name.
func (c *Catalog) OpenFile(name string) (*heap.HeapFile, error) {
	path := c.path(name)
	if !pagefile.Exists(path) {
		return nil, juju.NotFoundf("heap file %q", name)
	}

	pf, err := pagefile.Open(path, c.cfg.PageSize)
	if err != nil {
		return nil, err
	}

	return heap.OpenHeapFile(c.bm, pf)
}

// CloseFile closes hf, flushing its pages through the shared buffer
// manager.
func (c *Catalog) CloseFile(hf *heap.HeapFile) error {
	return hf.Close()
}

// DestroyFile removes a heap file named name from disk. The file must not
// currently be open.
func (c *Catalog) DestroyFile(name string) error {
	path := c.path(name)
	if !pagefile.Exists(path) {
		return juju.NotFoundf("heap file %q", name)
	}
	return pagefile.Destroy(path)
}

// BufMgr exposes the shared buffer manager, e.g. for diagnostics.
func (c *Catalog) BufMgr() *bufpool.BufMgr { return c.bm }

// Close performs a best-effort shutdown flush of the shared buffer manager.
func (c *Catalog) Close() {
	c.bm.Close()
}

func ensureDataDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
