// Package pagefile implements the paged file store the buffer manager treats
// as an external collaborator: fixed-size pages addressed by page number,
// allocated and disposed by a simple free-list-free bump allocator, backed by
// a single *os.File opened with WriteAt/ReadAt, in the style of the teacher's
// IBD_File tablespace file wrapper.
package pagefile

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/coldharbor/heapstore/status"
	"github.com/coldharbor/heapstore/util"
)

// DefaultPageSize is the default page size this module operates on. Unlike
// the teacher's hardcoded 16KB InnoDB page, the page size is configurable per
// File.
const DefaultPageSize = 4096

// File is the paged file abstraction the buffer manager and heap file layer
// depend on. Every method is page-granular; no caller ever deals in raw byte
// offsets.
type File interface {
	// Name returns the identity used for residency-index keying and logging.
	Name() string
	// PageSize returns the fixed page size this file was opened with.
	PageSize() int
	// AllocatePage allocates the next page number and zero-fills it on disk.
	AllocatePage() (pageNo int32, err error)
	// DisposePage deallocates pageNo. The space is not reclaimed; pageNo is
	// simply never reused (this module carries no free-list, matching the
	// teacher's own tablespace allocator which only ever grows forward).
	DisposePage(pageNo int32) error
	// ReadPage transfers exactly PageSize() bytes from pageNo into buf.
	ReadPage(pageNo int32, buf []byte) error
	// WritePage transfers exactly PageSize() bytes from buf to pageNo.
	WritePage(pageNo int32, buf []byte) error
	// GetFirstPage returns the page number of the first page (the header
	// page, for heap files).
	GetFirstPage() (pageNo int32, err error)
	// PageCount returns the number of pages ever allocated (disposed pages
	// still count).
	PageCount() int32
	// Sync flushes the underlying OS file.
	Sync() error
	// Close closes the underlying OS file.
	Close() error
}

// osFile is the concrete File backed by a single *os.File.
type osFile struct {
	name     string
	f        *os.File
	pageSize int
	numPages int32
}

// Create makes a brand-new paged file at path, failing if it already exists.
func Create(path string, pageSize int) (File, error) {
	exists, err := util.PathExists(path)
	if err != nil {
		return nil, status.Wrap("pagefile.Create", status.UNIXERR, err)
	}
	if exists {
		return nil, status.New("pagefile.Create", status.FILEEXISTS)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, status.Wrap("pagefile.Create", status.UNIXERR, err)
	}

	return &osFile{name: path, f: f, pageSize: pageSize, numPages: 0}, nil
}

// Open opens an existing paged file and infers its page count from its size.
func Open(path string, pageSize int) (File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.Wrap("pagefile.Open", status.HASHNOTFOUND, err)
		}
		return nil, status.Wrap("pagefile.Open", status.UNIXERR, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, status.Wrap("pagefile.Open", status.UNIXERR, err)
	}

	return &osFile{
		name:     path,
		f:        f,
		pageSize: pageSize,
		numPages: int32(info.Size() / int64(pageSize)),
	}, nil
}

func (of *osFile) Name() string   { return of.name }
func (of *osFile) PageSize() int  { return of.pageSize }
func (of *osFile) PageCount() int32 { return of.numPages }

func (of *osFile) AllocatePage() (int32, error) {
	pageNo := of.numPages
	buf := make([]byte, of.pageSize)
	if _, err := of.f.WriteAt(buf, int64(pageNo)*int64(of.pageSize)); err != nil {
		return -1, status.Wrap("pagefile.AllocatePage", status.UNIXERR, errors.Wrap(err, "zero-fill new page"))
	}
	of.numPages++
	return pageNo, nil
}

func (of *osFile) DisposePage(pageNo int32) error {
	if pageNo < 0 || pageNo >= of.numPages {
		return status.New("pagefile.DisposePage", status.HASHNOTFOUND)
	}
	// No free-list: the page number is simply never handed out again by
	// AllocatePage, which only ever bumps numPages.
	return nil
}

func (of *osFile) ReadPage(pageNo int32, buf []byte) error {
	if len(buf) != of.pageSize {
		return status.New("pagefile.ReadPage", status.UNIXERR)
	}
	if pageNo < 0 || pageNo >= of.numPages {
		return status.New("pagefile.ReadPage", status.HASHNOTFOUND)
	}
	n, err := of.f.ReadAt(buf, int64(pageNo)*int64(of.pageSize))
	if err != nil && err != io.EOF {
		return status.Wrap("pagefile.ReadPage", status.UNIXERR, err)
	}
	if n != of.pageSize {
		return status.Wrap("pagefile.ReadPage", status.UNIXERR, errors.Errorf("short read: got %d of %d bytes", n, of.pageSize))
	}
	return nil
}

func (of *osFile) WritePage(pageNo int32, buf []byte) error {
	if len(buf) != of.pageSize {
		return status.New("pagefile.WritePage", status.UNIXERR)
	}
	if pageNo < 0 {
		return status.New("pagefile.WritePage", status.HASHNOTFOUND)
	}
	if _, err := of.f.WriteAt(buf, int64(pageNo)*int64(of.pageSize)); err != nil {
		return status.Wrap("pagefile.WritePage", status.UNIXERR, err)
	}
	if pageNo >= of.numPages {
		of.numPages = pageNo + 1
	}
	return nil
}

func (of *osFile) GetFirstPage() (int32, error) {
	if of.numPages == 0 {
		return -1, status.New("pagefile.GetFirstPage", status.HASHNOTFOUND)
	}
	return 0, nil
}

func (of *osFile) Sync() error {
	if err := of.f.Sync(); err != nil {
		return status.Wrap("pagefile.Sync", status.UNIXERR, err)
	}
	return nil
}

func (of *osFile) Close() error {
	if err := of.f.Close(); err != nil {
		return status.Wrap("pagefile.Close", status.UNIXERR, err)
	}
	return nil
}

// Destroy removes a paged file from disk by path.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return status.New("pagefile.Destroy", status.HASHNOTFOUND)
		}
		return status.Wrap("pagefile.Destroy", status.UNIXERR, err)
	}
	return nil
}

// Exists reports whether a paged file already exists at path.
func Exists(path string) bool {
	exists, err := util.PathExists(path)
	return err == nil && exists
}
