package bufpool

// Page is a fixed-size, opaque byte buffer. The buffer manager never
// interprets its contents; the heap-file layer overlays the slotted record
// layout on top of it.
type Page struct {
	Data []byte
}

func newPage(pageSize int) *Page {
	return &Page{Data: make([]byte, pageSize)}
}
