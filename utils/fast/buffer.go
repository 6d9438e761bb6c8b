// Package fast is an unchecked byte cursor used by the CSER codec.
//
// Reads past the end panic; callers recover at the codec boundary
// (cser.UnmarshalBinaryAdapter).
package fast

type Reader struct {
	buf    []byte
	offset int
}

type Writer struct {
	buf []byte
}

// NewReader starts reading bb from offset 0.
func NewReader(bb []byte) *Reader {
	return &Reader{buf: bb}
}

// NewWriter appends to bb.
func NewWriter(bb []byte) *Writer {
	return &Writer{buf: bb}
}

func (b *Writer) WriteByte(v byte) {
	b.buf = append(b.buf, v)
}

func (b *Writer) Write(v []byte) {
	b.buf = append(b.buf, v...)
}

// Bytes returns everything written so far.
func (b *Writer) Bytes() []byte {
	return b.buf
}

// Read returns the next n bytes. The result aliases the underlying buffer.
func (b *Reader) Read(n int) []byte {
	res := b.buf[b.offset : b.offset+n]
	b.offset += n
	return res
}

func (b *Reader) ReadByte() byte {
	res := b.buf[b.offset]
	b.offset++
	return res
}

// Position is the number of consumed bytes.
func (b *Reader) Position() int {
	return b.offset
}

// Empty reports whether every byte was consumed.
func (b *Reader) Empty() bool {
	return len(b.buf) == b.offset
}
