// Package cser is the compact canonical binary codec used for persisted
// protocol records. Integer widths go to a bit side-channel, payload bytes to
// the body; every value has exactly one valid encoding.
package cser

import (
	"errors"

	"github.com/rony4d/descartes-rollups/utils/bits"
	"github.com/rony4d/descartes-rollups/utils/fast"
)

var (
	ErrNonCanonicalEncoding = errors.New("non canonical encoding")
	ErrMalformedEncoding    = errors.New("malformed encoding")
	ErrTooLargeAlloc        = errors.New("too large allocation")
)

// MaxAlloc bounds any single decoded slice.
const MaxAlloc = 100 * 1024

type Writer struct {
	BitsW  *bits.Writer
	BytesW *fast.Writer
}

type Reader struct {
	BitsR  *bits.Reader
	BytesR *fast.Reader
}

func NewWriter() *Writer {
	return &Writer{
		BitsW:  bits.NewWriter(&bits.Array{Bytes: make([]byte, 0, 32)}),
		BytesW: fast.NewWriter(make([]byte, 0, 200)),
	}
}

// writeUint64Compact is a base-128 varint whose high bit marks the LAST byte.
func writeUint64Compact(w *fast.Writer, v uint64) {
	for {
		chunk := v & 0x7f
		v >>= 7
		if v == 0 {
			w.WriteByte(byte(chunk | 0x80))
			return
		}
		w.WriteByte(byte(chunk))
	}
}

func readUint64Compact(r *fast.Reader) uint64 {
	var v uint64
	for i := 0; ; i++ {
		chunk := uint64(r.ReadByte())
		stop := chunk&0x80 != 0
		word := chunk & 0x7f
		v |= word << (i * 7)
		if stop {
			if i > 0 && word == 0 {
				panic(ErrNonCanonicalEncoding)
			}
			return v
		}
	}
}

// writeUint64BitCompact writes v little-endian using at least minSize bytes.
func writeUint64BitCompact(w *fast.Writer, v uint64, minSize int) (size int) {
	for size < minSize || v != 0 {
		w.WriteByte(byte(v))
		size++
		v >>= 8
	}
	return size
}

func readUint64BitCompact(r *fast.Reader, size int) uint64 {
	var (
		v    uint64
		last byte
	)
	for i, b := range r.Read(size) {
		v |= uint64(b) << uint(8*i)
		last = b
	}
	if size > 1 && last == 0 {
		panic(ErrNonCanonicalEncoding)
	}
	return v
}

func (w *Writer) writeU64Bits(minSize, bitsForSize int, v uint64) {
	size := writeUint64BitCompact(w.BytesW, v, minSize)
	w.BitsW.Write(bitsForSize, uint(size-minSize))
}

func (r *Reader) readU64Bits(minSize, bitsForSize int) uint64 {
	size := int(r.BitsR.Read(bitsForSize)) + minSize
	return readUint64BitCompact(r.BytesR, size)
}

func (w *Writer) U8(v uint8) { w.BytesW.WriteByte(v) }
func (r *Reader) U8() uint8  { return r.BytesR.ReadByte() }

func (w *Writer) U32(v uint32) { w.writeU64Bits(1, 2, uint64(v)) }
func (r *Reader) U32() uint32  { return uint32(r.readU64Bits(1, 2)) }

func (w *Writer) U64(v uint64) { w.writeU64Bits(1, 3, v) }
func (r *Reader) U64() uint64  { return r.readU64Bits(1, 3) }

// U56 is used for lengths.
func (w *Writer) U56(v uint64) {
	const max = 1<<(8*7) - 1
	if v > max {
		panic("cser: value too big")
	}
	w.writeU64Bits(0, 3, v)
}

func (r *Reader) U56() uint64 { return r.readU64Bits(0, 3) }

func (w *Writer) Bool(v bool) {
	var u uint
	if v {
		u = 1
	}
	w.BitsW.Write(1, u)
}

func (r *Reader) Bool() bool { return r.BitsR.Read(1) != 0 }

// FixedBytes writes v without a length prefix.
func (w *Writer) FixedBytes(v []byte) { w.BytesW.Write(v) }

// FixedBytes fills v completely.
func (r *Reader) FixedBytes(v []byte) { copy(v, r.BytesR.Read(len(v))) }

// SliceBytes writes a length-prefixed byte slice.
func (w *Writer) SliceBytes(v []byte) {
	w.U56(uint64(len(v)))
	w.FixedBytes(v)
}

func (r *Reader) SliceBytes(maxLen int) []byte {
	size := r.U56()
	if size > uint64(maxLen) {
		panic(ErrTooLargeAlloc)
	}
	buf := make([]byte, size)
	r.FixedBytes(buf)
	return buf
}
