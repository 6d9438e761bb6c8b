// Package bits packs values narrower than a byte (flags, length prefixes)
// into a little-endian bit stream. It is the side channel of the CSER codec.
package bits

type (
	// Array holds the packed stream.
	Array struct {
		Bytes []byte
	}

	// Writer appends bits to an Array.
	Writer struct {
		*Array
		bitOffset int // next free bit in the last byte, 0..7
	}

	// Reader consumes bits from an Array.
	Reader struct {
		*Array
		byteOffset int
		bitOffset  int
	}
)

func NewWriter(arr *Array) *Writer {
	return &Writer{Array: arr}
}

func NewReader(arr *Array) *Reader {
	return &Reader{Array: arr}
}

// lowBits keeps the bits of v that fit below an 8-bit window cleared of `top` high bits.
func lowBits(v uint, top int) uint {
	return v & (uint(0xff) >> top)
}

// Write appends the lowest n bits of v.
func (a *Writer) Write(n int, v uint) {
	for n > 0 {
		if a.bitOffset == 0 {
			a.Bytes = append(a.Bytes, 0)
		}
		free := 8 - a.bitOffset
		if n < free {
			a.Bytes[len(a.Bytes)-1] |= byte(v << a.bitOffset)
			a.bitOffset += n
			return
		}
		a.Bytes[len(a.Bytes)-1] |= byte(lowBits(v, a.bitOffset) << a.bitOffset)
		a.bitOffset = 0
		n -= free
		v >>= free
	}
}

// Read consumes n bits and returns them as an integer.
func (a *Reader) Read(n int) (v uint) {
	shift := 0
	for n > 0 {
		free := 8 - a.bitOffset
		if n < free {
			b := lowBits(uint(a.Bytes[a.byteOffset]), 8-(a.bitOffset+n)) >> a.bitOffset
			v |= b << shift
			a.bitOffset += n
			return v
		}
		v |= (uint(a.Bytes[a.byteOffset]) >> a.bitOffset) << shift
		a.bitOffset = 0
		a.byteOffset++
		shift += free
		n -= free
	}
	return v
}

// NonReadBytes counts bytes that were not fully consumed.
func (a *Reader) NonReadBytes() int {
	return len(a.Bytes) - a.byteOffset
}

// NonReadBits counts unconsumed bits, including the tail of the current byte.
func (a *Reader) NonReadBits() int {
	return a.NonReadBytes()*8 - a.bitOffset
}
