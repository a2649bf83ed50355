package dwarfidx

import "github.com/Manu343726/drgo/pkg/drgerr"

// cursor is a bounds-checked forward-only reader over a byte slice, shared
// by the abbreviation-table compiler, the CU-header scanner and the DIE
// walker. DWARF packs most of its structure in LEB128 and fixed-width
// little/big-endian integers; cursor centralizes the bounds checks so every
// truncated read surfaces as the same DWARF-EOF-flavored error.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor { return &cursor{data: data} }

func (c *cursor) done() bool { return c.pos >= len(c.data) }

func eof() error { return drgerr.New(drgerr.DWARFFormat, "unexpected end of DWARF data") }

func (c *cursor) u8() (uint8, error) {
	if c.pos >= len(c.data) {
		return 0, eof()
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, eof()
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) skip(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return eof()
	}
	c.pos += n
	return nil
}

func (c *cursor) uleb() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := c.u8()
		if err != nil {
			return 0, err
		}
		if shift < 64 {
			result |= uint64(b&0x7f) << shift
		}
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func (c *cursor) sleb() (int64, error) {
	var result int64
	var shift uint
	var b uint8
	var err error
	for {
		b, err = c.u8()
		if err != nil {
			return 0, err
		}
		if shift < 64 {
			result |= int64(b&0x7f) << shift
		}
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

func readU16(b []byte, swap bool) uint16 {
	v := uint16(b[0]) | uint16(b[1])<<8
	if swap {
		return v>>8 | v<<8
	}
	return v
}

func readU32(b []byte, swap bool) uint32 {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	if swap {
		return bswap32(v)
	}
	return v
}

func readU64(b []byte, swap bool) uint64 {
	v := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
	if swap {
		return bswap64(v)
	}
	return v
}

func bswap32(v uint32) uint32 {
	return v>>24 | (v>>8)&0xff00 | (v<<8)&0xff0000 | v<<24
}

func bswap64(v uint64) uint64 {
	return v>>56 |
		(v>>40)&0xff00 |
		(v>>24)&0xff0000 |
		(v>>8)&0xff000000 |
		(v<<8)&0xff00000000 |
		(v<<24)&0xff0000000000 |
		(v<<40)&0xff000000000000 |
		v<<56
}

// u16 reads natively-sized data respecting the CU's section's recorded
// byte-swap flag rather than assuming little-endian (the binfmt reader's
// Swap flag only tells us host-vs-file mismatch, not which way).
func (c *cursor) u16(swap bool) (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return readU16(b, swap), nil
}

func (c *cursor) u32(swap bool) (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return readU32(b, swap), nil
}

func (c *cursor) u64(swap bool) (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return readU64(b, swap), nil
}

// cstring reads a NUL-terminated byte string starting at the cursor's
// current position, advancing past the terminator.
func (c *cursor) cstring() (string, error) {
	start := c.pos
	for {
		if c.pos >= len(c.data) {
			return "", eof()
		}
		if c.data[c.pos] == 0 {
			s := string(c.data[start:c.pos])
			c.pos++
			return s, nil
		}
		c.pos++
	}
}
