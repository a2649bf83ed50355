package dwarfidx

import "github.com/Manu343726/drgo/pkg/drgerr"

// compilationUnit is one parsed CU header from .debug_info: just enough to
// walk its DIE tree (byte range, abbreviation offset, address/offset
// widths). DWARF version 5 inserts unit_type and address_size before
// abbrev_offset; versions 2-4 put address_size after it. Both are handled.
type compilationUnit struct {
	file *openFile

	offset    uint32 // offset of the length field
	end       uint32 // one past the CU's last byte
	headerEnd uint32 // offset of the first top-level DIE

	version      uint16
	is64Bit      bool
	addressSize  uint8
	abbrevOffset uint64
}

// scanCompilationUnits single-threadedly walks .debug_info splitting it
// into CU headers: each CU's length field lets the scanner skip straight to
// the next one without interpreting any DIE.
func scanCompilationUnits(f *openFile) ([]*compilationUnit, error) {
	var cus []*compilationUnit
	data := f.Info
	pos := 0

	for pos < len(data) {
		cu, err := parseCUHeader(f, data, pos)
		if err != nil {
			return nil, err
		}
		cus = append(cus, cu)
		pos = int(cu.end)
	}
	return cus, nil
}

func parseCUHeader(f *openFile, data []byte, pos int) (*compilationUnit, error) {
	c := newCursor(data)
	c.pos = pos
	start := pos

	length32, err := c.u32(f.Swap)
	if err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "truncated CU header in %q", f.Path)
	}

	is64Bit := length32 == 0xffffffff
	var length uint64
	if is64Bit {
		length, err = c.u64(f.Swap)
		if err != nil {
			return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "truncated 64-bit CU length in %q", f.Path)
		}
	} else {
		if length32 >= 0xfffffff0 {
			return nil, drgerr.New(drgerr.DWARFFormat, "%q: reserved DWARF length value %#x", f.Path, length32)
		}
		length = uint64(length32)
	}

	end := c.pos + int(length)
	if end > len(data) {
		return nil, drgerr.New(drgerr.DWARFFormat, "%q: CU length %d overruns .debug_info", f.Path, length)
	}

	version, err := c.u16(f.Swap)
	if err != nil {
		return nil, err
	}
	if version < 2 || version > 5 {
		return nil, drgerr.New(drgerr.DWARFFormat, "%q: unsupported DWARF version %d", f.Path, version)
	}

	cu := &compilationUnit{file: f, offset: uint32(start), end: uint32(end), version: version, is64Bit: is64Bit}

	if version >= 5 {
		if _, err := c.u8(); err != nil { // unit_type
			return nil, err
		}
		addrSize, err := c.u8()
		if err != nil {
			return nil, err
		}
		cu.addressSize = addrSize
		if is64Bit {
			ab, err := c.u64(f.Swap)
			if err != nil {
				return nil, err
			}
			cu.abbrevOffset = ab
		} else {
			ab, err := c.u32(f.Swap)
			if err != nil {
				return nil, err
			}
			cu.abbrevOffset = uint64(ab)
		}
	} else {
		if is64Bit {
			ab, err := c.u64(f.Swap)
			if err != nil {
				return nil, err
			}
			cu.abbrevOffset = ab
		} else {
			ab, err := c.u32(f.Swap)
			if err != nil {
				return nil, err
			}
			cu.abbrevOffset = uint64(ab)
		}
		addrSize, err := c.u8()
		if err != nil {
			return nil, err
		}
		cu.addressSize = addrSize
	}

	cu.headerEnd = uint32(c.pos)
	return cu, nil
}
