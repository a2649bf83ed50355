package binfmt

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// section is one raw section body plus the header metadata needed to wire
// it into a hand-built ELF64 object: name, type, and (for .symtab/.rela.*)
// the link/info fields the spec and debug/elf both require.
type section struct {
	name    string
	typ     uint32
	data    []byte
	link    uint32
	info    uint32
	entsize uint64
	addr    uint64
	// size overrides len(data) for the section header's declared size,
	// for SHT_NOBITS sections (.bss) that occupy address space without
	// storing any bytes in the file.
	size uint64
}

// buildELF64 hand-assembles a minimal little-endian ELF64 relocatable
// object from a section list, in the same "poke bytes at fixed offsets"
// style the teacher's ELF32 test fixture uses, scaled to the 64-bit
// layout (Elf64_Ehdr/Elf64_Shdr are 64 bytes; Elf64_Sym/Elf64_Rela are
// 24 bytes each).
func buildELF64(t *testing.T, sections []section) string {
	t.Helper()

	// section 0 is the mandatory SHN_UNDEF null section; 1 is .shstrtab.
	all := append([]section{{name: "", typ: uint32(elf.SHT_NULL)}, {name: ".shstrtab", typ: uint32(elf.SHT_STRTAB)}}, sections...)

	var shstrtab []byte
	shstrtab = append(shstrtab, 0)
	nameOffsets := make([]uint32, len(all))
	for i, s := range all {
		nameOffsets[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, []byte(s.name)...)
		shstrtab = append(shstrtab, 0)
	}
	all[1].data = shstrtab

	const ehdrSize = 64
	const shdrSize = 64

	body := make([]byte, ehdrSize)
	offsets := make([]uint64, len(all))
	for i, s := range all {
		// 8-byte align each section's data for cleanliness.
		for len(body)%8 != 0 {
			body = append(body, 0)
		}
		offsets[i] = uint64(len(body))
		body = append(body, s.data...)
	}
	for len(body)%8 != 0 {
		body = append(body, 0)
	}
	shoff := uint64(len(body))

	for i, s := range all {
		hdr := make([]byte, shdrSize)
		binary.LittleEndian.PutUint32(hdr[0:], nameOffsets[i])
		binary.LittleEndian.PutUint32(hdr[4:], s.typ)
		binary.LittleEndian.PutUint64(hdr[16:], s.addr)
		binary.LittleEndian.PutUint64(hdr[24:], offsets[i])
		size := s.size
		if size == 0 {
			size = uint64(len(s.data))
		}
		binary.LittleEndian.PutUint64(hdr[32:], size)
		binary.LittleEndian.PutUint32(hdr[40:], s.link)
		binary.LittleEndian.PutUint32(hdr[44:], s.info)
		binary.LittleEndian.PutUint64(hdr[56:], s.entsize)
		body = append(body, hdr...)
	}

	// Elf64_Ehdr
	body[0], body[1], body[2], body[3] = 0x7f, 'E', 'L', 'F'
	body[4] = 2 // ELFCLASS64
	body[5] = 1 // ELFDATA2LSB
	body[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(body[16:], uint16(elf.ET_REL))
	binary.LittleEndian.PutUint16(body[18:], uint16(elf.EM_X86_64))
	binary.LittleEndian.PutUint32(body[20:], 1)
	binary.LittleEndian.PutUint64(body[40:], shoff)
	binary.LittleEndian.PutUint16(body[52:], ehdrSize)
	binary.LittleEndian.PutUint16(body[58:], shdrSize)
	binary.LittleEndian.PutUint16(body[60:], uint16(len(all)))
	binary.LittleEndian.PutUint16(body[62:], 1) // e_shstrndx

	path := filepath.Join(t.TempDir(), "test.o")
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func symEntry(name, value, size uint64, info byte, shndx uint16) []byte {
	e := make([]byte, 24)
	binary.LittleEndian.PutUint32(e[0:], uint32(name))
	e[4] = info
	binary.LittleEndian.PutUint16(e[6:], shndx)
	binary.LittleEndian.PutUint64(e[8:], value)
	binary.LittleEndian.PutUint64(e[16:], size)
	return e
}

func relaEntry(offset uint64, symbol uint32, typ elf.R_X86_64, addend int64) []byte {
	e := make([]byte, 24)
	binary.LittleEndian.PutUint64(e[0:], offset)
	binary.LittleEndian.PutUint64(e[8:], uint64(symbol)<<32|uint64(typ))
	binary.LittleEndian.PutUint64(e[16:], uint64(addend))
	return e
}

func TestOpenExtractsDebugSections(t *testing.T) {
	abbrev := []byte{0x01, 0x02, 0x03}
	info := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	line := []byte{0x11}
	str := []byte("hello\x00")

	strtab := append([]byte{0}, []byte("sym\x00")...)
	symtab := append(symEntry(0, 0, 0, 0, 0), symEntry(1, 0x1000, 0, byte(elf.STT_OBJECT), 0)...)

	path := buildELF64(t, []section{
		{name: ".debug_abbrev", typ: uint32(elf.SHT_PROGBITS), data: abbrev},
		{name: ".debug_info", typ: uint32(elf.SHT_PROGBITS), data: info},
		{name: ".debug_line", typ: uint32(elf.SHT_PROGBITS), data: line},
		{name: ".debug_str", typ: uint32(elf.SHT_PROGBITS), data: str},
		{name: ".strtab", typ: uint32(elf.SHT_STRTAB), data: strtab},
		{name: ".symtab", typ: uint32(elf.SHT_SYMTAB), data: symtab, link: 6, entsize: 24},
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, abbrev, f.Abbrev)
	assert.Equal(t, info, f.Info)
	assert.Equal(t, line, f.Line)
	assert.Equal(t, str, f.Str)
	assert.False(t, f.Swap)
}

func TestOpenRejects32Bit(t *testing.T) {
	// A hand-rolled ELF32 header (e_ident[EI_CLASS] = ELFCLASS32) is
	// enough to trigger the class check before anything else is parsed.
	raw := make([]byte, 52)
	raw[0], raw[1], raw[2], raw[3] = 0x7f, 'E', 'L', 'F'
	raw[4] = 1 // ELFCLASS32
	raw[5] = 1
	raw[6] = 1
	binary.LittleEndian.PutUint16(raw[16:], uint16(elf.ET_REL))
	binary.LittleEndian.PutUint16(raw[18:], uint16(elf.EM_386))
	binary.LittleEndian.PutUint32(raw[20:], 1)
	binary.LittleEndian.PutUint16(raw[40:], 52)

	path := filepath.Join(t.TempDir(), "bad.o")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestApplyRelocationsPatchesDebugInfo(t *testing.T) {
	info := make([]byte, 8) // placeholder to be patched by a 64-bit relocation

	strtab := append([]byte{0}, []byte("sym\x00")...)
	symtab := append(symEntry(0, 0, 0, 0, 0), symEntry(1, 0x2000, 0, byte(elf.STT_OBJECT), 0)...)
	rela := relaEntry(0, 1, elf.R_X86_64_64, 0x10)

	path := buildELF64(t, []section{
		{name: ".debug_abbrev", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_info", typ: uint32(elf.SHT_PROGBITS), data: info},
		{name: ".debug_line", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_str", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".strtab", typ: uint32(elf.SHT_STRTAB), data: strtab},
		{name: ".symtab", typ: uint32(elf.SHT_SYMTAB), data: symtab, link: 6, entsize: 24},
		{name: ".rela.debug_info", typ: uint32(elf.SHT_RELA), data: rela, link: 7, info: 3, entsize: 24},
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, ApplyRelocations([]*File{f}))

	assert.EqualValues(t, 0x2010, binary.LittleEndian.Uint64(f.Info[0:8]))
	assert.Empty(t, f.pending)
}
