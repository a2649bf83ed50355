package binfmt

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMemoryReadsFromLoadedSection(t *testing.T) {
	data := []byte{0x2a, 0x00, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef}

	path := buildELF64(t, []section{
		{name: ".debug_abbrev", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_info", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_line", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_str", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".data", typ: uint32(elf.SHT_PROGBITS), data: data, addr: 0x4000},
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4)
	require.NoError(t, f.ReadMemory(buf, 0x4000, false))
	assert.Equal(t, []byte{0x2a, 0x00, 0x00, 0x00}, buf)

	require.NoError(t, f.ReadMemory(buf, 0x4004, false))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, buf)
}

func TestReadMemoryZeroFillsBSS(t *testing.T) {
	path := buildELF64(t, []section{
		{name: ".debug_abbrev", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_info", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_line", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_str", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".bss", typ: uint32(elf.SHT_NOBITS), addr: 0x8000, size: 16},
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := []byte{0xff, 0xff, 0xff, 0xff}
	require.NoError(t, f.ReadMemory(buf, 0x8000, false))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)
}

func TestReadMemoryUnmappedAddressFaults(t *testing.T) {
	path := buildELF64(t, []section{
		{name: ".debug_abbrev", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_info", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_line", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".debug_str", typ: uint32(elf.SHT_PROGBITS), data: []byte{0}},
		{name: ".data", typ: uint32(elf.SHT_PROGBITS), data: []byte{1, 2, 3, 4}, addr: 0x4000},
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4)
	err = f.ReadMemory(buf, 0x9999, false)
	assert.Error(t, err)
}
