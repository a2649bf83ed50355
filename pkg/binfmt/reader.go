// Package binfmt is the binary-format reader (component C1): it opens an
// ELF file, extracts the sections the rest of the core needs, detects a
// byte-order mismatch against the host, and applies relocations against
// the debug sections before anyone reads a DIE out of them.
package binfmt

import (
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"
	"os"

	"github.com/Manu343726/drgo/pkg/drgerr"
)

// File is an opened ELF object with the four debug sections extracted.
// Relocations against those sections are collected at Open time but not
// applied until ApplyRelocations runs the global parallel pass over every
// file opened in the same batch.
type File struct {
	Path string

	Symbols []elf.Symbol

	Abbrev []byte
	Info   []byte
	Line   []byte
	Str    []byte

	// Order is the file's recorded byte order; Swap reports whether it
	// disagrees with the host and every multi-byte integer read from this
	// file's sections must be byte-swapped.
	Order elf.Data
	Swap  bool

	pending []pendingReloc

	elfFile   *elf.File
	dwarfData *dwarf.Data
}

// Close releases the underlying OS file handle.
func (f *File) Close() error {
	return f.elfFile.Close()
}

// DWARF builds (once, lazily) the stdlib debug/dwarf view over this file's
// relocated debug sections, for a DIEResolver to open full DIE structure at
// use time per spec.md §6 ("the core consumes DIE offsets from the index
// and opens the full DIE structure via this runtime only at use time").
// Relocations must already be applied before the first call.
func (f *File) DWARF() (*dwarf.Data, error) {
	if f.dwarfData != nil {
		return f.dwarfData, nil
	}
	d, err := dwarf.New(f.Abbrev, nil, nil, f.Info, f.Line, nil, nil, f.Str)
	if err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to open DWARF data", f.Path)
	}
	f.dwarfData = d
	return d, nil
}

// Open parses path as an ELF file, extracts the symbol table and the four
// debug sections, and collects (without applying) any relocations that
// target them; call ApplyRelocations once every file of a batch has been
// opened. Fails loudly for a 32-bit file (unsupported) or a relocation
// section whose target has no symbol table.
func Open(path string) (*File, error) {
	osFile, err := os.Open(path)
	if err != nil {
		return nil, drgerr.OSError("failed to open binary", path, err)
	}

	elfFile, err := elf.NewFile(osFile)
	if err != nil {
		osFile.Close()
		return nil, drgerr.Wrap(drgerr.ELFFormat, err, "failed to parse ELF file %q", path)
	}

	if elfFile.Class != elf.ELFCLASS64 {
		elfFile.Close()
		return nil, drgerr.New(drgerr.ELFFormat, "32-bit ELF files are not supported: %q", path)
	}

	f := &File{
		Path:    path,
		elfFile: elfFile,
		Order:   elfFile.Data,
		Swap:    hostIsLittleEndian() != (elfFile.Data == elf.ELFDATA2LSB),
	}

	symbols, err := elfFile.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		elfFile.Close()
		return nil, drgerr.Wrap(drgerr.ELFFormat, err, "failed to read symbol table of %q", path)
	}
	f.Symbols = symbols

	sections := map[string]*[]byte{
		".debug_abbrev": &f.Abbrev,
		".debug_info":   &f.Info,
		".debug_line":   &f.Line,
		".debug_str":    &f.Str,
	}

	for name, dst := range sections {
		sec := elfFile.Section(name)
		if sec == nil {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			elfFile.Close()
			return nil, drgerr.Wrap(drgerr.ELFFormat, err, "failed to read section %q of %q", name, path)
		}
		*dst = data
	}

	if f.Info == nil || f.Abbrev == nil {
		elfFile.Close()
		return nil, drgerr.New(drgerr.MissingDebug, "%q has no debug information", path)
	}

	pending, err := collectRelocations(f, elfFile)
	if err != nil {
		elfFile.Close()
		return nil, err
	}
	f.pending = pending

	return f, nil
}

func hostIsLittleEndian() bool {
	var x uint16 = 1
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, x)
	return buf[0] == 1
}

// debugSectionData maps a section name to the File field that holds its
// (possibly relocated) bytes, used by relocate.go to find the destination
// buffer for a relocation targeting that section.
func (f *File) debugSectionData(name string) []byte {
	switch name {
	case ".debug_abbrev":
		return f.Abbrev
	case ".debug_info":
		return f.Info
	case ".debug_line":
		return f.Line
	case ".debug_str":
		return f.Str
	default:
		return nil
	}
}
