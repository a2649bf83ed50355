// Package dwarfidx is the concurrent DWARF name index (component C2): given
// a set of opened ELF files, it scans every DIE of interest and builds a
// sharded, name-keyed map of entry locations fast enough to answer tens of
// thousands of lookups against hundreds of thousands of definitions. The
// abbreviation compiler, shard layout and file-name hashing below are
// grounded directly on the reference indexer's dwarf_index.c.
package dwarfidx

import (
	"debug/dwarf"

	"github.com/Manu343726/drgo/pkg/binfmt"
)

// Flags selects which DIE tags an Index cares about; compileOneDecl uses it
// to decide, abbreviation-code by abbreviation-code, which attributes are
// worth keeping instructions for.
type Flags uint8

const (
	IndexTypes Flags = 1 << iota
	IndexVariables
	IndexEnumerators
	IndexFunctions

	IndexAll = IndexTypes | IndexVariables | IndexEnumerators | IndexFunctions
)

// Entry is one indexed DIE: the file it came from, its byte offset into
// that file's .debug_info, its tag, and a hash of the source file it was
// declared in (0 if none was recorded). Two entries denote the same
// definition iff Tag and FileHash match; otherwise they are distinct
// definitions that merely share a name.
type Entry struct {
	File     *openFile
	Offset   uint32
	Tag      dwarf.Tag
	FileHash uint64
}

// BinaryFile returns the opened ELF file this entry's DIE was indexed from,
// so a caller resolving an entry to a full DIE (via an external DWARF
// runtime) knows which file's .debug_info offset Offset refers to.
func (e Entry) BinaryFile() *binfmt.File {
	return e.File.File
}
