package dwarfidx

import (
	"debug/dwarf"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorLEB128(t *testing.T) {
	c := newCursor([]byte{0xe5, 0x8e, 0x26})
	v, err := c.uleb()
	require.NoError(t, err)
	assert.Equal(t, uint64(624485), v)

	c2 := newCursor([]byte{0x9b, 0xf1, 0x59})
	sv, err := c2.sleb()
	require.NoError(t, err)
	assert.Equal(t, int64(-624485), sv)
}

func TestCursorCString(t *testing.T) {
	c := newCursor([]byte{'f', 'o', 'o', 0, 'b', 'a', 'r'})
	s, err := c.cstring()
	require.NoError(t, err)
	assert.Equal(t, "foo", s)
	assert.Equal(t, 4, c.pos)
}

func TestHashPathReversesDirectoryComponents(t *testing.T) {
	h1 := hashPath("/usr/include", "stdio.h")
	h2 := hashPath("/usr/include", "stdio.h")
	assert.Equal(t, h1, h2, "hashing is deterministic")
	assert.Equal(t, xxhash.Sum64String("include/usr/stdio.h/"), h1, "directory components are hashed innermost first")

	h3 := hashPath("/usr/local/include", "stdio.h")
	assert.NotEqual(t, h1, h3, "different directories hash differently")
}

// buildAbbrevBytes hand-assembles a minimal .debug_abbrev blob with a
// single abbreviation: a DW_TAG_base_type with DW_AT_name (strp) and
// DW_AT_byte_size (data1), no children, terminated by (0,0) and the
// table terminator (abbrev code 0).
func buildAbbrevBytes() []byte {
	return []byte{
		0x01,       // abbrev code 1
		0x24,       // DW_TAG_base_type
		0x00,       // no children
		0x03, 0x0e, // DW_AT_name, DW_FORM_strp
		0x0b, 0x0b, // DW_AT_byte_size, DW_FORM_data1
		0x00, 0x00, // end of attribute list
		0x00, // end of table
	}
}

func TestCompileAbbrevTableNameAndSkip(t *testing.T) {
	cu := &compilationUnit{is64Bit: false, addressSize: 8}
	table, err := compileAbbrevTable(buildAbbrevBytes(), 0, IndexTypes, cu)
	require.NoError(t, err)
	require.Len(t, table.decls, 1)

	pos := table.decls[0]
	// DW_AT_name -> insnNameStrp4 (32-bit DWARF), DW_AT_byte_size -> skip 1,
	// then the (0, dieFlags) terminator. byte_size is a plain skip and
	// follows immediately after the name instruction (no coalescing since
	// insnNameStrp4 isn't a skip instruction).
	assert.Equal(t, uint8(insnNameStrp4), table.insns[pos])
	assert.Equal(t, uint8(1), table.insns[pos+1])
	assert.Equal(t, uint8(0), table.insns[pos+2])
	gotFlags := table.insns[pos+3]
	assert.Equal(t, dwarf.TagBaseType, dwarf.Tag(gotFlags&tagMask))
	assert.Zero(t, gotFlags&tagFlagChilds)
}

func TestCompileAbbrevTableRejectsIndirectForm(t *testing.T) {
	data := []byte{
		0x01, 0x24, 0x00,
		0x03, 0x16, // DW_AT_name, DW_FORM_indirect
		0x00, 0x00,
		0x00,
	}
	cu := &compilationUnit{addressSize: 8}
	_, err := compileAbbrevTable(data, 0, IndexTypes, cu)
	assert.Error(t, err)
}

func TestCompileAbbrevTableRejectsNonSequentialCodes(t *testing.T) {
	data := []byte{
		0x02, 0x24, 0x00, 0x00, 0x00, // abbrev code 2 first: not sequential
		0x00,
	}
	cu := &compilationUnit{addressSize: 8}
	_, err := compileAbbrevTable(data, 0, IndexTypes, cu)
	assert.Error(t, err)
}

func TestShardChainPreservesInsertionOrder(t *testing.T) {
	s := newShard()
	f1 := &openFile{}
	s.insert("foo", Entry{File: f1, Offset: 10, Tag: dwarf.TagVariable})
	s.insert("foo", Entry{File: f1, Offset: 20, Tag: dwarf.TagVariable})
	s.insert("foo", Entry{File: f1, Offset: 30, Tag: dwarf.TagVariable})

	chain := s.chain("foo")
	require.Len(t, chain, 3)
	assert.Equal(t, uint32(10), chain[0].Offset)
	assert.Equal(t, uint32(20), chain[1].Offset)
	assert.Equal(t, uint32(30), chain[2].Offset)
}

func TestShardTruncateFailedInsertions(t *testing.T) {
	s := newShard()
	good := &openFile{}
	bad := &openFile{}
	s.insert("keep", Entry{File: good, Offset: 1})
	s.insert("drop", Entry{File: bad, Offset: 2})
	s.insert("keep", Entry{File: good, Offset: 3})

	s.truncateFailedInsertions(map[*openFile]bool{bad: true})

	assert.Empty(t, s.chain("drop"))
	keep := s.chain("keep")
	require.Len(t, keep, 2)
	assert.Equal(t, uint32(1), keep[0].Offset)
	assert.Equal(t, uint32(3), keep[1].Offset)
}

func TestIndexLookupMissingNameIsEmpty(t *testing.T) {
	idx := New(IndexAll)
	assert.Empty(t, idx.Lookup("does_not_exist"))
}
