package program

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/Manu343726/drgo/pkg/binfmt"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBaseTypeFixture hand-assembles a single-CU, single-DIE .debug_abbrev
// and .debug_info pair describing one DW_TAG_base_type DIE ("int", 4 bytes,
// DW_ATE_signed), the same way dwarfidx's own tests hand-assemble abbrev
// bytes, but run through the real debug/dwarf.New rather than the index's
// own abbreviation compiler. Returns the file and the DIE's .debug_info
// offset.
func buildBaseTypeFixture(t *testing.T) (*binfmt.File, uint32) {
	t.Helper()

	abbrev := []byte{
		0x01,       // abbrev code 1
		0x24,       // DW_TAG_base_type
		0x00,       // no children
		0x03, 0x08, // DW_AT_name, DW_FORM_string
		0x3e, 0x0b, // DW_AT_encoding, DW_FORM_data1
		0x0b, 0x0b, // DW_AT_byte_size, DW_FORM_data1
		0x00, 0x00, // end of attribute list
		0x00, // end of table
	}

	var die []byte
	die = append(die, 0x01)             // abbrev code 1
	die = append(die, []byte("int")...) // DW_AT_name
	die = append(die, 0x00)             // string terminator
	die = append(die, 0x05)             // DW_AT_encoding = DW_ATE_signed
	die = append(die, 0x04)             // DW_AT_byte_size = 4

	header := make([]byte, 7)
	binary.LittleEndian.PutUint16(header[0:2], 4) // version 4
	binary.LittleEndian.PutUint32(header[2:6], 0) // abbrev_offset
	header[6] = 8                                 // address_size

	body := append(header, die...)
	info := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(info[0:4], uint32(len(body)))
	copy(info[4:], body)

	dieOffset := uint32(4 + len(header))

	f := &binfmt.File{
		Path:   "fixture.o",
		Abbrev: abbrev,
		Info:   info,
		Order:  elf.ELFDATA2LSB,
	}
	return f, dieOffset
}

func TestDwarfResolverResolveTypeBaseType(t *testing.T) {
	f, offset := buildBaseTypeFixture(t)
	arena := dtype.NewArena()

	typ, err := (DwarfResolver{}).ResolveType(f, offset, arena)
	require.NoError(t, err)
	assert.Equal(t, dtype.KindInt, typ.Kind())
	assert.Equal(t, "int", typ.Name())
	assert.Equal(t, 4, typ.Size())
	assert.True(t, typ.IsSigned())
}

func TestDwarfResolverResolveTypeInterns(t *testing.T) {
	f, offset := buildBaseTypeFixture(t)
	arena := dtype.NewArena()

	t1, err := (DwarfResolver{}).ResolveType(f, offset, arena)
	require.NoError(t, err)
	t2, err := (DwarfResolver{}).ResolveType(f, offset, arena)
	require.NoError(t, err)
	assert.Same(t, t1, t2, "repeated resolution of the same DIE returns the identical descriptor")
}

func TestByteOrderOfRespectsFileOrder(t *testing.T) {
	little := &binfmt.File{Order: elf.ELFDATA2LSB}
	big := &binfmt.File{Order: elf.ELFDATA2MSB}

	assert.Equal(t, binary.LittleEndian, byteOrderOf(little))
	assert.Equal(t, binary.BigEndian, byteOrderOf(big))
}
