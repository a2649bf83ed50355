package object

import (
	"encoding/binary"
	"testing"

	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMemory is a flat byte-addressed memory image for tests driving
// reference objects.
type fakeMemory struct {
	base uint64
	data []byte
}

func (m *fakeMemory) ReadMemory(buf []byte, address uint64, physical bool) error {
	off := address - m.base
	copy(buf, m.data[off:off+uint64(len(buf))])
	return nil
}

func intQT() dtype.QualifiedType  { return dtype.QualifiedType{Type: dtype.NewInt("int", 4, true, dtype.PrimitiveInt)} }
func uintQT() dtype.QualifiedType {
	return dtype.QualifiedType{Type: dtype.NewInt("unsigned int", 4, false, dtype.PrimitiveUnsignedInt)}
}
func charQT() dtype.QualifiedType {
	return dtype.QualifiedType{Type: dtype.NewInt("char", 1, true, dtype.PrimitiveChar)}
}
func floatQT() dtype.QualifiedType {
	return dtype.QualifiedType{Type: dtype.NewFloat("float", 4, dtype.PrimitiveFloat)}
}
func doubleQT() dtype.QualifiedType {
	return dtype.QualifiedType{Type: dtype.NewFloat("double", 8, dtype.PrimitiveDouble)}
}
func ptrToIntQT() dtype.QualifiedType {
	return dtype.QualifiedType{Type: dtype.NewPointer(intQT(), 8)}
}

func TestSetSignedMasksToBitFieldWidth(t *testing.T) {
	var o Object
	require.NoError(t, o.SetSigned(intQT(), -1, 5))
	v, err := o.ReadSigned()
	require.NoError(t, err)
	assert.EqualValues(t, -1, v) // all-ones 5-bit field sign-extends to -1
}

func TestSetSignedRejectsUnsignedType(t *testing.T) {
	var o Object
	err := o.SetSigned(uintQT(), 1, 0)
	assert.Error(t, err)
}

func TestSetUnsignedRoundTrip(t *testing.T) {
	var o Object
	require.NoError(t, o.SetUnsigned(uintQT(), 0xffffffff, 0))
	v, err := o.ReadUnsigned()
	require.NoError(t, err)
	assert.EqualValues(t, 0xffffffff, v)
}

func TestSetFloatRoundTrip(t *testing.T) {
	var o Object
	require.NoError(t, o.SetFloat(doubleQT(), 3.5))
	v, err := o.ReadFloat()
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}

func TestSetFloat32RoundTrip(t *testing.T) {
	var o Object
	require.NoError(t, o.SetFloat(floatQT(), 2.5))
	v, err := o.ReadFloat()
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
}

func TestSetReferenceReadsThroughMemory(t *testing.T) {
	mem := &fakeMemory{base: 0x1000, data: []byte{0x2a, 0x00, 0x00, 0x00}}
	o := Object{Program: mem}
	require.NoError(t, o.SetReference(intQT(), 0x1000, 0, 0, binary.LittleEndian))

	v, err := o.ReadSigned()
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestSetBufferInlineSmallValue(t *testing.T) {
	var o Object
	require.NoError(t, o.SetBuffer(intQT(), []byte{7, 0, 0, 0}, 0, 0, binary.LittleEndian))
	v, err := o.ReadValue()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestCastIntToFloat(t *testing.T) {
	var src Object
	require.NoError(t, src.SetSigned(intQT(), -7, 0))

	dst, err := Cast(doubleQT(), &src)
	require.NoError(t, err)
	v, err := dst.ReadFloat()
	require.NoError(t, err)
	assert.Equal(t, -7.0, v)
}

func TestCastFloatToIntTruncates(t *testing.T) {
	var src Object
	require.NoError(t, src.SetFloat(doubleQT(), 3.9))

	dst, err := Cast(intQT(), &src)
	require.NoError(t, err)
	v, err := dst.ReadSigned()
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestCastRejectsNonScalar(t *testing.T) {
	record := dtype.NewRecord(dtype.KindStruct, "s", 4, nil)
	var src Object
	src.Type = dtype.QualifiedType{Type: record}
	src.Kind = KindBuffer
	src.repr = reprValue

	_, err := Cast(intQT(), &src)
	assert.Error(t, err)
}

func TestArithAddSub(t *testing.T) {
	var a, b Object
	require.NoError(t, a.SetSigned(intQT(), 10, 0))
	require.NoError(t, b.SetSigned(intQT(), 3, 0))

	sum, err := Arith(OpAdd, intQT(), &a, &b)
	require.NoError(t, err)
	v, _ := sum.ReadSigned()
	assert.EqualValues(t, 13, v)

	diff, err := Arith(OpSub, intQT(), &a, &b)
	require.NoError(t, err)
	v, _ = diff.ReadSigned()
	assert.EqualValues(t, 7, v)
}

func TestArithDivisionByZero(t *testing.T) {
	var a, b Object
	require.NoError(t, a.SetSigned(intQT(), 10, 0))
	require.NoError(t, b.SetSigned(intQT(), 0, 0))

	_, err := Arith(OpDiv, intQT(), &a, &b)
	assert.Error(t, err)
}

func TestArithShiftNegativeCountFails(t *testing.T) {
	var a, b Object
	require.NoError(t, a.SetSigned(intQT(), 1, 0))
	require.NoError(t, b.SetSigned(intQT(), -1, 0))

	_, err := Arith(OpShl, intQT(), &a, &b)
	assert.Error(t, err)
}

func TestArithFloat(t *testing.T) {
	var a, b Object
	require.NoError(t, a.SetFloat(doubleQT(), 1.5))
	require.NoError(t, b.SetFloat(doubleQT(), 2.0))

	sum, err := Arith(OpAdd, doubleQT(), &a, &b)
	require.NoError(t, err)
	v, _ := sum.ReadFloat()
	assert.Equal(t, 3.5, v)
}

func TestCompareOrdering(t *testing.T) {
	var a, b Object
	require.NoError(t, a.SetSigned(intQT(), 1, 0))
	require.NoError(t, b.SetSigned(intQT(), 2, 0))

	c, err := Compare(&a, &b)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Compare(&a, &a)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestPointerAddScalesByElementSize(t *testing.T) {
	var ptr Object
	require.NoError(t, ptr.SetUnsigned(ptrToIntQT(), 0x1000, 0))

	res, err := PointerAdd(&ptr, 3, 4, false)
	require.NoError(t, err)
	v, err := res.ReadUnsigned()
	require.NoError(t, err)
	assert.EqualValues(t, 0x100c, v)
}

func TestPointerDiffDividesByElementSize(t *testing.T) {
	var a, b Object
	require.NoError(t, a.SetUnsigned(ptrToIntQT(), 0x1010, 0))
	require.NoError(t, b.SetUnsigned(ptrToIntQT(), 0x1000, 0))

	diff, err := PointerDiff(intQT(), &a, &b, 4)
	require.NoError(t, err)
	v, err := diff.ReadSigned()
	require.NoError(t, err)
	assert.EqualValues(t, 4, v)
}

func TestDereferenceOffsetYieldsReference(t *testing.T) {
	mem := &fakeMemory{base: 0x2000, data: []byte{9, 0, 0, 0}}
	var ptr Object
	ptr.Program = mem
	require.NoError(t, ptr.SetUnsigned(ptrToIntQT(), 0x2000, 0))

	ref, err := DereferenceOffset(&ptr, intQT(), 0, 0)
	require.NoError(t, err)
	v, err := ref.ReadSigned()
	require.NoError(t, err)
	assert.EqualValues(t, 9, v)
}

func TestAddressOfRequiresReference(t *testing.T) {
	var val Object
	require.NoError(t, val.SetSigned(intQT(), 1, 0))

	_, err := AddressOf(&val, ptrToIntQT())
	assert.Error(t, err)
}

func TestAddressOfOnReference(t *testing.T) {
	mem := &fakeMemory{base: 0x3000, data: []byte{0, 0, 0, 0}}
	var ref Object
	ref.Program = mem
	require.NoError(t, ref.SetReference(intQT(), 0x3000, 0, 0, binary.LittleEndian))

	ptr, err := AddressOf(&ref, ptrToIntQT())
	require.NoError(t, err)
	v, err := ptr.ReadUnsigned()
	require.NoError(t, err)
	assert.EqualValues(t, 0x3000, v)
}

func TestReadCStringStopsAtNul(t *testing.T) {
	mem := &fakeMemory{base: 0x4000, data: []byte("hi\x00garbage")}
	var ptr Object
	ptr.Program = mem
	require.NoError(t, ptr.SetUnsigned(ptrToIntQT(), 0x4000, 0))
	ptr.Type = dtype.QualifiedType{Type: dtype.NewPointer(charQT(), 8)}

	out, err := ReadCString(&ptr, 32)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi\x00"), out)
}

func TestEscapeByteString(t *testing.T) {
	s := EscapeByteString([]byte{'a', '\n', 0x01, '"'})
	assert.Equal(t, `a\n\x01\"`, s)
}
