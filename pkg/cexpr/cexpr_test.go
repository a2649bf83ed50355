package cexpr

import (
	"encoding/binary"
	"testing"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerTokensAndKeywords(t *testing.T) {
	l := NewLexer("const char * volatile *")
	var kinds []TokenKind
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == TokEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{TokKeyword, TokKeyword, TokPunct, TokKeyword, TokPunct}, kinds)
}

func TestLexerNumbers(t *testing.T) {
	cases := map[string]uint64{
		"123":   123,
		"0x7b":  123,
		"0173":  123,
		"0":     0,
		"0x0":   0,
		"10ull": 10,
	}
	for text, want := range cases {
		l := NewLexer(text)
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, TokNumber, tok.Kind)
		assert.Equal(t, want, tok.Number, "parsing %q", text)
	}
}

func TestLexerRejectsInvalidCharacter(t *testing.T) {
	l := NewLexer("@")
	_, err := l.Next()
	assert.Error(t, err)
}

func TestSpecifierStateResolvesUnsignedLongLongInt(t *testing.T) {
	s := newSpecifierState()
	for _, kw := range []Keyword{KwUnsigned, KwLong, KwLong, KwInt} {
		require.NoError(t, s.feed(kw))
	}
	prim, err := s.resolve()
	require.NoError(t, err)
	assert.Equal(t, dtype.PrimitiveUnsignedLongLong, prim)
}

func TestSpecifierStateRejectsShortDouble(t *testing.T) {
	s := newSpecifierState()
	require.NoError(t, s.feed(KwShort))
	assert.Error(t, s.feed(KwDouble))
}

func TestSpecifierStateBareLongIsLongInt(t *testing.T) {
	s := newSpecifierState()
	require.NoError(t, s.feed(KwLong))
	prim, err := s.resolve()
	require.NoError(t, err)
	assert.Equal(t, dtype.PrimitiveLong, prim)
}

func TestParseTypeNamePlainPrimitive(t *testing.T) {
	p, err := NewParser("unsigned long long int", nil)
	require.NoError(t, err)
	qt, err := p.ParseTypeName()
	require.NoError(t, err)
	assert.Equal(t, dtype.PrimitiveUnsignedLongLong, qt.Type.Primitive())
}

func TestParseTypeNamePointerToVolatilePointerToConstChar(t *testing.T) {
	p, err := NewParser("const char * volatile *", nil)
	require.NoError(t, err)
	qt, err := p.ParseTypeName()
	require.NoError(t, err)

	require.Equal(t, dtype.KindPointer, qt.Type.Kind())
	inner := qt.Type.Type()
	require.Equal(t, dtype.KindPointer, inner.Type.Kind())
	assert.True(t, inner.Qualifiers.Volatile())
	constChar := inner.Type.Type()
	assert.True(t, constChar.Qualifiers.Const())
	assert.Equal(t, dtype.PrimitiveChar, constChar.Type.Primitive())
}

func TestParseTypeNameArray(t *testing.T) {
	p, err := NewParser("int[3]", nil)
	require.NoError(t, err)
	qt, err := p.ParseTypeName()
	require.NoError(t, err)
	require.Equal(t, dtype.KindArray, qt.Type.Kind())
	assert.Equal(t, int64(3), qt.Type.Length())
}

func TestParseTypeNameRejectsFunctionPointer(t *testing.T) {
	p, err := NewParser("int(*)(int)", nil)
	require.NoError(t, err)
	_, err = p.ParseTypeName()
	assert.Error(t, err)
}

func TestParseMemberDesignator(t *testing.T) {
	p, err := NewParser(".a[2].b", nil)
	require.NoError(t, err)
	steps, err := p.ParseMemberDesignator()
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "a", steps[0].Name)
	assert.True(t, steps[1].IsIndex)
	assert.Equal(t, uint64(2), steps[1].Index)
	assert.Equal(t, "b", steps[2].Name)
}

func TestUsualArithmeticConversionsIntAndUnsignedLong(t *testing.T) {
	intQT := dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveInt)}
	ulongQT := dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveUnsignedLong)}
	common, err := UsualArithmeticConversions(intQT, ulongQT)
	require.NoError(t, err)
	assert.Equal(t, dtype.PrimitiveUnsignedLong, common.Type.Primitive())
}

func TestUsualArithmeticConversionsFloatWins(t *testing.T) {
	intQT := dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveInt)}
	doubleQT := dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveDouble)}
	common, err := UsualArithmeticConversions(intQT, doubleQT)
	require.NoError(t, err)
	assert.Equal(t, dtype.PrimitiveDouble, common.Type.Primitive())
}

func TestPromoteCharToInt(t *testing.T) {
	charQT := dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveChar)}
	promoted, err := Promote(charQT, 0)
	require.NoError(t, err)
	assert.Equal(t, dtype.PrimitiveInt, promoted.Type.Primitive())
}

func newSignedObject(value int64, prim dtype.Primitive) *object.Object {
	o := &object.Object{}
	_ = o.SetSigned(dtype.QualifiedType{Type: primitiveType(prim)}, value, 0)
	return o
}

func newUnsignedObject(value uint64, prim dtype.Primitive) *object.Object {
	o := &object.Object{}
	_ = o.SetUnsigned(dtype.QualifiedType{Type: primitiveType(prim)}, value, 0)
	return o
}

func TestBinaryAddIntAndInt(t *testing.T) {
	a := newSignedObject(2, dtype.PrimitiveInt)
	b := newSignedObject(3, dtype.PrimitiveInt)
	result, err := Binary(BinAdd, a, b)
	require.NoError(t, err)
	v, err := result.ReadSigned()
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestBinaryDivisionByZero(t *testing.T) {
	a := newSignedObject(1, dtype.PrimitiveInt)
	b := newSignedObject(0, dtype.PrimitiveInt)
	_, err := Binary(BinDiv, a, b)
	assert.Error(t, err)
}

func TestBinaryComparison(t *testing.T) {
	a := newSignedObject(1, dtype.PrimitiveInt)
	b := newSignedObject(2, dtype.PrimitiveInt)
	result, err := Binary(BinLt, a, b)
	require.NoError(t, err)
	v, err := result.ReadSigned()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestUnaryMinus(t *testing.T) {
	a := newSignedObject(5, dtype.PrimitiveInt)
	result, err := Unary(UnaryMinus, a)
	require.NoError(t, err)
	v, err := result.ReadSigned()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v)
}

func TestUnaryNotRejectsFloat(t *testing.T) {
	o := &object.Object{}
	require.NoError(t, o.SetFloat(dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveDouble)}, 1.5))
	_, err := Unary(UnaryNot, o)
	assert.Error(t, err)
}

func TestTruthyNonZero(t *testing.T) {
	o := newUnsignedObject(7, dtype.PrimitiveUnsignedInt)
	b, err := Truthy(o)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestResolveDesignatorStructMember(t *testing.T) {
	charQT := dtype.QualifiedType{Type: dtype.NewInt("char", 1, true, dtype.PrimitiveChar)}
	intQT := dtype.QualifiedType{Type: dtype.NewInt("int", 4, true, dtype.PrimitiveInt)}
	members := []*dtype.Member{
		dtype.NewMember("a", 0, 0, dtype.Resolved(intQT)),
		dtype.NewMember("b", 32, 3, dtype.Resolved(charQT)),
		dtype.NewMember("c", 40, 5, dtype.Resolved(charQT)),
	}
	s := dtype.NewRecord(dtype.KindStruct, "S", 8, members)

	steps := []DesignatorStep{{Name: "c"}}
	qt, bitOffset, err := ResolveDesignator(dtype.QualifiedType{Type: s}, steps)
	require.NoError(t, err)
	assert.Equal(t, int64(40), bitOffset)
	assert.Equal(t, dtype.PrimitiveChar, qt.Type.Primitive())
}

func TestPrintDeclarationPointerToArray(t *testing.T) {
	intQT := dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveInt)}
	arr := dtype.QualifiedType{Type: dtype.NewCompleteArray(intQT, 3)}
	ptr := dtype.QualifiedType{Type: dtype.NewPointer(arr, 8)}

	decl, err := Printer{}.Declaration(ptr, "p")
	require.NoError(t, err)
	assert.Equal(t, "int (*p)[3]", decl)
}

func TestPrintValueArrayOneLine(t *testing.T) {
	intQT := dtype.QualifiedType{Type: dtype.NewInt("int", 4, true, dtype.PrimitiveInt)}
	arrType := dtype.NewCompleteArray(intQT, 3)

	buf := []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}
	o := &object.Object{}
	require.NoError(t, o.SetBuffer(dtype.QualifiedType{Type: arrType}, buf, 0, 0, binary.LittleEndian))

	s, err := PrintValue(o, 80)
	require.NoError(t, err)
	assert.Equal(t, "(int [3]){ 1, 2, 3 }", s)
}

// faultingMemory faults reading the one address range listed in badAt,
// serving every other address out of data.
type faultingMemory struct {
	base  uint64
	data  []byte
	badAt uint64
}

func (m *faultingMemory) ReadMemory(buf []byte, address uint64, physical bool) error {
	if address == m.badAt {
		return drgerr.Faultf(address, "no such page")
	}
	off := address - m.base
	copy(buf, m.data[off:off+uint64(len(buf))])
	return nil
}

func TestPrintValueArrayFaultingElementIsNonFatal(t *testing.T) {
	intQT := dtype.QualifiedType{Type: dtype.NewInt("int", 4, true, dtype.PrimitiveInt)}
	arrType := dtype.NewCompleteArray(intQT, 3)

	mem := &faultingMemory{base: 0x1000, data: []byte{1, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0}, badAt: 0x1004}
	o := &object.Object{Program: mem}
	require.NoError(t, o.SetReference(dtype.QualifiedType{Type: arrType}, 0x1000, 0, 0, binary.LittleEndian))

	s, err := PrintValue(o, 80)
	require.Error(t, err, "a faulting element is reported, not swallowed")
	assert.Equal(t, "(int [3]){ 1, <fault: no such page>, 3 }", s)
}
