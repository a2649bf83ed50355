// Package dtype is the language-agnostic type layer (spec component C3): it
// materializes type descriptors, implements the qualifier algebra, lazy
// member/parameter resolution, structural equality, size computation and
// pretty-printing. Type descriptors are immutable once constructed and
// interned by an Arena, so readers never need to lock them.
package dtype

import (
	"fmt"

	"github.com/Manu343726/drgo/pkg/drgerr"
)

// Type is the closed sum of type variants described in spec.md §3. Every
// field outside the kind's payload is left zero; accessors that are invalid
// for the kind panic with a programmer-error fault (ErrWrongKind), which is
// distinct from the runtime format errors the rest of the core returns as
// values.
type Type struct {
	kind      Kind
	primitive Primitive

	// integer / bool / float
	name     string
	byteSize int
	signed   bool

	// complex
	complexReal *Type

	// struct / union
	tag      string
	complete bool
	members  []*Member

	// enum
	enumCompatible *Type
	enumSigned     bool
	enumerators    []Enumerator

	// typedef
	typedefName string
	aliased     QualifiedType

	// pointer
	pointee QualifiedType
	ptrSize int

	// array
	element QualifiedType
	length  *int64

	// function
	ret      QualifiedType
	params   []*Parameter
	variadic bool
}

// ErrWrongKind panics are recovered by nothing; this is a programmer error
// (accessing a field invalid for the type's kind), distinct from the
// drgerr.Error values returned for malformed input.
type ErrWrongKind struct {
	Kind   Kind
	Access string
}

func (e *ErrWrongKind) Error() string {
	return fmt.Sprintf("dtype: %s is not valid for kind %v", e.Access, e.Kind)
}

func requireKind(t *Type, access string, kinds ...Kind) {
	for _, k := range kinds {
		if t.kind == k {
			return
		}
	}
	panic(&ErrWrongKind{Kind: t.kind, Access: access})
}

// Kind returns the type's variant.
func (t *Type) Kind() Kind { return t.kind }

// Primitive returns the canonical primitive this type corresponds to, or
// PrimitiveNone.
func (t *Type) Primitive() Primitive { return t.primitive }

// IsComplete reports whether the type has a known size/shape. Void and
// function types are never "complete" in the sizeof sense even though they
// have no incompleteness flag of their own.
func (t *Type) IsComplete() bool {
	switch t.kind {
	case KindStruct, KindUnion:
		return t.complete
	case KindEnum:
		return t.complete
	case KindArray:
		return t.length != nil
	case KindVoid, KindFunction:
		return false
	default:
		return true
	}
}

// Name returns the type's name: the primitive/integer/float/bool name, the
// struct/union/enum tag, or the typedef name.
func (t *Type) Name() string {
	switch t.kind {
	case KindInt, KindBool, KindFloat:
		return t.name
	case KindStruct, KindUnion, KindEnum:
		return t.tag
	case KindTypedef:
		return t.typedefName
	default:
		panic(&ErrWrongKind{Kind: t.kind, Access: "Name"})
	}
}

// Tag returns a struct/union/enum's tag (empty for an anonymous type).
func (t *Type) Tag() string {
	requireKind(t, "Tag", KindStruct, KindUnion, KindEnum)
	return t.tag
}

// Size returns the type's byte size as recorded at construction time. For
// typedef and array it is not necessarily meaningful on its own — use
// Sizeof, which resolves through typedefs and requires completeness.
func (t *Type) Size() int {
	switch t.kind {
	case KindInt, KindBool, KindFloat:
		return t.byteSize
	case KindStruct, KindUnion:
		return t.byteSize
	case KindPointer:
		return t.ptrSize
	default:
		panic(&ErrWrongKind{Kind: t.kind, Access: "Size"})
	}
}

// IsSigned reports the signedness of an integer, enum, or bool type.
func (t *Type) IsSigned() bool {
	switch t.kind {
	case KindInt, KindBool:
		return t.signed
	case KindEnum:
		return t.enumSigned
	default:
		panic(&ErrWrongKind{Kind: t.kind, Access: "IsSigned"})
	}
}

// Length returns an array's element count. Panics if the array is
// incomplete; check IsComplete first.
func (t *Type) Length() int64 {
	requireKind(t, "Length", KindArray)
	if t.length == nil {
		panic(&ErrWrongKind{Kind: t.kind, Access: "Length of incomplete array"})
	}
	return *t.length
}

// Members returns a struct/union's ordered member list (nil/empty if
// incomplete).
func (t *Type) Members() []*Member {
	requireKind(t, "Members", KindStruct, KindUnion)
	return t.members
}

// Enumerators returns an enum's ordered enumerator list.
func (t *Type) Enumerators() []Enumerator {
	requireKind(t, "Enumerators", KindEnum)
	return t.enumerators
}

// Parameters returns a function type's ordered parameter list.
func (t *Type) Parameters() []*Parameter {
	requireKind(t, "Parameters", KindFunction)
	return t.params
}

// IsVariadic reports whether a function type ends in "...".
func (t *Type) IsVariadic() bool {
	requireKind(t, "IsVariadic", KindFunction)
	return t.variadic
}

// Type returns the wrapped type for complex, enum, typedef, pointer, array
// and function kinds (the "inner" type the outer one is built from).
func (t *Type) Type() QualifiedType {
	switch t.kind {
	case KindComplex:
		return QualifiedType{Type: t.complexReal}
	case KindEnum:
		return QualifiedType{Type: t.enumCompatible}
	case KindTypedef:
		return t.aliased
	case KindPointer:
		return t.pointee
	case KindArray:
		return t.element
	case KindFunction:
		return t.ret
	default:
		panic(&ErrWrongKind{Kind: t.kind, Access: "Type"})
	}
}

// Underlying repeatedly unwraps typedef layers and returns the first
// non-typedef type reached. Functions reasoning about numeric semantics must
// operate on the underlying type, not a typedef name.
func Underlying(t *Type) *Type {
	for t.kind == KindTypedef {
		t = t.aliased.Type
	}
	return t
}

// --- constructors ---

// NewVoid returns the singleton-shaped void type descriptor.
func NewVoid() *Type { return &Type{kind: KindVoid} }

// NewInt builds a named integer type.
func NewInt(name string, byteSize int, signed bool, primitive Primitive) *Type {
	return &Type{kind: KindInt, name: name, byteSize: byteSize, signed: signed, primitive: primitive}
}

// NewBool builds a named boolean type.
func NewBool(name string, byteSize int) *Type {
	return &Type{kind: KindBool, name: name, byteSize: byteSize, signed: false, primitive: PrimitiveBool}
}

// NewFloat builds a named floating-point type.
func NewFloat(name string, byteSize int, primitive Primitive) *Type {
	return &Type{kind: KindFloat, name: name, byteSize: byteSize, primitive: primitive}
}

// NewComplex wraps a real floating type as a complex type.
func NewComplex(real *Type) *Type {
	return &Type{kind: KindComplex, complexReal: real}
}

// NewIncompleteRecord builds an incomplete (forward-declared) struct/union:
// empty member list, zero size, per invariant (i) in spec.md §4.3.
func NewIncompleteRecord(kind Kind, tag string) *Type {
	if kind != KindStruct && kind != KindUnion {
		panic("dtype: NewIncompleteRecord requires KindStruct or KindUnion")
	}
	return &Type{kind: kind, tag: tag, complete: false}
}

// NewRecord builds a complete struct/union with a sized member list.
func NewRecord(kind Kind, tag string, byteSize int, members []*Member) *Type {
	if kind != KindStruct && kind != KindUnion {
		panic("dtype: NewRecord requires KindStruct or KindUnion")
	}
	return &Type{kind: kind, tag: tag, byteSize: byteSize, members: members, complete: true}
}

// NewIncompleteEnum builds a forward-declared enum: no compatible integer
// type, no enumerators, per invariant (ii).
func NewIncompleteEnum(tag string) *Type {
	return &Type{kind: KindEnum, tag: tag, complete: false}
}

// NewEnum builds a complete enum with its compatible integer type and
// enumerator list.
func NewEnum(tag string, compatible *Type, signed bool, enumerators []Enumerator) *Type {
	return &Type{kind: KindEnum, tag: tag, enumCompatible: compatible, enumSigned: signed, enumerators: enumerators, complete: true}
}

// NewTypedef builds a typedef aliasing a qualified type.
func NewTypedef(name string, aliased QualifiedType) *Type {
	return &Type{kind: KindTypedef, typedefName: name, aliased: aliased}
}

// NewPointer builds a pointer to a qualified type with the given pointer
// byte size (the target's pointer width; always present per invariant iv).
func NewPointer(pointee QualifiedType, ptrSize int) *Type {
	return &Type{kind: KindPointer, pointee: pointee, ptrSize: ptrSize}
}

// NewCompleteArray builds an array with a known length.
func NewCompleteArray(element QualifiedType, length int64) *Type {
	l := length
	return &Type{kind: KindArray, element: element, length: &l}
}

// NewIncompleteArray builds an array with no known length.
func NewIncompleteArray(element QualifiedType) *Type {
	return &Type{kind: KindArray, element: element, length: nil}
}

// NewFunction builds a function type.
func NewFunction(ret QualifiedType, params []*Parameter, variadic bool) *Type {
	return &Type{kind: KindFunction, ret: ret, params: params, variadic: variadic}
}

// ResolveMember drives a member's lazy type slot.
func ResolveMember(m *Member) (QualifiedType, error) {
	qt, err := m.Type()
	if err != nil {
		return QualifiedType{}, drgerr.Wrap(drgerr.DWARFFormat, err, "failed to resolve type of member %q", m.Name)
	}
	return qt, nil
}

// ResolveParameter drives a parameter's lazy type slot.
func ResolveParameter(p *Parameter) (QualifiedType, error) {
	qt, err := p.Type()
	if err != nil {
		return QualifiedType{}, drgerr.Wrap(drgerr.DWARFFormat, err, "failed to resolve type of parameter %q", p.Name)
	}
	return qt, nil
}
