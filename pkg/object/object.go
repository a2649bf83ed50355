// Package object is the language-agnostic object/value layer (component C4):
// it represents typed values and typed references into a debuggee's memory,
// reads and writes them at bit granularity, and implements the arithmetic,
// casting and composition primitives the C front-end delegates to. Like
// dtype, object carries no language-specific behavior: cexpr supplies C's
// operator semantics on top of these primitives.
package object

import (
	"encoding/binary"

	"github.com/Manu343726/drgo/pkg/dtype"
)

// MemoryReader is the target-memory access contract a reference object reads
// through. A short read is reported as an error, never silently truncated;
// implementations should return a Fault-kind *drgerr.Error for a failed
// address so callers can tell "this address isn't mapped" from "the
// transport broke".
type MemoryReader interface {
	ReadMemory(buf []byte, address uint64, physical bool) error
}

// Kind classifies an object for dispatch, derived from its qualified type at
// construction time.
type Kind int

const (
	KindNone Kind = iota
	KindSigned
	KindUnsigned
	KindFloat
	KindBuffer
	KindIncompleteValue
	KindIncompleteReference
)

func (k Kind) String() string {
	switch k {
	case KindSigned:
		return "signed"
	case KindUnsigned:
		return "unsigned"
	case KindFloat:
		return "float"
	case KindBuffer:
		return "buffer"
	case KindIncompleteValue:
		return "incomplete-value"
	case KindIncompleteReference:
		return "incomplete-reference"
	default:
		return "none"
	}
}

// repr discriminates the two storage shapes an object can have, independent
// of Kind: a reference points into target memory, a value is self-contained
// (inline bytes for small buffers, or an owned byte slice for larger ones).
type repr int

const (
	reprValue repr = iota
	reprReference
)

// Object is the single closed representation for every value the core
// hands around: C scalars, aggregates, and pointers/references into a
// debuggee's address space. Kind is derived from Type at construction and
// never changes except by reconstruction through a setter.
type Object struct {
	Program MemoryReader
	Type    dtype.QualifiedType
	Kind    Kind

	// BitSize is the object's size in bits: usually the type's size, but
	// narrower when the object represents a bit field.
	BitSize int

	repr  repr
	order binary.ByteOrder

	// reference
	address      uint64
	bitOffset    int
	bitFieldSize int

	// value: inline storage for values fitting in 8 bytes + bitOffset<8,
	// otherwise buf holds an owned byte slice.
	inline       uint64
	inlineValid  bool
	buf          []byte
	valBitOffset int
}

func kindForType(t *dtype.Type) Kind {
	u := dtype.Underlying(t)
	switch u.Kind() {
	case dtype.KindVoid:
		return KindNone
	case dtype.KindFunction:
		return KindNone
	case dtype.KindBool:
		return KindUnsigned
	case dtype.KindInt:
		if u.IsSigned() {
			return KindSigned
		}
		return KindUnsigned
	case dtype.KindFloat:
		return KindFloat
	case dtype.KindEnum:
		if !u.IsComplete() {
			return KindIncompleteValue
		}
		if u.IsSigned() {
			return KindSigned
		}
		return KindUnsigned
	case dtype.KindPointer:
		return KindUnsigned
	case dtype.KindStruct, dtype.KindUnion, dtype.KindArray, dtype.KindComplex:
		if !u.IsComplete() {
			return KindIncompleteValue
		}
		return KindBuffer
	default:
		return KindNone
	}
}

// NewVoid builds a kind-none object of the given type, used for function and
// void-typed results that carry no value.
func NewVoid(prog MemoryReader, qt dtype.QualifiedType) *Object {
	return &Object{Program: prog, Type: qt, Kind: KindNone, repr: reprValue}
}
