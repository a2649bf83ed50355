package dtype

// Kind is the closed sum of type variants. Implementations reject "other
// kinds" at the match boundary with a programmer-error panic (ErrWrongKind),
// not a runtime format error — accessing a field that doesn't exist for a
// kind is caller misuse, not a malformed binary.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindBool
	KindFloat
	KindComplex
	KindStruct
	KindUnion
	KindEnum
	KindTypedef
	KindPointer
	KindArray
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindTypedef:
		return "typedef"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Primitive enumerates the canonical C types used for integer-literal typing
// and promotion rules. PrimitiveNone means "no canonical primitive" (e.g. a
// struct, or a typedef that isn't one of the hard-coded names).
type Primitive int

const (
	PrimitiveNone Primitive = iota
	PrimitiveVoid
	PrimitiveChar
	PrimitiveSignedChar
	PrimitiveUnsignedChar
	PrimitiveShort
	PrimitiveUnsignedShort
	PrimitiveInt
	PrimitiveUnsignedInt
	PrimitiveLong
	PrimitiveUnsignedLong
	PrimitiveLongLong
	PrimitiveUnsignedLongLong
	PrimitiveBool
	PrimitiveFloat
	PrimitiveDouble
	PrimitiveLongDouble
	PrimitiveSizeT
	PrimitivePtrdiffT
)

var primitiveNames = map[Primitive]string{
	PrimitiveVoid:             "void",
	PrimitiveChar:             "char",
	PrimitiveSignedChar:       "signed char",
	PrimitiveUnsignedChar:     "unsigned char",
	PrimitiveShort:            "short",
	PrimitiveUnsignedShort:    "unsigned short",
	PrimitiveInt:              "int",
	PrimitiveUnsignedInt:      "unsigned int",
	PrimitiveLong:             "long",
	PrimitiveUnsignedLong:     "unsigned long",
	PrimitiveLongLong:         "long long",
	PrimitiveUnsignedLongLong: "unsigned long long",
	PrimitiveBool:             "_Bool",
	PrimitiveFloat:            "float",
	PrimitiveDouble:           "double",
	PrimitiveLongDouble:       "long double",
	PrimitiveSizeT:            "size_t",
	PrimitivePtrdiffT:         "ptrdiff_t",
}

func (p Primitive) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return "<none>"
}

// IsSigned reports the natural signedness of a primitive integer type.
// Panics for non-integer primitives; callers are expected to have already
// discriminated on kind.
func (p Primitive) IsSigned() bool {
	switch p {
	case PrimitiveChar, PrimitiveSignedChar, PrimitiveShort, PrimitiveInt,
		PrimitiveLong, PrimitiveLongLong, PrimitivePtrdiffT:
		return true
	case PrimitiveUnsignedChar, PrimitiveUnsignedShort, PrimitiveUnsignedInt,
		PrimitiveUnsignedLong, PrimitiveUnsignedLongLong, PrimitiveSizeT, PrimitiveBool:
		return false
	default:
		panic("dtype: IsSigned called on a non-integer primitive")
	}
}
