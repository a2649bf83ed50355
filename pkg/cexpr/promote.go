package cexpr

import (
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
)

// primitiveWidths gives each primitive's byte size on the LP64 data model
// this front-end targets (matching the pointer/long width binfmt assumes
// for x86_64 ELF, per DESIGN.md's relocation-table decision).
var primitiveWidths = map[dtype.Primitive]int{
	dtype.PrimitiveChar:             1,
	dtype.PrimitiveSignedChar:       1,
	dtype.PrimitiveUnsignedChar:     1,
	dtype.PrimitiveShort:            2,
	dtype.PrimitiveUnsignedShort:    2,
	dtype.PrimitiveInt:              4,
	dtype.PrimitiveUnsignedInt:      4,
	dtype.PrimitiveLong:             8,
	dtype.PrimitiveUnsignedLong:     8,
	dtype.PrimitiveLongLong:         8,
	dtype.PrimitiveUnsignedLongLong: 8,
	dtype.PrimitiveBool:             1,
	dtype.PrimitiveFloat:            4,
	dtype.PrimitiveDouble:           8,
	dtype.PrimitiveLongDouble:       16,
	dtype.PrimitiveSizeT:            8,
	dtype.PrimitivePtrdiffT:         8,
}

// primitiveType builds a fresh *dtype.Type for a canonical primitive. Types
// are structurally, not referentially, compared (dtype.Equal), so building
// one on demand rather than interning it through an Arena is safe here; a
// caller that wants arena interning composes this with arena.Intern.
func primitiveType(p dtype.Primitive) *dtype.Type {
	if p == dtype.PrimitiveVoid {
		return dtype.NewVoid()
	}
	if p == dtype.PrimitiveBool {
		return dtype.NewBool(p.String(), primitiveWidths[p])
	}
	if p == dtype.PrimitiveFloat || p == dtype.PrimitiveDouble || p == dtype.PrimitiveLongDouble {
		return dtype.NewFloat(p.String(), primitiveWidths[p], p)
	}
	return dtype.NewInt(p.String(), primitiveWidths[p], p.IsSigned(), p)
}

// integerRank orders integer primitives (and non-standard integer types, by
// width) for the usual arithmetic conversions. Ties across distinct
// primitives of equal width are intentional: spec.md §4.5 says "for
// non-standard integers ranks are derived from width, with ties treated as
// equal rank".
func integerRank(t *dtype.Type) int {
	u := dtype.Underlying(t)
	switch u.Kind() {
	case dtype.KindBool:
		return 1
	case dtype.KindInt, dtype.KindEnum:
		return u.Size() * 2
	default:
		return 0
	}
}

// Promote applies C's integer promotions to qt: anything narrower than int
// (char, short, bool, and any non-standard type whose every value fits in
// int) promotes to int; everything else is unchanged. A bit field
// (bitFieldSize > 0) promotes to int when int can represent all its values,
// to unsigned int when only unsigned int can, and otherwise keeps its
// declared type (the GCC rule, not Clang's always-widen rule).
func Promote(qt dtype.QualifiedType, bitFieldSize int) (dtype.QualifiedType, error) {
	u := dtype.Underlying(qt.Type)

	switch u.Kind() {
	case dtype.KindInt, dtype.KindBool, dtype.KindEnum:
	default:
		return qt, nil
	}

	intWidth := primitiveWidths[dtype.PrimitiveInt]

	if bitFieldSize > 0 {
		intBits := intWidth * 8
		switch {
		case bitFieldSize < intBits || (u.IsSigned() && bitFieldSize == intBits):
			return dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveInt)}, nil
		case bitFieldSize == intBits:
			return dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveUnsignedInt)}, nil
		default:
			return qt, nil // keep the bit field's own width/signedness
		}
	}

	width := u.Size()
	if width > intWidth || (width == intWidth && u.Kind() == dtype.KindInt && !u.IsSigned()) {
		return qt, nil
	}

	return dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveInt)}, nil
}

// UsualArithmeticConversions computes the common real type of two
// already-decayed scalar operands per spec.md §4.5.
func UsualArithmeticConversions(a, b dtype.QualifiedType) (dtype.QualifiedType, error) {
	au, bu := dtype.Underlying(a.Type), dtype.Underlying(b.Type)

	if au.Kind() == dtype.KindFloat || bu.Kind() == dtype.KindFloat {
		return dtype.QualifiedType{Type: widerFloat(au, bu)}, nil
	}

	pa, err := Promote(a, 0)
	if err != nil {
		return dtype.QualifiedType{}, err
	}
	pb, err := Promote(b, 0)
	if err != nil {
		return dtype.QualifiedType{}, err
	}

	ua, ub := dtype.Underlying(pa.Type), dtype.Underlying(pb.Type)
	if ua.Kind() != dtype.KindInt && ua.Kind() != dtype.KindBool && ua.Kind() != dtype.KindEnum {
		return dtype.QualifiedType{}, drgerr.New(drgerr.Type, "usual arithmetic conversions require integer or floating operands")
	}
	if ub.Kind() != dtype.KindInt && ub.Kind() != dtype.KindBool && ub.Kind() != dtype.KindEnum {
		return dtype.QualifiedType{}, drgerr.New(drgerr.Type, "usual arithmetic conversions require integer or floating operands")
	}

	rankA, rankB := integerRank(ua), integerRank(ub)
	signedA, signedB := isSignedIntKind(ua), isSignedIntKind(ub)

	switch {
	case signedA == signedB:
		if rankA >= rankB {
			return pa, nil
		}
		return pb, nil
	case !signedA && rankA >= rankB:
		return pa, nil
	case !signedB && rankB >= rankA:
		return pb, nil
	case signedA && rankA > rankB:
		return pa, nil
	case signedB && rankB > rankA:
		return pb, nil
	default:
		// Equal rank, opposite signs: the signed type loses (it cannot
		// represent every value of the unsigned type at this rank), so the
		// unsigned type's corresponding type wins.
		if signedA {
			return pb, nil
		}
		return pa, nil
	}
}

func isSignedIntKind(u *dtype.Type) bool {
	switch u.Kind() {
	case dtype.KindBool:
		return false
	case dtype.KindInt, dtype.KindEnum:
		return u.IsSigned()
	default:
		return false
	}
}

// widerFloat picks the wider of two floating types, in canonical order
// long double > double > float; a non-float operand loses outright.
func widerFloat(a, b *dtype.Type) *dtype.Type {
	rank := func(t *dtype.Type) int {
		if t.Kind() != dtype.KindFloat {
			return -1
		}
		switch t.Primitive() {
		case dtype.PrimitiveLongDouble:
			return 3
		case dtype.PrimitiveDouble:
			return 2
		case dtype.PrimitiveFloat:
			return 1
		default:
			return t.Size()
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}
