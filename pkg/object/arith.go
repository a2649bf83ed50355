package object

import (
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"golang.org/x/exp/constraints"
)

// BinaryOp is one of the arithmetic/bitwise binary operators dispatched on
// operand kind. Comparisons are handled separately by Compare.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpAnd
	OpOr
	OpXor
)

// Arith evaluates a signed/unsigned/float binary operator, modular 64-bit
// for integers with explicit truncation to resultQT's width, IEEE-754
// double semantics then re-narrowing for float. Division and modulus by
// zero fail with a zero-division error; shift counts are taken modulo the
// destination width and negative counts fail.
func Arith(op BinaryOp, resultQT dtype.QualifiedType, a, b *Object) (*Object, error) {
	u := dtype.Underlying(resultQT.Type)

	if u.Kind() == dtype.KindFloat {
		return arithFloat(op, resultQT, a, b)
	}

	signed := u.Kind() == dtype.KindInt && u.IsSigned()
	return arithInteger(op, resultQT, a, b, signed)
}

func readOperandUnsigned(o *Object) (uint64, error) {
	switch o.Kind {
	case KindSigned:
		v, err := o.ReadSigned()
		return uint64(v), err
	case KindUnsigned:
		return o.ReadUnsigned()
	default:
		return 0, drgerr.New(drgerr.Type, "arithmetic requires integer operands")
	}
}

func arithInteger(op BinaryOp, resultQT dtype.QualifiedType, a, b *Object, signed bool) (*Object, error) {
	av, err := readOperandUnsigned(a)
	if err != nil {
		return nil, err
	}
	bv, err := readOperandUnsigned(b)
	if err != nil {
		return nil, err
	}

	bits, err := effectiveBitSize(resultQT, 0)
	if err != nil {
		return nil, err
	}

	var result uint64
	switch op {
	case OpAdd:
		result = av + bv
	case OpSub:
		result = av - bv
	case OpMul:
		result = av * bv
	case OpDiv:
		if bv == 0 {
			return nil, drgerr.New(drgerr.ZeroDivision, "division by zero")
		}
		if signed {
			result = uint64(int64(av) / int64(bv))
		} else {
			result = av / bv
		}
	case OpMod:
		if bv == 0 {
			return nil, drgerr.New(drgerr.ZeroDivision, "modulus by zero")
		}
		if signed {
			result = uint64(int64(av) % int64(bv))
		} else {
			result = av % bv
		}
	case OpShl, OpShr:
		count := int64(bv)
		if count < 0 {
			return nil, drgerr.New(drgerr.InvalidArgument, "negative shift count")
		}
		count %= int64(bits)
		if op == OpShl {
			result = av << uint(count)
		} else if signed {
			result = uint64(int64(av) >> uint(count))
		} else {
			result = av >> uint(count)
		}
	case OpAnd:
		result = av & bv
	case OpOr:
		result = av | bv
	case OpXor:
		result = av ^ bv
	default:
		return nil, drgerr.New(drgerr.InvalidArgument, "unknown integer operator")
	}

	dst := &Object{Program: a.Program}
	if signed {
		if err := dst.SetSigned(resultQT, maskSigned(int64(result), bits), 0); err != nil {
			return nil, err
		}
	} else {
		if err := dst.SetUnsigned(resultQT, maskUnsigned(result, bits), 0); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func readOperandFloat(o *Object) (float64, error) {
	switch o.Kind {
	case KindFloat:
		return o.ReadFloat()
	case KindSigned:
		v, err := o.ReadSigned()
		return float64(v), err
	case KindUnsigned:
		v, err := o.ReadUnsigned()
		return float64(v), err
	default:
		return 0, drgerr.New(drgerr.Type, "float arithmetic requires a numeric operand")
	}
}

func arithFloat(op BinaryOp, resultQT dtype.QualifiedType, a, b *Object) (*Object, error) {
	av, err := readOperandFloat(a)
	if err != nil {
		return nil, err
	}
	bv, err := readOperandFloat(b)
	if err != nil {
		return nil, err
	}

	var result float64
	switch op {
	case OpAdd:
		result = av + bv
	case OpSub:
		result = av - bv
	case OpMul:
		result = av * bv
	case OpDiv:
		if bv == 0 {
			return nil, drgerr.New(drgerr.ZeroDivision, "division by zero")
		}
		result = av / bv
	default:
		return nil, drgerr.New(drgerr.InvalidArgument, "operator not valid for floating operands")
	}

	dst := &Object{Program: a.Program}
	if err := dst.SetFloat(resultQT, result); err != nil {
		return nil, err
	}
	return dst, nil
}

// PointerAdd computes ptr + n*elemSize (or ptr - n*elemSize for sub),
// scaled by the pointee's byte size.
func PointerAdd(ptr *Object, n int64, elemSize int64, negate bool) (*Object, error) {
	addr, err := ptr.ReadUnsigned()
	if err != nil {
		return nil, err
	}
	delta := n * elemSize
	if negate {
		delta = -delta
	}
	dst := &Object{Program: ptr.Program}
	if err := dst.SetUnsigned(ptr.Type, uint64(int64(addr)+delta), 0); err != nil {
		return nil, err
	}
	return dst, nil
}

// PointerDiff computes the ptrdiff_t-typed quotient of the byte difference
// between two pointers by the shared element size.
func PointerDiff(resultQT dtype.QualifiedType, a, b *Object, elemSize int64) (*Object, error) {
	if elemSize == 0 {
		return nil, drgerr.New(drgerr.ZeroDivision, "pointer difference with zero-sized element")
	}
	av, err := a.ReadUnsigned()
	if err != nil {
		return nil, err
	}
	bv, err := b.ReadUnsigned()
	if err != nil {
		return nil, err
	}
	diff := (int64(av) - int64(bv)) / elemSize

	dst := &Object{Program: a.Program}
	if err := dst.SetSigned(resultQT, diff, 0); err != nil {
		return nil, err
	}
	return dst, nil
}

// Compare implements cmp(a, b) -> {-1, 0, 1} over already-converted operands
// of the same kind.
func Compare(a, b *Object) (int, error) {
	switch a.Kind {
	case KindSigned:
		av, err := a.ReadSigned()
		if err != nil {
			return 0, err
		}
		bv, err := b.ReadSigned()
		if err != nil {
			return 0, err
		}
		return cmpOrdered(av, bv), nil
	case KindUnsigned:
		av, err := a.ReadUnsigned()
		if err != nil {
			return 0, err
		}
		bv, err := b.ReadUnsigned()
		if err != nil {
			return 0, err
		}
		return cmpOrdered(av, bv), nil
	case KindFloat:
		av, err := a.ReadFloat()
		if err != nil {
			return 0, err
		}
		bv, err := b.ReadFloat()
		if err != nil {
			return 0, err
		}
		return cmpOrdered(av, bv), nil
	default:
		return 0, drgerr.New(drgerr.Type, "comparison requires scalar operands")
	}
}

func cmpOrdered[T constraints.Integer | constraints.Float](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
