package cexpr

import (
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/object"
)

// BinOp is one of the binary operators spec.md §4.5 lists: the four
// arithmetic/bitwise families plus the six comparisons.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinShl
	BinShr
	BinAnd
	BinOr
	BinXor
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

func (op BinOp) isComparison() bool {
	return op >= BinEq
}

func (op BinOp) toArith() object.BinaryOp {
	switch op {
	case BinAdd:
		return object.OpAdd
	case BinSub:
		return object.OpSub
	case BinMul:
		return object.OpMul
	case BinDiv:
		return object.OpDiv
	case BinMod:
		return object.OpMod
	case BinShl:
		return object.OpShl
	case BinShr:
		return object.OpShr
	case BinAnd:
		return object.OpAnd
	case BinOr:
		return object.OpOr
	default:
		return object.OpXor
	}
}

// decay applies C's array-to-pointer and function-to-pointer conversions
// and strips qualifiers, per spec.md §4.5 step (a). A value (non-reference)
// array has no address to decay to and is rejected.
func decay(o *object.Object) (*object.Object, error) {
	u := dtype.Underlying(o.Type.Type)
	switch u.Kind() {
	case dtype.KindArray:
		elem, _, err := dtype.ElementInfo(u)
		if err != nil {
			return nil, err
		}
		ptrQT := dtype.QualifiedType{Type: dtype.NewPointer(elem, ptrSizeBytes)}
		return object.AddressOf(o, ptrQT)
	case dtype.KindFunction:
		ptrQT := dtype.QualifiedType{Type: dtype.NewPointer(dtype.QualifiedType{Type: u}, ptrSizeBytes)}
		return object.AddressOf(o, ptrQT)
	default:
		return o, nil
	}
}

func isPointerKind(t *dtype.Type) bool { return dtype.Underlying(t).Kind() == dtype.KindPointer }

func isArithmeticKind(t *dtype.Type) bool {
	switch dtype.Underlying(t).Kind() {
	case dtype.KindInt, dtype.KindBool, dtype.KindFloat, dtype.KindEnum:
		return true
	default:
		return false
	}
}

func isIntegerKind(t *dtype.Type) bool {
	switch dtype.Underlying(t).Kind() {
	case dtype.KindInt, dtype.KindBool, dtype.KindEnum:
		return true
	default:
		return false
	}
}

// Binary evaluates one of C's binary operators over a and b, after
// decaying both operands, validating operand kinds for the chosen
// operator, and deriving the common real type per spec.md §4.5.
func Binary(op BinOp, a, b *object.Object) (*object.Object, error) {
	a, err := decay(a)
	if err != nil {
		return nil, err
	}
	b, err = decay(b)
	if err != nil {
		return nil, err
	}

	aPtr, bPtr := isPointerKind(a.Type.Type), isPointerKind(b.Type.Type)

	switch {
	case aPtr && bPtr:
		return binaryPointerPointer(op, a, b)
	case aPtr || bPtr:
		return binaryPointerInteger(op, a, b, aPtr)
	}

	if !isArithmeticKind(a.Type.Type) || !isArithmeticKind(b.Type.Type) {
		return nil, drgerr.New(drgerr.Type, "operator requires arithmetic operands")
	}

	if op.isComparison() {
		return compareResult(op, a, b)
	}

	if (op == BinShl || op == BinShr || op == BinAnd || op == BinOr || op == BinXor || op == BinMod) &&
		(!isIntegerKind(a.Type.Type) || !isIntegerKind(b.Type.Type)) {
		return nil, drgerr.New(drgerr.Type, "bitwise/modulus operators require integer operands")
	}

	commonQT, err := UsualArithmeticConversions(a.Type, b.Type)
	if err != nil {
		return nil, err
	}

	ca, err := object.Cast(commonQT, a)
	if err != nil {
		return nil, err
	}
	cb, err := object.Cast(commonQT, b)
	if err != nil {
		return nil, err
	}

	return object.Arith(op.toArith(), commonQT, ca, cb)
}

func binaryPointerPointer(op BinOp, a, b *object.Object) (*object.Object, error) {
	if op == BinSub {
		_, elemBits, err := dtype.ElementInfo(a.Type.Type)
		if err != nil {
			return nil, err
		}
		resultQT := dtype.QualifiedType{Type: primitiveType(dtype.PrimitivePtrdiffT)}
		return object.PointerDiff(resultQT, a, b, elemBits/8)
	}
	if op.isComparison() {
		return compareResult(op, a, b)
	}
	return nil, drgerr.New(drgerr.Type, "operator not valid between two pointers")
}

func binaryPointerInteger(op BinOp, a, b *object.Object, aIsPointer bool) (*object.Object, error) {
	ptr, integer := a, b
	if !aIsPointer {
		ptr, integer = b, a
	}
	if op != BinAdd && op != BinSub {
		return nil, drgerr.New(drgerr.Type, "pointer arithmetic only supports + and -")
	}
	if !isIntegerKind(integer.Type.Type) {
		return nil, drgerr.New(drgerr.Type, "pointer arithmetic requires an integer operand")
	}

	_, elemBits, err := dtype.ElementInfo(ptr.Type.Type)
	if err != nil {
		return nil, err
	}

	n, err := readOperandAsInt64(integer)
	if err != nil {
		return nil, err
	}

	negate := op == BinSub && aIsPointer
	if op == BinSub && !aIsPointer {
		return nil, drgerr.New(drgerr.Type, "cannot subtract a pointer from an integer")
	}
	return object.PointerAdd(ptr, n, elemBits/8, negate)
}

func readOperandAsInt64(o *object.Object) (int64, error) {
	switch o.Kind {
	case object.KindSigned:
		return o.ReadSigned()
	case object.KindUnsigned:
		v, err := o.ReadUnsigned()
		return int64(v), err
	default:
		return 0, drgerr.New(drgerr.Type, "expected an integer operand")
	}
}

func compareResult(op BinOp, a, b *object.Object) (*object.Object, error) {
	c, err := object.Compare(a, b)
	if err != nil {
		return nil, err
	}
	var result bool
	switch op {
	case BinEq:
		result = c == 0
	case BinNe:
		result = c != 0
	case BinLt:
		result = c < 0
	case BinLe:
		result = c <= 0
	case BinGt:
		result = c > 0
	case BinGe:
		result = c >= 0
	default:
		return nil, drgerr.New(drgerr.InvalidArgument, "not a comparison operator")
	}

	dst := &object.Object{Program: a.Program}
	val := uint64(0)
	if result {
		val = 1
	}
	if err := dst.SetSigned(dtype.QualifiedType{Type: primitiveType(dtype.PrimitiveInt)}, int64(val), 0); err != nil {
		return nil, err
	}
	return dst, nil
}

// UnaryOp is one of C's unary arithmetic operators.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
)

// Unary evaluates unary +, -, ~ after promotion; ~ rejects floats.
func Unary(op UnaryOp, a *object.Object) (*object.Object, error) {
	a, err := decay(a)
	if err != nil {
		return nil, err
	}
	if !isArithmeticKind(a.Type.Type) {
		return nil, drgerr.New(drgerr.Type, "unary operator requires an arithmetic operand")
	}
	if op == UnaryNot && !isIntegerKind(a.Type.Type) {
		return nil, drgerr.New(drgerr.Type, "~ requires an integer operand")
	}

	promotedQT, err := Promote(a.Type, 0)
	if err != nil {
		return nil, err
	}
	ca, err := object.Cast(promotedQT, a)
	if err != nil {
		return nil, err
	}

	switch op {
	case UnaryPlus:
		return ca, nil
	case UnaryMinus:
		zero := &object.Object{Program: ca.Program}
		if err := setZero(zero, promotedQT); err != nil {
			return nil, err
		}
		return object.Arith(object.OpSub, promotedQT, zero, ca)
	case UnaryNot:
		allOnes := &object.Object{Program: ca.Program}
		if dtype.Underlying(promotedQT.Type).IsSigned() {
			err = allOnes.SetSigned(promotedQT, -1, 0)
		} else {
			err = allOnes.SetUnsigned(promotedQT, ^uint64(0), 0)
		}
		if err != nil {
			return nil, err
		}
		return object.Arith(object.OpXor, promotedQT, ca, allOnes)
	default:
		return nil, drgerr.New(drgerr.InvalidArgument, "unknown unary operator")
	}
}

func setZero(o *object.Object, qt dtype.QualifiedType) error {
	if dtype.Underlying(qt.Type).Kind() == dtype.KindFloat {
		return o.SetFloat(qt, 0)
	}
	if dtype.Underlying(qt.Type).IsSigned() {
		return o.SetSigned(qt, 0, 0)
	}
	return o.SetUnsigned(qt, 0, 0)
}

// Truthy implements op_bool: arrays are trivially true (a decayed array
// pointer is never null-checked against its own address); every other
// scalar kind defers to the object layer, and aggregates are rejected.
func Truthy(o *object.Object) (bool, error) {
	if dtype.Underlying(o.Type.Type).Kind() == dtype.KindArray {
		return true, nil
	}

	switch o.Kind {
	case object.KindSigned:
		v, err := o.ReadSigned()
		return v != 0, err
	case object.KindUnsigned:
		v, err := o.ReadUnsigned()
		return v != 0, err
	case object.KindFloat:
		v, err := o.ReadFloat()
		return v != 0, err
	default:
		return false, drgerr.New(drgerr.Type, "truthiness requires a scalar type")
	}
}
