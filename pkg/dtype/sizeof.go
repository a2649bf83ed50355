package dtype

import "github.com/Manu343726/drgo/pkg/drgerr"

// Sizeof computes a type's byte size, resolving through typedefs and arrays.
// It fails for void, function, and incomplete types (invariant i: a complete
// type's Sizeof always succeeds and returns a positive value, void/function
// excepted).
func Sizeof(t *Type) (int64, error) {
	u := Underlying(t)

	switch u.kind {
	case KindVoid:
		return 0, drgerr.New(drgerr.Type, "sizeof applied to void")
	case KindFunction:
		return 0, drgerr.New(drgerr.Type, "sizeof applied to a function type")
	case KindInt, KindBool, KindFloat:
		return int64(u.byteSize), nil
	case KindPointer:
		return int64(u.ptrSize), nil
	case KindComplex:
		real, err := Sizeof(u.complexReal)
		if err != nil {
			return 0, err
		}
		return real * 2, nil
	case KindStruct, KindUnion:
		if !u.complete {
			return 0, drgerr.New(drgerr.Type, "sizeof applied to incomplete %v %q", u.kind, u.tag)
		}
		return int64(u.byteSize), nil
	case KindEnum:
		if !u.complete {
			return 0, drgerr.New(drgerr.Type, "sizeof applied to incomplete enum %q", u.tag)
		}
		return Sizeof(u.enumCompatible)
	case KindArray:
		if u.length == nil {
			return 0, drgerr.New(drgerr.Type, "sizeof applied to an incomplete array")
		}
		elemSize, err := Sizeof(u.element.Type)
		if err != nil {
			return 0, err
		}
		return elemSize * *u.length, nil
	default:
		panic(&ErrWrongKind{Kind: u.kind, Access: "Sizeof"})
	}
}
