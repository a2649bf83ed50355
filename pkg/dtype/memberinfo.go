package dtype

import "github.com/Manu343726/drgo/pkg/drgerr"

// MemberInfo searches a struct/union's members by name, recursing into
// unnamed members and accumulating bit offsets along the way. Returns a
// Lookup-kind error if no member matches.
func MemberInfo(t *Type, name string) (qt QualifiedType, bitOffset int64, bitFieldSize int, err error) {
	u := Underlying(t)
	if u.kind != KindStruct && u.kind != KindUnion {
		return QualifiedType{}, 0, 0, drgerr.New(drgerr.Type, "member access on non-struct/union type %v", u.kind)
	}

	qt, bitOffset, bitFieldSize, ok := findMember(u, name)
	if !ok {
		return QualifiedType{}, 0, 0, drgerr.New(drgerr.Lookup, "no member named %q in %v %q", name, u.kind, u.tag)
	}
	return qt, bitOffset, bitFieldSize, nil
}

func findMember(t *Type, name string) (QualifiedType, int64, int, bool) {
	for _, m := range t.members {
		if m.Name == name {
			qt, err := m.Type()
			if err != nil {
				return QualifiedType{}, 0, 0, false
			}
			return qt, m.BitOffset, m.BitFieldSize, true
		}

		if m.Name != "" {
			continue
		}

		// Unnamed member: splice its own members into this scope.
		qt, err := m.Type()
		if err != nil {
			continue
		}
		inner := Underlying(qt.Type)
		if inner.kind != KindStruct && inner.kind != KindUnion {
			continue
		}
		if innerQt, innerOff, innerBF, ok := findMember(inner, name); ok {
			return innerQt, m.BitOffset + innerOff, innerBF, true
		}
	}
	return QualifiedType{}, 0, 0, false
}

// ElementInfo returns the element type and bit size of a pointer or array.
func ElementInfo(t *Type) (qt QualifiedType, bitSize int64, err error) {
	u := Underlying(t)

	var elem QualifiedType
	switch u.kind {
	case KindPointer:
		elem = u.pointee
	case KindArray:
		elem = u.element
	default:
		return QualifiedType{}, 0, drgerr.New(drgerr.Type, "element access on non-pointer/array type %v", u.kind)
	}

	bytes, err := Sizeof(elem.Type)
	if err != nil {
		return QualifiedType{}, 0, err
	}
	return elem, bytes * 8, nil
}
