package dtype

// Equal reports structural equality: identical kind and all identical
// fields recursively, with members' and parameters' lazy slots forced.
// Reflexive, symmetric and transitive; a typedef is never equal to its
// aliased type (typedef names must match).
//
// Recursive type graphs (a struct whose member points back to the same
// struct) are handled by a per-call set of (a, b) pointer pairs already
// seen: once a pair reappears inside a single comparison, it's assumed
// equal, which is what breaks the cycle.
func Equal(a, b *Type) bool {
	return equalTypes(a, b, map[pairKey]bool{})
}

type pairKey struct {
	a, b *Type
}

func equalTypes(a, b *Type, seen map[pairKey]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	key := pairKey{a, b}
	if seen[key] {
		return true
	}
	seen[key] = true

	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindVoid:
		return true
	case KindInt, KindBool, KindFloat:
		return a.name == b.name && a.byteSize == b.byteSize && a.signed == b.signed && a.primitive == b.primitive
	case KindComplex:
		return equalTypes(a.complexReal, b.complexReal, seen)
	case KindStruct, KindUnion:
		return equalRecords(a, b, seen)
	case KindEnum:
		return equalEnums(a, b, seen)
	case KindTypedef:
		return a.typedefName == b.typedefName && equalQualified(a.aliased, b.aliased, seen)
	case KindPointer:
		return a.ptrSize == b.ptrSize && equalQualified(a.pointee, b.pointee, seen)
	case KindArray:
		if (a.length == nil) != (b.length == nil) {
			return false
		}
		if a.length != nil && *a.length != *b.length {
			return false
		}
		return equalQualified(a.element, b.element, seen)
	case KindFunction:
		return equalFunctions(a, b, seen)
	default:
		return false
	}
}

func equalRecords(a, b *Type, seen map[pairKey]bool) bool {
	if a.tag != b.tag || a.complete != b.complete || a.byteSize != b.byteSize {
		return false
	}
	if len(a.members) != len(b.members) {
		return false
	}
	for i := range a.members {
		ma, mb := a.members[i], b.members[i]
		if ma.Name != mb.Name || ma.BitOffset != mb.BitOffset || ma.BitFieldSize != mb.BitFieldSize {
			return false
		}
		qa, erra := ma.Type()
		qb, errb := mb.Type()
		if erra != nil || errb != nil {
			return false
		}
		if !equalQualified(qa, qb, seen) {
			return false
		}
	}
	return true
}

func equalEnums(a, b *Type, seen map[pairKey]bool) bool {
	if a.tag != b.tag || a.complete != b.complete || a.enumSigned != b.enumSigned {
		return false
	}
	if a.complete && !equalTypes(a.enumCompatible, b.enumCompatible, seen) {
		return false
	}
	if len(a.enumerators) != len(b.enumerators) {
		return false
	}
	for i := range a.enumerators {
		if a.enumerators[i] != b.enumerators[i] {
			return false
		}
	}
	return true
}

func equalFunctions(a, b *Type, seen map[pairKey]bool) bool {
	if a.variadic != b.variadic {
		return false
	}
	if !equalQualified(a.ret, b.ret, seen) {
		return false
	}
	if len(a.params) != len(b.params) {
		return false
	}
	for i := range a.params {
		qa, erra := a.params[i].Type()
		qb, errb := b.params[i].Type()
		if erra != nil || errb != nil {
			return false
		}
		if !equalQualified(qa, qb, seen) {
			return false
		}
	}
	return true
}

func equalQualified(a, b QualifiedType, seen map[pairKey]bool) bool {
	return a.Qualifiers == b.Qualifiers && equalTypes(a.Type, b.Type, seen)
}
