// DIE materialization: the DIEResolver contract promises the core opens the
// full DWARF debug-information entry structure only at use time (spec.md
// §6). DwarfResolver is the stdlib-backed implementation of that contract:
// it walks debug/dwarf.Entry trees on demand and turns them into dtype
// descriptors and object references, without evaluating DWARF location
// expressions beyond the single fixed-address case spec.md §1 carves out
// for a stack-trace facade (DW_OP_addr). Anything requiring a live frame's
// register file or CFI is left to the external Unwinder collaborator.
package program

import (
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"

	"github.com/Manu343726/drgo/pkg/binfmt"
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/object"
)

// DWARF base-type encodings (DW_ATE_*); debug/dwarf keeps these
// unexported, so the values are reproduced here from the DWARF5 spec table
// 7.11.
const (
	dwATEAddress      = 0x01
	dwATEBoolean      = 0x02
	dwATEComplexFloat = 0x03
	dwATEFloat        = 0x04
	dwATESigned       = 0x05
	dwATESignedChar   = 0x06
	dwATEUnsigned     = 0x07
	dwATEUnsignedChar = 0x08
)

// dwOpAddr is DW_OP_addr: a single opcode byte followed by one
// target-address-width operand naming a fixed location, the only location
// expression this resolver evaluates itself (spec.md §1/§6).
const dwOpAddr = 0x03

// DwarfResolver is a DIEResolver grounded on the standard library's
// debug/dwarf entry reader layered over binfmt's relocated sections.
type DwarfResolver struct{}

type dieKey struct {
	file   *binfmt.File
	offset uint32
}

// ResolveType implements DIEResolver.
func (DwarfResolver) ResolveType(f *binfmt.File, offset uint32, arena *dtype.Arena) (*dtype.Type, error) {
	qt, err := resolveQualified(f, offset, arena)
	if err != nil {
		return nil, err
	}
	return qt.Type, nil
}

// ResolveObject implements DIEResolver: it materializes a variable or
// function DIE's qualified type and, for a variable whose DW_AT_location
// is the single-opcode DW_OP_addr form, a reference object bound to that
// fixed address. Any other location expression shape (register-relative,
// frame-base-relative, a loclist) is left unresolved: ResolveObject returns
// a kind-none value rather than attempting CFI-dependent evaluation, which
// is the external Unwinder's job.
func (DwarfResolver) ResolveObject(f *binfmt.File, offset uint32, prog *Program) (*object.Object, error) {
	d, err := f.DWARF()
	if err != nil {
		return nil, err
	}
	r := d.Reader()
	r.Seek(dwarf.Offset(offset))
	entry, err := r.Next()
	if err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to read DIE at offset %d", f.Path, offset)
	}
	if entry == nil {
		return nil, drgerr.New(drgerr.DWARFFormat, "%q: no DIE at offset %d", f.Path, offset)
	}

	typeOff, ok := refAttr(entry, dwarf.AttrType)
	var qt dtype.QualifiedType
	if ok {
		qt, err = resolveQualified(f, uint32(typeOff), prog.Arena)
		if err != nil {
			return nil, err
		}
	} else {
		qt = dtype.QualifiedType{Type: dtype.NewVoid()}
	}

	loc, ok := entry.Val(dwarf.AttrLocation).([]byte)
	if !ok || len(loc) < 1 || loc[0] != dwOpAddr {
		return object.NewVoid(prog, qt), nil
	}

	order := byteOrderOf(f)
	addrWidth := 8
	if len(loc) < 1+addrWidth {
		return object.NewVoid(prog, qt), nil
	}
	address := order.Uint64(loc[1 : 1+addrWidth])

	obj := object.NewVoid(prog, qt)
	if err := obj.SetReference(qt, address, 0, 0, order); err != nil {
		return nil, err
	}
	return obj, nil
}

func byteOrderOf(f *binfmt.File) binary.ByteOrder {
	if f.Order == elf.ELFDATA2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// resolveQualified materializes the qualified type at offset, unwrapping
// any chain of const/volatile/restrict/_Atomic qualifier DIEs and folding
// their qualifiers together, per spec.md §3's "qualified type is a pair"
// model: DWARF represents each qualifier as its own wrapper DIE, but the
// type layer represents the whole chain as one (type, qualifier-bitmask)
// pair.
func resolveQualified(f *binfmt.File, offset uint32, arena *dtype.Arena) (dtype.QualifiedType, error) {
	d, err := f.DWARF()
	if err != nil {
		return dtype.QualifiedType{}, err
	}

	quals := dtype.QualNone
	cur := offset
	for {
		r := d.Reader()
		r.Seek(dwarf.Offset(cur))
		entry, err := r.Next()
		if err != nil {
			return dtype.QualifiedType{}, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to read DIE at offset %d", f.Path, cur)
		}
		if entry == nil {
			return dtype.QualifiedType{}, drgerr.New(drgerr.DWARFFormat, "%q: no DIE at offset %d", f.Path, cur)
		}

		var q dtype.Qualifiers
		switch entry.Tag {
		case dwarf.TagConstType:
			q = dtype.QualConst
		case dwarf.TagVolatileType:
			q = dtype.QualVolatile
		case dwarf.TagRestrictType:
			q = dtype.QualRestrict
		case dwarf.TagAtomicType:
			q = dtype.QualAtomic
		default:
			t, err := materializeType(f, d, entry, arena)
			if err != nil {
				return dtype.QualifiedType{}, err
			}
			return dtype.QualifiedType{Type: t, Qualifiers: quals}, nil
		}

		quals |= q
		inner, ok := refAttr(entry, dwarf.AttrType)
		if !ok {
			// A qualifier with no inner type qualifies void (e.g. "const void *").
			return dtype.QualifiedType{Type: dtype.NewVoid(), Qualifiers: quals}, nil
		}
		cur = uint32(inner)
	}
}

// refAttr reads a reference-class attribute (one naming another DIE by
// .debug_info offset) off entry, reporting whether it was present.
func refAttr(entry *dwarf.Entry, attr dwarf.Attr) (dwarf.Offset, bool) {
	v, ok := entry.Val(attr).(dwarf.Offset)
	return v, ok
}

func strAttr(entry *dwarf.Entry, attr dwarf.Attr) string {
	s, _ := entry.Val(attr).(string)
	return s
}

func intAttr(entry *dwarf.Entry, attr dwarf.Attr) (int64, bool) {
	switch v := entry.Val(attr).(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}

func boolAttr(entry *dwarf.Entry, attr dwarf.Attr) bool {
	b, _ := entry.Val(attr).(bool)
	return b
}

// materializeType builds the unqualified dtype.Type for a non-qualifier
// DIE, interning by (file, offset) so repeated resolutions of the same DIE
// return the identical descriptor (spec.md §3 "Lifecycle": types are
// interned by structural identity within the enclosing program).
func materializeType(f *binfmt.File, d *dwarf.Data, entry *dwarf.Entry, arena *dtype.Arena) (*dtype.Type, error) {
	key := dieKey{file: f, offset: uint32(entry.Offset)}
	if t, ok := arena.Lookup(key); ok {
		return t, nil
	}

	switch entry.Tag {
	case dwarf.TagBaseType:
		return internBaseType(arena, key, entry), nil

	case dwarf.TagPointerType:
		ptrSize, _ := intAttr(entry, dwarf.AttrByteSize)
		if ptrSize == 0 {
			ptrSize = 8
		}
		// Placeholder breaks pointer cycles (e.g. a linked-list node whose
		// member points back to the struct that contains the pointer);
		// genuinely resolving the pointee happens lazily through the
		// member's thunk, not here, so no cycle exists for a bare pointer
		// DIE itself. Still resolve eagerly: a pointer's pointee isn't a
		// lazy slot in dtype's model (only members/parameters are).
		var pointee dtype.QualifiedType
		if off, ok := refAttr(entry, dwarf.AttrType); ok {
			var err error
			pointee, err = resolveQualified(f, uint32(off), arena)
			if err != nil {
				return nil, err
			}
		} else {
			pointee = dtype.QualifiedType{Type: dtype.NewVoid()}
		}
		t := dtype.NewPointer(pointee, int(ptrSize))
		arena.Intern(key, func() *dtype.Type { return t })
		return t, nil

	case dwarf.TagStructType, dwarf.TagUnionType:
		return materializeRecord(f, d, entry, arena, key)

	case dwarf.TagEnumerationType:
		return materializeEnum(f, d, entry, arena, key)

	case dwarf.TagTypedef:
		name := strAttr(entry, dwarf.AttrName)
		var aliased dtype.QualifiedType
		if off, ok := refAttr(entry, dwarf.AttrType); ok {
			var err error
			aliased, err = resolveQualified(f, uint32(off), arena)
			if err != nil {
				return nil, err
			}
		} else {
			aliased = dtype.QualifiedType{Type: dtype.NewVoid()}
		}
		t := dtype.NewTypedef(name, aliased)
		arena.Intern(key, func() *dtype.Type { return t })
		return t, nil

	case dwarf.TagArrayType:
		return materializeArray(f, d, entry, arena, key)

	case dwarf.TagSubroutineType, dwarf.TagSubprogram:
		return materializeFunction(f, d, entry, arena, key)

	default:
		return nil, drgerr.New(drgerr.DWARFFormat, "%q: unsupported type DIE tag %v at offset %d", f.Path, entry.Tag, entry.Offset)
	}
}

func internBaseType(arena *dtype.Arena, key dieKey, entry *dwarf.Entry) *dtype.Type {
	name := strAttr(entry, dwarf.AttrName)
	byteSize, _ := intAttr(entry, dwarf.AttrByteSize)
	enc, _ := intAttr(entry, dwarf.AttrEncoding)

	return arena.Intern(key, func() *dtype.Type {
		switch enc {
		case dwATEBoolean:
			return dtype.NewBool(name, int(byteSize))
		case dwATEFloat, dwATEComplexFloat:
			t := dtype.NewFloat(name, int(byteSize), primitiveForFloat(byteSize))
			if enc == dwATEComplexFloat {
				return dtype.NewComplex(t)
			}
			return t
		case dwATESigned, dwATESignedChar:
			return dtype.NewInt(name, int(byteSize), true, primitiveForInt(name, byteSize, true))
		default:
			return dtype.NewInt(name, int(byteSize), false, primitiveForInt(name, byteSize, false))
		}
	})
}

func primitiveForFloat(byteSize int64) dtype.Primitive {
	switch byteSize {
	case 4:
		return dtype.PrimitiveFloat
	case 8:
		return dtype.PrimitiveDouble
	default:
		return dtype.PrimitiveLongDouble
	}
}

func primitiveForInt(name string, byteSize int64, signed bool) dtype.Primitive {
	switch name {
	case "size_t":
		return dtype.PrimitiveSizeT
	case "ptrdiff_t":
		return dtype.PrimitivePtrdiffT
	}
	switch byteSize {
	case 1:
		if signed {
			return dtype.PrimitiveSignedChar
		}
		return dtype.PrimitiveUnsignedChar
	case 2:
		if signed {
			return dtype.PrimitiveShort
		}
		return dtype.PrimitiveUnsignedShort
	case 4:
		if signed {
			return dtype.PrimitiveInt
		}
		return dtype.PrimitiveUnsignedInt
	case 8:
		if signed {
			return dtype.PrimitiveLong
		}
		return dtype.PrimitiveUnsignedLong
	default:
		return dtype.PrimitiveNone
	}
}

func materializeRecord(f *binfmt.File, d *dwarf.Data, entry *dwarf.Entry, arena *dtype.Arena, key dieKey) (*dtype.Type, error) {
	kind := dtype.KindStruct
	if entry.Tag == dwarf.TagUnionType {
		kind = dtype.KindUnion
	}
	tag := strAttr(entry, dwarf.AttrName)

	if boolAttr(entry, dwarf.AttrDeclaration) {
		t := dtype.NewIncompleteRecord(kind, tag)
		arena.Intern(key, func() *dtype.Type { return t })
		return t, nil
	}

	byteSize, _ := intAttr(entry, dwarf.AttrByteSize)

	// The placeholder is interned before members are built so a member
	// whose type is (directly or transitively) this same struct sees the
	// handle that's about to be filled in, not an infinite recursion
	// (spec.md §9 "Cyclic type graphs").
	t := dtype.NewRecord(kind, tag, int(byteSize), nil)
	arena.Intern(key, func() *dtype.Type { return t })

	r := d.Reader()
	r.Seek(entry.Offset)
	if _, err := r.Next(); err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to re-read struct/union DIE", f.Path)
	}

	var members []*dtype.Member
	for {
		child, err := r.Next()
		if err != nil {
			return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to walk struct/union children", f.Path)
		}
		if child == nil || child.Tag == 0 {
			break
		}
		if child.Tag != dwarf.TagMember {
			r.SkipChildren()
			continue
		}

		name := strAttr(child, dwarf.AttrName)
		byteOff, _ := intAttr(child, dwarf.AttrDataMemberLoc)
		bitSize, _ := intAttr(child, dwarf.AttrBitSize)

		memberTypeOff, _ := refAttr(child, dwarf.AttrType)
		thunk := dtype.NewLazyType(func() (dtype.QualifiedType, error) {
			return resolveQualified(f, uint32(memberTypeOff), arena)
		})
		members = append(members, dtype.NewMember(name, byteOff*8, int(bitSize), thunk))
	}

	*t = *dtype.NewRecord(kind, tag, int(byteSize), members)
	return t, nil
}

func materializeEnum(f *binfmt.File, d *dwarf.Data, entry *dwarf.Entry, arena *dtype.Arena, key dieKey) (*dtype.Type, error) {
	tag := strAttr(entry, dwarf.AttrName)

	if boolAttr(entry, dwarf.AttrDeclaration) {
		t := dtype.NewIncompleteEnum(tag)
		arena.Intern(key, func() *dtype.Type { return t })
		return t, nil
	}

	compatible := dtype.NewInt("unsigned int", 4, false, dtype.PrimitiveUnsignedInt)
	signed := false
	if off, ok := refAttr(entry, dwarf.AttrType); ok {
		qt, err := resolveQualified(f, uint32(off), arena)
		if err != nil {
			return nil, err
		}
		compatible = qt.Type
		signed = dtype.Underlying(compatible).IsSigned()
	}

	r := d.Reader()
	r.Seek(entry.Offset)
	if _, err := r.Next(); err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to re-read enum DIE", f.Path)
	}

	var enumerators []dtype.Enumerator
	for {
		child, err := r.Next()
		if err != nil {
			return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to walk enum children", f.Path)
		}
		if child == nil || child.Tag == 0 {
			break
		}
		if child.Tag != dwarf.TagEnumerator {
			r.SkipChildren()
			continue
		}
		name := strAttr(child, dwarf.AttrName)
		val, _ := intAttr(child, dwarf.AttrConstValue)
		enumerators = append(enumerators, dtype.Enumerator{Name: name, Value: uint64(val)})
	}

	t := dtype.NewEnum(tag, compatible, signed, enumerators)
	arena.Intern(key, func() *dtype.Type { return t })
	return t, nil
}

func materializeArray(f *binfmt.File, d *dwarf.Data, entry *dwarf.Entry, arena *dtype.Arena, key dieKey) (*dtype.Type, error) {
	var element dtype.QualifiedType
	if off, ok := refAttr(entry, dwarf.AttrType); ok {
		var err error
		element, err = resolveQualified(f, uint32(off), arena)
		if err != nil {
			return nil, err
		}
	} else {
		element = dtype.QualifiedType{Type: dtype.NewVoid()}
	}

	r := d.Reader()
	r.Seek(entry.Offset)
	if _, err := r.Next(); err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to re-read array DIE", f.Path)
	}

	length := int64(-1)
	for {
		child, err := r.Next()
		if err != nil {
			return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to walk array children", f.Path)
		}
		if child == nil || child.Tag == 0 {
			break
		}
		if child.Tag != dwarf.TagSubrangeType {
			r.SkipChildren()
			continue
		}
		if count, ok := intAttr(child, dwarf.AttrCount); ok {
			length = count
		} else if upper, ok := intAttr(child, dwarf.AttrUpperBound); ok {
			length = upper + 1
		}
	}

	var t *dtype.Type
	if length >= 0 {
		t = dtype.NewCompleteArray(element, length)
	} else {
		t = dtype.NewIncompleteArray(element)
	}
	arena.Intern(key, func() *dtype.Type { return t })
	return t, nil
}

func materializeFunction(f *binfmt.File, d *dwarf.Data, entry *dwarf.Entry, arena *dtype.Arena, key dieKey) (*dtype.Type, error) {
	var ret dtype.QualifiedType
	if off, ok := refAttr(entry, dwarf.AttrType); ok {
		var err error
		ret, err = resolveQualified(f, uint32(off), arena)
		if err != nil {
			return nil, err
		}
	} else {
		ret = dtype.QualifiedType{Type: dtype.NewVoid()}
	}

	r := d.Reader()
	r.Seek(entry.Offset)
	if _, err := r.Next(); err != nil {
		return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to re-read function DIE", f.Path)
	}

	var params []*dtype.Parameter
	variadic := false
	for {
		child, err := r.Next()
		if err != nil {
			return nil, drgerr.Wrap(drgerr.DWARFFormat, err, "%q: failed to walk function children", f.Path)
		}
		if child == nil || child.Tag == 0 {
			break
		}
		switch child.Tag {
		case dwarf.TagFormalParameter:
			name := strAttr(child, dwarf.AttrName)
			paramTypeOff, _ := refAttr(child, dwarf.AttrType)
			thunk := dtype.NewLazyType(func() (dtype.QualifiedType, error) {
				return resolveQualified(f, uint32(paramTypeOff), arena)
			})
			params = append(params, dtype.NewParameter(name, thunk))
		case dwarf.TagUnspecifiedParameters:
			variadic = true
		default:
			r.SkipChildren()
		}
	}

	t := dtype.NewFunction(ret, params, variadic)
	arena.Intern(key, func() *dtype.Type { return t })
	return t, nil
}

var _ DIEResolver = DwarfResolver{}
