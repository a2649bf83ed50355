package program

import (
	"debug/dwarf"

	"github.com/Manu343726/drgo/pkg/cexpr"
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
)

// tagsForKind maps a tagged-type kind requested by the C front-end
// ("struct Foo", "union Bar", "enum Baz") to the DWARF tags that can
// satisfy it in the index. A struct lookup also accepts a class tag since
// the index does not distinguish them for C's purposes.
func tagsForKind(k dtype.Kind) []dwarf.Tag {
	switch k {
	case dtype.KindStruct:
		return []dwarf.Tag{dwarf.TagStructType, dwarf.TagClassType}
	case dtype.KindUnion:
		return []dwarf.Tag{dwarf.TagUnionType}
	case dtype.KindEnum:
		return []dwarf.Tag{dwarf.TagEnumerationType}
	default:
		return nil
	}
}

// ResolveTypedef implements cexpr.TypeResolver: it looks name up as a
// DW_TAG_typedef entry and materializes its aliased qualified type through
// the configured DIEResolver, interning the result in the program's arena.
func (p *Program) ResolveTypedef(name string) (dtype.QualifiedType, error) {
	if p.Resolver == nil {
		return dtype.QualifiedType{}, drgerr.New(drgerr.InvalidArgument, "program has no DIE resolver configured")
	}

	entries := p.Index.LookupTag(name, dwarf.TagTypedef)
	if len(entries) == 0 {
		return dtype.QualifiedType{}, drgerr.New(drgerr.Lookup, "no typedef named %q", name)
	}

	t, err := p.Resolver.ResolveType(entries[0].BinaryFile(), entries[0].Offset, p.Arena)
	if err != nil {
		return dtype.QualifiedType{}, err
	}
	return dtype.QualifiedType{Type: t}, nil
}

// ResolveTag implements cexpr.TypeResolver for "struct Foo" / "union Foo" /
// "enum Foo" specifiers: it looks tag up under the DWARF tags compatible
// with kind and materializes the first match.
func (p *Program) ResolveTag(kind dtype.Kind, tag string) (*dtype.Type, error) {
	if p.Resolver == nil {
		return nil, drgerr.New(drgerr.InvalidArgument, "program has no DIE resolver configured")
	}

	tags := tagsForKind(kind)
	if tags == nil {
		return nil, drgerr.New(drgerr.InvalidArgument, "%v is not a taggable kind", kind)
	}

	entries := p.Index.LookupTag(tag, tags...)
	if len(entries) == 0 {
		return nil, drgerr.New(drgerr.Lookup, "no %v tagged %q", kind, tag)
	}
	return p.Resolver.ResolveType(entries[0].BinaryFile(), entries[0].Offset, p.Arena)
}

var _ cexpr.TypeResolver = (*Program)(nil)
