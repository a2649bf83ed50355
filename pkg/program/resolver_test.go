package program

import (
	"debug/dwarf"
	"testing"

	"github.com/Manu343726/drgo/pkg/binfmt"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/dwarfidx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramResolveTypedefLooksUpByTag(t *testing.T) {
	intType := dtype.NewInt("int", 4, true, dtype.PrimitiveInt)
	resolver := &fakeResolver{typ: intType}
	p := New(dwarfidx.IndexAll, resolver, nil)

	f := &binfmt.File{Path: "a.o"}
	p.Index.Open(f)

	entries := p.Index.LookupTag("myint", dwarf.TagTypedef)
	assert.Empty(t, entries)

	qt, err := p.ResolveTypedef("myint")
	assert.Error(t, err, "an unindexed typedef name is a lookup error")
	assert.Equal(t, dtype.QualifiedType{}, qt)
}

func TestProgramResolveTagRejectsUntaggableKind(t *testing.T) {
	p := New(dwarfidx.IndexAll, &fakeResolver{}, nil)
	_, err := p.ResolveTag(dtype.KindInt, "foo")
	require.Error(t, err)
}

func TestProgramResolveTagMissingIsLookupError(t *testing.T) {
	p := New(dwarfidx.IndexAll, &fakeResolver{}, nil)
	_, err := p.ResolveTag(dtype.KindStruct, "nonexistent")
	require.Error(t, err)
}
