package program

import (
	"testing"

	"github.com/Manu343726/drgo/pkg/binfmt"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/dwarfidx"
	"github.com/Manu343726/drgo/pkg/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemory struct {
	data map[uint64][]byte
}

func (m *fakeMemory) ReadMemory(buf []byte, address uint64, physical bool) error {
	src := m.data[address]
	copy(buf, src)
	return nil
}

type fakeResolver struct {
	typ *dtype.Type
	obj *object.Object
}

func (r *fakeResolver) ResolveType(f *binfmt.File, offset uint32, arena *dtype.Arena) (*dtype.Type, error) {
	return arena.Intern(offset, func() *dtype.Type { return r.typ }), nil
}

func (r *fakeResolver) ResolveObject(f *binfmt.File, offset uint32, prog *Program) (*object.Object, error) {
	return r.obj, nil
}

func TestProgramReadMemoryDelegatesToConfiguredReader(t *testing.T) {
	mem := &fakeMemory{data: map[uint64][]byte{0x10: {1, 2, 3, 4}}}
	p := New(dwarfidx.IndexAll, nil, mem)

	buf := make([]byte, 4)
	require.NoError(t, p.ReadMemory(buf, 0x10, false))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestProgramReadMemoryWithoutReaderFails(t *testing.T) {
	p := New(dwarfidx.IndexAll, nil, nil)
	err := p.ReadMemory(make([]byte, 1), 0, false)
	assert.Error(t, err)
}

func TestResolverInternsThroughProgramArena(t *testing.T) {
	intType := dtype.NewInt("int", 4, true, dtype.PrimitiveInt)
	resolver := &fakeResolver{typ: intType}
	p := New(dwarfidx.IndexAll, resolver, nil)

	f := &binfmt.File{Path: "a.o"}
	entry := dwarfidx.Entry{Offset: 42}
	_ = f

	got, err := resolver.ResolveType(nil, entry.Offset, p.Arena)
	require.NoError(t, err)
	assert.Equal(t, intType, got)
	assert.Equal(t, 1, p.Arena.Len())

	again, err := resolver.ResolveType(nil, entry.Offset, p.Arena)
	require.NoError(t, err)
	assert.Same(t, got, again)
}

func TestStackTraceVariableNotFoundInFrame(t *testing.T) {
	p := New(dwarfidx.IndexAll, &fakeResolver{}, nil)
	tr := &StackTrace{Frames: []Frame{{PC: 0x1000}}}
	_, err := tr.Variable(p, 0, "missing")
	assert.Error(t, err)
}

func TestStackTraceDepthAndFrame(t *testing.T) {
	tr := &StackTrace{Frames: []Frame{{PC: 1}, {PC: 2}}}
	assert.Equal(t, 2, tr.Depth())
	assert.Equal(t, uint64(2), tr.Frame(1).PC)
}
