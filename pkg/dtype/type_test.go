package dtype

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intType() *Type  { return NewInt("int", 4, true, PrimitiveInt) }
func charType() *Type { return NewInt("char", 1, true, PrimitiveChar) }

func TestSizeofPrimitives(t *testing.T) {
	sz, err := Sizeof(intType())
	require.NoError(t, err)
	assert.EqualValues(t, 4, sz)
}

func TestSizeofVoidAndFunctionFail(t *testing.T) {
	_, err := Sizeof(NewVoid())
	assert.Error(t, err)

	fn := NewFunction(QualifiedType{Type: NewVoid()}, nil, false)
	_, err = Sizeof(fn)
	assert.Error(t, err)
}

func TestSizeofIncompleteArrayFails(t *testing.T) {
	arr := NewIncompleteArray(QualifiedType{Type: intType()})
	_, err := Sizeof(arr)
	assert.Error(t, err)
}

func TestSizeofThroughTypedefAndArray(t *testing.T) {
	td := NewTypedef("Int", QualifiedType{Type: intType()})
	arr := NewCompleteArray(QualifiedType{Type: td}, 3)

	sz, err := Sizeof(arr)
	require.NoError(t, err)
	assert.EqualValues(t, 12, sz)
}

func TestEqualReflexive(t *testing.T) {
	i := intType()
	assert.True(t, Equal(i, i))

	qt := QualifiedType{Type: i, Qualifiers: QualConst}
	assert.True(t, equalQualified(qt, qt, map[pairKey]bool{}))
}

func TestEqualTypedefNotEqualToAliasedType(t *testing.T) {
	i := intType()
	td := NewTypedef("myint", QualifiedType{Type: i})
	assert.False(t, Equal(td, i))
}

func TestEqualStructuralNotIdentity(t *testing.T) {
	a := NewRecord(KindStruct, "point", 8, []*Member{
		NewMember("x", 0, 0, Resolved(QualifiedType{Type: intType()})),
		NewMember("y", 32, 0, Resolved(QualifiedType{Type: intType()})),
	})
	b := NewRecord(KindStruct, "point", 8, []*Member{
		NewMember("x", 0, 0, Resolved(QualifiedType{Type: intType()})),
		NewMember("y", 32, 0, Resolved(QualifiedType{Type: intType()})),
	})

	assert.True(t, Equal(a, b))
}

func TestEqualCyclicStructBreaksRecursion(t *testing.T) {
	// struct Node { struct Node *next; };
	node := &Type{kind: KindStruct, tag: "Node", complete: true, byteSize: 8}
	ptrToNode := NewPointer(QualifiedType{Type: node}, 8)
	node.members = []*Member{NewMember("next", 0, 0, Resolved(QualifiedType{Type: ptrToNode}))}

	assert.True(t, Equal(node, node))
}

func TestMemberInfoDirectAndSpliced(t *testing.T) {
	inner := NewRecord(KindStruct, "", 4, []*Member{
		NewMember("c", 40, 5, Resolved(QualifiedType{Type: charType()})),
	})
	outer := NewRecord(KindStruct, "S", 8, []*Member{
		NewMember("a", 0, 0, Resolved(QualifiedType{Type: intType()})),
		NewMember("", 32, 0, Resolved(QualifiedType{Type: inner})), // unnamed, spliced
	})

	qt, bitOffset, bitFieldSize, err := MemberInfo(outer, "c")
	require.NoError(t, err)
	assert.Equal(t, charType().name, qt.Type.name)
	assert.EqualValues(t, 32+40, bitOffset)
	assert.Equal(t, 5, bitFieldSize)
}

func TestMemberInfoNotFound(t *testing.T) {
	s := NewRecord(KindStruct, "S", 4, []*Member{
		NewMember("a", 0, 0, Resolved(QualifiedType{Type: intType()})),
	})
	_, _, _, err := MemberInfo(s, "nope")
	assert.Error(t, err)
}

func TestElementInfoPointerAndArray(t *testing.T) {
	ptr := NewPointer(QualifiedType{Type: intType()}, 8)
	qt, bits, err := ElementInfo(ptr)
	require.NoError(t, err)
	assert.EqualValues(t, 32, bits)
	assert.Equal(t, intType().name, qt.Type.name)

	arr := NewCompleteArray(QualifiedType{Type: charType()}, 10)
	qt, bits, err = ElementInfo(arr)
	require.NoError(t, err)
	assert.EqualValues(t, 8, bits)
	assert.Equal(t, charType().name, qt.Type.name)
}

func TestLazyTypeInvokedAtMostOnceUnderRace(t *testing.T) {
	var calls int32
	lazy := NewLazyType(func() (QualifiedType, error) {
		atomic.AddInt32(&calls, 1)
		return QualifiedType{Type: intType()}, nil
	})

	var wg sync.WaitGroup
	results := make([]QualifiedType, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			qt, err := lazy.Resolve()
			require.NoError(t, err)
			results[i] = qt
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, results[0].Type, r.Type)
	}
	assert.True(t, lazy.IsResolved())
}

func TestLazyTypeNeverRegressesToUnresolved(t *testing.T) {
	lazy := Resolved(QualifiedType{Type: intType()})
	assert.True(t, lazy.IsResolved())
	qt, err := lazy.Resolve()
	require.NoError(t, err)
	assert.Equal(t, intType().name, qt.Type.name)
}

func TestArenaInternsOnce(t *testing.T) {
	arena := NewArena()
	builds := 0
	build := func() *Type {
		builds++
		return intType()
	}

	a := arena.Intern("int", build)
	b := arena.Intern("int", build)

	assert.Same(t, a, b)
	assert.Equal(t, 1, builds)
}
