package dtype

// Member is a struct/union member. Members are ordered in declaration order.
// An unnamed member permits path-splicing lookup: MemberInfo recurses into
// it looking for a name without the caller having to name the anonymous
// member itself.
type Member struct {
	Name         string
	BitOffset    int64
	BitFieldSize int // 0 means "not a bit field"
	lazy         *LazyType
}

// NewMember builds a member whose type resolves lazily.
func NewMember(name string, bitOffset int64, bitFieldSize int, lazy *LazyType) *Member {
	return &Member{Name: name, BitOffset: bitOffset, BitFieldSize: bitFieldSize, lazy: lazy}
}

// Type drives the member's lazy type slot.
func (m *Member) Type() (QualifiedType, error) {
	return m.lazy.Resolve()
}

// Parameter is a function parameter; only its type is lazy (it may be
// unnamed).
type Parameter struct {
	Name string
	lazy *LazyType
}

// NewParameter builds a parameter whose type resolves lazily.
func NewParameter(name string, lazy *LazyType) *Parameter {
	return &Parameter{Name: name, lazy: lazy}
}

// Type drives the parameter's lazy type slot.
func (p *Parameter) Type() (QualifiedType, error) {
	return p.lazy.Resolve()
}

// Enumerator is one named value of an enum type. Value is the enumerator's
// 64-bit representation; it is interpreted as signed or unsigned according
// to the enclosing enum's signedness.
type Enumerator struct {
	Name  string
	Value uint64
}

// SignedValue reinterprets Value as a signed 64-bit integer.
func (e Enumerator) SignedValue() int64 {
	return int64(e.Value)
}
