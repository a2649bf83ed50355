package dtype

// Qualifiers is a bitmask over C's type qualifiers.
type Qualifiers uint8

const (
	QualNone     Qualifiers = 0
	QualConst    Qualifiers = 1 << 0
	QualVolatile Qualifiers = 1 << 1
	QualRestrict Qualifiers = 1 << 2
	QualAtomic   Qualifiers = 1 << 3
)

func (q Qualifiers) Const() bool    { return q&QualConst != 0 }
func (q Qualifiers) Volatile() bool { return q&QualVolatile != 0 }
func (q Qualifiers) Restrict() bool { return q&QualRestrict != 0 }
func (q Qualifiers) Atomic() bool   { return q&QualAtomic != 0 }

func (q Qualifiers) String() string {
	if q == QualNone {
		return ""
	}

	parts := make([]string, 0, 4)
	if q.Const() {
		parts = append(parts, "const")
	}
	if q.Volatile() {
		parts = append(parts, "volatile")
	}
	if q.Restrict() {
		parts = append(parts, "restrict")
	}
	if q.Atomic() {
		parts = append(parts, "_Atomic")
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

// QualifiedType pairs an unqualified type with a qualifier set. Equality is
// component-wise: same underlying type (by Equal) and the same qualifiers.
type QualifiedType struct {
	Type       *Type
	Qualifiers Qualifiers
}

// Qualify returns qt with the given qualifiers added (existing ones kept).
func (qt QualifiedType) Qualify(q Qualifiers) QualifiedType {
	return QualifiedType{Type: qt.Type, Qualifiers: qt.Qualifiers | q}
}

// Unqualified returns qt with all qualifiers stripped.
func (qt QualifiedType) Unqualified() QualifiedType {
	return QualifiedType{Type: qt.Type, Qualifiers: QualNone}
}
