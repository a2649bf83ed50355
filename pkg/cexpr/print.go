package cexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/object"
	"go.uber.org/multierr"
)

// Printer implements dtype.Printer for C's declarator syntax: "declare a
// variable of this type" reads the type right-to-left around the name,
// with parentheses where a pointer would otherwise bind to the wrong
// neighbor (a pointer to an array, a pointer to a function).
type Printer struct{}

var _ dtype.Printer = Printer{}

// Declaration renders qt as a C declarator for a variable named name (name
// may be empty, yielding a bare abstract type name like "const char *").
func (Printer) Declaration(qt dtype.QualifiedType, name string) (string, error) {
	base, decl, err := splitDeclarator(qt, name)
	if err != nil {
		return "", err
	}
	if decl == "" {
		return base, nil
	}
	return base + " " + decl, nil
}

// Definition renders a struct/union/enum's full body.
func (Printer) Definition(t *dtype.Type) (string, error) {
	switch t.Kind() {
	case dtype.KindStruct, dtype.KindUnion:
		return definitionRecord(t)
	case dtype.KindEnum:
		return definitionEnum(t)
	default:
		decl, err := Printer{}.Declaration(dtype.QualifiedType{Type: t}, "")
		if err != nil {
			return "", err
		}
		return decl + ";", nil
	}
}

func definitionRecord(t *dtype.Type) (string, error) {
	kw := "struct"
	if t.Kind() == dtype.KindUnion {
		kw = "union"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s {\n", kw, t.Tag())
	for _, m := range t.Members() {
		qt, err := dtype.ResolveMember(m)
		if err != nil {
			return "", err
		}
		decl, err := Printer{}.Declaration(qt, m.Name)
		if err != nil {
			return "", err
		}
		if m.BitFieldSize > 0 {
			fmt.Fprintf(&b, "\t%s : %d;\n", decl, m.BitFieldSize)
		} else {
			fmt.Fprintf(&b, "\t%s;\n", decl)
		}
	}
	b.WriteString("}")
	return b.String(), nil
}

func definitionEnum(t *dtype.Type) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "enum %s {\n", t.Tag())
	for _, e := range t.Enumerators() {
		fmt.Fprintf(&b, "\t%s = %d,\n", e.Name, e.Value)
	}
	b.WriteString("}")
	return b.String(), nil
}

// splitDeclarator returns the base specifier text and the (possibly empty)
// declarator fragment that wraps name, built up one type layer at a time
// from the outside in.
func splitDeclarator(qt dtype.QualifiedType, name string) (string, string, error) {
	t := qt.Type
	switch t.Kind() {
	case dtype.KindVoid:
		return qualify("void", qt.Qualifiers), name, nil
	case dtype.KindInt, dtype.KindBool, dtype.KindFloat:
		return qualify(t.Name(), qt.Qualifiers), name, nil
	case dtype.KindStruct:
		return qualify("struct "+t.Tag(), qt.Qualifiers), name, nil
	case dtype.KindUnion:
		return qualify("union "+t.Tag(), qt.Qualifiers), name, nil
	case dtype.KindEnum:
		return qualify("enum "+t.Tag(), qt.Qualifiers), name, nil
	case dtype.KindTypedef:
		return qualify(t.Name(), qt.Qualifiers), name, nil
	case dtype.KindComplex:
		real, _, err := splitDeclarator(dtype.QualifiedType{Type: t.Type().Type}, "")
		if err != nil {
			return "", "", err
		}
		return real + " _Complex", name, nil

	case dtype.KindPointer:
		inner := "*" + qualifySuffix(qt.Qualifiers) + name
		return splitDeclarator(t.Type(), inner)

	case dtype.KindArray:
		suffix := "[]"
		if t.IsComplete() {
			suffix = "[" + strconv.FormatInt(t.Length(), 10) + "]"
		}
		wrapped := name
		if strings.HasPrefix(name, "*") {
			wrapped = "(" + name + ")"
		}
		return splitDeclarator(t.Type(), wrapped+suffix)

	case dtype.KindFunction:
		params := make([]string, 0, len(t.Parameters()))
		for _, p := range t.Parameters() {
			pqt, err := dtype.ResolveParameter(p)
			if err != nil {
				return "", "", err
			}
			decl, err := Printer{}.Declaration(pqt, p.Name)
			if err != nil {
				return "", "", err
			}
			params = append(params, decl)
		}
		if t.IsVariadic() {
			params = append(params, "...")
		}
		if len(params) == 0 {
			params = []string{"void"}
		}
		wrapped := name
		if strings.HasPrefix(name, "*") {
			wrapped = "(" + name + ")"
		}
		return splitDeclarator(t.Type(), wrapped+"("+strings.Join(params, ", ")+")")

	default:
		return "", "", drgerr.New(drgerr.Other, "cannot print declarator for kind %v", t.Kind())
	}
}

func qualify(base string, q dtype.Qualifiers) string {
	if q == dtype.QualNone {
		return base
	}
	return q.String() + " " + base
}

func qualifySuffix(q dtype.Qualifiers) string {
	if q == dtype.QualNone {
		return ""
	}
	return " " + q.String() + " "
}

// PrintValue formats o's value the way spec.md §6's pretty-printing surface
// describes: a one-line "(type){ ... }" aggregate literal when it fits in
// columnBudget, otherwise a multi-line form with tab-indented elements.
//
// A returned error whose every component is a target-memory fault (one
// member or element that could not be read) is non-fatal: the rest of the
// value still prints, with "<fault: ...>" standing in for the bad member,
// and the combined fault is returned alongside the full string for a
// caller that wants to surface it as a warning. Any other error aborts.
func PrintValue(o *object.Object, columnBudget int) (string, error) {
	oneLine, warn := printValueOneLine(o)
	if warn != nil && !onlyFaults(warn) {
		return "", warn
	}
	if columnBudget <= 0 || len(oneLine) <= columnBudget {
		return oneLine, warn
	}
	multi, multiWarn := printValueMultiLine(o, 0)
	if multiWarn != nil && !onlyFaults(multiWarn) {
		return "", multiWarn
	}
	return multi, multiWarn
}

// onlyFaults reports whether every error folded into err is a target-memory
// fault, the only case printValueOneLine/printValueMultiLine treat as
// non-fatal; anything else (a malformed type, an unresolved member) still
// aborts printing.
func onlyFaults(err error) bool {
	for _, e := range multierr.Errors(err) {
		if !drgerr.Is(e, drgerr.Fault) {
			return false
		}
	}
	return true
}

// faultPlaceholder stands in for a member or element whose value could not
// be read, so one faulting pointer doesn't blank out an entire struct.
func faultPlaceholder(err error) string {
	return fmt.Sprintf("<fault: %s>", err)
}

func printValueOneLine(o *object.Object) (string, error) {
	u := dtype.Underlying(o.Type.Type)
	switch u.Kind() {
	case dtype.KindArray:
		typeName, err := Printer{}.Declaration(o.Type, "")
		if err != nil {
			return "", err
		}
		if !u.IsComplete() || u.Length() == 0 {
			return "(" + typeName + "){}", nil
		}
		elemQT := u.Type()
		elemBytes, err := dtype.Sizeof(elemQT.Type)
		if err != nil {
			return "", err
		}
		var warn error
		parts := make([]string, 0, u.Length())
		for i := int64(0); i < u.Length(); i++ {
			elemObj, err := object.Slice(o, elemQT, int(i*elemBytes*8), 0)
			if err != nil {
				return "", err
			}
			s, err := printValueOneLine(elemObj)
			if err != nil {
				if !onlyFaults(err) {
					return "", err
				}
				warn = multierr.Append(warn, err)
				s = faultPlaceholder(err)
			}
			parts = append(parts, s)
		}
		return "(" + typeName + "){ " + strings.Join(parts, ", ") + " }", warn

	case dtype.KindStruct, dtype.KindUnion:
		typeName, err := Printer{}.Declaration(o.Type, "")
		if err != nil {
			return "", err
		}
		var warn error
		var parts []string
		for _, m := range u.Members() {
			qt, bitOffset, bitFieldSize, err := dtype.MemberInfo(u, m.Name)
			if err != nil {
				return "", err
			}
			memberObj, err := object.Slice(o, qt, int(bitOffset), bitFieldSize)
			if err != nil {
				return "", err
			}
			s, err := printValueOneLine(memberObj)
			if err != nil {
				if !onlyFaults(err) {
					return "", err
				}
				warn = multierr.Append(warn, err)
				s = faultPlaceholder(err)
			}
			if m.Name != "" {
				parts = append(parts, fmt.Sprintf(".%s = %s", m.Name, s))
			} else {
				parts = append(parts, s)
			}
		}
		return "(" + typeName + "){ " + strings.Join(parts, ", ") + " }", warn

	default:
		return printScalar(o)
	}
}

func printValueMultiLine(o *object.Object, depth int) (string, error) {
	u := dtype.Underlying(o.Type.Type)
	indent := strings.Repeat("\t", depth+1)
	closeIndent := strings.Repeat("\t", depth)

	switch u.Kind() {
	case dtype.KindArray:
		typeName, err := Printer{}.Declaration(o.Type, "")
		if err != nil {
			return "", err
		}
		if !u.IsComplete() || u.Length() == 0 {
			return "(" + typeName + "){}", nil
		}
		elemQT := u.Type()
		elemBytes, err := dtype.Sizeof(elemQT.Type)
		if err != nil {
			return "", err
		}
		var warn error
		var b strings.Builder
		fmt.Fprintf(&b, "(%s){\n", typeName)
		for i := int64(0); i < u.Length(); i++ {
			elemObj, err := object.Slice(o, elemQT, int(i*elemBytes*8), 0)
			if err != nil {
				return "", err
			}
			s, err := printValueMultiLine(elemObj, depth+1)
			if err != nil {
				if !onlyFaults(err) {
					return "", err
				}
				warn = multierr.Append(warn, err)
				s = faultPlaceholder(err)
			}
			fmt.Fprintf(&b, "%s%s,\n", indent, s)
		}
		fmt.Fprintf(&b, "%s}", closeIndent)
		return b.String(), warn

	case dtype.KindStruct, dtype.KindUnion:
		typeName, err := Printer{}.Declaration(o.Type, "")
		if err != nil {
			return "", err
		}
		var warn error
		var b strings.Builder
		fmt.Fprintf(&b, "(%s){\n", typeName)
		for _, m := range u.Members() {
			qt, bitOffset, bitFieldSize, err := dtype.MemberInfo(u, m.Name)
			if err != nil {
				return "", err
			}
			memberObj, err := object.Slice(o, qt, int(bitOffset), bitFieldSize)
			if err != nil {
				return "", err
			}
			s, err := printValueMultiLine(memberObj, depth+1)
			if err != nil {
				if !onlyFaults(err) {
					return "", err
				}
				warn = multierr.Append(warn, err)
				s = faultPlaceholder(err)
			}
			if m.Name != "" {
				fmt.Fprintf(&b, "%s.%s = %s,\n", indent, m.Name, s)
			} else {
				fmt.Fprintf(&b, "%s%s,\n", indent, s)
			}
		}
		fmt.Fprintf(&b, "%s}", closeIndent)
		return b.String(), warn

	default:
		return printScalar(o)
	}
}

func printScalar(o *object.Object) (string, error) {
	u := dtype.Underlying(o.Type.Type)
	switch o.Kind {
	case object.KindSigned:
		v, err := o.ReadSigned()
		return strconv.FormatInt(v, 10), err
	case object.KindUnsigned:
		v, err := o.ReadUnsigned()
		if err != nil {
			return "", err
		}
		if u.Kind() == dtype.KindPointer {
			return "0x" + strconv.FormatUint(v, 16), nil
		}
		return strconv.FormatUint(v, 10), nil
	case object.KindFloat:
		v, err := o.ReadFloat()
		return strconv.FormatFloat(v, 'g', -1, 64), err
	default:
		return "", drgerr.New(drgerr.Other, "cannot print object of kind %v", o.Kind)
	}
}
