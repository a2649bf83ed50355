package cexpr

import (
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
)

// TypeResolver is how the front-end asks the type layer and name index to
// turn an identifier or tagged-type name into a concrete type. Program
// implements it; a parser in isolation (as in this package's tests) can
// supply a stub.
type TypeResolver interface {
	ResolveTypedef(name string) (dtype.QualifiedType, error)
	ResolveTag(kind dtype.Kind, tag string) (*dtype.Type, error)
}

// Parser drives the type-name and member-designator grammars described in
// spec.md §4.5 over a Lexer, resolving identifiers against a TypeResolver.
type Parser struct {
	lex      *Lexer
	resolver TypeResolver
	tok      Token
}

// NewParser creates a parser over input, positioned before the first token.
func NewParser(input string, resolver TypeResolver) (*Parser, error) {
	p := &Parser{lex: NewLexer(input), resolver: resolver}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) atPunct(b byte) bool { return p.tok.Kind == TokPunct && p.tok.Punct == b }

func (p *Parser) expectPunct(b byte) error {
	if !p.atPunct(b) {
		return drgerr.New(drgerr.Syntax, "expected %q at offset %d", b, p.tok.Offset)
	}
	return p.advance()
}

// ParseTypeName parses a full type-name: a specifier-qualifier-list
// followed by an optional abstract-declarator, per the grammar in
// spec.md §4.5.
func (p *Parser) ParseTypeName() (dtype.QualifiedType, error) {
	base, err := p.parseSpecifierQualifierList()
	if err != nil {
		return dtype.QualifiedType{}, err
	}
	qt, err := p.parseAbstractDeclarator(base)
	if err != nil {
		return dtype.QualifiedType{}, err
	}
	if p.tok.Kind != TokEOF {
		return dtype.QualifiedType{}, drgerr.New(drgerr.Syntax, "unexpected trailing input at offset %d", p.tok.Offset)
	}
	return qt, nil
}

// parseSpecifierQualifierList consumes specifier and qualifier keywords (or
// a single tag-prefixed or plain identifier) and returns the base qualified
// type before any declarator is applied.
func (p *Parser) parseSpecifierQualifierList() (dtype.QualifiedType, error) {
	var quals dtype.Qualifiers
	state := newSpecifierState()
	sawSpecifier := false

	for {
		switch {
		case p.tok.Kind == TokKeyword:
			switch p.tok.Keyword {
			case KwConst:
				quals |= dtype.QualConst
			case KwVolatile:
				quals |= dtype.QualVolatile
			case KwRestrict:
				quals |= dtype.QualRestrict
			case KwAtomic:
				quals |= dtype.QualAtomic
			case KwStruct, KwUnion, KwEnum:
				if sawSpecifier {
					return dtype.QualifiedType{}, drgerr.New(drgerr.Syntax, "unexpected %q after type specifier", p.tok.Text)
				}
				tagged, err := p.parseTaggedType()
				if err != nil {
					return dtype.QualifiedType{}, err
				}
				return p.finishSpecifierQualifierList(tagged, &quals)
			default:
				if err := state.feed(p.tok.Keyword); err != nil {
					return dtype.QualifiedType{}, err
				}
				sawSpecifier = true
				if err := p.advance(); err != nil {
					return dtype.QualifiedType{}, err
				}
				continue
			}
			if err := p.advance(); err != nil {
				return dtype.QualifiedType{}, err
			}
			continue

		case p.tok.Kind == TokIdent && !sawSpecifier:
			t, err := p.parseIdentifierSpecifier()
			if err != nil {
				return dtype.QualifiedType{}, err
			}
			sawSpecifier = true
			return p.finishSpecifierQualifierList(t, &quals)

		default:
			if !sawSpecifier {
				return dtype.QualifiedType{}, drgerr.New(drgerr.Syntax, "missing type specifier at offset %d", p.tok.Offset)
			}
			prim, err := state.resolve()
			if err != nil {
				return dtype.QualifiedType{}, err
			}
			return dtype.QualifiedType{Type: primitiveType(prim), Qualifiers: quals}, nil
		}
	}
}

// finishSpecifierQualifierList consumes any trailing qualifier keywords
// after a tag-prefixed type or identifier specifier has already resolved t.
func (p *Parser) finishSpecifierQualifierList(t *dtype.Type, quals *dtype.Qualifiers) (dtype.QualifiedType, error) {
	for p.tok.Kind == TokKeyword {
		switch p.tok.Keyword {
		case KwConst:
			*quals |= dtype.QualConst
		case KwVolatile:
			*quals |= dtype.QualVolatile
		case KwRestrict:
			*quals |= dtype.QualRestrict
		case KwAtomic:
			*quals |= dtype.QualAtomic
		default:
			return dtype.QualifiedType{}, drgerr.New(drgerr.Syntax, "unexpected %q after type specifier", p.tok.Text)
		}
		if err := p.advance(); err != nil {
			return dtype.QualifiedType{}, err
		}
	}
	return dtype.QualifiedType{Type: t, Qualifiers: *quals}, nil
}

func (p *Parser) parseTaggedType() (*dtype.Type, error) {
	var kind dtype.Kind
	switch p.tok.Keyword {
	case KwStruct:
		kind = dtype.KindStruct
	case KwUnion:
		kind = dtype.KindUnion
	case KwEnum:
		kind = dtype.KindEnum
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != TokIdent {
		return nil, drgerr.New(drgerr.Syntax, "expected tag name at offset %d", p.tok.Offset)
	}
	tag := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.resolver == nil {
		return nil, drgerr.New(drgerr.Lookup, "no type resolver available for tag %q", tag)
	}
	return p.resolver.ResolveTag(kind, tag)
}

func (p *Parser) parseIdentifierSpecifier() (*dtype.Type, error) {
	name := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if prim, ok := resolveNamedPrimitive(name); ok {
		return primitiveType(prim), nil
	}
	if p.resolver == nil {
		return nil, drgerr.New(drgerr.Lookup, "no type resolver available for identifier %q", name)
	}
	qt, err := p.resolver.ResolveTypedef(name)
	if err != nil {
		return nil, err
	}
	return qt.Type, nil
}

// parseAbstractDeclarator parses:
//
//	abstract-declarator := pointer
//	                      | pointer? direct-abstract-declarator
//	direct-abstract-declarator
//	                     := '(' abstract-declarator ')'
//	                      | direct-abstract-declarator? '[' NUMBER? ']'
//	pointer              := ('*' type-qualifier-list?)+
//
// building outward from base.
func (p *Parser) parseAbstractDeclarator(base dtype.QualifiedType) (dtype.QualifiedType, error) {
	qt := base
	for p.atPunct('*') {
		if err := p.advance(); err != nil {
			return dtype.QualifiedType{}, err
		}
		var quals dtype.Qualifiers
		for p.tok.Kind == TokKeyword {
			switch p.tok.Keyword {
			case KwConst:
				quals |= dtype.QualConst
			case KwVolatile:
				quals |= dtype.QualVolatile
			case KwRestrict:
				quals |= dtype.QualRestrict
			case KwAtomic:
				quals |= dtype.QualAtomic
			default:
				return dtype.QualifiedType{}, drgerr.New(drgerr.Syntax, "unexpected %q in pointer qualifier list", p.tok.Text)
			}
			if err := p.advance(); err != nil {
				return dtype.QualifiedType{}, err
			}
		}
		qt = dtype.QualifiedType{Type: dtype.NewPointer(qt, ptrSizeBytes), Qualifiers: quals}
	}

	return p.parseDirectAbstractDeclarator(qt)
}

func (p *Parser) parseDirectAbstractDeclarator(qt dtype.QualifiedType) (dtype.QualifiedType, error) {
	if p.atPunct('(') {
		// '(' abstract-declarator ')' — but a lone '(' followed by ')' or a
		// type-specifier would be a function declarator, which spec.md §4.5
		// rejects as unimplemented.
		if err := p.advance(); err != nil {
			return dtype.QualifiedType{}, err
		}
		if p.atPunct(')') || p.tok.Kind == TokKeyword {
			return dtype.QualifiedType{}, drgerr.New(drgerr.Other, "function-pointer declarators are not supported")
		}
		inner, err := p.parseAbstractDeclarator(qt)
		if err != nil {
			return dtype.QualifiedType{}, err
		}
		if err := p.expectPunct(')'); err != nil {
			return dtype.QualifiedType{}, err
		}
		qt = inner
	}

	for p.atPunct('[') {
		if err := p.advance(); err != nil {
			return dtype.QualifiedType{}, err
		}
		if p.atPunct(']') {
			qt = dtype.QualifiedType{Type: dtype.NewIncompleteArray(qt)}
		} else {
			if p.tok.Kind != TokNumber {
				return dtype.QualifiedType{}, drgerr.New(drgerr.Syntax, "expected array length at offset %d", p.tok.Offset)
			}
			n := p.tok.Number
			if err := p.advance(); err != nil {
				return dtype.QualifiedType{}, err
			}
			qt = dtype.QualifiedType{Type: dtype.NewCompleteArray(qt, int64(n))}
		}
		if err := p.expectPunct(']'); err != nil {
			return dtype.QualifiedType{}, err
		}
	}

	return qt, nil
}

// ptrSizeBytes is the pointer width used when a parsed type-name builds a
// new pointer type with no program context to ask; callers that need a
// different width (e.g. a 32-bit target) should post-process the result.
const ptrSizeBytes = 8

// DesignatorStep is one step of a member designator: either a named member
// (IDENT) or an array index (NUMBER).
type DesignatorStep struct {
	Name     string
	IsIndex  bool
	Index    uint64
}

// ParseMemberDesignator parses the `(.IDENT | [NUMBER])+` sub-grammar
// spec.md §4.5 describes for container_of and friends.
func (p *Parser) ParseMemberDesignator() ([]DesignatorStep, error) {
	var steps []DesignatorStep
	for {
		switch {
		case p.atPunct('.'):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.Kind != TokIdent {
				return nil, drgerr.New(drgerr.Syntax, "expected member name at offset %d", p.tok.Offset)
			}
			steps = append(steps, DesignatorStep{Name: p.tok.Text})
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.atPunct('['):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.Kind != TokNumber {
				return nil, drgerr.New(drgerr.Syntax, "expected index at offset %d", p.tok.Offset)
			}
			idx := p.tok.Number
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(']'); err != nil {
				return nil, err
			}
			steps = append(steps, DesignatorStep{IsIndex: true, Index: idx})
		default:
			if len(steps) == 0 {
				return nil, drgerr.New(drgerr.Syntax, "empty member designator")
			}
			if p.tok.Kind != TokEOF {
				return nil, drgerr.New(drgerr.Syntax, "unexpected trailing input at offset %d", p.tok.Offset)
			}
			return steps, nil
		}
	}
}
