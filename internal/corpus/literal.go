package corpus

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the shape of a parsed literal.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindNone
	KindString
	KindList
	KindTuple
	KindSet
	KindDict
)

var kindNames = map[Kind]string{
	KindInt:    "int",
	KindBool:   "bool",
	KindNone:   "None",
	KindString: "string",
	KindList:   "list",
	KindTuple:  "tuple",
	KindSet:    "set",
	KindDict:   "dict",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a parsed literal. Items holds sequence elements or dict values;
// Keys holds dict keys, index-aligned with Items.
type Value struct {
	Kind  Kind
	Int   int
	Bool  bool
	Str   string
	Items []Value
	Keys  []Value
}

// IsSequence reports whether v is a list, tuple or set.
func (v Value) IsSequence() bool {
	return v.Kind == KindList || v.Kind == KindTuple || v.Kind == KindSet
}

// Ints returns the elements of a sequence of integers.
func (v Value) Ints() ([]int, error) {
	if !v.IsSequence() {
		return nil, fmt.Errorf("expected a sequence of integers, got %s", v.Kind)
	}
	out := make([]int, len(v.Items))
	for i, item := range v.Items {
		if item.Kind != KindInt {
			return nil, fmt.Errorf("element %d: expected int, got %s", i, item.Kind)
		}
		out[i] = item.Int
	}
	return out, nil
}

// Truth returns the boolean meaning of a True/False/0/1 literal.
func (v Value) Truth() (bool, error) {
	switch {
	case v.Kind == KindBool:
		return v.Bool, nil
	case v.Kind == KindInt && (v.Int == 0 || v.Int == 1):
		return v.Int == 1, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %s", v.Kind)
	}
}

// LiteralError reports a parse failure at a 1-based column.
type LiteralError struct {
	Column  int
	Message string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("column %d: %s", e.Column, e.Message)
}

// ParseLiteral parses a single literal: signed integers, True/False/None,
// quoted strings, lists, tuples, sets, dicts and set()/frozenset() wrappers.
// Trailing input other than whitespace is an error.
func ParseLiteral(s string) (Value, error) {
	p := &literalParser{src: s}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Value{}, p.errorf("unexpected trailing input %q", p.rest(12))
	}
	return v, nil
}

// maxLiteralDepth bounds literal nesting. Traces nest at most three deep.
const maxLiteralDepth = 64

type literalParser struct {
	src   string
	pos   int
	depth int
}

func (p *literalParser) eof() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) rest(n int) string {
	end := p.pos + n
	if end > len(p.src) {
		end = len(p.src)
	}
	return p.src[p.pos:end]
}

func (p *literalParser) errorf(format string, args ...interface{}) error {
	return &LiteralError{Column: p.pos + 1, Message: fmt.Sprintf(format, args...)}
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (Value, error) {
	if p.eof() {
		return Value{}, p.errorf("unexpected end of input")
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxLiteralDepth {
		return Value{}, p.errorf("literal nested deeper than %d levels", maxLiteralDepth)
	}
	c := p.peek()
	switch {
	case c == '[':
		p.pos++
		items, _, err := p.items(']')
		return Value{Kind: KindList, Items: items}, err
	case c == '(':
		p.pos++
		items, trailingComma, err := p.items(')')
		if err != nil {
			return Value{}, err
		}
		// (x) is a parenthesised value, (x,) is a tuple.
		if len(items) == 1 && !trailingComma {
			return items[0], nil
		}
		return Value{Kind: KindTuple, Items: items}, nil
	case c == '{':
		p.pos++
		return p.braced()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.integer()
	case isIdentStart(c):
		return p.ident()
	default:
		return Value{}, p.errorf("unexpected character %q", c)
	}
}

// items parses comma-separated values up to the closing byte.
func (p *literalParser) items(closing byte) ([]Value, bool, error) {
	var out []Value
	trailingComma := false
	for {
		p.skipSpace()
		if p.eof() {
			return nil, false, p.errorf("missing %q", closing)
		}
		if p.peek() == closing {
			p.pos++
			return out, trailingComma, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, false, err
		}
		out = append(out, v)
		trailingComma = false
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			trailingComma = true
		case closing:
		default:
			if p.eof() {
				return nil, false, p.errorf("missing %q", closing)
			}
			return nil, false, p.errorf("expected ',' or %q, got %q", closing, p.peek())
		}
	}
}

// braced parses a set or dict after the opening brace.
func (p *literalParser) braced() (Value, error) {
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return Value{Kind: KindDict}, nil
	}

	first, err := p.value()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.peek() != ':' {
		rest, _, err := p.continueItems('}')
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindSet, Items: append([]Value{first}, rest...)}, nil
	}

	dict := Value{Kind: KindDict}
	key := first
	for {
		p.skipSpace()
		if p.peek() != ':' {
			return Value{}, p.errorf("expected ':' after dict key")
		}
		p.pos++
		p.skipSpace()
		val, err := p.value()
		if err != nil {
			return Value{}, err
		}
		dict.Keys = append(dict.Keys, key)
		dict.Items = append(dict.Items, val)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return dict, nil
			}
			key, err = p.value()
			if err != nil {
				return Value{}, err
			}
		case '}':
			p.pos++
			return dict, nil
		default:
			if p.eof() {
				return Value{}, p.errorf("missing '}'")
			}
			return Value{}, p.errorf("expected ',' or '}', got %q", p.peek())
		}
	}
}

// continueItems finishes a sequence whose first element was already consumed.
func (p *literalParser) continueItems(closing byte) ([]Value, bool, error) {
	switch p.peek() {
	case closing:
		p.pos++
		return nil, false, nil
	case ',':
		p.pos++
		return p.items(closing)
	default:
		if p.eof() {
			return nil, false, p.errorf("missing %q", closing)
		}
		return nil, false, p.errorf("expected ',' or %q, got %q", closing, p.peek())
	}
}

func (p *literalParser) integer() (Value, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	digits := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if p.pos == digits {
		return Value{}, p.errorf("expected digits")
	}
	// Python 2 long suffix.
	text := p.src[start:p.pos]
	if c := p.peek(); c == 'L' || c == 'l' {
		p.pos++
	}
	if c := p.peek(); c == '.' || c == 'e' || c == 'E' {
		return Value{}, p.errorf("non-integer number")
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return Value{}, &LiteralError{Column: start + 1, Message: err.Error()}
	}
	return Value{Kind: KindInt, Int: n}, nil
}

func (p *literalParser) str() (Value, error) {
	quote := p.peek()
	start := p.pos
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return Value{Kind: KindString, Str: sb.String()}, nil
		case c == '\\' && p.pos+1 < len(p.src):
			p.pos++
			switch e := p.src[p.pos]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(e)
			}
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return Value{}, &LiteralError{Column: start + 1, Message: "unterminated string"}
}

func (p *literalParser) ident() (Value, error) {
	start := p.pos
	for !p.eof() && (isIdentStart(p.peek()) || (p.peek() >= '0' && p.peek() <= '9')) {
		p.pos++
	}
	name := p.src[start:p.pos]
	switch name {
	case "True", "true":
		return Value{Kind: KindBool, Bool: true}, nil
	case "False", "false":
		return Value{Kind: KindBool, Bool: false}, nil
	case "None":
		return Value{Kind: KindNone}, nil
	case "set", "frozenset", "tuple", "list":
	default:
		return Value{}, &LiteralError{Column: start + 1, Message: fmt.Sprintf("unknown name %q", name)}
	}

	p.skipSpace()
	if p.peek() != '(' {
		return Value{}, p.errorf("expected '(' after %s", name)
	}
	p.pos++
	p.skipSpace()
	var items []Value
	if p.peek() != ')' {
		inner, err := p.value()
		if err != nil {
			return Value{}, err
		}
		if !inner.IsSequence() {
			return Value{}, p.errorf("%s() takes a sequence, got %s", name, inner.Kind)
		}
		items = inner.Items
		p.skipSpace()
	}
	if p.peek() != ')' {
		return Value{}, p.errorf("missing ')' after %s argument", name)
	}
	p.pos++

	kind := KindSet
	switch name {
	case "tuple":
		kind = KindTuple
	case "list":
		kind = KindList
	}
	return Value{Kind: kind, Items: items}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
