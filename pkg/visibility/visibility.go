// Package visibility compiles the small condition expressions that decide
// whether a field is displayed. Expressions survive serialisation in config
// documents, so conditions loaded from YAML/JSON keep working without Go
// callbacks.
//
// Supported forms:
//   - truthiness: `newsletter`
//   - comparisons: `accountType == "business"`, `seats != 0`
//   - composition: `a && !b`, `a || (b == "x" && c)`
package visibility

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Predicate evaluates a compiled expression against the current form values.
type Predicate func(values map[string]any) bool

// Compile parses rule into a Predicate. An empty rule compiles to an
// always-true predicate. Parse failures are configuration errors and should
// surface at form construction, not at evaluation time.
func Compile(rule string) (Predicate, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return func(map[string]any) bool { return true }, nil
	}
	tokens, err := scan(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("visibility: unexpected token %q", p.tokens[p.pos].text)
	}
	return pred, nil
}

// MustCompile is Compile for statically known rules; it panics on error.
func MustCompile(rule string) Predicate {
	pred, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return pred
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokString
	tokEq
	tokNeq
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type tok struct {
	kind tokKind
	text string
}

func scan(input string) ([]tok, error) {
	var out []tok
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			out = append(out, tok{tokLParen, "("})
			i++
		case ch == ')':
			out = append(out, tok{tokRParen, ")"})
			i++
		case ch == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				out = append(out, tok{tokNeq, "!="})
				i += 2
			} else {
				out = append(out, tok{tokNot, "!"})
				i++
			}
		case ch == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, errors.New(`visibility: single "=", use "=="`)
			}
			out = append(out, tok{tokEq, "=="})
			i += 2
		case ch == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, errors.New(`visibility: single "&", use "&&"`)
			}
			out = append(out, tok{tokAnd, "&&"})
			i += 2
		case ch == '|':
			if i+1 >= len(input) || input[i+1] != '|' {
				return nil, errors.New(`visibility: single "|", use "||"`)
			}
			out = append(out, tok{tokOr, "||"})
			i += 2
		case ch == '"' || ch == '\'':
			end := i + 1
			for end < len(input) && input[end] != ch {
				if input[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(input) {
				return nil, errors.New("visibility: unterminated string literal")
			}
			text, err := strconv.Unquote(`"` + strings.ReplaceAll(input[i+1:end], `\'`, `'`) + `"`)
			if err != nil {
				return nil, fmt.Errorf("visibility: bad string literal: %w", err)
			}
			out = append(out, tok{tokString, text})
			i = end + 1
		default:
			end := i
			for end < len(input) && !strings.ContainsRune(" \t\n\r()!=&|", rune(input[end])) {
				end++
			}
			out = append(out, tok{tokIdent, input[i:end]})
			i = end
		}
	}
	return out, nil
}

type parser struct {
	tokens []tok
	pos    int
}

func (p *parser) match(kind tokKind) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (Predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(v map[string]any) bool { return l(v) || r(v) }
	}
	return left, nil
}

func (p *parser) parseAnd() (Predicate, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(tokAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(v map[string]any) bool { return l(v) && r(v) }
	}
	return left, nil
}

func (p *parser) parseUnary() (Predicate, error) {
	if p.match(tokNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(v map[string]any) bool { return !inner(v) }, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Predicate, error) {
	if p.match(tokLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(tokRParen) {
			return nil, errors.New(`visibility: missing ")"`)
		}
		return inner, nil
	}

	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != tokIdent {
		return nil, errors.New("visibility: expected field identifier")
	}
	ident := p.tokens[p.pos].text
	p.pos++

	var negate bool
	switch {
	case p.match(tokEq):
	case p.match(tokNeq):
		negate = true
	default:
		return func(v map[string]any) bool {
			value, ok := Lookup(v, ident)
			return ok && truthy(value)
		}, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("visibility: missing comparison literal")
	}
	lit := p.tokens[p.pos]
	p.pos++
	cmp, err := comparison(ident, lit)
	if err != nil {
		return nil, err
	}
	if negate {
		inner := cmp
		cmp = func(v map[string]any) bool { return !inner(v) }
	}
	return cmp, nil
}

func comparison(ident string, lit tok) (Predicate, error) {
	if lit.kind == tokString {
		return func(v map[string]any) bool {
			value, _ := Lookup(v, ident)
			return asString(value) == lit.text
		}, nil
	}
	if lit.kind != tokIdent {
		return nil, fmt.Errorf("visibility: expected literal, got %q", lit.text)
	}

	switch strings.ToLower(lit.text) {
	case "true", "false":
		want := strings.EqualFold(lit.text, "true")
		return func(v map[string]any) bool {
			value, _ := Lookup(v, ident)
			return truthy(value) == want
		}, nil
	case "null", "nil":
		return func(v map[string]any) bool {
			value, ok := Lookup(v, ident)
			return !ok || value == nil
		}, nil
	}

	if want, err := strconv.ParseFloat(lit.text, 64); err == nil {
		return func(v map[string]any) bool {
			value, ok := Lookup(v, ident)
			if !ok {
				return false
			}
			got, ok := asNumber(value)
			return ok && got == want
		}, nil
	}

	// Bare identifiers compare as strings to keep hand-written rules forgiving.
	return func(v map[string]any) bool {
		value, _ := Lookup(v, ident)
		return asString(value) == lit.text
	}, nil
}

// Lookup resolves a possibly dotted identifier against the value map. Exact
// keys win over traversal so dotted field ids keep working.
func Lookup(values map[string]any, key string) (any, bool) {
	if len(values) == 0 || key == "" {
		return nil, false
	}
	if v, ok := values[key]; ok {
		return v, true
	}
	var current any = values
	for _, part := range strings.Split(key, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
