package selector

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// SyntaxError reports a parse failure, per spec.md 4.E "InvalidSyntax".
// Synthetic sources (the engine's own "[phony]" debug strings) never surface
// this to a user, only to internal logging.
type SyntaxError struct {
	Span    Span
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Span.synthetic() {
		return fmt.Sprintf("invalid selector: %s", e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: invalid selector: %s", e.Span.Source, e.Span.Line, e.Span.Column, e.Message)
}

// Parser tokenizes and parses selector source. It reuses the teacher's CSS
// tokenizer (github.com/tdewolff/parse/v2/css) at the lexer level rather than
// its grammar level, since a selector list is not a full stylesheet.
type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("selector-parser")}
}

// token is a flattened view of a css.Token plus position bookkeeping, since
// the lexer only tracks byte offsets.
type token struct {
	tt   css.TokenType
	data string
	line int
	col  int
}

// ParseList parses a comma-separated selector list. source identifies the
// origin for diagnostics; pass "" for synthetic/phony selectors so that Span
// stays marked synthetic.
func (p *Parser) ParseList(src string, source string) (*List, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, &SyntaxError{Span: Span{Source: source}, Message: err.Error()}
	}
	st := &parseState{toks: toks, source: source, log: p.log}
	l, err := st.parseList()
	if err != nil {
		return nil, err
	}
	if st.pos != len(st.toks) {
		return nil, st.errorf("unexpected trailing input")
	}
	return l, nil
}

// ParseComplex parses a single complex selector (no commas allowed).
func (p *Parser) ParseComplex(src, source string) (Complex, error) {
	l, err := p.ParseList(src, source)
	if err != nil {
		return Complex{}, err
	}
	if len(l.Complexes) != 1 {
		return Complex{}, &SyntaxError{Span: Span{Source: source}, Message: "expected a single selector, got a list"}
	}
	return l.Complexes[0], nil
}

func lex(src string) ([]token, error) {
	input := parse.NewInput(bytes.NewReader([]byte(src)))
	lexer := css.NewLexer(input)
	var toks []token
	line, col := 1, 1
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			if err := lexer.Err(); err != nil && err.Error() != "EOF" {
				return nil, err
			}
			break
		}
		s := string(data)
		toks = append(toks, token{tt: tt, data: s, line: line, col: col})
		for _, r := range s {
			if r == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}
	return toks, nil
}

type parseState struct {
	toks   []token
	pos    int
	source string
	log    *zap.Logger
}

func (st *parseState) span() Span {
	if st.source == "" {
		return Span{}
	}
	if st.pos < len(st.toks) {
		t := st.toks[st.pos]
		return Span{Source: st.source, Line: t.line, Column: t.col, Length: len(t.data)}
	}
	return Span{Source: st.source}
}

func (st *parseState) errorf(format string, args ...any) error {
	return &SyntaxError{Span: st.span(), Message: fmt.Sprintf(format, args...)}
}

func (st *parseState) peek() (token, bool) {
	if st.pos >= len(st.toks) {
		return token{}, false
	}
	return st.toks[st.pos], true
}

func (st *parseState) next() (token, bool) {
	t, ok := st.peek()
	if ok {
		st.pos++
	}
	return t, ok
}

func (st *parseState) skipWhitespace() (sawSpace bool) {
	for {
		t, ok := st.peek()
		if !ok || t.tt != css.WhitespaceToken {
			return sawSpace
		}
		sawSpace = true
		st.pos++
	}
}

// parseList parses selector, selector, selector.
func (st *parseState) parseList() (*List, error) {
	var complexes []Complex
	for {
		st.skipWhitespace()
		c, err := st.parseComplex()
		if err != nil {
			return nil, err
		}
		complexes = append(complexes, c)
		st.skipWhitespace()
		t, ok := st.peek()
		if ok && t.tt == css.CommaToken {
			st.pos++
			continue
		}
		break
	}
	return NewList(complexes...), nil
}

// parseComplex parses compound (combinator compound)*.
func (st *parseState) parseComplex() (Complex, error) {
	var comps []Component
	hadLF := false
	first := true
	for {
		sawSpace := false
		if !first {
			sawSpace = st.skipWhitespaceTrackingLF(&hadLF)
		}
		t, ok := st.peek()
		if !ok || t.tt == css.CommaToken {
			break
		}
		comb, isComb, err := st.maybeCombinator()
		if err != nil {
			return Complex{}, err
		}
		if isComb {
			comps = append(comps, CombinatorComponent(comb))
			st.skipWhitespaceTrackingLF(&hadLF)
		} else if sawSpace && !first {
			comps = append(comps, CombinatorComponent(Descendant))
		}
		t, ok = st.peek()
		if !ok || t.tt == css.CommaToken {
			return Complex{}, st.errorf("expected compound selector")
		}
		compound, err := st.parseCompound()
		if err != nil {
			return Complex{}, err
		}
		comps = append(comps, CompoundComponent(compound))
		first = false
	}
	if len(comps) == 0 {
		return Complex{}, st.errorf("expected selector")
	}
	// Reject a trailing combinator. The loop above already reports input
	// like "a >" as a missing compound, so this is only a guard.
	if comps[len(comps)-1].IsCombinator() {
		return Complex{}, st.errorf("selector cannot end with a combinator")
	}
	c := NewComplex(comps...)
	c.HasPreLineFeed = hadLF
	return c, nil
}

func (st *parseState) skipWhitespaceTrackingLF(hadLF *bool) bool {
	saw := false
	for {
		t, ok := st.peek()
		if !ok || t.tt != css.WhitespaceToken {
			return saw
		}
		saw = true
		if strings.Contains(t.data, "\n") {
			*hadLF = true
		}
		st.pos++
	}
}

func (st *parseState) maybeCombinator() (Combinator, bool, error) {
	t, ok := st.peek()
	if !ok {
		return 0, false, nil
	}
	if t.tt == css.DelimToken {
		switch t.data {
		case ">":
			st.pos++
			return Child, true, nil
		case "+":
			st.pos++
			return Adjacent, true, nil
		case "~":
			st.pos++
			return Sibling, true, nil
		}
	}
	return 0, false, nil
}

// parseCompound parses a sequence of simple selectors with no combinator
// between them: type?, then any mix of class/id/attr/pseudo/placeholder/&.
func (st *parseState) parseCompound() (Compound, error) {
	span := st.span()
	var simples []Simple
	sawAny := false
	for {
		t, ok := st.peek()
		if !ok {
			break
		}
		sp := st.span()
		switch {
		case t.tt == css.DelimToken && t.data == "*":
			st.pos++
			simples = append(simples, Universal(sp))
			sawAny = true
		case t.tt == css.DelimToken && t.data == "&":
			st.pos++
			simples = append(simples, ParentRef(sp))
			sawAny = true
		case t.tt == css.DelimToken && t.data == "%":
			st.pos++
			name, err := st.expectIdent()
			if err != nil {
				return Compound{}, err
			}
			simples = append(simples, Placeholder(name, sp))
			sawAny = true
		case t.tt == css.HashToken:
			st.pos++
			simples = append(simples, ID(strings.TrimPrefix(t.data, "#"), sp))
			sawAny = true
		case t.tt == css.DelimToken && t.data == ".":
			st.pos++
			name, err := st.expectIdent()
			if err != nil {
				return Compound{}, err
			}
			simples = append(simples, Class(name, sp))
			sawAny = true
		case t.tt == css.LeftBracketToken:
			st.pos++
			attr, err := st.parseAttr()
			if err != nil {
				return Compound{}, err
			}
			attr.Span = sp
			simples = append(simples, attr)
			sawAny = true
		case t.tt == css.ColonToken:
			st.pos++
			pseudo, err := st.parsePseudo()
			if err != nil {
				return Compound{}, err
			}
			pseudo.Span = sp
			simples = append(simples, pseudo)
			sawAny = true
		case t.tt == css.IdentToken && !sawAny:
			st.pos++
			simples = append(simples, TypeSel("", t.data, sp))
			sawAny = true
		default:
			if !sawAny {
				return Compound{}, st.errorf("expected simple selector, got %q", t.data)
			}
			c := NewCompound(simples...)
			c.Span = span
			return c, nil
		}
	}
	if !sawAny {
		return Compound{}, st.errorf("expected simple selector")
	}
	c := NewCompound(simples...)
	c.Span = span
	return c, nil
}

func (st *parseState) expectIdent() (string, error) {
	t, ok := st.next()
	if !ok || (t.tt != css.IdentToken && t.tt != css.NumberToken) {
		return "", st.errorf("expected identifier")
	}
	return t.data, nil
}

// parseAttr parses the inside of `[name op "value" i]` having already
// consumed `[`.
func (st *parseState) parseAttr() (Simple, error) {
	st.skipWhitespace()
	name, err := st.expectIdent()
	if err != nil {
		return Simple{}, err
	}
	st.skipWhitespace()
	t, ok := st.peek()
	if ok && t.tt == css.RightBracketToken {
		st.pos++
		return Attr(name, "", "", false, st.span()), nil
	}
	op, err := st.expectAttrOp()
	if err != nil {
		return Simple{}, err
	}
	st.skipWhitespace()
	value, err := st.expectValue()
	if err != nil {
		return Simple{}, err
	}
	st.skipWhitespace()
	ci := false
	if t, ok := st.peek(); ok && t.tt == css.IdentToken && (strings.EqualFold(t.data, "i") || strings.EqualFold(t.data, "s")) {
		ci = strings.EqualFold(t.data, "i")
		st.pos++
		st.skipWhitespace()
	}
	t, ok = st.peek()
	if !ok || t.tt != css.RightBracketToken {
		return Simple{}, st.errorf("expected ']'")
	}
	st.pos++
	return Attr(name, op, value, ci, st.span()), nil
}

func (st *parseState) expectAttrOp() (string, error) {
	t, ok := st.next()
	if !ok {
		return "", st.errorf("expected attribute operator")
	}
	switch t.tt {
	case css.DelimToken:
		if t.data == "=" {
			return "=", nil
		}
	case css.IncludeMatchToken:
		return "~=", nil
	case css.DashMatchToken:
		return "|=", nil
	case css.PrefixMatchToken:
		return "^=", nil
	case css.SuffixMatchToken:
		return "$=", nil
	case css.SubstringMatchToken:
		return "*=", nil
	}
	return "", st.errorf("unrecognized attribute operator %q", t.data)
}

func (st *parseState) expectValue() (string, error) {
	t, ok := st.next()
	if !ok {
		return "", st.errorf("expected attribute value")
	}
	switch t.tt {
	case css.StringToken:
		return unquoteCSSString(t.data), nil
	case css.IdentToken, css.NumberToken:
		return t.data, nil
	}
	return "", st.errorf("unexpected attribute value %q", t.data)
}

func unquoteCSSString(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// parsePseudo parses the part after a leading `:` (a second `:` is consumed
// here too, marking a pseudo-element).
func (st *parseState) parsePseudo() (Simple, error) {
	kind := PseudoClass
	if t, ok := st.peek(); ok && t.tt == css.ColonToken {
		st.pos++
		kind = PseudoElement
	}
	// A functional pseudo such as `not(` lexes as a single FunctionToken whose
	// data already includes the opening parenthesis.
	t, ok := st.next()
	if !ok || (t.tt != css.IdentToken && t.tt != css.NumberToken && t.tt != css.FunctionToken) {
		return Simple{}, st.errorf("expected identifier")
	}
	name := strings.TrimSuffix(t.data, "(")
	if t.tt != css.FunctionToken {
		t, ok = st.peek()
		if !ok || t.tt != css.LeftParenthesisToken && t.tt != css.FunctionToken {
			return Pseudo(kind, name, "", nil, st.span()), nil
		}
		st.pos++
	}
	if isNthPseudo(name) {
		arg, nested, err := st.parseNthArg()
		if err != nil {
			return Simple{}, err
		}
		return Pseudo(kind, name, arg, nested, st.span()), nil
	}
	// Try to parse a nested selector list first (covers :not, :matches, :is,
	// :has, :current, :host-context); fall back to an opaque argument string
	// when the argument does not parse as a selector list (e.g. :lang("en")).
	// A bare identifier such as :lang(en) parses as a type selector and is
	// kept as a nested list.
	save := st.pos
	if nested, ok := st.tryParseNestedList(); ok {
		return Pseudo(kind, name, "", nested, st.span()), nil
	}
	st.pos = save
	arg, err := st.parseOpaqueArg()
	if err != nil {
		return Simple{}, err
	}
	return Pseudo(kind, name, arg, nil, st.span()), nil
}

// isNthPseudo reports whether name takes an An+B expression that may be
// followed by "of <selector list>", per spec.md 4.A.
func isNthPseudo(name string) bool {
	switch name {
	case "nth-child", "nth-last-child":
		return true
	default:
		return false
	}
}

// parseNthArg parses the argument of :nth-child/:nth-last-child. The
// coefficient in an An+B expression tokenizes as a single Dimension token
// (e.g. "2n"), which parseCompound has no case for, so the An+B text is
// collected as raw token data rather than routed through the selector
// grammar. If a top-level "of" ident follows, the remainder is parsed as a
// nested selector list; otherwise the whole argument is the An+B text.
func (st *parseState) parseNthArg() (string, *List, error) {
	var b strings.Builder
	depth := 0
	for {
		t, ok := st.next()
		if !ok {
			return "", nil, st.errorf("unterminated pseudo argument")
		}
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			if depth == 0 {
				return strings.TrimSpace(b.String()), nil, nil
			}
			depth--
		case css.IdentToken:
			if depth == 0 && strings.EqualFold(t.data, "of") {
				arg := strings.TrimSpace(b.String())
				nested, err := st.parseListUntilCloseParen()
				if err != nil {
					return "", nil, err
				}
				return arg, nested, nil
			}
		}
		b.WriteString(t.data)
	}
}

func (st *parseState) tryParseNestedList() (*List, bool) {
	l, err := st.parseListUntilCloseParen()
	if err != nil || l == nil {
		return nil, false
	}
	return l, true
}

func (st *parseState) parseListUntilCloseParen() (*List, error) {
	start := st.pos
	depth := 0
	end := -1
	for i := st.pos; i < len(st.toks); i++ {
		switch st.toks[i].tt {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			if depth == 0 {
				end = i
			} else {
				depth--
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("unterminated pseudo argument")
	}
	sub := &parseState{toks: st.toks[start:end], source: st.source, log: st.log}
	l, err := sub.parseList()
	if err != nil || sub.pos != len(sub.toks) {
		return nil, fmt.Errorf("not a nested selector list")
	}
	st.pos = end + 1
	return l, nil
}

// parseOpaqueArg consumes tokens up to the matching close-paren and returns
// their concatenated raw text, for pseudos whose argument isn't itself a
// selector list (e.g. :lang("en")). :nth-child and :nth-last-child
// arguments go through parseNthArg instead.
func (st *parseState) parseOpaqueArg() (string, error) {
	var b strings.Builder
	depth := 0
	for {
		t, ok := st.next()
		if !ok {
			return "", st.errorf("unterminated pseudo argument")
		}
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			if depth == 0 {
				return strings.TrimSpace(b.String()), nil
			}
			depth--
		}
		b.WriteString(t.data)
	}
}

// FormatNumber renders a float in its shortest decimal form, with no
// trailing zero fraction. Nothing in this package calls it: :nth-child
// arguments are kept as their raw token text.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}
