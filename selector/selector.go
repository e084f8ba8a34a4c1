// Package selector implements the data model for the CSS-selector grammar
// used by the extender: simple, compound and complex selectors, selector
// lists, specificity, and the parent-reference resolution used by nested
// rules.
package selector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Span identifies a location in stylesheet source for diagnostics. Synthetic
// selectors fabricated by the engine (debugging output, `[phony]` sources)
// carry a zero Span and must never surface it to a user.
type Span struct {
	Source string
	Line   int
	Column int
	Length int
}

func (s Span) synthetic() bool { return s.Source == "" }

// Specificity weights, per spec.md 4.A.
const (
	SpecificityID        = 1000000
	SpecificityClass     = 1000
	SpecificityType      = 1
	SpecificityUniversal = 0
)

// Combinator joins two compound selectors inside a Complex selector.
type Combinator int

const (
	// Descendant is the blank-space combinator.
	Descendant Combinator = iota
	Child
	Adjacent
	Sibling
)

func (c Combinator) String() string {
	switch c {
	case Child:
		return ">"
	case Adjacent:
		return "+"
	case Sibling:
		return "~"
	default:
		return ""
	}
}

// PseudoKind distinguishes pseudo-classes from pseudo-elements.
type PseudoKind int

const (
	PseudoClass PseudoKind = iota
	PseudoElement
)

// Simple is one atom of a compound selector: universal, type, class, id,
// attribute, pseudo, placeholder or parent-reference.
type Simple struct {
	kind simpleKind

	// Type / universal.
	Namespace string
	Name      string

	// Attribute.
	AttrOp    string // one of =, ~=, |=, ^=, $=, *=, or "" for [name]
	AttrValue string
	AttrCI    bool // case-insensitive flag ("i")

	// Pseudo.
	PseudoKind PseudoKind
	PseudoArg  string
	PseudoList *List // non-nil for pseudos like :not(.a, .b)

	Span Span
}

type simpleKind int

const (
	kindUniversal simpleKind = iota
	kindType
	kindClass
	kindID
	kindAttr
	kindPseudo
	kindPlaceholder
	kindParent
)

// Constructors.

func Universal(span Span) Simple { return Simple{kind: kindUniversal, Span: span} }

func TypeSel(namespace, name string, span Span) Simple {
	return Simple{kind: kindType, Namespace: namespace, Name: name, Span: span}
}

func Class(name string, span Span) Simple { return Simple{kind: kindClass, Name: name, Span: span} }

func ID(name string, span Span) Simple { return Simple{kind: kindID, Name: name, Span: span} }

func Attr(name, op, value string, ci bool, span Span) Simple {
	return Simple{kind: kindAttr, Name: name, AttrOp: op, AttrValue: value, AttrCI: ci, Span: span}
}

func Pseudo(kind PseudoKind, name, arg string, nested *List, span Span) Simple {
	return Simple{kind: kindPseudo, PseudoKind: kind, Name: normalizePseudoName(name), PseudoArg: arg, PseudoList: nested, Span: span}
}

func Placeholder(name string, span Span) Simple {
	return Simple{kind: kindPlaceholder, Name: name, Span: span}
}

func ParentRef(span Span) Simple { return Simple{kind: kindParent, Span: span} }

func normalizePseudoName(s string) string { return strings.ToLower(s) }

// Predicates.

func (s Simple) IsUniversal() bool   { return s.kind == kindUniversal }
func (s Simple) IsType() bool        { return s.kind == kindType }
func (s Simple) IsClass() bool       { return s.kind == kindClass }
func (s Simple) IsID() bool          { return s.kind == kindID }
func (s Simple) IsAttr() bool        { return s.kind == kindAttr }
func (s Simple) IsPseudo() bool      { return s.kind == kindPseudo }
func (s Simple) IsPseudoElement() bool {
	return s.kind == kindPseudo && s.PseudoKind == PseudoElement
}
func (s Simple) IsPlaceholder() bool { return s.kind == kindPlaceholder }
func (s Simple) IsParentRef() bool   { return s.kind == kindParent }

// Key returns a value comparable with ==, used for de-duplication and as a
// map key in the extender's reverse indices. Two simples with the same Key
// are considered identical.
func (s Simple) Key() string {
	var b strings.Builder
	switch s.kind {
	case kindUniversal:
		b.WriteString("*")
	case kindType:
		fmt.Fprintf(&b, "T:%s|%s", s.Namespace, s.Name)
	case kindClass:
		fmt.Fprintf(&b, "C:%s", s.Name)
	case kindID:
		fmt.Fprintf(&b, "I:%s", s.Name)
	case kindAttr:
		ci := ""
		if s.AttrCI {
			ci = "i"
		}
		fmt.Fprintf(&b, "A:%s%s%s%s", s.Name, s.AttrOp, s.AttrValue, ci)
	case kindPseudo:
		fmt.Fprintf(&b, "P:%d:%s:%s", s.PseudoKind, s.Name, s.PseudoArg)
		if s.PseudoList != nil {
			fmt.Fprintf(&b, ":%s", s.PseudoList.Key())
		}
	case kindPlaceholder:
		fmt.Fprintf(&b, "%%:%s", s.Name)
	case kindParent:
		b.WriteString("&")
	}
	return b.String()
}

func (s Simple) Equal(o Simple) bool { return s.Key() == o.Key() }

// Specificity per spec.md 4.A: id=1e6, class/attr/pseudo-class=1e3,
// type/pseudo-element=1, universal=0, :not/:matches/:is take the max of
// their nested list, placeholder counts as class.
func (s Simple) Specificity() int {
	lo, hi := s.specificityRange()
	if lo > hi {
		return lo
	}
	return hi
}

func (s Simple) minSpecificity() int { lo, _ := s.specificityRange(); return lo }
func (s Simple) maxSpecificity() int { _, hi := s.specificityRange(); return hi }

func (s Simple) specificityRange() (min, max int) {
	switch s.kind {
	case kindID:
		return SpecificityID, SpecificityID
	case kindClass, kindAttr, kindPlaceholder:
		return SpecificityClass, SpecificityClass
	case kindType:
		return SpecificityType, SpecificityType
	case kindUniversal:
		return SpecificityUniversal, SpecificityUniversal
	case kindPseudo:
		if s.PseudoKind == PseudoElement {
			return SpecificityType, SpecificityType
		}
		if s.PseudoList != nil {
			return s.PseudoList.minSpecificity(), s.PseudoList.maxSpecificity()
		}
		return SpecificityClass, SpecificityClass
	default:
		return 0, 0
	}
}

func (s Simple) String() string {
	switch s.kind {
	case kindUniversal:
		return "*"
	case kindType:
		if s.Namespace != "" {
			return s.Namespace + "|" + s.Name
		}
		return s.Name
	case kindClass:
		return "." + s.Name
	case kindID:
		return "#" + s.Name
	case kindAttr:
		ci := ""
		if s.AttrCI {
			ci = " i"
		}
		if s.AttrOp == "" {
			return "[" + s.Name + "]"
		}
		return fmt.Sprintf("[%s%s\"%s\"%s]", s.Name, s.AttrOp, s.AttrValue, ci)
	case kindPseudo:
		colons := ":"
		if s.PseudoKind == PseudoElement {
			colons = "::"
		}
		if s.PseudoList != nil {
			if s.PseudoArg != "" {
				return fmt.Sprintf("%s%s(%s of %s)", colons, s.Name, s.PseudoArg, s.PseudoList.String())
			}
			return fmt.Sprintf("%s%s(%s)", colons, s.Name, s.PseudoList.String())
		}
		if s.PseudoArg != "" {
			return fmt.Sprintf("%s%s(%s)", colons, s.Name, s.PseudoArg)
		}
		return colons + s.Name
	case kindPlaceholder:
		return "%" + s.Name
	case kindParent:
		return "&"
	default:
		return ""
	}
}

// Compound is a non-empty, ordered sequence of simple selectors. At most one
// type selector, which must come first; no duplicate ids. Equality is
// order-insensitive for everything after the leading type selector.
type Compound struct {
	Simples        []Simple
	HasPreLineFeed bool
	Span           Span
	// id is a stable identity used by the extender's reverse indices; it is
	// assigned once at construction and never recomputed, per DESIGN NOTES
	// (stable handles rather than raw addresses).
	id uuid.UUID
}

func NewCompound(simples ...Simple) Compound {
	c := Compound{Simples: canonicalOrder(simples), id: uuid.New()}
	return c
}

// canonicalOrder places the type/universal selector first (if present),
// preserves relative order for the rest, but pushes placeholders after
// classes and pseudo-elements to the very end, matching the unifier's
// canonical ordering (spec.md 4.D).
func canonicalOrder(in []Simple) []Simple {
	var typ *Simple
	var rest, placeholders, pseudoElems []Simple
	for i := range in {
		s := in[i]
		switch {
		case s.IsType() || s.IsUniversal():
			if typ == nil {
				t := s
				typ = &t
			}
		case s.IsPlaceholder():
			placeholders = append(placeholders, s)
		case s.IsPseudoElement():
			pseudoElems = append(pseudoElems, s)
		default:
			rest = append(rest, s)
		}
	}
	out := make([]Simple, 0, len(in))
	if typ != nil {
		out = append(out, *typ)
	}
	out = append(out, rest...)
	out = append(out, placeholders...)
	out = append(out, pseudoElems...)
	return out
}

// ID returns the compound's stable handle identity.
func (c Compound) ID() uuid.UUID { return c.id }

// Contains reports whether the compound contains a simple with the given key.
func (c Compound) Contains(s Simple) bool {
	k := s.Key()
	for _, cs := range c.Simples {
		if cs.Key() == k {
			return true
		}
	}
	return false
}

// TypeSimple returns the leading type/universal simple, if any.
func (c Compound) TypeSimple() (Simple, bool) {
	if len(c.Simples) > 0 && (c.Simples[0].IsType() || c.Simples[0].IsUniversal()) {
		return c.Simples[0], true
	}
	return Simple{}, false
}

// Specificity sums the specificities of its simples.
func (c Compound) Specificity() int {
	total := 0
	for _, s := range c.Simples {
		total += s.Specificity()
	}
	return total
}

func (c Compound) minSpecificity() int {
	total := 0
	for _, s := range c.Simples {
		total += s.minSpecificity()
	}
	return total
}

func (c Compound) maxSpecificity() int {
	total := 0
	for _, s := range c.Simples {
		total += s.maxSpecificity()
	}
	return total
}

// ContainsParentRef reports whether any simple is `&`.
func (c Compound) ContainsParentRef() bool {
	for _, s := range c.Simples {
		if s.IsParentRef() {
			return true
		}
	}
	return false
}

// ContainsPlaceholder reports whether any simple is a placeholder.
func (c Compound) ContainsPlaceholder() bool {
	for _, s := range c.Simples {
		if s.IsPlaceholder() {
			return true
		}
	}
	return false
}

// Equal is order-insensitive for everything but the leading type selector,
// per spec.md 4.A.
func (c Compound) Equal(o Compound) bool {
	if len(c.Simples) != len(o.Simples) {
		return false
	}
	at, aok := c.TypeSimple()
	bt, bok := o.TypeSimple()
	if aok != bok || (aok && !at.Equal(bt)) {
		return false
	}
	used := make([]bool, len(o.Simples))
outer:
	for _, s := range c.Simples {
		if aok && s.Equal(at) {
			continue
		}
		for j, os := range o.Simples {
			if used[j] || (bok && os.Equal(bt)) {
				continue
			}
			if s.Equal(os) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

func (c Compound) String() string {
	var b strings.Builder
	for _, s := range c.Simples {
		b.WriteString(s.String())
	}
	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

// Component is either a Compound or a bare Combinator inside a Complex
// selector.
type Component struct {
	Compound   *Compound
	Combinator Combinator
	isCombinator bool
}

func CompoundComponent(c Compound) Component { return Component{Compound: &c} }
func CombinatorComponent(c Combinator) Component {
	return Component{Combinator: c, isCombinator: true}
}

func (c Component) IsCombinator() bool { return c.isCombinator }

func (c Component) String() string {
	if c.isCombinator {
		if c.Combinator == Descendant {
			return " "
		}
		return " " + c.Combinator.String() + " "
	}
	return c.Compound.String()
}

// Complex is a non-empty ordered sequence of components: combinators never
// appear adjacent, and the first/last components are compounds.
type Complex struct {
	Components     []Component
	HasPreLineFeed bool
	// Original marks a selector that must never be trimmed (spec.md I3).
	Original bool
	id       uuid.UUID
}

func NewComplex(components ...Component) Complex {
	return Complex{Components: components, id: uuid.New()}
}

func (c Complex) ID() uuid.UUID { return c.id }

// Compounds returns just the compound components, in order.
func (c Complex) Compounds() []Compound {
	var out []Compound
	for _, comp := range c.Components {
		if !comp.IsCombinator() {
			out = append(out, *comp.Compound)
		}
	}
	return out
}

// Specificity sums the specificity of its compounds (spec.md 4.A).
func (c Complex) Specificity() int {
	total := 0
	for _, comp := range c.Compounds() {
		total += comp.Specificity()
	}
	return total
}

func (c Complex) minSpecificity() int {
	total := 0
	for _, comp := range c.Compounds() {
		total += comp.minSpecificity()
	}
	return total
}

func (c Complex) maxSpecificity() int {
	total := 0
	for _, comp := range c.Compounds() {
		total += comp.maxSpecificity()
	}
	return total
}

// ContainsParentRef reports whether any compound in the complex contains `&`.
func (c Complex) ContainsParentRef() bool {
	for _, comp := range c.Compounds() {
		if comp.ContainsParentRef() {
			return true
		}
	}
	return false
}

// ContainsSimple reports whether the complex mentions a simple with the given
// key anywhere.
func (c Complex) ContainsSimple(s Simple) bool {
	for _, comp := range c.Compounds() {
		if comp.Contains(s) {
			return true
		}
	}
	return false
}

// Equal compares components positionally: combinators must match exactly,
// compounds compare with Compound.Equal.
func (c Complex) Equal(o Complex) bool {
	if len(c.Components) != len(o.Components) {
		return false
	}
	for i := range c.Components {
		a, b := c.Components[i], o.Components[i]
		if a.IsCombinator() != b.IsCombinator() {
			return false
		}
		if a.IsCombinator() {
			if a.Combinator != b.Combinator {
				return false
			}
			continue
		}
		if !a.Compound.Equal(*b.Compound) {
			return false
		}
	}
	return true
}

func (c Complex) String() string {
	var b strings.Builder
	for _, comp := range c.Components {
		b.WriteString(comp.String())
	}
	return strings.TrimSpace(b.String())
}

// ResolveParent replaces `&` in c by the compounds/complexes in parents,
// producing one complex selector per parent complex. If c contains no parent
// reference, parents are prepended as a descendant ancestor per Sass nesting
// rules when parents is non-empty; with no parents, c is returned unchanged.
func (c Complex) ResolveParent(parents *List) []Complex {
	if !c.ContainsParentRef() {
		if parents == nil || len(parents.Complexes) == 0 {
			return []Complex{c}
		}
		out := make([]Complex, 0, len(parents.Complexes))
		for _, p := range parents.Complexes {
			merged := append(append([]Component{}, p.Components...), CombinatorComponent(Descendant))
			merged = append(merged, c.Components...)
			nc := NewComplex(merged...)
			nc.HasPreLineFeed = c.HasPreLineFeed
			out = append(out, nc)
		}
		return out
	}
	if parents == nil || len(parents.Complexes) == 0 {
		return []Complex{c}
	}
	var out []Complex
	for _, p := range parents.Complexes {
		out = append(out, resolveParentOne(c, p))
	}
	return out
}

func resolveParentOne(c, parent Complex) Complex {
	var comps []Component
	for _, comp := range c.Components {
		if comp.IsCombinator() {
			comps = append(comps, comp)
			continue
		}
		if !comp.Compound.ContainsParentRef() {
			comps = append(comps, comp)
			continue
		}
		var simples []Simple
		for _, s := range comp.Compound.Simples {
			if s.IsParentRef() {
				continue
			}
			simples = append(simples, s)
		}
		// Splice parent's components in place of `&`.
		comps = append(comps, parent.Components...)
		if len(simples) > 0 {
			last := comps[len(comps)-1]
			if !last.IsCombinator() {
				merged := append(append([]Simple{}, last.Compound.Simples...), simples...)
				nc := NewCompound(merged...)
				comps[len(comps)-1] = CompoundComponent(nc)
			}
		}
	}
	nc := NewComplex(comps...)
	nc.HasPreLineFeed = c.HasPreLineFeed
	nc.Original = c.Original
	return nc
}

// List is an ordered selector list: a comma-separated group of complex
// selectors. Order matters for serialization; set semantics (used by the
// extender's bookkeeping) are order-insensitive.
type List struct {
	Complexes []Complex
	id        uuid.UUID
}

func NewList(complexes ...Complex) *List {
	return &List{Complexes: complexes, id: uuid.New()}
}

// ID is the handle identity the extender's registry keys off of.
func (l *List) ID() uuid.UUID { return l.id }

func (l *List) minSpecificity() int {
	if len(l.Complexes) == 0 {
		return 0
	}
	m := l.Complexes[0].minSpecificity()
	for _, c := range l.Complexes[1:] {
		if v := c.minSpecificity(); v < m {
			m = v
		}
	}
	return m
}

func (l *List) maxSpecificity() int {
	m := 0
	for _, c := range l.Complexes {
		if v := c.maxSpecificity(); v > m {
			m = v
		}
	}
	return m
}

// IsInvisible reports whether every complex in the list contains a
// placeholder selector, meaning the list produces no CSS on its own.
func (l *List) IsInvisible() bool {
	if len(l.Complexes) == 0 {
		return true
	}
	for _, c := range l.Complexes {
		hasPlaceholder := false
		for _, comp := range c.Compounds() {
			if comp.ContainsPlaceholder() {
				hasPlaceholder = true
				break
			}
		}
		if !hasPlaceholder {
			return false
		}
	}
	return true
}

// ContainsParentRef reports whether any member complex references `&`.
func (l *List) ContainsParentRef() bool {
	for _, c := range l.Complexes {
		if c.ContainsParentRef() {
			return true
		}
	}
	return false
}

// ResolveParent resolves `&` for every member complex against parents.
func (l *List) ResolveParent(parents *List) *List {
	var out []Complex
	for _, c := range l.Complexes {
		out = append(out, c.ResolveParent(parents)...)
	}
	nl := NewList(out...)
	return nl
}

// Key is a stable, order-insensitive fingerprint used for set membership in
// the extender's bookkeeping.
func (l *List) Key() string {
	keys := make([]string, len(l.Complexes))
	for i, c := range l.Complexes {
		keys[i] = c.String()
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (l *List) String() string {
	parts := make([]string, len(l.Complexes))
	for i, c := range l.Complexes {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Equal compares selector lists positionally (serialization-order equality).
func (l *List) Equal(o *List) bool {
	if len(l.Complexes) != len(o.Complexes) {
		return false
	}
	for i := range l.Complexes {
		if !l.Complexes[i].Equal(o.Complexes[i]) {
			return false
		}
	}
	return true
}
