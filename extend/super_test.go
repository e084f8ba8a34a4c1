package extend

import (
	"testing"

	"sasse/selector"
)

func complexOf(compounds ...selector.Compound) selector.Complex {
	comps := make([]selector.Component, 0, len(compounds)*2)
	for i, c := range compounds {
		if i > 0 {
			comps = append(comps, selector.CombinatorComponent(selector.Descendant))
		}
		comps = append(comps, selector.CompoundComponent(c))
	}
	return selector.NewComplex(comps...)
}

func TestIsSuperselectorReflexive(t *testing.T) {
	c := complexOf(selector.NewCompound(selector.Class("a", selector.Span{}), selector.Class("b", selector.Span{})))
	if !IsSuperselector(c, c) {
		t.Errorf("a selector should be its own superselector")
	}
}

func TestIsSuperselectorCompoundSubset(t *testing.T) {
	a := complexOf(selector.NewCompound(selector.Class("a", selector.Span{})))
	ab := complexOf(selector.NewCompound(selector.Class("a", selector.Span{}), selector.Class("b", selector.Span{})))
	if !IsSuperselector(a, ab) {
		t.Errorf(".a should be a superselector of .a.b")
	}
	if IsSuperselector(ab, a) {
		t.Errorf(".a.b should not be a superselector of .a")
	}
}

func TestIsSuperselectorAncestry(t *testing.T) {
	// ".x .y" matches anything ".x .a .y" would, since descendant combinators
	// only require *some* ancestor, not an immediate one.
	xy := complexOf(
		selector.NewCompound(selector.Class("x", selector.Span{})),
		selector.NewCompound(selector.Class("y", selector.Span{})),
	)
	xay := complexOf(
		selector.NewCompound(selector.Class("x", selector.Span{})),
		selector.NewCompound(selector.Class("a", selector.Span{})),
		selector.NewCompound(selector.Class("y", selector.Span{})),
	)
	if !IsSuperselector(xy, xay) {
		t.Errorf(".x .y should be a superselector of .x .a .y")
	}
}

func TestIsSuperselectorChildCombinatorIsStrict(t *testing.T) {
	comps := []selector.Component{
		selector.CompoundComponent(selector.NewCompound(selector.Class("x", selector.Span{}))),
		selector.CombinatorComponent(selector.Child),
		selector.CompoundComponent(selector.NewCompound(selector.Class("y", selector.Span{}))),
	}
	xChildY := selector.NewComplex(comps...)

	deeperComps := []selector.Component{
		selector.CompoundComponent(selector.NewCompound(selector.Class("x", selector.Span{}))),
		selector.CombinatorComponent(selector.Descendant),
		selector.CompoundComponent(selector.NewCompound(selector.Class("a", selector.Span{}))),
		selector.CombinatorComponent(selector.Child),
		selector.CompoundComponent(selector.NewCompound(selector.Class("y", selector.Span{}))),
	}
	xDescendantAChildY := selector.NewComplex(deeperComps...)

	if IsSuperselector(xChildY, xDescendantAChildY) {
		t.Errorf("'.x > .y' should not be a superselector of '.x .a > .y': the child hop must be immediate")
	}
}

func TestIsSuperselectorNotIsInverted(t *testing.T) {
	// :not(.a.b) matches everything :not(.a) matches, and more (an element
	// with .a but not .b is matched by :not(.a.b) but not by :not(.a)), so
	// :not(.a.b) is broader.
	notA := selector.NewCompound(selector.Pseudo(selector.PseudoClass, "not",
		"", selector.NewList(complexOf(selector.NewCompound(selector.Class("a", selector.Span{})))), selector.Span{}))
	notAB := selector.NewCompound(selector.Pseudo(selector.PseudoClass, "not",
		"", selector.NewList(complexOf(selector.NewCompound(
			selector.Class("a", selector.Span{}), selector.Class("b", selector.Span{})))), selector.Span{}))

	if !isSuperCompound(notAB, notA) {
		t.Errorf(":not(.a.b) should be a superselector of :not(.a)")
	}
	if isSuperCompound(notA, notAB) {
		t.Errorf(":not(.a) should not be a superselector of :not(.a.b)")
	}
}

func TestIsSuperselectorMatchesIsAnyOf(t *testing.T) {
	// :matches(.a, .b) is broader than :matches(.a).
	broad := selector.Pseudo(selector.PseudoClass, "matches", "", selector.NewList(
		complexOf(selector.NewCompound(selector.Class("a", selector.Span{}))),
		complexOf(selector.NewCompound(selector.Class("b", selector.Span{}))),
	), selector.Span{})
	narrow := selector.Pseudo(selector.PseudoClass, "matches", "", selector.NewList(
		complexOf(selector.NewCompound(selector.Class("a", selector.Span{}))),
	), selector.Span{})

	if !isSuperSimple(broad, narrow) {
		t.Errorf(":matches(.a, .b) should be a superselector of :matches(.a)")
	}
	if isSuperSimple(narrow, broad) {
		t.Errorf(":matches(.a) should not be a superselector of :matches(.a, .b)")
	}
}

func TestIsSuperselectorHasIsOpaque(t *testing.T) {
	hasA := selector.Pseudo(selector.PseudoClass, "has", "", selector.NewList(
		complexOf(selector.NewCompound(selector.Class("a", selector.Span{}))),
	), selector.Span{})
	hasAB := selector.Pseudo(selector.PseudoClass, "has", "", selector.NewList(
		complexOf(selector.NewCompound(selector.Class("a", selector.Span{}), selector.Class("b", selector.Span{}))),
	), selector.Span{})

	// Unlike :matches, :has never recurses through the general superselector
	// relation: only exact-list equality counts.
	if isSuperSimple(hasA, hasAB) {
		t.Errorf(":has(.a) should not be considered a superselector of :has(.a.b): :has is opaque")
	}
	if !isSuperSimple(hasA, hasA) {
		t.Errorf(":has(.a) should be its own superselector")
	}
}

func TestIsSuperselectorNthChildRequiresExactArg(t *testing.T) {
	inner := selector.NewList(complexOf(selector.NewCompound(selector.Class("a", selector.Span{}))))
	odd := selector.Pseudo(selector.PseudoClass, "nth-child", "odd", inner, selector.Span{})
	even := selector.Pseudo(selector.PseudoClass, "nth-child", "even", inner, selector.Span{})

	if isSuperSimple(odd, even) {
		t.Errorf(":nth-child(odd of .a) should not be a superselector of :nth-child(even of .a): the An+B argument must match exactly")
	}
	if !isSuperSimple(odd, odd) {
		t.Errorf(":nth-child(odd of .a) should be its own superselector")
	}
}
