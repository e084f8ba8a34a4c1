package selector

import "testing"

func TestSimpleSpecificity(t *testing.T) {
	cases := []struct {
		name string
		s    Simple
		want int
	}{
		{"universal", Universal(Span{}), SpecificityUniversal},
		{"type", TypeSel("", "div", Span{}), SpecificityType},
		{"class", Class("foo", Span{}), SpecificityClass},
		{"id", ID("bar", Span{}), SpecificityID},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.s.Specificity(); got != c.want {
				t.Errorf("Specificity() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestSimpleKeyEquality(t *testing.T) {
	a := Class("foo", Span{Source: "a.scss", Line: 1})
	b := Class("foo", Span{Source: "b.scss", Line: 99})
	if !a.Equal(b) {
		t.Errorf("classes with the same name but different spans should be equal")
	}
	c := Class("bar", Span{})
	if a.Equal(c) {
		t.Errorf("classes with different names should not be equal")
	}
}

func TestCompoundCanonicalOrder(t *testing.T) {
	c := NewCompound(Class("b", Span{}), TypeSel("", "div", Span{}), Class("a", Span{}))
	if len(c.Simples) != 3 {
		t.Fatalf("expected 3 simples, got %d", len(c.Simples))
	}
	if !c.Simples[0].IsType() {
		t.Errorf("type selector should sort first, got %v", c.Simples[0])
	}
}

func TestCompoundSpecificitySum(t *testing.T) {
	c := NewCompound(TypeSel("", "div", Span{}), Class("a", Span{}), Class("b", Span{}))
	want := SpecificityType + 2*SpecificityClass
	if got := c.Specificity(); got != want {
		t.Errorf("Specificity() = %d, want %d", got, want)
	}
}

func TestComplexSpecificityIgnoresCombinators(t *testing.T) {
	a := NewCompound(Class("x", Span{}))
	b := NewCompound(Class("y", Span{}))
	complex := NewComplex(CompoundComponent(a), CombinatorComponent(Child), CompoundComponent(b))
	want := 2 * SpecificityClass
	if got := complex.Specificity(); got != want {
		t.Errorf("Specificity() = %d, want %d", got, want)
	}
}

func TestListInvisibleWhenEveryComplexHasPlaceholder(t *testing.T) {
	a := NewComplex(CompoundComponent(NewCompound(Placeholder("foo", Span{}))))
	b := NewComplex(CompoundComponent(NewCompound(Class("visible", Span{}))))

	onlyPlaceholder := NewList(a)
	if !onlyPlaceholder.IsInvisible() {
		t.Errorf("a list whose only selector is a placeholder should be invisible")
	}

	mixed := NewList(a, b)
	if mixed.IsInvisible() {
		t.Errorf("a list with one visible selector should not be invisible")
	}
}

func TestComplexResolveParent(t *testing.T) {
	parentList := NewList(NewComplex(CompoundComponent(NewCompound(Class("outer", Span{})))))
	nested := NewComplex(
		CompoundComponent(NewCompound(ParentRef(Span{}))),
		CombinatorComponent(Descendant),
		CompoundComponent(NewCompound(Class("inner", Span{}))),
	)
	resolved := nested.ResolveParent(parentList)
	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved complex, got %d", len(resolved))
	}
	got := resolved[0].String()
	want := ".outer .inner"
	if got != want {
		t.Errorf("ResolveParent() = %q, want %q", got, want)
	}
}
