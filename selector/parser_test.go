package selector

import (
	"errors"
	"testing"
)

func parseSelector(t *testing.T, src string) Complex {
	t.Helper()
	c, err := NewParser(nil).ParseComplex(src, "<test>")
	if err != nil {
		t.Fatalf("ParseComplex(%q): %v", src, err)
	}
	return c
}

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		".a",
		".a.b",
		"div.a",
		"#main",
		"*",
		".a .b",
		".a > .b",
		".a + .b",
		".a ~ .b",
		".a .b > .c",
		":hover",
		"::before",
		"& .inner",
		"%placeholder",
		"[href]",
		`[href="x"]`,
		`[href^="x" i]`,
		":nth-child(2n+1 of .a)",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			c := parseSelector(t, src)
			if got := c.String(); got != src {
				t.Errorf("round trip: parseSelector(%q).String() = %q, want %q", src, got, src)
			}
		})
	}
}

func TestParseListSplitsOnComma(t *testing.T) {
	l, err := NewParser(nil).ParseList(".a, .b", "<test>")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(l.Complexes) != 2 {
		t.Fatalf("expected 2 complexes, got %d", len(l.Complexes))
	}
	if got, want := l.String(), ".a, .b"; got != want {
		t.Errorf("List.String() = %q, want %q", got, want)
	}
}

func TestParseCompoundEqualityIgnoresClassOrder(t *testing.T) {
	c := parseSelector(t, ".a.b")
	// Same compound, classes reordered by the parser input, must compare
	// equal regardless of source order.
	other := parseSelector(t, ".b.a")
	if !c.Equal(other) {
		t.Errorf(".a.b and .b.a should be Equal")
	}
}

func TestParseNestedPseudoList(t *testing.T) {
	c := parseSelector(t, ":not(.a, .b)")
	compounds := c.Compounds()
	if len(compounds) != 1 || len(compounds[0].Simples) != 1 {
		t.Fatalf("expected a single :not(...) simple, got %q", c.String())
	}
	s := compounds[0].Simples[0]
	if !s.IsPseudo() || s.Name != "not" {
		t.Fatalf("expected a :not pseudo, got %+v", s)
	}
	if s.PseudoList == nil || len(s.PseudoList.Complexes) != 2 {
		t.Fatalf("expected :not's argument to parse as a 2-element selector list")
	}
}

func TestParseNthChildOpaqueArg(t *testing.T) {
	c := parseSelector(t, ":nth-child(2n+1)")
	compounds := c.Compounds()
	s := compounds[0].Simples[0]
	if s.PseudoArg != "2n+1" {
		t.Errorf("PseudoArg = %q, want %q", s.PseudoArg, "2n+1")
	}
}

func TestParseNthChildOfList(t *testing.T) {
	c := parseSelector(t, ":nth-child(2n+1 of .a)")
	compounds := c.Compounds()
	s := compounds[0].Simples[0]
	if s.PseudoArg != "2n+1" {
		t.Errorf("PseudoArg = %q, want %q", s.PseudoArg, "2n+1")
	}
	if s.PseudoList == nil || len(s.PseudoList.Complexes) != 1 {
		t.Fatalf("expected :nth-child(... of .a) to carry a nested list, got %+v", s)
	}
}

func TestParseNthLastChildOfMultiSelectorList(t *testing.T) {
	c := parseSelector(t, ":nth-last-child(odd of .a, .b)")
	compounds := c.Compounds()
	s := compounds[0].Simples[0]
	if s.PseudoArg != "odd" {
		t.Errorf("PseudoArg = %q, want %q", s.PseudoArg, "odd")
	}
	if s.PseudoList == nil || len(s.PseudoList.Complexes) != 2 {
		t.Fatalf("expected two complexes in the nested list, got %+v", s.PseudoList)
	}
}

func TestParseInvalidSelectorSyntaxError(t *testing.T) {
	_, err := NewParser(nil).ParseComplex(".a >", "<test>")
	if err == nil {
		t.Fatal("expected a SyntaxError for a selector ending in a combinator")
	}
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Errorf("expected a *SyntaxError, got %T: %v", err, err)
	}
}
