package extend

import (
	"testing"

	"sasse/selector"
)

func parseList(t *testing.T, src string) *selector.List {
	t.Helper()
	l, err := selector.NewParser(nil).ParseList(src, "<test>")
	if err != nil {
		t.Fatalf("ParseList(%q): %v", src, err)
	}
	return l
}

func parseSimple(t *testing.T, src string) selector.Simple {
	t.Helper()
	c, err := selector.NewParser(nil).ParseComplex(src, "<test>")
	if err != nil {
		t.Fatalf("ParseComplex(%q): %v", src, err)
	}
	compounds := c.Compounds()
	if len(compounds) != 1 || len(compounds[0].Simples) != 1 {
		t.Fatalf("expected a single simple selector, got %q", src)
	}
	return compounds[0].Simples[0]
}

func parseComplex(t *testing.T, src string) selector.Complex {
	t.Helper()
	c, err := selector.NewParser(nil).ParseComplex(src, "<test>")
	if err != nil {
		t.Fatalf("ParseComplex(%q): %v", src, err)
	}
	return c
}

// scenario 1: Basic extend.
func TestExtendBasic(t *testing.T) {
	e := New(nil)
	a := parseList(t, ".a")
	if err := e.Register(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Extend(parseComplex(t, ".b"), parseSimple(t, ".a"), false, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Finalize(); err != nil {
		t.Fatalf("unexpected diagnostics: %v", err)
	}
	if got, want := a.String(), ".a, .b"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// scenario 2: Transitive extend, via loop closure.
func TestExtendTransitive(t *testing.T) {
	e := New(nil)
	a := parseList(t, ".a")
	if err := e.Register(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Extend(parseComplex(t, ".b"), parseSimple(t, ".a"), false, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Extend(parseComplex(t, ".c"), parseSimple(t, ".b"), false, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Finalize(); err != nil {
		t.Fatalf("unexpected diagnostics: %v", err)
	}
	if got, want := a.String(), ".a, .b, .c"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// scenario 3: Compound target — extending one simple inside a multi-simple
// compound must preserve the compound's other simples.
func TestExtendCompoundTarget(t *testing.T) {
	e := New(nil)
	ab := parseList(t, ".a.b")
	if err := e.Register(ab, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Extend(parseComplex(t, ".c"), parseSimple(t, ".a"), false, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Finalize(); err != nil {
		t.Fatalf("unexpected diagnostics: %v", err)
	}
	got := ab.String()
	want := ".a.b, .c.b"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// scenario 4: Selector weaving.
func TestExtendWeaving(t *testing.T) {
	e := New(nil)
	xy := parseList(t, ".x .y")
	if err := e.Register(xy, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Extend(parseComplex(t, ".a .b"), parseSimple(t, ".y"), false, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Finalize(); err != nil {
		t.Fatalf("unexpected diagnostics: %v", err)
	}
	got := xy.String()
	want := ".x .y, .x .a .b, .a .x .b"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// scenario 5: Optional unmatched extend produces no diagnostic.
func TestExtendOptionalUnmatched(t *testing.T) {
	e := New(nil)
	if err := e.Extend(parseComplex(t, ".a"), parseSimple(t, ".b"), true, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Finalize(); err != nil {
		t.Fatalf("optional unmatched extend should not raise a diagnostic: %v", err)
	}
}

// Required (non-optional) extends that never match must raise
// UnsatisfiedExtend at Finalize.
func TestExtendRequiredUnmatched(t *testing.T) {
	e := New(nil)
	if err := e.Extend(parseComplex(t, ".a"), parseSimple(t, ".b"), false, nil); err != nil {
		t.Fatal(err)
	}
	err := e.Finalize()
	if err == nil {
		t.Fatal("expected UnsatisfiedExtend diagnostic, got nil")
	}
}

// scenario 6: Across media — extending a rule declared under an
// incompatible media context must raise ExtendAcrossMedia.
func TestExtendAcrossMedia(t *testing.T) {
	e := New(nil)
	a := parseList(t, ".a")
	if err := e.Register(a, nil); err != nil {
		t.Fatal(err)
	}
	print := &MediaContext{Raw: "print"}
	if err := e.Extend(parseComplex(t, ".b"), parseSimple(t, ".a"), false, print); err != nil {
		t.Fatal(err)
	}
	// The incompatible-context rule must not have been rewritten.
	if got, want := a.String(), ".a"; got != want {
		t.Errorf("rule under a different media context was modified: got %q, want %q", got, want)
	}
	if err := e.Finalize(); err == nil {
		t.Fatal("expected an ExtendAcrossMedia diagnostic, got nil")
	}
}

func TestRegisterIdempotence(t *testing.T) {
	e := New(nil)
	a := parseList(t, ".a")
	if err := e.Register(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Extend(parseComplex(t, ".b"), parseSimple(t, ".a"), false, nil); err != nil {
		t.Fatal(err)
	}
	before := a.String()

	other := parseList(t, ".a")
	if err := e.Register(other, nil); err != nil {
		t.Fatal(err)
	}
	if got := other.String(); got != before {
		t.Errorf("re-registering an equivalent selector diverged: got %q, want %q", got, before)
	}
}
