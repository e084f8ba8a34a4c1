// Package extend implements the super-selector oracle, the unifier/weaver,
// and the incremental extension engine described in spec.md components C, D
// and E.
package extend

import "sasse/selector"

// IsSuperselector reports whether a is a superselector of b: every element
// matched by b is also matched by a. This is the spec.md 4.C oracle.
func IsSuperselector(a, b selector.Complex) bool {
	return isSuperComplex(a, b)
}

// ListIsSuperselector reports whether every complex in b has a superselector
// in a (the "any of" relation needed for :matches/:is and :not recursion).
func ListIsSuperselector(a, b *selector.List) bool {
	if a == nil || b == nil {
		return a == b
	}
	for _, cb := range b.Complexes {
		found := false
		for _, ca := range a.Complexes {
			if isSuperComplex(ca, cb) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func isSuperComplex(a, b selector.Complex) bool {
	ca := compoundRun(a)
	cb := compoundRun(b)
	if len(ca.compounds) == 0 {
		return false
	}
	n, m := len(ca.compounds), len(cb.compounds)
	if n > m {
		return false
	}
	// The rightmost compound must land on the rightmost compound: both
	// selectors must target the same element.
	return embed(ca, cb, 0, m-1, n-1)
}

type run struct {
	compounds []selector.Compound
	// combBefore[i] is the combinator immediately preceding compounds[i]; it
	// is only meaningful for i >= 1.
	combBefore []selector.Combinator
}

func compoundRun(c selector.Complex) run {
	var r run
	var pending selector.Combinator
	havePending := false
	for _, comp := range c.Components {
		if comp.IsCombinator() {
			pending = comp.Combinator
			havePending = true
			continue
		}
		if len(r.compounds) == 0 {
			r.combBefore = append(r.combBefore, 0)
		} else if havePending {
			r.combBefore = append(r.combBefore, pending)
		} else {
			r.combBefore = append(r.combBefore, selector.Descendant)
		}
		r.compounds = append(r.compounds, *comp.Compound)
		havePending = false
	}
	return r
}

// embed tries to place ca.compounds[ai] at some position >= bLo and, when
// ai == target, exactly at bTarget (the fixed rightmost anchor), honoring
// combinator compatibility along the way.
func embed(ca, cb run, bLo, bTarget, target int) bool {
	return embedFrom(ca, cb, 0, bLo, bTarget, target)
}

func embedFrom(ca, cb run, ai, bLo, bTarget, target int) bool {
	if ai == len(ca.compounds) {
		return true
	}
	last := ai == target
	hi := bTarget
	if !last {
		hi = bTarget - (target - ai)
	}
	for bi := bLo; bi <= hi; bi++ {
		if last && bi != bTarget {
			continue
		}
		if !isSuperCompound(ca.compounds[ai], cb.compounds[bi]) {
			continue
		}
		if ai > 0 {
			if !combinatorCompatible(ca.combBefore[ai], cb, bLo-1, bi) {
				continue
			}
		}
		if embedFrom(ca, cb, ai+1, bi+1, bTarget, target) {
			return true
		}
	}
	return false
}

// combinatorCompatible checks that the combinator c required by A between
// its previous matched compound (at b-index prevB) and the current one (at
// b-index bi) is honored by the sequence of B's combinators in between, per
// spec.md 4.C:
//   - descendant is compatible with any run;
//   - child requires an immediate, single child hop;
//   - adjacent requires an immediate, single adjacent hop;
//   - sibling is compatible with a run of sibling/adjacent hops.
func combinatorCompatible(c selector.Combinator, cb run, prevB, bi int) bool {
	switch c {
	case selector.Descendant:
		return true
	case selector.Child:
		return bi == prevB+1 && cb.combBefore[bi] == selector.Child
	case selector.Adjacent:
		return bi == prevB+1 && cb.combBefore[bi] == selector.Adjacent
	case selector.Sibling:
		for k := prevB + 1; k <= bi; k++ {
			if cb.combBefore[k] != selector.Sibling && cb.combBefore[k] != selector.Adjacent {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isSuperCompound(a, b selector.Compound) bool {
	at, aHasType := a.TypeSimple()
	bt, bHasType := b.TypeSimple()
	if aHasType && !at.IsUniversal() {
		if !bHasType || bt.IsUniversal() || !at.Equal(bt) {
			return false
		}
	}
	for _, s := range a.Simples {
		if s.IsType() || s.IsUniversal() {
			continue
		}
		found := false
		for _, bs := range b.Simples {
			if isSuperSimple(s, bs) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// isSuperSimple implements the per-simple super relation, with the pseudo
// recursion rules of spec.md 4.C: :not is inverted, :matches/:is/:any/
// :current are any-of, :has/:host/:host-context/:slotted are opaque
// (equality only), :nth-child(n of L)/:nth-last-child(n of L) recurse on L
// while requiring the An+B argument to match exactly.
func isSuperSimple(a, b selector.Simple) bool {
	if a.Equal(b) {
		return true
	}
	if a.IsUniversal() {
		return true
	}
	if !a.IsPseudo() || !b.IsPseudo() || a.PseudoKind != b.PseudoKind || a.Name != b.Name {
		return false
	}
	switch a.Name {
	case "not":
		if a.PseudoList == nil || b.PseudoList == nil {
			return false
		}
		// Negation inverts the relation: A excludes La, B excludes Lb; A is
		// broader exactly when B's exclusion set is the broader one.
		return ListIsSuperselector(b.PseudoList, a.PseudoList)
	case "matches", "is", "any", "current":
		if a.PseudoList == nil || b.PseudoList == nil {
			return false
		}
		return ListIsSuperselector(a.PseudoList, b.PseudoList)
	case "nth-child", "nth-last-child":
		if a.PseudoArg != b.PseudoArg {
			return false
		}
		if a.PseudoList == nil && b.PseudoList == nil {
			return true
		}
		if a.PseudoList == nil || b.PseudoList == nil {
			return false
		}
		return ListIsSuperselector(a.PseudoList, b.PseudoList)
	case "has", "host", "host-context", "slotted":
		if a.PseudoList != nil && b.PseudoList != nil {
			return a.PseudoList.Equal(b.PseudoList)
		}
		return a.PseudoArg == b.PseudoArg
	default:
		return false
	}
}
