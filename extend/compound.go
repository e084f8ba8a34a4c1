package extend

import "sasse/selector"

// pseudoRecurses reports whether a pseudo-class's argument list is itself a
// place @extend can rewrite, per spec.md 4.E "Pseudo-selector recursion":
// :not, :matches/:is/:any/:current and the nth-child family recurse; :has,
// :host, :host-context and :slotted are opaque.
func pseudoRecurses(name string) bool {
	switch name {
	case "not", "matches", "is", "any", "current", "nth-child", "nth-last-child":
		return true
	default:
		return false
	}
}

// extendComplex is spec.md 4.E's core per-selector step: it walks c looking
// for a compound whose simples are targeted by M, and for each one produces
// every valid replacement of c. Returns nil if no compound in c is targeted
// (the caller should keep c unchanged without counting it as a change).
func extendComplex(c selector.Complex, M map[string][]*Extension, mctx *MediaContext, isOriginal func(selector.Complex) bool) []selector.Complex {
	if !anyCompoundTargeted(c, M) {
		return nil
	}
	comps := c.Components
	// Find every compound index that has at least one targeted simple.
	var results []selector.Complex
	for k, comp := range comps {
		if comp.IsCombinator() {
			continue
		}
		alts, matched := extendCompound(*comp.Compound, M)
		if !matched {
			continue
		}
		// before/beforeConnector split the original prefix at its trailing
		// combinator: weave must never see a path dangling on a bare
		// combinator, or it silently drops it (toSegments has nowhere to
		// attach it). The same split applies to each fragment below, and
		// whichever connector applies is re-attached once, after weaving,
		// immediately ahead of the fragment's tail compound.
		beforeConnector := selector.Descendant
		before := append([]selector.Component{}, comps[:k]...)
		if len(before) > 0 {
			beforeConnector = before[len(before)-1].Combinator
			before = before[:len(before)-1]
		}
		after := append([]selector.Component{}, comps[k+1:]...)
		for _, alt := range alts {
			if alt.self {
				continue // the unchanged selector is emitted once, below.
			}
			fragPrefix := append([]selector.Component{}, alt.fragment[:len(alt.fragment)-1]...)
			fragTail := alt.fragment[len(alt.fragment)-1]
			fragConnector := selector.Descendant
			if len(fragPrefix) > 0 {
				fragConnector = fragPrefix[len(fragPrefix)-1].Combinator
				fragPrefix = fragPrefix[:len(fragPrefix)-1]
			}

			var wovenPrefixes [][]selector.Component
			connector := beforeConnector
			switch {
			case len(before) == 0 && len(fragPrefix) == 0:
				wovenPrefixes = [][]selector.Component{nil}
			case len(before) == 0:
				// Nothing to weave against; the fragment's own prefix (and
				// its own connector to the tail) stands unchanged.
				wovenPrefixes = [][]selector.Component{fragPrefix}
				connector = fragConnector
			case len(fragPrefix) == 0:
				wovenPrefixes = [][]selector.Component{before}
			default:
				// Both sides contribute; which connector belongs next to
				// the tail after interleaving is ambiguous in general, so
				// the original selector's own relationship to the
				// replaced compound wins.
				wovenPrefixes = weave([][]selector.Component{before, fragPrefix})
			}
			for _, wp := range wovenPrefixes {
				full := append([]selector.Component{}, wp...)
				if len(full) > 0 {
					full = append(full, selector.CombinatorComponent(connector))
				}
				full = append(full, fragTail)
				full = append(full, after...)
				nc := selector.NewComplex(full...)
				if isOriginal(nc) {
					nc.Original = true
				}
				results = append(results, nc)
			}
		}
	}
	if len(results) == 0 {
		// Every candidate compound only matched itself (e.g. every
		// unification with an extender failed); nothing to replace.
		return nil
	}
	// The unmodified selector is always a valid alternative.
	self := c
	out := append([]selector.Complex{self}, results...)
	return out
}

func anyCompoundTargeted(c selector.Complex, M map[string][]*Extension) bool {
	for _, comp := range c.Components {
		if comp.IsCombinator() {
			continue
		}
		for _, s := range comp.Compound.Simples {
			if _, ok := M[s.Key()]; ok {
				return true
			}
			if s.IsPseudo() && s.PseudoList != nil && pseudoRecurses(s.Name) {
				if listTargeted(s.PseudoList, M) {
					return true
				}
			}
		}
	}
	return false
}

func listTargeted(l *selector.List, M map[string][]*Extension) bool {
	for _, c := range l.Complexes {
		if anyCompoundTargeted(c, M) {
			return true
		}
	}
	return false
}

type compoundAlt struct {
	self     bool
	fragment []selector.Component
}

// extendCompound implements spec.md 4.E extendCompound: for each simple in
// the compound, gather its alternatives (itself, unchanged, plus any
// extension that targets it); take the cartesian product across simples;
// for every combination that isn't "everything unchanged", merge the
// simples that stayed original into one compound and unify it (if
// non-empty) with the extenders' own complex selectors via unifyComplex.
func extendCompound(compound selector.Compound, M map[string][]*Extension) ([]compoundAlt, bool) {
	simples := compound.Simples
	altsPerSimple := make([][]*Extension, len(simples))
	anyMatched := false
	for j, s := range simples {
		alts := []*Extension{selfExtension(s)}
		if exts, ok := M[s.Key()]; ok {
			alts = append(alts, exts...)
			anyMatched = true
		}
		if s.IsPseudo() && s.PseudoList != nil && pseudoRecurses(s.Name) {
			if rewritten, ok := extendPseudoSimple(s, M); ok {
				alts = append(alts, selfExtensionFor(rewritten, s))
				anyMatched = true
			}
		}
		altsPerSimple[j] = alts
	}
	if !anyMatched {
		return nil, false
	}

	var out []compoundAlt
	out = append(out, compoundAlt{self: true})

	combos := cartesian(altsPerSimple)
	for _, combo := range combos {
		allOriginal := true
		for _, e := range combo {
			if !e.Original {
				allOriginal = false
				break
			}
		}
		if allOriginal {
			continue
		}
		var originalSimples []selector.Simple
		var toUnify [][]selector.Component
		for _, e := range combo {
			if e.Original {
				originalSimples = append(originalSimples, e.Target)
			} else {
				toUnify = append(toUnify, e.Extender.Components)
			}
		}
		paths := toUnify
		if len(originalSimples) > 0 {
			paths = append(paths, []selector.Component{selector.CompoundComponent(selector.NewCompound(originalSimples...))})
		}
		if len(paths) == 0 {
			continue
		}
		fragments, ok := unifyComplex(paths)
		if !ok {
			continue
		}
		for _, f := range fragments {
			out = append(out, compoundAlt{fragment: f})
		}
	}
	return out, true
}

// selfExtensionFor is selfExtension, but standing in for a pseudo simple
// that was rewritten in place (its nested list changed) rather than
// substituted wholesale.
func selfExtensionFor(rewritten selector.Simple, original selector.Simple) *Extension {
	return &Extension{
		Extender: selector.NewComplex(selector.CompoundComponent(selector.NewCompound(rewritten))),
		Target:   original,
		Original: false,
		matched:  true,
	}
}

// extendPseudoSimple recurses @extend into a pseudo-class's argument list
// (spec.md 4.E), returning a new Simple with the rewritten list if anything
// inside it changed.
func extendPseudoSimple(s selector.Simple, M map[string][]*Extension) (selector.Simple, bool) {
	if s.PseudoList == nil || !listTargeted(s.PseudoList, M) {
		return selector.Simple{}, false
	}
	var out []selector.Complex
	changed := false
	for _, c := range s.PseudoList.Complexes {
		extended := extendComplex(c, M, nil, func(selector.Complex) bool { return false })
		if len(extended) == 0 {
			out = append(out, c)
			continue
		}
		changed = true
		out = append(out, extended...)
	}
	if !changed {
		return selector.Simple{}, false
	}
	newList := selector.NewList(trim(out, func(selector.Complex) bool { return false })...)
	return selector.Pseudo(s.PseudoKind, s.Name, s.PseudoArg, newList, s.Span), true
}

func cartesian(lists [][]*Extension) [][]*Extension {
	if len(lists) == 0 {
		return [][]*Extension{{}}
	}
	rest := cartesian(lists[1:])
	var out [][]*Extension
	for _, e := range lists[0] {
		for _, r := range rest {
			combo := append([]*Extension{e}, r...)
			out = append(out, combo)
		}
	}
	return out
}

// trim implements spec.md 4.D/4.E trimming: candidates dominated by another
// surviving candidate of equal or greater specificity are dropped, originals
// are never removed, and the cap of 100 candidates disables trimming
// entirely (a quadratic algorithm is not worth running on pathological
// input).
func trim(candidates []selector.Complex, isOriginal func(selector.Complex) bool) []selector.Complex {
	if len(candidates) == 0 {
		return candidates
	}
	if len(candidates) > 100 {
		return dedupPreserveOrder(candidates)
	}
	keep := make([]bool, len(candidates))
	for i := range keep {
		keep[i] = true
	}
	original := make([]bool, len(candidates))
	for i, c := range candidates {
		original[i] = c.Original || isOriginal(c)
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if original[i] {
			continue
		}
		for j := range candidates {
			if j == i || !keep[j] {
				continue
			}
			if candidates[i].Equal(candidates[j]) {
				if j < i {
					keep[i] = false
					break
				}
				continue
			}
			if candidates[j].Specificity() >= candidates[i].Specificity() && IsSuperselector(candidates[j], candidates[i]) {
				keep[i] = false
				break
			}
		}
	}
	var kept []selector.Complex
	for i, c := range candidates {
		if keep[i] {
			kept = append(kept, c)
		}
	}
	return dedupPreserveOrder(kept)
}

func dedupPreserveOrder(in []selector.Complex) []selector.Complex {
	seen := make(map[string]bool, len(in))
	var out []selector.Complex
	for _, c := range in {
		k := c.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
