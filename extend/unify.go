package extend

import "sasse/selector"

// unifyCompound merges two compounds into one that matches their
// intersection, per spec.md 4.D: concatenate simples while detecting
// contradictions (two different type selectors, two different ids) and
// de-duplicating equal simples. Returns ok=false on contradiction (a silent
// prune, not an error, per spec.md 4.E "Failure semantics").
func unifyCompound(a, b selector.Compound) (selector.Compound, bool) {
	at, aHasType := a.TypeSimple()
	bt, bHasType := b.TypeSimple()

	var resultType *selector.Simple
	switch {
	case aHasType && !at.IsUniversal() && bHasType && !bt.IsUniversal():
		if !at.Equal(bt) {
			return selector.Compound{}, false
		}
		resultType = &at
	case aHasType && !at.IsUniversal():
		resultType = &at
	case bHasType && !bt.IsUniversal():
		resultType = &bt
	case aHasType:
		resultType = &at
	case bHasType:
		resultType = &bt
	}

	var merged []selector.Simple
	if resultType != nil {
		merged = append(merged, *resultType)
	}

	add := func(simples []selector.Simple) bool {
		for _, s := range simples {
			if s.IsType() || s.IsUniversal() {
				continue
			}
			if s.IsID() {
				for _, m := range merged {
					if m.IsID() && !m.Equal(s) {
						return false
					}
				}
			}
			dup := false
			for _, m := range merged {
				if m.Equal(s) {
					dup = true
					break
				}
			}
			if !dup {
				merged = append(merged, s)
			}
		}
		return true
	}
	if !add(a.Simples) {
		return selector.Compound{}, false
	}
	if !add(b.Simples) {
		return selector.Compound{}, false
	}
	c := selector.NewCompound(merged...)
	c.HasPreLineFeed = a.HasPreLineFeed || b.HasPreLineFeed
	return c, true
}

// segment is one compound plus the combinator immediately preceding it
// (selector.Descendant for the first segment of a sequence).
type segment struct {
	comb     selector.Combinator
	compound selector.Compound
}

func toSegments(comps []selector.Component) []segment {
	var segs []segment
	comb := selector.Descendant
	for _, c := range comps {
		if c.IsCombinator() {
			comb = c.Combinator
			continue
		}
		segs = append(segs, segment{comb: comb, compound: *c.Compound})
		comb = selector.Descendant
	}
	return segs
}

func fromSegments(segs []segment) []selector.Component {
	comps := make([]selector.Component, 0, len(segs)*2)
	for i, s := range segs {
		if i > 0 || s.comb != selector.Descendant {
			comps = append(comps, selector.CombinatorComponent(s.comb))
		}
		comps = append(comps, selector.CompoundComponent(s.compound))
	}
	return comps
}

// block is a maximal run of segments that must stay contiguous: it starts
// with a descendant-joined (or leading) segment and absorbs any following
// segments joined by a non-descendant combinator, since child/adjacent/
// sibling combinators pin relative position and cannot be pulled apart by
// weaving (spec.md 4.D).
type block []segment

func toBlocks(segs []segment) []block {
	var blocks []block
	for _, s := range segs {
		if s.comb == selector.Descendant || len(blocks) == 0 {
			blocks = append(blocks, block{s})
		} else {
			blocks[len(blocks)-1] = append(blocks[len(blocks)-1], s)
		}
	}
	return blocks
}

// weave interleaves a list of complex-selector component sequences into
// every valid super-sequence, per spec.md 4.D: shared structure is
// preserved, runs joined by non-descendant combinators stay contiguous, and
// everything else is riffled. Duplicates are removed by structural equality
// and input order is preserved for determinism.
func weave(paths [][]selector.Component) [][]selector.Component {
	switch len(paths) {
	case 0:
		return nil
	case 1:
		return [][]selector.Component{paths[0]}
	}
	acc := [][]selector.Component{paths[0]}
	for _, p := range paths[1:] {
		var next [][]selector.Component
		for _, a := range acc {
			next = append(next, weavePair(a, p)...)
		}
		acc = dedupComponentSeqs(next)
	}
	return acc
}

func weavePair(a, b []selector.Component) [][]selector.Component {
	blocksA := toBlocks(toSegments(a))
	blocksB := toBlocks(toSegments(b))
	if len(blocksA) == 0 {
		return [][]selector.Component{b}
	}
	if len(blocksB) == 0 {
		return [][]selector.Component{a}
	}
	var out [][]selector.Component
	riffle(blocksA, blocksB, nil, func(merged []block) {
		var segs []segment
		for _, blk := range merged {
			segs = append(segs, blk...)
		}
		out = append(out, fromSegments(segs))
	})
	return out
}

// riffle enumerates every order-preserving interleaving of a and b.
func riffle(a, b []block, acc []block, emit func([]block)) {
	if len(a) == 0 && len(b) == 0 {
		emit(append([]block{}, acc...))
		return
	}
	if len(a) > 0 {
		riffle(a[1:], b, append(acc, a[0]), emit)
	}
	if len(b) > 0 {
		riffle(a, b[1:], append(acc, b[0]), emit)
	}
}

func dedupComponentSeqs(in [][]selector.Component) [][]selector.Component {
	var out [][]selector.Component
	for _, c := range in {
		dup := false
		for _, o := range out {
			if sameComponents(c, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

func sameComponents(a, b []selector.Component) bool {
	if len(a) != len(b) {
		return false
	}
	ca := selector.NewComplex(a...)
	cb := selector.NewComplex(b...)
	return ca.Equal(cb)
}

// unifyComplex unifies the trailing compounds of every path and weaves
// everything preceding it, per spec.md 4.E extendCompound step 4. All paths
// must be non-empty and end in a compound.
func unifyComplex(paths [][]selector.Component) ([][]selector.Component, bool) {
	if len(paths) == 0 {
		return nil, false
	}
	merged := *paths[0][len(paths[0])-1].Compound
	ok := true
	for _, p := range paths[1:] {
		tail := *p[len(p)-1].Compound
		merged, ok = unifyCompound(merged, tail)
		if !ok {
			return nil, false
		}
	}
	// Each path's prefix (everything before its own tail compound) ends in
	// the combinator that used to join it to that tail. weave() discards a
	// trailing dangling combinator (toSegments has nowhere to attach it),
	// so it must be stripped here and re-attached once after weaving, not
	// left for weave to silently drop.
	connector := selector.Descendant
	var prefixes [][]selector.Component
	for _, p := range paths {
		prefix := p[:len(p)-1]
		if len(prefix) > 0 {
			connector = prefix[len(prefix)-1].Combinator
			prefix = prefix[:len(prefix)-1]
		}
		prefixes = append(prefixes, prefix)
	}
	woven := weave(prefixes)
	var out [][]selector.Component
	for _, w := range woven {
		full := append([]selector.Component{}, w...)
		if len(full) > 0 {
			full = append(full, selector.CombinatorComponent(connector))
		}
		full = append(full, selector.CompoundComponent(merged))
		out = append(out, full)
	}
	return out, true
}
