package extend

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sasse/selector"
)

// Mode selects between the durable extend/register protocol (Normal) and the
// one-shot `selector-extend`/`selector-replace` built-ins (spec.md 4.E).
// The Extender records its mode, but the extension algorithm does not read
// it: Replace and AllTargets extend exactly as Normal does.
type Mode int

const (
	Normal Mode = iota
	Replace
	AllTargets
)

// extensionState is the per-Extension lifecycle of spec.md 4.E "State
// machine per Extension". Transitions only move forward.
type extensionState int

const (
	statePending extensionState = iota
	stateApplied
	stateClosed
)

// MediaContext is the (possibly nil) active @media stack at a selector's or
// an extension's definition site. Equality is by value.
type MediaContext struct {
	Raw string
}

func (m *MediaContext) equal(o *MediaContext) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Raw == o.Raw
}

// Extension is `extenderSel {@extend target}`, per spec.md §3.
type Extension struct {
	Extender     selector.Complex
	Target       selector.Simple
	Specificity  int
	Optional     bool
	Original     bool
	MediaContext *MediaContext

	state   extensionState
	matched bool
}

func selfExtension(s selector.Simple) *Extension {
	return &Extension{
		Extender: selector.NewComplex(selector.CompoundComponent(selector.NewCompound(s))),
		Target:   s,
		Original: true,
		matched:  true,
	}
}

// UnsatisfiedExtendError is raised at Finalize when a non-optional @extend
// never matched anything, per spec.md §7.
type UnsatisfiedExtendError struct {
	Extender selector.Complex
	Target   selector.Simple
}

func (e *UnsatisfiedExtendError) Error() string {
	return fmt.Sprintf("%q failed to @extend %q: no selector in this document matches it", e.Extender, e.Target)
}

// ExtendAcrossMediaError is raised at Finalize when an extension reached a
// rule declared under an incompatible @media context.
type ExtendAcrossMediaError struct {
	Extender selector.Complex
	Target   selector.Simple
}

func (e *ExtendAcrossMediaError) Error() string {
	return fmt.Sprintf("you may not @extend %q across media queries from %q", e.Target, e.Extender)
}

type registered struct {
	list    *selector.List
	mctx    *MediaContext
}

// Extender is the registry of spec.md §3 "Extender state": it is driven by
// the (external) evaluator and mutates registered selector lists in place as
// extensions are added.
type Extender struct {
	log *zap.Logger

	mode Mode

	// selectors maps a simple's key to every selector-list handle that
	// mentions it (spec.md I1).
	selectors map[string][]*registered
	// extensions maps target key -> extender string -> Extension (spec.md
	// I2: dedupe key).
	extensions map[string]map[string]*Extension
	// extensionsByExtender maps a simple's key (one appearing inside some
	// extender's compounds) to the extensions whose extender contains it,
	// used for loop closure.
	extensionsByExtender map[string][]*Extension

	sourceSpecificity map[string]int
	originals         map[string]bool

	mediaConflicts []*ExtendAcrossMediaError

	finalized bool
}

func New(log *zap.Logger) *Extender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extender{
		log:                   log.Named("extend"),
		selectors:             make(map[string][]*registered),
		extensions:            make(map[string]map[string]*Extension),
		extensionsByExtender:  make(map[string][]*Extension),
		sourceSpecificity:     make(map[string]int),
		originals:             make(map[string]bool),
	}
}

// NewEphemeral builds an Extender for the one-shot `selector-extend`/
// `selector-replace` built-ins, seeded with seed as the only registered
// rule, per spec.md 4.E.
func NewEphemeral(seed *selector.List, mode Mode, log *zap.Logger) *Extender {
	e := New(log)
	e.mode = mode
	_ = e.Register(seed, nil)
	return e
}

func (e *Extender) isOriginal(c selector.Complex) bool {
	return c.Original || e.originals[c.String()]
}

// Register announces that a style rule with selectorList exists. If prior
// extensions target something it contains, they are applied immediately
// (mutating selectorList in place), per spec.md 4.E.
func (e *Extender) Register(list *selector.List, mctx *MediaContext) error {
	if e.finalized {
		return fmt.Errorf("extender: Register called after Finalize")
	}
	for _, c := range list.Complexes {
		e.originals[c.String()] = true
		c.Original = true
		for _, comp := range c.Compounds() {
			for _, s := range comp.Simples {
				key := s.Key()
				e.sourceSpecificity[key] = max(e.sourceSpecificity[key], comp.Specificity())
				e.selectors[key] = appendRegisteredOnce(e.selectors[key], &registered{list: list, mctx: mctx})
			}
		}
	}

	// Apply every already-registered extension whose target this list
	// mentions.
	M := make(map[string][]*Extension)
	for _, c := range list.Complexes {
		for _, comp := range c.Compounds() {
			for _, s := range comp.Simples {
				if byExtender, ok := e.extensions[s.Key()]; ok {
					for _, ext := range byExtender {
						if mediaCompatible(ext.MediaContext, mctx) {
							M[s.Key()] = append(M[s.Key()], ext)
						}
					}
				}
			}
		}
	}
	if len(M) > 0 {
		e.extendListInPlace(list, M, mctx)
	}
	return nil
}

func appendRegisteredOnce(list []*registered, r *registered) []*registered {
	for _, existing := range list {
		if existing.list == r.list {
			return list
		}
	}
	return append(list, r)
}

func mediaCompatible(a, b *MediaContext) bool { return a.equal(b) }

// Extend adds `extenderSel {@extend target}`, propagating it to every
// already-registered rule that mentions target and to every pre-existing
// extension whose extender mentions target (loop closure), per spec.md 4.E.
func (e *Extender) Extend(extenderSel selector.Complex, target selector.Simple, optional bool, mctx *MediaContext) error {
	if e.finalized {
		return fmt.Errorf("extender: Extend called after Finalize")
	}
	ext := &Extension{
		Extender:     extenderSel,
		Target:       target,
		Specificity:  extenderSel.Specificity(),
		Optional:     optional,
		MediaContext: mctx,
		state:        statePending,
	}
	e.addExtension(ext, make(map[string]bool))
	return nil
}

// addExtension inserts ext into the registry (if not a duplicate), applies
// it to already-registered rules, and performs loop closure. visited guards
// the recursive closure against re-deriving the same extension twice within
// one call chain.
func (e *Extender) addExtension(ext *Extension, visited map[string]bool) {
	targetKey := ext.Target.Key()
	dedupeKey := targetKey + "|" + ext.Extender.String()
	if visited[dedupeKey] {
		return
	}
	visited[dedupeKey] = true

	byExtender, ok := e.extensions[targetKey]
	if !ok {
		byExtender = make(map[string]*Extension)
		e.extensions[targetKey] = byExtender
	}
	extenderKey := ext.Extender.String()
	if existing, ok := byExtender[extenderKey]; ok {
		if existing.Equal(ext) {
			return
		}
	}
	byExtender[extenderKey] = ext
	ext.state = stateApplied

	for _, comp := range ext.Extender.Compounds() {
		for _, s := range comp.Simples {
			e.extensionsByExtender[s.Key()] = append(e.extensionsByExtender[s.Key()], ext)
		}
	}

	// Propagate to already-registered rules.
	M := map[string][]*Extension{targetKey: {ext}}
	if regs, ok := e.selectors[targetKey]; ok {
		for _, r := range regs {
			if !mediaCompatible(ext.MediaContext, r.mctx) {
				e.mediaConflicts = append(e.mediaConflicts, &ExtendAcrossMediaError{Extender: ext.Extender, Target: ext.Target})
				continue
			}
			if e.extendListInPlace(r.list, M, r.mctx) {
				ext.matched = true
			}
		}
	}

	// Loop closure: re-derive extensions whose own extender mentions target.
	for _, y := range append([]*Extension{}, e.extensionsByExtender[targetKey]...) {
		if y == ext {
			continue
		}
		if !y.Extender.ContainsSimple(ext.Target) {
			continue
		}
		newComplexes := extendComplex(y.Extender, M, ext.MediaContext, e.isOriginal)
		for _, nc := range newComplexes {
			derived := &Extension{
				Extender:     nc,
				Target:       y.Target,
				Specificity:  max(ext.Specificity, y.Specificity),
				Optional:     ext.Optional && y.Optional,
				MediaContext: y.MediaContext,
			}
			e.addExtension(derived, visited)
			ext.matched = true
		}
	}
}

// Equal compares two Extensions structurally (used by addExtension for
// extension dedup).
func (a *Extension) Equal(b *Extension) bool {
	return a.Extender.Equal(b.Extender) && a.Target.Equal(b.Target) && a.Optional == b.Optional
}

// extendListInPlace mutates list according to spec.md 4.E "Core loop
// (extendList)". Returns whether anything changed.
func (e *Extender) extendListInPlace(list *selector.List, M map[string][]*Extension, mctx *MediaContext) bool {
	changed := false
	var out []selector.Complex
	for i := 0; i < len(list.Complexes); i++ {
		c := list.Complexes[i]
		extended := extendComplex(c, M, mctx, e.isOriginal)
		if len(extended) == 0 {
			out = append(out, c)
			continue
		}
		changed = true
		// extended[0] is c itself. Results of earlier extensions that follow c
		// (not original, not targeted by M) stay ahead of the new results, so
		// extensions appear in the order they were declared.
		out = append(out, extended[0])
		for i+1 < len(list.Complexes) && !e.isOriginal(list.Complexes[i+1]) && !anyCompoundTargeted(list.Complexes[i+1], M) {
			i++
			out = append(out, list.Complexes[i])
		}
		out = append(out, extended[1:]...)
	}
	if !changed {
		return false
	}
	list.Complexes = trim(out, e.isOriginal)
	return true
}

// Finalize stops accepting further extensions and returns the accumulated
// diagnostics (spec.md §7): UnsatisfiedExtend for non-optional targets that
// never matched, collected with multierr so every failure is reported, not
// just the first.
func (e *Extender) Finalize() error {
	e.finalized = true
	var errs error
	for _, mc := range e.mediaConflicts {
		errs = multierr.Append(errs, mc)
	}
	for _, byExtender := range e.extensions {
		for _, ext := range byExtender {
			if ext.matched {
				ext.state = stateClosed
				continue
			}
			if ext.Optional {
				// Silently dropped, per spec.md 4.E state machine.
				ext.state = stateClosed
				continue
			}
			errs = multierr.Append(errs, &UnsatisfiedExtendError{Extender: ext.Extender, Target: ext.Target})
		}
	}
	return errs
}

// ID returns a stable identity for a list handle, used by callers that need
// to correlate a list across the evaluator boundary (spec.md §9).
func ID(l *selector.List) uuid.UUID { return l.ID() }

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
