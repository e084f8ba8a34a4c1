// Package cssdoc is the glue between an external Sass evaluator and the
// selector engine: it turns the evaluator's onStyleRule/onExtend/onFinalize
// callbacks (spec.md §6) into registry calls, and holds the minimal CSS
// tree needed to emit the result. The tree shape follows fbc's
// css.Stylesheet/StylesheetItem/MediaBlock, generalized to carry selector
// list handles instead of fbc's flattened Selector.
package cssdoc

import (
	"fmt"

	"go.uber.org/zap"

	"sasse/extend"
	"sasse/selector"
)

// Declaration is a single `property: value` pair. Value formatting
// (numbers, colors, strings) is the evaluator's job; the emitter only
// re-serializes what it's given, per spec.md's Non-goals for this engine.
type Declaration struct {
	Property string
	Value    string
}

// StyleRule is a selector list plus its declarations.
type StyleRule struct {
	Selectors    *selector.List
	Declarations []Declaration
}

// MediaBlock groups rules declared under one @media condition.
type MediaBlock struct {
	Query string
	Rules []*StyleRule
}

// Stylesheet is the ordered output of one compile pass: top-level rules
// interleaved with media blocks, in source order.
type Stylesheet struct {
	Items []Item
}

// Item is a single top-level entry; exactly one field is non-nil.
type Item struct {
	Rule  *StyleRule
	Media *MediaBlock
}

// Evaluator adapts the three-callback protocol an external Sass evaluator
// drives (spec.md §6) onto an *extend.Extender, and assembles the resulting
// Stylesheet.
type Evaluator struct {
	log   *zap.Logger
	ext   *extend.Extender
	sheet Stylesheet

	mediaStack []*MediaBlock
}

func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{log: log.Named("cssdoc"), ext: extend.New(log)}
}

// Extender exposes the underlying registry, e.g. for the debug dump command.
func (e *Evaluator) Extender() *extend.Extender { return e.ext }

// OnEnterMedia opens an @media block; every OnStyleRule until the matching
// OnLeaveMedia belongs to it.
func (e *Evaluator) OnEnterMedia(query string) {
	mb := &MediaBlock{Query: query}
	e.mediaStack = append(e.mediaStack, mb)
}

// OnLeaveMedia closes the innermost @media block and appends it to the
// stylesheet's top level; a block opened inside another is not nested in it.
func (e *Evaluator) OnLeaveMedia() {
	n := len(e.mediaStack)
	if n == 0 {
		return
	}
	mb := e.mediaStack[n-1]
	e.mediaStack = e.mediaStack[:n-1]
	e.appendItem(Item{Media: mb})
}

func (e *Evaluator) currentMediaContext() *extend.MediaContext {
	if len(e.mediaStack) == 0 {
		return nil
	}
	return &extend.MediaContext{Raw: e.mediaStack[len(e.mediaStack)-1].Query}
}

func (e *Evaluator) appendItem(it Item) {
	if len(e.mediaStack) > 0 && it.Rule != nil {
		parent := e.mediaStack[len(e.mediaStack)-1]
		parent.Rules = append(parent.Rules, it.Rule)
		return
	}
	e.sheet.Items = append(e.sheet.Items, it)
}

// OnStyleRule registers a style rule's selector list, so future @extends
// can reach it, and records it in the output tree.
func (e *Evaluator) OnStyleRule(rawSelectors string, decls []Declaration) (*StyleRule, error) {
	list, err := selector.NewParser(e.log).ParseList(rawSelectors, "<style rule>")
	if err != nil {
		return nil, fmt.Errorf("style rule %q: %w", rawSelectors, err)
	}
	mctx := e.currentMediaContext()
	if err := e.ext.Register(list, mctx); err != nil {
		return nil, err
	}
	rule := &StyleRule{Selectors: list, Declarations: decls}
	e.appendItem(Item{Rule: rule})
	return rule, nil
}

// OnExtend registers `rawExtender {@extend rawTarget}`.
func (e *Evaluator) OnExtend(rawExtender, rawTarget string, optional bool) error {
	extenderSel, err := selector.NewParser(e.log).ParseComplex(rawExtender, "<extend>")
	if err != nil {
		return fmt.Errorf("extender %q: %w", rawExtender, err)
	}
	target, err := parseSingleSimple(e.log, rawTarget)
	if err != nil {
		return fmt.Errorf("extend target %q: %w", rawTarget, err)
	}
	return e.ext.Extend(extenderSel, target, optional, e.currentMediaContext())
}

// OnFinalize closes the extender and returns the assembled stylesheet.
// Diagnostics accumulated during extension (unsatisfied @extends) are
// returned as a combined error; the stylesheet is still usable, since
// finalize only refuses to add further extensions.
func (e *Evaluator) OnFinalize() (*Stylesheet, error) {
	err := e.ext.Finalize()
	return &e.sheet, err
}

// parseSingleSimple parses a bare @extend target: a selector consisting of
// exactly one compound with exactly one simple selector, e.g. ".foo",
// "#bar" or "%placeholder".
func parseSingleSimple(log *zap.Logger, raw string) (selector.Simple, error) {
	c, err := selector.NewParser(log).ParseComplex(raw, "<extend target>")
	if err != nil {
		return selector.Simple{}, err
	}
	compounds := c.Compounds()
	if len(compounds) != 1 || len(compounds[0].Simples) != 1 {
		return selector.Simple{}, fmt.Errorf("must be exactly one simple selector, got %q", raw)
	}
	return compounds[0].Simples[0], nil
}
