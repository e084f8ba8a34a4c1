package extend

import (
	"sort"

	"sasse/internal/treewriter"
	"sasse/selector"
)

// extenderSpan reports where an extension's extender selector was written,
// for Dump's diagnostic output. An extender with no source span (one parsed
// with an empty source name, such as a `[phony]` debug fixture) renders as
// synthetic in the dump.
func extenderSpan(c selector.Complex) selector.Span {
	compounds := c.Compounds()
	if len(compounds) == 0 || len(compounds[0].Simples) == 0 {
		return selector.Span{}
	}
	return compounds[0].Simples[0].Span
}

// Dump renders the registry's current state as an indented tree, for the
// `sasse debug-extend` command.
func (e *Extender) Dump() string {
	tw := treewriter.New()
	tw.Line(0, "extensions:")
	targets := make([]string, 0, len(e.extensions))
	for k := range e.extensions {
		targets = append(targets, k)
	}
	sort.Strings(targets)
	for _, target := range targets {
		tw.Line(1, "target %s:", target)
		byExtender := e.extensions[target]
		extenders := make([]string, 0, len(byExtender))
		for k := range byExtender {
			extenders = append(extenders, k)
		}
		sort.Strings(extenders)
		for _, k := range extenders {
			ext := byExtender[k]
			tw.Line(2, "%s (optional=%v matched=%v state=%d)", ext.Extender.String(), ext.Optional, ext.matched, ext.state)
			span := extenderSpan(ext.Extender)
			tw.SourceRef(3, "defined at", span.Source, span.Line, span.Column)
		}
	}
	tw.Line(0, "registered selectors:")
	keys := make([]string, 0, len(e.selectors))
	for k := range e.selectors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tw.Line(1, "%s: %d rule(s)", k, len(e.selectors[k]))
	}
	return tw.String()
}
