package main

import (
	"fmt"
	"strings"

	"sasse/cssdoc"
)

// runEvaluatorScript drives eval through a minimal line-oriented stand-in
// for the real Sass evaluator protocol of spec.md §6, since this workspace
// has no such evaluator to embed against. Lines:
//
//	rule SELECTORS
//	decl PROPERTY VALUE      (applies to the most recently opened rule)
//	extend EXTENDER TARGET [optional]
//	media QUERY { ... }      (one line per block boundary: "media QUERY" / "endmedia")
func runEvaluatorScript(eval *cssdoc.Evaluator, script string) error {
	var current *cssdoc.StyleRule
	for lineNo, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "rule":
			selectors := strings.TrimSpace(strings.TrimPrefix(line, "rule"))
			rule, err := eval.OnStyleRule(selectors, nil)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			current = rule
		case "decl":
			if current == nil || len(fields) < 3 {
				return fmt.Errorf("line %d: decl without an open rule", lineNo+1)
			}
			current.Declarations = append(current.Declarations, cssdoc.Declaration{
				Property: fields[1],
				Value:    strings.Join(fields[2:], " "),
			})
		case "extend":
			if len(fields) < 3 {
				return fmt.Errorf("line %d: extend requires EXTENDER and TARGET", lineNo+1)
			}
			optional := len(fields) > 3 && fields[3] == "optional"
			if err := eval.OnExtend(fields[1], fields[2], optional); err != nil {
				return fmt.Errorf("line %d: %w", lineNo+1, err)
			}
		case "media":
			eval.OnEnterMedia(strings.TrimSpace(strings.TrimPrefix(line, "media")))
		case "endmedia":
			eval.OnLeaveMedia()
		default:
			return fmt.Errorf("line %d: unknown directive %q", lineNo+1, fields[0])
		}
	}
	return nil
}
