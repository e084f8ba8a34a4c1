// Package output serializes a cssdoc.Stylesheet back to CSS text, in the
// four styles spec.md §4.F names, and optionally emits a matching Source
// Map v3 alongside it. Its layered writer/property-formatter split follows
// fbc/css/types.go's Stylesheet.WriteTo.
package output

import (
	"fmt"
	"strconv"
	"strings"

	"sasse/config"
	"sasse/cssdoc"
	"sasse/sourcemap"
)

// Emitter serializes a Stylesheet according to opts.
type Emitter struct {
	opts *config.Options
	buf  strings.Builder

	mappings *sourcemap.Builder
	line     int
	col      int
}

func New(opts *config.Options) *Emitter {
	e := &Emitter{opts: opts, line: 0, col: 0}
	if opts.SourceMap.Enable {
		e.mappings = sourcemap.NewBuilder()
	}
	return e
}

// Emit serializes sheet and returns the CSS text plus, if source maps are
// enabled, the accompanying Source Map v3 JSON.
func (e *Emitter) Emit(sheet *cssdoc.Stylesheet) (css string, srcmap []byte, err error) {
	for i, item := range sheet.Items {
		switch {
		case item.Rule != nil:
			e.writeRule(0, item.Rule)
		case item.Media != nil:
			e.writeMedia(item.Media)
		}
		if i < len(sheet.Items)-1 && e.needsBlankLine() {
			e.newline()
		}
	}
	css = e.buf.String()
	if e.mappings != nil {
		srcmap, err = e.mappings.Encode()
	}
	return css, srcmap, err
}

func (e *Emitter) needsBlankLine() bool {
	return e.opts.OutputStyle == config.Expanded || e.opts.OutputStyle == config.Nested
}

func (e *Emitter) writeRule(depth int, rule *cssdoc.StyleRule) {
	if rule.Selectors == nil || rule.Selectors.IsInvisible() {
		return
	}
	e.writeSourceComment(depth, rule)
	e.indent(depth)
	e.mapSelector(rule)
	e.write(rule.Selectors.String())
	e.openBrace()
	for _, d := range rule.Declarations {
		e.indent(depth + 1)
		e.writeDeclaration(d)
	}
	e.indent(depth)
	e.closeBrace()
}

// writeSourceComment emits "/* line N, path */" above a rule when
// opts.SourceComments is set, per spec.md §6. Grounded on
// original_source/output.cpp's Output::operator()(Ruleset*), which prints
// the same comment from the ruleset's pstate line/path before its selector.
func (e *Emitter) writeSourceComment(depth int, rule *cssdoc.StyleRule) {
	if !e.opts.SourceComments || e.opts.OutputStyle == config.Compressed {
		return
	}
	if rule.Selectors == nil || len(rule.Selectors.Complexes) == 0 {
		return
	}
	compounds := rule.Selectors.Complexes[0].Compounds()
	if len(compounds) == 0 || len(compounds[0].Simples) == 0 {
		return
	}
	span := compounds[0].Simples[0].Span
	if span.Source == "" {
		return
	}
	e.indent(depth)
	e.write(fmt.Sprintf("/* line %d, %s */", span.Line, span.Source))
	e.newline()
}

// mapSelector records a Source Map v3 segment linking the generated
// position of a rule's selector to the source location of its first
// original simple selector, when the caller enabled source maps.
func (e *Emitter) mapSelector(rule *cssdoc.StyleRule) {
	if e.mappings == nil || len(rule.Selectors.Complexes) == 0 {
		return
	}
	compounds := rule.Selectors.Complexes[0].Compounds()
	if len(compounds) == 0 || len(compounds[0].Simples) == 0 {
		return
	}
	span := compounds[0].Simples[0].Span
	if span.Source == "" {
		return
	}
	e.mappings.Add(e.line, e.col, span.Source, span.Line-1, span.Column-1)
}

func (e *Emitter) writeMedia(mb *cssdoc.MediaBlock) {
	e.write("@media ")
	e.write(mb.Query)
	e.openBrace()
	for _, r := range mb.Rules {
		e.writeRule(1, r)
	}
	e.closeBrace()
}

func (e *Emitter) writeDeclaration(d cssdoc.Declaration) {
	switch e.opts.OutputStyle {
	case config.Compressed:
		e.write(d.Property)
		e.write(":")
		e.write(d.Value)
		e.write(";")
	default:
		e.write(d.Property)
		e.write(": ")
		e.write(d.Value)
		e.write(";")
		e.newline()
	}
}

func (e *Emitter) openBrace() {
	switch e.opts.OutputStyle {
	case config.Compressed:
		e.write("{")
	case config.Compact:
		e.write(" { ")
	default:
		e.write(" {")
		e.newline()
	}
}

func (e *Emitter) closeBrace() {
	switch e.opts.OutputStyle {
	case config.Compact:
		e.write("}")
		e.newline()
	default:
		e.write("}")
		e.newline()
	}
}

func (e *Emitter) indent(depth int) {
	if e.opts.OutputStyle == config.Compressed || e.opts.OutputStyle == config.Compact {
		return
	}
	for i := 0; i < depth; i++ {
		e.write(e.indentUnit())
	}
}

func (e *Emitter) indentUnit() string {
	if e.opts.Indent != "" {
		return e.opts.Indent
	}
	return "  "
}

func (e *Emitter) write(s string) {
	e.buf.WriteString(s)
	for _, r := range s {
		if r == '\n' {
			e.line++
			e.col = 0
		} else {
			e.col++
		}
	}
}

func (e *Emitter) newline() {
	if e.opts.OutputStyle == config.Compressed {
		return
	}
	e.buf.WriteString(e.opts.Linefeed.String())
	e.line++
	e.col = 0
}

// FormatNumber renders f with opts.Precision digits after the decimal
// point, stripping trailing zeros and a bare "0." prefix (e.g. ".5" not
// "0.5" in Compressed style), per spec.md §4.F number formatting rules. A
// value that is non-zero but rounds to zero at the given precision still
// renders as "0.0", never a bare "0" that would read as exactly zero.
func FormatNumber(f float64, precision int, compressed bool) string {
	s := strconv.FormatFloat(f, 'f', precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if isZeroText(s) {
		if f != 0 {
			return "0.0"
		}
		return "0"
	}
	if compressed {
		if strings.HasPrefix(s, "0.") {
			s = s[1:]
		} else if strings.HasPrefix(s, "-0.") {
			s = "-" + s[2:]
		}
	}
	return s
}

// isZeroText reports whether s (after trailing-zero trimming) is left with
// nothing but sign and decimal-point characters, i.e. it prints as zero.
func isZeroText(s string) bool {
	for _, r := range s {
		if r != '-' && r != '.' && r != '0' {
			return false
		}
	}
	return true
}

// namedColors maps a "#rrggbb" hex string to the CSS color name that's
// shorter to print, for the colors where one exists. Grounded on
// evanw-esbuild's css_decls_color.go shortColorName table.
var namedColors = map[string]string{
	"#000080": "navy", "#008000": "green", "#008080": "teal",
	"#4b0082": "indigo", "#800000": "maroon", "#800080": "purple",
	"#808000": "olive", "#808080": "gray", "#a0522d": "sienna",
	"#a52a2a": "brown", "#c0c0c0": "silver", "#cd853f": "peru",
	"#d2b48c": "tan", "#da70d6": "orchid", "#dda0dd": "plum",
	"#ee82ee": "violet", "#f0e68c": "khaki", "#f0ffff": "azure",
	"#f5deb3": "wheat", "#f5f5dc": "beige", "#fa8072": "salmon",
	"#faf0e6": "linen", "#ff0000": "red", "#ff6347": "tomato",
	"#ff7f50": "coral", "#ffa500": "orange", "#ffc0cb": "pink",
	"#ffd700": "gold", "#ffe4c4": "bisque", "#fffafa": "snow",
	"#fffff0": "ivory",
}

// ShortenColor renders a "#rrggbb" color at the given alpha as the
// shortest equivalent CSS representation, per spec.md §4.F: a named color
// if one exists and alpha is opaque; else 3-hex if every channel is a
// doubled digit; else 6-hex; else `rgba(...)`; zero-alpha black becomes
// "transparent".
func ShortenColor(hex string, alpha float64) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	lower := strings.ToLower(hex)
	if alpha <= 0 && lower == "#000000" {
		return "transparent"
	}
	if alpha < 1 {
		r, _ := strconv.ParseInt(hex[1:3], 16, 32)
		g, _ := strconv.ParseInt(hex[3:5], 16, 32)
		b, _ := strconv.ParseInt(hex[5:7], 16, 32)
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, FormatNumber(alpha, 5, false))
	}
	if name, ok := namedColors[lower]; ok {
		return name
	}
	if hex[1] == hex[2] && hex[3] == hex[4] && hex[5] == hex[6] {
		return fmt.Sprintf("#%c%c%c", hex[1], hex[3], hex[5])
	}
	return hex
}

// QuoteString re-quotes a Sass string value using double quotes, escaping
// embedded double quotes and backslashes, matching fbc's
// cssEscapeDoubleQuoted.
func QuoteString(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return `"` + s + `"`
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
