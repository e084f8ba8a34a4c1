// Package sourcemap builds Source Map v3 payloads (spec.md §6 External
// Interfaces), encoding segments with the standard Base64-VLQ scheme.
package sourcemap

import (
	"encoding/json"
	"strings"
)

// Builder accumulates generated-to-source position mappings in emission
// order and renders them into a Source Map v3 document.
type Builder struct {
	sources    []string
	sourceIdx  map[string]int
	mappings   []segment

	lastGenLine int
}

type segment struct {
	genLine, genCol int
	srcIdx          int
	srcLine, srcCol int
}

func NewBuilder() *Builder {
	return &Builder{sourceIdx: make(map[string]int)}
}

// Add records that (genLine, genCol) in the generated output corresponds to
// (srcLine, srcCol) in source. Lines and columns are both 0-based.
func (b *Builder) Add(genLine, genCol int, source string, srcLine, srcCol int) {
	idx, ok := b.sourceIdx[source]
	if !ok {
		idx = len(b.sources)
		b.sourceIdx[source] = idx
		b.sources = append(b.sources, source)
	}
	b.mappings = append(b.mappings, segment{genLine, genCol, idx, srcLine, srcCol})
}

// document is the Source Map v3 wire format.
type document struct {
	Version    int      `json:"version"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`
}

// Encode renders the accumulated mappings as Source Map v3 JSON.
func (b *Builder) Encode() ([]byte, error) {
	doc := document{
		Version: 3,
		Sources: b.sources,
		Names:   []string{},
	}
	if len(b.sources) == 0 {
		doc.Sources = []string{}
	}
	doc.Mappings = b.encodeMappings()
	return json.Marshal(doc)
}

// encodeMappings groups segments by generated line and VLQ-encodes each
// line's segments, all fields delta-encoded against the previous segment on
// the same line (generated column) or the previous segment overall (source
// index / line / column), per the Source Map v3 spec.
func (b *Builder) encodeMappings() string {
	if len(b.mappings) == 0 {
		return ""
	}
	var lines strings.Builder
	curLine := 0
	prevGenCol, prevSrcIdx, prevSrcLine, prevSrcCol := 0, 0, 0, 0
	firstOnLine := true

	for _, s := range b.mappings {
		for curLine < s.genLine {
			lines.WriteByte(';')
			curLine++
			firstOnLine = true
			prevGenCol = 0
		}
		if !firstOnLine {
			lines.WriteByte(',')
		}
		firstOnLine = false

		lines.WriteString(encodeVLQ(s.genCol - prevGenCol))
		lines.WriteString(encodeVLQ(s.srcIdx - prevSrcIdx))
		lines.WriteString(encodeVLQ(s.srcLine - prevSrcLine))
		lines.WriteString(encodeVLQ(s.srcCol - prevSrcCol))

		prevGenCol = s.genCol
		prevSrcIdx = s.srcIdx
		prevSrcLine = s.srcLine
		prevSrcCol = s.srcCol
	}
	return lines.String()
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// encodeVLQ encodes one signed integer as Base64-VLQ: the sign occupies the
// low bit, five data bits per digit, the high bit of each digit signals
// continuation.
func encodeVLQ(n int) string {
	v := n << 1
	if n < 0 {
		v = (-n << 1) | 1
	}
	var out strings.Builder
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		out.WriteByte(base64Chars[digit])
		if v == 0 {
			break
		}
	}
	return out.String()
}
