package ops

import (
	"strings"

	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
)

// blockSeparator is the text between two rendered top-level blocks.
const blockSeparator = "\n\n"

// rangeEdits computes the minimal source replacement for the top-level
// blocks in b. It returns nil when any affected block lacks a span, leaving
// callers to fall back to the full rendered text.
func rangeEdits(r Renderer, before, after *tree.Document, b blocks) []RangeEdit {
	old := before.Nodes()
	spans := make([]provenance.Span, 0, b.oldTo-b.oldFrom+1)
	for i := b.oldFrom; i <= b.oldTo; i++ {
		if i < 0 || i >= len(old) {
			return nil
		}
		s, ok := old[i].Span()
		if !ok {
			return nil
		}
		spans = append(spans, s)
	}
	first, last := spans[0], spans[len(spans)-1]

	if b.newTo < b.newFrom {
		return []RangeEdit{removal(old, b.oldFrom, b.oldTo, first, last)}
	}

	updated := after.Nodes()
	parts := make([]string, 0, b.newTo-b.newFrom+1)
	for i := b.newFrom; i <= b.newTo; i++ {
		parts = append(parts, r.RenderBlock(updated[i]))
	}
	return []RangeEdit{{
		StartLine: first.StartLine,
		StartCol:  first.StartCol,
		EndLine:   last.EndLine,
		EndCol:    last.EndCol,
		NewText:   strings.Join(parts, blockSeparator),
	}}
}

// removal deletes blocks together with the separator that joined them to
// their neighbours, so no stray blank lines remain.
func removal(old []tree.Node, from, to int, first, last provenance.Span) RangeEdit {
	if to+1 < len(old) {
		if next, ok := old[to+1].Span(); ok {
			return RangeEdit{
				StartLine: first.StartLine,
				StartCol:  first.StartCol,
				EndLine:   next.StartLine,
				EndCol:    next.StartCol,
			}
		}
	}
	if from > 0 {
		if prev, ok := old[from-1].Span(); ok {
			return RangeEdit{
				StartLine: prev.EndLine,
				StartCol:  prev.EndCol,
				EndLine:   last.EndLine,
				EndCol:    last.EndCol,
			}
		}
	}
	return RangeEdit{
		StartLine: first.StartLine,
		StartCol:  first.StartCol,
		EndLine:   last.EndLine,
		EndCol:    last.EndCol,
	}
}

// ApplyEdits applies range edits to source text. Edits must not overlap;
// they are applied back to front so earlier positions stay valid.
func ApplyEdits(src string, edits []RangeEdit) string {
	lines := strings.SplitAfter(src, "\n")
	offset := func(line, col int) int {
		pos := 0
		for i := 0; i < line && i < len(lines); i++ {
			pos += len(lines[i])
		}
		if line < len(lines) {
			l := strings.TrimSuffix(lines[line], "\n")
			if col > len(l) {
				col = len(l)
			}
			pos += col
		}
		if pos > len(src) {
			pos = len(src)
		}
		return pos
	}
	for i := len(edits) - 1; i >= 0; i-- {
		ed := edits[i]
		start := offset(ed.StartLine, ed.StartCol)
		end := offset(ed.EndLine, ed.EndCol)
		src = src[:start] + ed.NewText + src[end:]
	}
	return src
}
