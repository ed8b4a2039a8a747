package provenance

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
)

// Span locates a block in source text. Lines and columns are 0-based; EndCol
// is exclusive. Inline content inherits the span of its block.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// IsZero reports whether the span is unset.
func (s Span) IsZero() bool {
	return s == Span{}
}

// ContainsLine reports whether line falls within the span.
func (s Span) ContainsLine(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Lines returns the number of source lines covered.
func (s Span) Lines() int {
	return s.EndLine - s.StartLine + 1
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}

// Range is a line range in a materialized view, same conventions as Span.
type Range = Span

// MappingEntry ties a range of a materialized view to the node it was rendered from.
type MappingEntry struct {
	View    Range     `json:"view"`
	NodeID  nodeid.ID `json:"node_id"`
	Origin  string    `json:"origin,omitempty"`
	Version string    `json:"version,omitempty"`
	Source  Span      `json:"source"`
}

// Projection is the result of mapping a view range back to its origin.
type Projection struct {
	NodeID  nodeid.ID `json:"node_id"`
	Origin  string    `json:"origin,omitempty"`
	Version string    `json:"version,omitempty"`
	Span    Span      `json:"span"`
}

// ViewSourceMapping records, for a flattened view, where each output range
// came from. Entries are kept ordered by view start line.
type ViewSourceMapping struct {
	Entries []MappingEntry `json:"entries"`
}

// Add appends an entry, keeping entries ordered by view position.
func (m *ViewSourceMapping) Add(e MappingEntry) {
	i := sort.Search(len(m.Entries), func(i int) bool {
		return m.Entries[i].View.StartLine > e.View.StartLine
	})
	m.Entries = append(m.Entries, MappingEntry{})
	copy(m.Entries[i+1:], m.Entries[i:])
	m.Entries[i] = e
}

// EntryAt returns the entry whose view range covers line.
func (m *ViewSourceMapping) EntryAt(line int) (MappingEntry, bool) {
	i := sort.Search(len(m.Entries), func(i int) bool {
		return m.Entries[i].View.EndLine >= line
	})
	if i < len(m.Entries) && m.Entries[i].View.ContainsLine(line) {
		return m.Entries[i], true
	}
	return MappingEntry{}, false
}

// ProjectToSource maps an edit range in the view back to source coordinates.
//
// Both ends must fall inside the same entry. Line offsets are carried over and
// clamped to the entry's source span; columns are only carried over when the
// view and source lines correspond one-to-one, otherwise the whole block span
// is returned.
func (m *ViewSourceMapping) ProjectToSource(r Range) (Projection, error) {
	start, ok := m.EntryAt(r.StartLine)
	if !ok {
		return Projection{}, errors.NewNodeNotFound("project", fmt.Sprintf("view line %d", r.StartLine))
	}
	if !start.View.ContainsLine(r.EndLine) {
		return Projection{}, errors.NewInvalidOperation("project", start.NodeID.String(),
			fmt.Sprintf("range %s spans more than one block", r))
	}

	p := Projection{
		NodeID:  start.NodeID,
		Origin:  start.Origin,
		Version: start.Version,
		Span:    start.Source,
	}
	if start.Source.IsZero() || start.View.Lines() != start.Source.Lines() {
		return p, nil
	}

	offset := start.Source.StartLine - start.View.StartLine
	p.Span = Span{
		StartLine: clamp(r.StartLine+offset, start.Source.StartLine, start.Source.EndLine),
		StartCol:  r.StartCol,
		EndLine:   clamp(r.EndLine+offset, start.Source.StartLine, start.Source.EndLine),
		EndCol:    r.EndCol,
	}
	if p.Span.StartLine == start.Source.StartLine && r.StartLine == start.View.StartLine {
		p.Span.StartCol += start.Source.StartCol - start.View.StartCol
	}
	return p, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
