// Package view produces materialized views: flattened renderings of a
// document in which every text-bearing block appears once, in document order,
// together with a mapping from view lines back to the blocks and source
// ranges they came from.
package view

import (
	"strings"

	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
)

// BlockRenderer renders a single block to text.
type BlockRenderer interface {
	RenderBlock(n tree.Node) string
}

// View is a materialized document.
type View struct {
	Text    string
	Mapping provenance.ViewSourceMapping
}

// Project maps a range of the view back to source coordinates.
func (v *View) Project(r provenance.Range) (provenance.Projection, error) {
	return v.Mapping.ProjectToSource(r)
}

// Materialize flattens doc depth-first. Headings and list items are rendered
// without their nested content, which follows them as separate blocks;
// lists and quotes contribute only their contents. Blocks are separated by a
// blank line.
func Materialize(doc *tree.Document, r BlockRenderer) (*View, error) {
	v := &View{}
	var (
		sb   strings.Builder
		line int
		err  error
	)
	emit := func(n tree.Node) {
		text := r.RenderBlock(n)
		if text == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
			line += 2
		}
		lines := strings.Split(text, "\n")
		end := line + len(lines) - 1
		entry := provenance.MappingEntry{
			View: provenance.Range{
				StartLine: line,
				EndLine:   end,
				EndCol:    len(lines[len(lines)-1]),
			},
			NodeID: n.ID(),
		}
		if p, ok := n.Provenance(); ok {
			entry.Origin, entry.Version = p.Origin, p.Version
		}
		if s, ok := n.Span(); ok {
			entry.Source = s
		}
		v.Mapping.Add(entry)
		sb.WriteString(text)
		line = end
	}

	doc.Walk(func(n tree.Node, _ tree.Path) bool {
		if err != nil {
			return false
		}
		switch n.(type) {
		case *tree.List, *tree.BlockQuote:
			return true
		case *tree.Heading, *tree.ListItem:
			var bare tree.Node
			if bare, err = tree.Restructure(n); err != nil {
				return false
			}
			emit(bare)
			return true
		}
		emit(n)
		return false
	})
	if err != nil {
		return nil, err
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	v.Text = sb.String()
	return v, nil
}
