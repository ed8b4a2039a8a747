package markdown

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/outline/core/tree"
)

// Writer renders documents back to Markdown. It implements ops.Renderer.
type Writer struct {
	// EmitIDs follows every top-level block with an id comment.
	EmitIDs bool
}

// Render renders a whole document, blocks separated by blank lines and
// terminated by a newline.
func (w Writer) Render(doc *tree.Document) string {
	nodes := doc.Nodes()
	if len(nodes) == 0 {
		return ""
	}
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = w.RenderBlock(n)
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// RenderBlock renders one top-level block, including its id comment when
// EmitIDs is set.
func (w Writer) RenderBlock(n tree.Node) string {
	s := renderNode(n)
	if w.EmitIDs && n.HasID() {
		s += "\n<!-- id: " + n.ID().String() + " -->"
	}
	return s
}

func renderNode(n tree.Node) string {
	switch v := n.(type) {
	case *tree.Heading:
		s := strings.Repeat("#", v.Level())
		if t := oneLine(v.Text()); t != "" {
			s += " " + t
		}
		for _, ch := range v.Children() {
			s += "\n\n" + renderNode(ch)
		}
		return s
	case *tree.Paragraph:
		return v.Text()
	case *tree.CodeBlock:
		return renderCode(v)
	case *tree.List:
		return renderList(v)
	case *tree.BlockQuote:
		return renderQuote(v)
	case *tree.ListItem:
		return renderItem(v, "- ")
	}
	return ""
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func renderCode(b *tree.CodeBlock) string {
	fence := "```"
	for strings.Contains(b.Code(), fence) {
		fence += "`"
	}
	var sb strings.Builder
	sb.WriteString(fence)
	sb.WriteString(b.Language())
	sb.WriteString("\n")
	if b.Code() != "" {
		sb.WriteString(b.Code())
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
	return sb.String()
}

func renderList(l *tree.List) string {
	items := l.Items()
	lines := make([]string, len(items))
	for i, it := range items {
		marker := "- "
		if l.Ordered() {
			marker = strconv.Itoa(i+1) + ". "
		}
		lines[i] = renderItem(it, marker)
	}
	return strings.Join(lines, "\n")
}

// renderItem writes the marker and text, then nested content indented to the
// content column. Sub-lists stay tight; other blocks get a blank line so they
// are not read back as continuation text.
func renderItem(it *tree.ListItem, marker string) string {
	var sb strings.Builder
	pad := strings.Repeat(" ", len(marker))
	sb.WriteString(strings.TrimRight(marker+strings.ReplaceAll(it.Text(), "\n", "\n"+pad), " "))
	for _, ch := range it.Children() {
		if _, ok := ch.(*tree.List); ok {
			sb.WriteString("\n")
		} else {
			sb.WriteString("\n\n")
		}
		sb.WriteString(indent(renderNode(ch), pad))
	}
	return sb.String()
}

func renderQuote(q *tree.BlockQuote) string {
	children := q.Children()
	if len(children) == 0 {
		return ">"
	}
	parts := make([]string, len(children))
	for i, ch := range children {
		parts[i] = renderNode(ch)
	}
	lines := strings.Split(strings.Join(parts, "\n\n"), "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}

func indent(s, pad string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
