package tree

import (
	"fmt"

	"github.com/FocuswithJustin/outline/core/nodeid"
)

// Heading levels.
const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 6
)

// Heading is a section title. Its level is presentation only and does not
// take part in identity; children are the blocks nested under the heading
// when the tree is used as an outline.
type Heading struct {
	base
	level    int
	text     string
	children []Node
}

// NewHeading creates a heading. Levels outside 1..6 are clamped.
func NewHeading(level int, text string, children ...Node) *Heading {
	return &Heading{level: clampLevel(level), text: text, children: cloneNodes(children)}
}

func (h *Heading) Type() nodeid.Type { return nodeid.TypeHeading }
func (h *Heading) Level() int        { return h.level }
func (h *Heading) Text() string      { return h.text }
func (h *Heading) Children() []Node  { return cloneNodes(h.children) }

// WithText returns a copy with new text and a regenerated id.
func (h *Heading) WithText(text string) *Heading {
	c := h.copyHeading()
	c.text = text
	regenerate(c)
	return c
}

// WithLevel returns a copy at the given level; the id is preserved.
func (h *Heading) WithLevel(level int) *Heading {
	c := h.copyHeading()
	c.level = clampLevel(level)
	return c
}

// WithChildren returns a copy with new children; the id is preserved.
func (h *Heading) WithChildren(children ...Node) *Heading {
	c := h.copyHeading()
	c.children = cloneNodes(children)
	return c
}

func (h *Heading) copyHeading() *Heading {
	c := *h
	c.base = h.base.copied()
	c.children = cloneNodes(h.children)
	return &c
}

func (h *Heading) clone() mutable { return h.copyHeading() }

func (h *Heading) setChildren(children []Node) error {
	h.children = cloneNodes(children)
	return nil
}

func clampLevel(level int) int {
	if level < MinHeadingLevel {
		return MinHeadingLevel
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}

// Paragraph is a block of inline content kept as raw text.
type Paragraph struct {
	base
	leaf
	text string
}

// NewParagraph creates a paragraph.
func NewParagraph(text string) *Paragraph {
	return &Paragraph{text: text}
}

func (p *Paragraph) Type() nodeid.Type { return nodeid.TypeParagraph }
func (p *Paragraph) Text() string      { return p.text }

// WithText returns a copy with new text and a regenerated id.
func (p *Paragraph) WithText(text string) *Paragraph {
	c := p.copyParagraph()
	c.text = text
	regenerate(c)
	return c
}

func (p *Paragraph) copyParagraph() *Paragraph {
	c := *p
	c.base = p.base.copied()
	return &c
}

func (p *Paragraph) clone() mutable { return p.copyParagraph() }

// CodeBlock is a fenced code block. Whitespace in code is significant.
type CodeBlock struct {
	base
	leaf
	language string
	code     string
}

// NewCodeBlock creates a code block.
func NewCodeBlock(language, code string) *CodeBlock {
	return &CodeBlock{language: language, code: code}
}

func (b *CodeBlock) Type() nodeid.Type { return nodeid.TypeCodeBlock }
func (b *CodeBlock) Language() string  { return b.language }
func (b *CodeBlock) Code() string      { return b.code }

// WithCode returns a copy with new code and a regenerated id.
func (b *CodeBlock) WithCode(code string) *CodeBlock {
	c := b.copyCodeBlock()
	c.code = code
	regenerate(c)
	return c
}

// WithLanguage returns a copy with a new language and a regenerated id.
func (b *CodeBlock) WithLanguage(language string) *CodeBlock {
	c := b.copyCodeBlock()
	c.language = language
	regenerate(c)
	return c
}

func (b *CodeBlock) copyCodeBlock() *CodeBlock {
	c := *b
	c.base = b.base.copied()
	return &c
}

func (b *CodeBlock) clone() mutable { return b.copyCodeBlock() }

// List is an ordered or unordered sequence of items. Ordering is
// presentation only and does not take part in identity.
type List struct {
	base
	ordered bool
	items   []*ListItem
}

// NewList creates a list.
func NewList(ordered bool, items ...*ListItem) *List {
	return &List{ordered: ordered, items: append([]*ListItem(nil), items...)}
}

func (l *List) Type() nodeid.Type { return nodeid.TypeList }
func (l *List) Ordered() bool     { return l.ordered }

// Items returns a copy of the list's items.
func (l *List) Items() []*ListItem { return append([]*ListItem(nil), l.items...) }

func (l *List) Children() []Node {
	out := make([]Node, len(l.items))
	for i, it := range l.items {
		out[i] = it
	}
	return out
}

// WithOrdered returns a copy with the ordering flag set; the id is preserved.
func (l *List) WithOrdered(ordered bool) *List {
	c := l.copyList()
	c.ordered = ordered
	return c
}

// WithItems returns a copy with new items and a regenerated id.
func (l *List) WithItems(items ...*ListItem) *List {
	c := l.copyList()
	c.items = append([]*ListItem(nil), items...)
	regenerate(c)
	return c
}

func (l *List) copyList() *List {
	c := *l
	c.base = l.base.copied()
	c.items = append([]*ListItem(nil), l.items...)
	return &c
}

func (l *List) clone() mutable { return l.copyList() }

func (l *List) setChildren(children []Node) error {
	items := make([]*ListItem, len(children))
	for i, ch := range children {
		it, ok := ch.(*ListItem)
		if !ok {
			return fmt.Errorf("list children must be list items, got %s", ch.Type())
		}
		items[i] = it
	}
	l.items = items
	return nil
}

// ListItem is one entry of a list: its own inline text followed by nested
// blocks such as sub-lists or extra paragraphs.
type ListItem struct {
	base
	text    string
	content []Node
}

// NewListItem creates a list item.
func NewListItem(text string, content ...Node) *ListItem {
	return &ListItem{text: text, content: cloneNodes(content)}
}

func (it *ListItem) Type() nodeid.Type { return nodeid.TypeListItem }
func (it *ListItem) Text() string      { return it.text }
func (it *ListItem) Children() []Node  { return cloneNodes(it.content) }

// WithText returns a copy with new text and a regenerated id.
func (it *ListItem) WithText(text string) *ListItem {
	c := it.copyItem()
	c.text = text
	regenerate(c)
	return c
}

// WithContent returns a copy with new nested content and a regenerated id.
func (it *ListItem) WithContent(content ...Node) *ListItem {
	c := it.copyItem()
	c.content = cloneNodes(content)
	regenerate(c)
	return c
}

func (it *ListItem) copyItem() *ListItem {
	c := *it
	c.base = it.base.copied()
	c.content = cloneNodes(it.content)
	return &c
}

func (it *ListItem) clone() mutable { return it.copyItem() }

func (it *ListItem) setChildren(children []Node) error {
	it.content = cloneNodes(children)
	return nil
}

// BlockQuote wraps quoted blocks.
type BlockQuote struct {
	base
	content []Node
}

// NewBlockQuote creates a block quote.
func NewBlockQuote(content ...Node) *BlockQuote {
	return &BlockQuote{content: cloneNodes(content)}
}

func (q *BlockQuote) Type() nodeid.Type { return nodeid.TypeBlockQuote }
func (q *BlockQuote) Children() []Node  { return cloneNodes(q.content) }

// WithContent returns a copy with new content and a regenerated id.
func (q *BlockQuote) WithContent(content ...Node) *BlockQuote {
	c := q.copyQuote()
	c.content = cloneNodes(content)
	regenerate(c)
	return c
}

func (q *BlockQuote) copyQuote() *BlockQuote {
	c := *q
	c.base = q.base.copied()
	c.content = cloneNodes(q.content)
	return &c
}

func (q *BlockQuote) clone() mutable { return q.copyQuote() }

func (q *BlockQuote) setChildren(children []Node) error {
	q.content = cloneNodes(children)
	return nil
}

// IsContainer reports whether n can hold structural children.
func IsContainer(n Node) bool {
	switch n.(type) {
	case *Heading, *List, *ListItem, *BlockQuote:
		return true
	}
	return false
}

// TextOf returns the node's own inline text, or "" for nodes without one.
func TextOf(n Node) string {
	switch v := n.(type) {
	case *Heading:
		return v.text
	case *Paragraph:
		return v.text
	case *ListItem:
		return v.text
	}
	return ""
}
