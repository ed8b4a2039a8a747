// Package markdown reads and writes the block structure of Markdown
// documents: ATX headings, paragraphs, fenced code, block quotes and nested
// lists. Inline markup is kept verbatim as block text.
//
// The writer can follow each top-level block with an id comment
//
//	<!-- id: heading:intro:0123456789abcdef -->
//
// which the reader honors, so ids survive a write/read cycle.
package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
)

// FormatName identifies this format in errors and logs.
const FormatName = "markdown"

var (
	headingRe   = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)
	fenceRe     = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})[ \t]*([^`\\s]*)")
	itemRe      = regexp.MustCompile(`^( *)([-*+]|\d{1,9}[.)])(?:[ \t]+(.*))?$`)
	quoteRe     = regexp.MustCompile(`^ {0,3}> ?(.*)$`)
	idCommentRe = regexp.MustCompile(`^ {0,3}<!--[ \t]*id:[ \t]*(\S+)[ \t]*-->[ \t]*$`)
)

// Reader parses Markdown into identified documents.
type Reader struct {
	ids *tree.Identifier
}

// NewReader creates a Reader assigning ids through ids.
func NewReader(ids *tree.Identifier) *Reader {
	return &Reader{ids: ids}
}

// line is one source line, stripped of any container prefixes.
type line struct {
	text string
	num  int // 0-based source line
	end  int // byte length of the full source line
}

// block is a parsed block before identity assignment.
type block struct {
	node    tree.Node
	comment nodeid.ID
}

// Parse reads src, attaching provenance from pctx, block spans and ids.
// path is only used in error messages.
func (r *Reader) Parse(src, path string, pctx provenance.Context) (*tree.Document, error) {
	if !utf8.ValidString(src) {
		return nil, errors.NewParse(FormatName, path, invalidLine(src), "invalid UTF-8")
	}

	blocks := parseBlocks(splitLines(src), true)
	prov := provenance.FromContext(pctx)
	nodes := make([]tree.Node, 0, len(blocks))
	for _, b := range blocks {
		n := b.node
		if !b.comment.IsZero() && b.comment.Type() == n.Type() {
			n = tree.WithID(n, b.comment)
		}
		assigned, err := r.ids.Assign(n, &prov)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, assigned)
	}
	return tree.NewDocument(nodes...), nil
}

func invalidLine(src string) int {
	for i, l := range strings.Split(src, "\n") {
		if !utf8.ValidString(l) {
			return i + 1
		}
	}
	return 0
}

func splitLines(src string) []line {
	raw := strings.Split(src, "\n")
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	lines := make([]line, len(raw))
	for i, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		lines[i] = line{text: l, num: i, end: len(l)}
	}
	return lines
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func indentOf(s string) int { return len(s) - len(strings.TrimLeft(s, " ")) }

// startsBlock reports whether s interrupts a paragraph.
func startsBlock(s string) bool {
	return headingRe.MatchString(s) || fenceRe.MatchString(s) || quoteRe.MatchString(s) ||
		itemRe.MatchString(s) || idCommentRe.MatchString(s)
}

func spanOf(first, last line) provenance.Span {
	return provenance.Span{StartLine: first.num, EndLine: last.num, EndCol: last.end}
}

// parseBlocks parses a sequence of lines. Id comments are only attached at
// top level; nested ones are dropped.
func parseBlocks(lines []line, top bool) []block {
	var out []block
	for i := 0; i < len(lines); {
		l := lines[i]
		if isBlank(l.text) {
			i++
			continue
		}

		if m := idCommentRe.FindStringSubmatch(l.text); m != nil {
			if top && len(out) > 0 {
				attachComment(&out[len(out)-1], m[1], l)
			}
			i++
			continue
		}

		var n tree.Node
		switch {
		case headingRe.MatchString(l.text):
			m := headingRe.FindStringSubmatch(l.text)
			n = tree.WithSpan(tree.NewHeading(len(m[1]), m[2]), spanOf(l, l))
			i++
		case fenceRe.MatchString(l.text):
			n, i = parseFence(lines, i)
		case quoteRe.MatchString(l.text):
			n, i = parseQuote(lines, i)
		case itemRe.MatchString(l.text):
			n, i = parseList(lines, i)
		default:
			n, i = parseParagraph(lines, i)
		}
		out = append(out, block{node: n})
	}
	return out
}

// attachComment records an id comment directly following a block and widens
// the block's span over it.
func attachComment(b *block, raw string, l line) {
	span, _ := b.node.Span()
	if !b.comment.IsZero() || l.num != span.EndLine+1 {
		return
	}
	id, err := nodeid.Parse(raw)
	if err != nil {
		return
	}
	b.comment = id
	span.EndLine, span.EndCol = l.num, l.end
	b.node = tree.WithSpan(b.node, span)
}

func parseFence(lines []line, i int) (tree.Node, int) {
	open := lines[i]
	m := fenceRe.FindStringSubmatch(open.text)
	marker := m[1]
	var code []string
	last := open
	j := i + 1
	for ; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j].text)
		if indentOf(lines[j].text) <= 3 && strings.HasPrefix(t, marker[:1]) &&
			len(t) >= len(marker) && strings.Trim(t, marker[:1]) == "" {
			last = lines[j]
			j++
			break
		}
		code = append(code, lines[j].text)
		last = lines[j]
	}
	n := tree.NewCodeBlock(m[2], strings.Join(code, "\n"))
	return tree.WithSpan(n, spanOf(open, last)), j
}

func parseQuote(lines []line, i int) (tree.Node, int) {
	var inner []line
	j := i
	for ; j < len(lines); j++ {
		m := quoteRe.FindStringSubmatch(lines[j].text)
		if m == nil {
			break
		}
		inner = append(inner, line{text: m[1], num: lines[j].num, end: lines[j].end})
	}
	var children []tree.Node
	for _, b := range parseBlocks(inner, false) {
		children = append(children, b.node)
	}
	q := tree.NewBlockQuote(children...)
	return tree.WithSpan(q, spanOf(lines[i], lines[j-1])), j
}

func parseParagraph(lines []line, i int) (tree.Node, int) {
	var text []string
	j := i
	for ; j < len(lines); j++ {
		t := lines[j].text
		if isBlank(t) || (j > i && startsBlock(t)) {
			break
		}
		text = append(text, strings.TrimSpace(t))
	}
	p := tree.NewParagraph(strings.Join(text, "\n"))
	return tree.WithSpan(p, spanOf(lines[i], lines[j-1])), j
}

func isOrdered(marker string) bool {
	return marker != "-" && marker != "*" && marker != "+"
}

// parseList reads consecutive items sharing the first item's indentation and
// marker kind. Lines indented to an item's content column belong to it.
func parseList(lines []line, i int) (tree.Node, int) {
	first := itemRe.FindStringSubmatch(lines[i].text)
	indent := len(first[1])
	ordered := isOrdered(first[2])

	var items []*tree.ListItem
	firstLine, lastLine := lines[i], lines[i]
	for i < len(lines) {
		m := itemRe.FindStringSubmatch(lines[i].text)
		if m == nil || len(m[1]) != indent || isOrdered(m[2]) != ordered {
			break
		}
		contentCol := indent + len(m[2]) + 1
		start := lines[i]
		last := start
		text := []string{strings.TrimSpace(m[3])}
		i++

		for i < len(lines) && !isBlank(lines[i].text) && !startsBlock(lines[i].text) {
			text = append(text, strings.TrimSpace(lines[i].text))
			last = lines[i]
			i++
		}

		var body []line
		for i < len(lines) {
			t := lines[i].text
			if isBlank(t) {
				j := i
				for j < len(lines) && isBlank(lines[j].text) {
					j++
				}
				if j < len(lines) && indentOf(lines[j].text) >= contentCol {
					for ; i < j; i++ {
						body = append(body, line{num: lines[i].num})
					}
					continue
				}
				break
			}
			if ind := indentOf(t); ind >= contentCol || (ind > indent && itemRe.MatchString(t)) {
				body = append(body, dedent(lines[i], contentCol))
				last = lines[i]
				i++
				continue
			}
			break
		}

		var content []tree.Node
		for _, b := range parseBlocks(body, false) {
			content = append(content, b.node)
		}
		item := tree.WithSpan(tree.NewListItem(strings.Join(text, "\n"), content...), spanOf(start, last))
		items = append(items, item.(*tree.ListItem))
		lastLine = last

		// A blank line followed by a sibling item keeps the list going.
		if i < len(lines) && isBlank(lines[i].text) {
			j := i
			for j < len(lines) && isBlank(lines[j].text) {
				j++
			}
			if j < len(lines) {
				if m := itemRe.FindStringSubmatch(lines[j].text); m != nil && len(m[1]) == indent && isOrdered(m[2]) == ordered {
					i = j
					continue
				}
			}
			break
		}
	}

	l := tree.NewList(ordered, items...)
	return tree.WithSpan(l, spanOf(firstLine, lastLine)), i
}

func dedent(l line, n int) line {
	ind := indentOf(l.text)
	if ind > n {
		ind = n
	}
	l.text = l.text[ind:]
	return l
}
