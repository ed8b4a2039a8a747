package tree

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
)

// Framing bytes for container forms. They are escaped inside leaf content, so
// a separator never occurs within a single child's canonical form.
const (
	frameOpen  = "\x02"
	frameClose = "\x03"
	frameSep   = "\x1e"
)

var (
	leafEscaper = strings.NewReplacer(
		"\x1b", "\x1b0",
		frameOpen, "\x1b1",
		frameClose, "\x1b2",
		frameSep, "\x1b3",
	)
	// The language shares a line with the code, so ':' is escaped too.
	languageEscaper = strings.NewReplacer(
		"\x1b", "\x1b0",
		frameOpen, "\x1b1",
		frameClose, "\x1b2",
		frameSep, "\x1b3",
		":", "\x1b4",
	)
	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Canonicalize reduces a node's meaningful content to a normalized string.
//
// Only identity-significant fields are included: heading level, list
// ordering, metadata, provenance and spans never are. Containers recurse
// into their children. Unknown node types yield a CanonicalizationError.
func Canonicalize(n Node) (string, error) {
	switch v := n.(type) {
	case *Heading:
		return "heading:" + leafEscaper.Replace(NormalizeText(v.text)), nil
	case *Paragraph:
		return "paragraph:" + leafEscaper.Replace(NormalizeText(v.text)), nil
	case *CodeBlock:
		lang := languageEscaper.Replace(NormalizeText(v.language))
		return "codeblock:" + lang + ":" + leafEscaper.Replace(NormalizeCode(v.code)), nil
	case *List:
		parts, err := canonicalChildren(nil, v.Children())
		if err != nil {
			return "", err
		}
		return "list:" + frame(parts), nil
	case *ListItem:
		parts := []string{leafEscaper.Replace(NormalizeText(v.text))}
		parts, err := canonicalChildren(parts, v.content)
		if err != nil {
			return "", err
		}
		return "listitem:" + frame(parts), nil
	case *BlockQuote:
		parts, err := canonicalChildren(nil, v.content)
		if err != nil {
			return "", err
		}
		return "blockquote:" + frame(parts), nil
	case nil:
		return "", &errors.CanonicalizationError{NodeType: "<nil>", Reason: "nil node"}
	}
	return "", errors.NewUnsupportedNodeType(fmt.Sprintf("%T", n))
}

func canonicalChildren(parts []string, children []Node) ([]string, error) {
	for _, ch := range children {
		form, err := Canonicalize(ch)
		if err != nil {
			return nil, err
		}
		parts = append(parts, form)
	}
	return parts, nil
}

func frame(parts []string) string {
	return frameOpen + strings.Join(parts, frameSep) + frameClose
}

// NormalizeText applies NFC normalization, collapses whitespace runs to a
// single space and trims the ends.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeCode applies NFC normalization, converts line endings to LF and
// expands tabs to four spaces. All other whitespace is preserved exactly.
func NormalizeCode(s string) string {
	s = lineEndings.Replace(norm.NFC.String(s))
	return strings.ReplaceAll(s, "\t", "    ")
}

// computeID derives a node's id without consulting any cache.
func computeID(n Node) (nodeid.ID, error) {
	form, err := Canonicalize(n)
	if err != nil {
		return nodeid.ID{}, err
	}
	return nodeid.New(n.Type(), TextOf(n), form), nil
}
