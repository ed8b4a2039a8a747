// Package resolve implements the lookup protocol used by external callers:
// a reference is either a stable node id ("heading:intro:0123456789abcdef")
// or, for clients still migrating, a legacy positional id ("n0.2.1").
package resolve

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/tree"
)

// positionalGrammar is the participle grammar for legacy positional ids.
//
//nolint:govet // participle grammar tags are not standard struct tags
type positionalGrammar struct {
	Indices []int `parser:"'n' @Int ( '.' @Int )*"`
}

var positionalLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `n`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `\.`},
})

var positionalParser = participle.MustBuild[positionalGrammar](
	participle.Lexer(positionalLexer),
)

// ParsePositional parses a legacy positional id such as "n0.2.1".
func ParsePositional(s string) (tree.Path, error) {
	g, err := positionalParser.ParseString("", s)
	if err != nil {
		return nil, errors.NewMalformedIdentifier(s, err.Error())
	}
	return tree.Path(g.Indices), nil
}

// Resolution is a successfully resolved reference.
type Resolution struct {
	Node tree.Node
	Path tree.Path
	// Legacy is set when the reference was resolved positionally.
	Legacy bool
}

// LegacyID returns the positional id of the resolved node.
func (r *Resolution) LegacyID() string { return r.Path.String() }

// Resolver looks up references in a document.
type Resolver struct {
	// CompatMode enables the positional fallback for references that are
	// not, or no longer, valid stable ids.
	CompatMode bool
}

// Resolve finds the node ref refers to. Stable ids are tried first. Without
// CompatMode, a malformed or unknown stable id is reported as not found.
func (r Resolver) Resolve(doc *tree.Document, ref string) (*Resolution, error) {
	ref = strings.TrimSpace(ref)
	if id, err := nodeid.Parse(ref); err == nil {
		if p, ok := doc.Locate(id); ok {
			n, _ := doc.NodeAt(p)
			return &Resolution{Node: n, Path: p}, nil
		}
	}
	if r.CompatMode {
		if p, err := ParsePositional(ref); err == nil {
			if n, ok := doc.NodeAt(p); ok {
				return &Resolution{Node: n, Path: p, Legacy: true}, nil
			}
		}
	}
	return nil, errors.NewNodeNotFound("lookup", ref)
}

// ResolveID is Resolve for callers that only need the stable id.
func (r Resolver) ResolveID(doc *tree.Document, ref string) (nodeid.ID, error) {
	res, err := r.Resolve(doc, ref)
	if err != nil {
		return nodeid.ID{}, err
	}
	return res.Node.ID(), nil
}
