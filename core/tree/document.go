package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/outline/core/nodeid"
)

// Path addresses a node by child indices from the document root. Path{2, 0}
// is the first child of the third top-level node.
type Path []int

// String renders the legacy positional identifier, e.g. "n2.0".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return "n" + strings.Join(parts, ".")
}

// Parent returns the path of the enclosing node; nil for top-level nodes.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return append(Path(nil), p[:len(p)-1]...)
}

// Last returns the index among siblings.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Child returns the path of the i-th child of p.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Equal reports whether two paths address the same position.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Document is an ordered sequence of top-level nodes with a derived index
// from id to position covering every node in the tree.
//
// Documents are immutable. Every transformation returns a new Document with
// a freshly built index and a higher version; older documents stay valid.
type Document struct {
	nodes   []Node
	index   map[string][]Path
	version uint64
}

// NewDocument creates a document at version 1.
func NewDocument(nodes ...Node) *Document {
	return build(cloneNodes(nodes), 1)
}

func build(nodes []Node, version uint64) *Document {
	d := &Document{nodes: nodes, version: version, index: make(map[string][]Path)}
	d.Walk(func(n Node, p Path) bool {
		if n.HasID() {
			k := n.ID().Key()
			d.index[k] = append(d.index[k], p)
		}
		return true
	})
	return d
}

// derive builds the successor document.
func (d *Document) derive(nodes []Node) *Document {
	return build(nodes, d.version+1)
}

// Version returns the monotonically increasing rebuild counter.
func (d *Document) Version() uint64 { return d.version }

// Nodes returns a copy of the top-level nodes.
func (d *Document) Nodes() []Node { return cloneNodes(d.nodes) }

// Len returns the number of top-level nodes.
func (d *Document) Len() int { return len(d.nodes) }

// FindNode returns the first node, in document order, carrying id.
func (d *Document) FindNode(id nodeid.ID) (Node, bool) {
	p, ok := d.Locate(id)
	if !ok {
		return nil, false
	}
	return d.NodeAt(p)
}

// Locate returns the path of the first node carrying id.
func (d *Document) Locate(id nodeid.ID) (Path, bool) {
	paths := d.index[id.Key()]
	if len(paths) == 0 {
		return nil, false
	}
	return append(Path(nil), paths[0]...), true
}

// FindAll returns the paths of every node carrying id. Identical content
// yields identical ids, so more than one path is possible.
func (d *Document) FindAll(id nodeid.ID) []Path {
	paths := d.index[id.Key()]
	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = append(Path(nil), p...)
	}
	return out
}

// NodeAt returns the node at p.
func (d *Document) NodeAt(p Path) (Node, bool) {
	if len(p) == 0 {
		return nil, false
	}
	siblings := d.nodes
	var n Node
	for _, i := range p {
		if i < 0 || i >= len(siblings) {
			return nil, false
		}
		n = siblings[i]
		siblings = n.Children()
	}
	return n, true
}

// IDs returns every distinct id in document order.
func (d *Document) IDs() []nodeid.ID {
	var ids []nodeid.ID
	seen := make(map[string]bool)
	d.Walk(func(n Node, _ Path) bool {
		if n.HasID() && !seen[n.ID().Key()] {
			seen[n.ID().Key()] = true
			ids = append(ids, n.ID())
		}
		return true
	})
	return ids
}

// Walk visits every node in pre-order. Returning false from fn skips the
// node's children.
func (d *Document) Walk(fn func(n Node, p Path) bool) {
	walk(d.nodes, nil, fn)
}

func walk(nodes []Node, parent Path, fn func(Node, Path) bool) {
	for i, n := range nodes {
		p := parent.Child(i)
		if fn(n, p) {
			walk(n.Children(), p, fn)
		}
	}
}

// FindNodes returns every node satisfying pred, in document order.
func (d *Document) FindNodes(pred func(Node) bool) []Node {
	var out []Node
	d.Walk(func(n Node, _ Path) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Map applies f to every node bottom-up: children are mapped before their
// parent, and f sees the parent already rebuilt with mapped children.
// Returning nil from f drops the node.
func (d *Document) Map(f func(Node) Node) (*Document, error) {
	nodes, err := mapNodes(d.nodes, f)
	if err != nil {
		return nil, err
	}
	return d.derive(nodes), nil
}

func mapNodes(nodes []Node, f func(Node) Node) ([]Node, error) {
	var out []Node
	for _, n := range nodes {
		if kids := n.Children(); len(kids) > 0 {
			mapped, err := mapNodes(kids, f)
			if err != nil {
				return nil, err
			}
			if n, err = withChildren(n, mapped); err != nil {
				return nil, err
			}
		}
		if m := f(n); m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Filter keeps only nodes satisfying pred. A rejected container is removed
// together with its subtree.
func (d *Document) Filter(pred func(Node) bool) *Document {
	return d.derive(filterNodes(d.nodes, pred))
}

func filterNodes(nodes []Node, pred func(Node) bool) []Node {
	var out []Node
	for _, n := range nodes {
		if !pred(n) {
			continue
		}
		if kids := n.Children(); len(kids) > 0 {
			kept := filterNodes(kids, pred)
			if len(kept) != len(kids) {
				// Filtering list items keeps list items, so this cannot fail.
				n, _ = withChildren(n, kept)
			}
		}
		out = append(out, n)
	}
	return out
}

// Reduce folds f over every node in pre-order.
func Reduce[T any](d *Document, initial T, f func(acc T, n Node) T) T {
	acc := initial
	d.Walk(func(n Node, _ Path) bool {
		acc = f(acc, n)
		return true
	})
	return acc
}

// EditChildren rebuilds the document with the children of the node at parent
// replaced by fn's result; a nil parent edits the top-level sequence.
// Ancestors are rebuilt structurally, so their ids are preserved.
func (d *Document) EditChildren(parent Path, fn func(children []Node) ([]Node, error)) (*Document, error) {
	nodes, err := editAt(d.nodes, parent, fn)
	if err != nil {
		return nil, err
	}
	return d.derive(nodes), nil
}

func editAt(siblings []Node, p Path, fn func([]Node) ([]Node, error)) ([]Node, error) {
	if len(p) == 0 {
		return fn(cloneNodes(siblings))
	}
	i := p[0]
	if i < 0 || i >= len(siblings) {
		return nil, fmt.Errorf("path index %d out of range", i)
	}
	kids, err := editAt(siblings[i].Children(), p[1:], fn)
	if err != nil {
		return nil, err
	}
	rebuilt, err := withChildren(siblings[i], kids)
	if err != nil {
		return nil, err
	}
	out := cloneNodes(siblings)
	out[i] = rebuilt
	return out, nil
}

// Replace returns a document with the node at p replaced by n.
func (d *Document) Replace(p Path, n Node) (*Document, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("replace: empty path")
	}
	return d.EditChildren(p.Parent(), func(children []Node) ([]Node, error) {
		i := p.Last()
		if i < 0 || i >= len(children) {
			return nil, fmt.Errorf("replace: index %d out of range", i)
		}
		children[i] = n
		return children, nil
	})
}

// Remove returns a document without the node at p.
func (d *Document) Remove(p Path) (*Document, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("remove: empty path")
	}
	return d.EditChildren(p.Parent(), func(children []Node) ([]Node, error) {
		i := p.Last()
		if i < 0 || i >= len(children) {
			return nil, fmt.Errorf("remove: index %d out of range", i)
		}
		return append(children[:i], children[i+1:]...), nil
	})
}
