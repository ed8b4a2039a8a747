package ops

import (
	"fmt"

	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/provenance"
	"github.com/FocuswithJustin/outline/core/tree"
)

// Promote raises a heading one level (## → #). Promoting a level-1 heading
// is a no-op that returns the input document.
func (e *Editor) Promote(doc *tree.Document, id nodeid.ID) (*Result, error) {
	return e.shiftLevel(doc, id, OpPromote, -1)
}

// Demote lowers a heading one level (# → ##). Demoting a level-6 heading is
// a no-op that returns the input document.
func (e *Editor) Demote(doc *tree.Document, id nodeid.ID) (*Result, error) {
	return e.shiftLevel(doc, id, OpDemote, +1)
}

func (e *Editor) shiftLevel(doc *tree.Document, id nodeid.ID, op string, delta int) (*Result, error) {
	t, err := locate(doc, op, id)
	if err != nil {
		return nil, err
	}
	h, ok := t.node.(*tree.Heading)
	if !ok {
		return nil, invalid(op, id, fmt.Sprintf("%s is not a heading", t.node.Type()))
	}
	level := h.Level() + delta
	if level < tree.MinHeadingLevel || level > tree.MaxHeadingLevel {
		return e.unchanged(op, doc, t), nil
	}
	next, err := doc.Replace(t.path, tree.Touch(h.WithLevel(level), op))
	if err != nil {
		return nil, err
	}
	return e.finish(op, doc, next, t, id, sameBlock(t.path)), nil
}

// MoveUp swaps the target with its previous sibling.
func (e *Editor) MoveUp(doc *tree.Document, id nodeid.ID) (*Result, error) {
	t, err := locate(doc, OpMoveUp, id)
	if err != nil {
		return nil, err
	}
	i := t.path.Last()
	if i == 0 {
		return nil, invalid(OpMoveUp, id, "already the first sibling")
	}
	return e.swap(doc, t, OpMoveUp, i-1)
}

// MoveDown swaps the target with its next sibling.
func (e *Editor) MoveDown(doc *tree.Document, id nodeid.ID) (*Result, error) {
	t, err := locate(doc, OpMoveDown, id)
	if err != nil {
		return nil, err
	}
	i := t.path.Last()
	if i >= len(siblings(doc, t.path))-1 {
		return nil, invalid(OpMoveDown, id, "already the last sibling")
	}
	return e.swap(doc, t, OpMoveDown, i)
}

// swap exchanges siblings first and first+1.
func (e *Editor) swap(doc *tree.Document, t target, op string, first int) (*Result, error) {
	i := t.path.Last()
	next, err := doc.EditChildren(t.path.Parent(), func(children []tree.Node) ([]tree.Node, error) {
		children[i] = tree.Touch(children[i], op)
		children[first], children[first+1] = children[first+1], children[first]
		return children, nil
	})
	if err != nil {
		return nil, err
	}
	b := sameBlock(t.path)
	if len(t.path) == 1 {
		b = blocks{first, first + 1, first, first + 1}
	}
	return e.finish(op, doc, next, t, t.id, b), nil
}

// Nest moves the target into its previous sibling. A list item becomes the
// last item of the previous item's trailing sub-list, which is created when
// missing; any other block becomes the last child of a preceding heading or
// block quote.
func (e *Editor) Nest(doc *tree.Document, id nodeid.ID) (*Result, error) {
	t, err := locate(doc, OpNest, id)
	if err != nil {
		return nil, err
	}
	i := t.path.Last()
	if i == 0 {
		return nil, invalid(OpNest, id, "no previous sibling to nest under")
	}
	sibs := siblings(doc, t.path)
	prev := sibs[i-1]
	moved := tree.Touch(t.node, OpNest)

	var host tree.Node
	switch p := prev.(type) {
	case *tree.ListItem:
		item, ok := moved.(*tree.ListItem)
		if !ok {
			return nil, invalid(OpNest, id, "only list items nest under list items")
		}
		host, err = e.appendToSubList(p, item, ordered(doc, t.path))
	case *tree.Heading, *tree.BlockQuote:
		if _, ok := moved.(*tree.ListItem); ok {
			return nil, invalid(OpNest, id, "list items can only nest under list items")
		}
		host, err = tree.Restructure(prev, append(prev.Children(), moved)...)
	default:
		return nil, invalid(OpNest, id, fmt.Sprintf("previous sibling %s cannot hold children", prev.Type()))
	}
	if err != nil {
		return nil, err
	}

	next, err := doc.EditChildren(t.path.Parent(), func(children []tree.Node) ([]tree.Node, error) {
		children[i-1] = host
		return append(children[:i], children[i+1:]...), nil
	})
	if err != nil {
		return nil, err
	}
	b := sameBlock(t.path)
	if len(t.path) == 1 {
		b = blocks{i - 1, i, i - 1, i - 1}
	}
	return e.finish(OpNest, doc, next, t, id, b), nil
}

// appendToSubList appends item to owner's trailing nested list.
func (e *Editor) appendToSubList(owner *tree.ListItem, item *tree.ListItem, ordered bool) (tree.Node, error) {
	content := owner.Children()
	if n := len(content); n > 0 {
		if sub, ok := content[n-1].(*tree.List); ok {
			grown, err := tree.Restructure(sub, append(sub.Children(), item)...)
			if err != nil {
				return nil, err
			}
			content[n-1] = grown
			return tree.Restructure(owner, content...)
		}
	}

	var prov *provenance.Provenance
	if p, ok := item.Provenance(); ok {
		prov = &p
	}
	sub, err := e.ids.Assign(tree.NewList(ordered, item), prov)
	if err != nil {
		return nil, err
	}
	return tree.Restructure(owner, append(content, sub)...)
}

// ordered reports whether the list holding the item at p is ordered.
func ordered(doc *tree.Document, p tree.Path) bool {
	n, ok := doc.NodeAt(p.Parent())
	if !ok {
		return false
	}
	l, ok := n.(*tree.List)
	return ok && l.Ordered()
}

// Unnest moves the target out of its container so that it directly follows
// the container. A list item leaves its sub-list to follow the item owning
// that sub-list; a sub-list left empty is removed.
func (e *Editor) Unnest(doc *tree.Document, id nodeid.ID) (*Result, error) {
	t, err := locate(doc, OpUnnest, id)
	if err != nil {
		return nil, err
	}
	if len(t.path) < 2 {
		return nil, invalid(OpUnnest, id, "already at top level")
	}
	if _, ok := t.node.(*tree.ListItem); ok {
		return e.unnestItem(doc, t)
	}

	containerPath := t.path.Parent()
	container, _ := doc.NodeAt(containerPath)
	switch container.(type) {
	case *tree.Heading, *tree.BlockQuote:
	default:
		return nil, invalid(OpUnnest, id, fmt.Sprintf("cannot move a block out of a %s", container.Type()))
	}
	moved := tree.Touch(t.node, OpUnnest)
	k := containerPath.Last()

	next, err := doc.EditChildren(containerPath.Parent(), func(children []tree.Node) ([]tree.Node, error) {
		shrunk, err := tree.Restructure(children[k], without(children[k].Children(), t.path.Last())...)
		if err != nil {
			return nil, err
		}
		children[k] = shrunk
		return insert(children, k+1, moved), nil
	})
	if err != nil {
		return nil, err
	}
	b := sameBlock(t.path)
	if len(containerPath) == 1 {
		b = blocks{k, k, k, k + 1}
	}
	return e.finish(OpUnnest, doc, next, t, t.id, b), nil
}

func (e *Editor) unnestItem(doc *tree.Document, t target) (*Result, error) {
	subPath := t.path.Parent()
	ownerPath := subPath.Parent()
	owner, ok := doc.NodeAt(ownerPath)
	if _, isItem := owner.(*tree.ListItem); !ok || !isItem {
		return nil, invalid(OpUnnest, t.id, "list item is not in a nested list")
	}
	moved := tree.Touch(t.node, OpUnnest)
	k := ownerPath.Last()
	s := subPath.Last()

	next, err := doc.EditChildren(ownerPath.Parent(), func(items []tree.Node) ([]tree.Node, error) {
		content := items[k].Children()
		remaining := without(content[s].Children(), t.path.Last())
		if len(remaining) == 0 {
			content = without(content, s)
		} else {
			sub, err := tree.Restructure(content[s], remaining...)
			if err != nil {
				return nil, err
			}
			content[s] = sub
		}
		shrunk, err := tree.Restructure(items[k], content...)
		if err != nil {
			return nil, err
		}
		items[k] = shrunk
		return insert(items, k+1, moved), nil
	})
	if err != nil {
		return nil, err
	}
	return e.finish(OpUnnest, doc, next, t, t.id, sameBlock(t.path)), nil
}

// ToOrdered converts a list to an ordered list. Lists already ordered are
// returned unchanged.
func (e *Editor) ToOrdered(doc *tree.Document, id nodeid.ID) (*Result, error) {
	return e.setOrdered(doc, id, OpToOrdered, true)
}

// ToUnordered converts a list to an unordered list.
func (e *Editor) ToUnordered(doc *tree.Document, id nodeid.ID) (*Result, error) {
	return e.setOrdered(doc, id, OpToUnordered, false)
}

func (e *Editor) setOrdered(doc *tree.Document, id nodeid.ID, op string, want bool) (*Result, error) {
	t, err := locate(doc, op, id)
	if err != nil {
		return nil, err
	}
	l, ok := t.node.(*tree.List)
	if !ok {
		return nil, invalid(op, id, fmt.Sprintf("%s is not a list", t.node.Type()))
	}
	if l.Ordered() == want {
		return e.unchanged(op, doc, t), nil
	}
	next, err := doc.Replace(t.path, tree.Touch(l.WithOrdered(want), op))
	if err != nil {
		return nil, err
	}
	return e.finish(op, doc, next, t, id, sameBlock(t.path)), nil
}

func without(nodes []tree.Node, i int) []tree.Node {
	out := make([]tree.Node, 0, len(nodes)-1)
	out = append(out, nodes[:i]...)
	return append(out, nodes[i+1:]...)
}

func insert(nodes []tree.Node, i int, n tree.Node) []tree.Node {
	out := make([]tree.Node, 0, len(nodes)+1)
	out = append(out, nodes[:i]...)
	out = append(out, n)
	return append(out, nodes[i:]...)
}
