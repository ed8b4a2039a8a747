package ops

import (
	"fmt"

	"github.com/FocuswithJustin/outline/core/nodeid"
	"github.com/FocuswithJustin/outline/core/tree"
)

// Delete removes the target and its subtree.
func (e *Editor) Delete(doc *tree.Document, id nodeid.ID) (*Result, error) {
	t, err := locate(doc, OpDelete, id)
	if err != nil {
		return nil, err
	}
	next, err := doc.Remove(t.path)
	if err != nil {
		return nil, err
	}
	b := sameBlock(t.path)
	if len(t.path) == 1 {
		b.newTo = b.newFrom - 1
	}
	return e.finish(OpDelete, doc, next, t, nodeid.ID{}, b), nil
}

// SetText replaces the inline text of a heading, paragraph or list item.
// The target gets a new id.
func (e *Editor) SetText(doc *tree.Document, id nodeid.ID, text string) (*Result, error) {
	return e.edit(doc, id, OpSetText, func(n tree.Node) (tree.Node, error) {
		switch v := n.(type) {
		case *tree.Heading:
			return v.WithText(text), nil
		case *tree.Paragraph:
			return v.WithText(text), nil
		case *tree.ListItem:
			return v.WithText(text), nil
		}
		return nil, fmt.Errorf("%s has no inline text", n.Type())
	})
}

// SetCode replaces a code block's code, keeping its language.
func (e *Editor) SetCode(doc *tree.Document, id nodeid.ID, code string) (*Result, error) {
	return e.edit(doc, id, OpSetCode, func(n tree.Node) (tree.Node, error) {
		cb, ok := n.(*tree.CodeBlock)
		if !ok {
			return nil, fmt.Errorf("%s is not a code block", n.Type())
		}
		return cb.WithCode(code), nil
	})
}

// SetLanguage replaces a code block's language, keeping its code.
func (e *Editor) SetLanguage(doc *tree.Document, id nodeid.ID, language string) (*Result, error) {
	return e.edit(doc, id, OpSetLanguage, func(n tree.Node) (tree.Node, error) {
		cb, ok := n.(*tree.CodeBlock)
		if !ok {
			return nil, fmt.Errorf("%s is not a code block", n.Type())
		}
		return cb.WithLanguage(language), nil
	})
}

// edit applies a content change and regenerates the target's identity.
func (e *Editor) edit(doc *tree.Document, id nodeid.ID, op string, change func(tree.Node) (tree.Node, error)) (*Result, error) {
	t, err := locate(doc, op, id)
	if err != nil {
		return nil, err
	}
	changed, err := change(t.node)
	if err != nil {
		return nil, invalid(op, id, err.Error())
	}
	regenerated, err := e.ids.Regenerate(changed, op)
	if err != nil {
		return nil, err
	}
	next, err := doc.Replace(t.path, regenerated)
	if err != nil {
		return nil, err
	}
	return e.finish(op, doc, next, t, regenerated.ID(), sameBlock(t.path)), nil
}

// SetMetadata sets one metadata key on the target. Metadata is not part of
// identity, so the id is preserved.
func (e *Editor) SetMetadata(doc *tree.Document, id nodeid.ID, key string, value any) (*Result, error) {
	t, err := locate(doc, OpSetMetadata, id)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, invalid(OpSetMetadata, id, "empty metadata key")
	}
	updated := tree.Touch(tree.WithMetadataValue(t.node, key, value), OpSetMetadata)
	next, err := doc.Replace(t.path, updated)
	if err != nil {
		return nil, err
	}
	return e.finish(OpSetMetadata, doc, next, t, id, sameBlock(t.path)), nil
}

// Apply runs the named operation. arg carries the new text, code or
// language for content edits and is ignored otherwise.
func (e *Editor) Apply(doc *tree.Document, op string, id nodeid.ID, arg string) (*Result, error) {
	switch op {
	case OpPromote:
		return e.Promote(doc, id)
	case OpDemote:
		return e.Demote(doc, id)
	case OpMoveUp:
		return e.MoveUp(doc, id)
	case OpMoveDown:
		return e.MoveDown(doc, id)
	case OpNest:
		return e.Nest(doc, id)
	case OpUnnest:
		return e.Unnest(doc, id)
	case OpToOrdered:
		return e.ToOrdered(doc, id)
	case OpToUnordered:
		return e.ToUnordered(doc, id)
	case OpDelete:
		return e.Delete(doc, id)
	case OpSetText:
		return e.SetText(doc, id, arg)
	case OpSetCode:
		return e.SetCode(doc, id, arg)
	case OpSetLanguage:
		return e.SetLanguage(doc, id, arg)
	}
	return nil, invalid(op, id, "unknown operation")
}
