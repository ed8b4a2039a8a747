package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/outline/core/diag"
	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/ops"
	"github.com/FocuswithJustin/outline/core/resolve"
	"github.com/FocuswithJustin/outline/core/view"
	"github.com/FocuswithJustin/outline/internal/archive"
	"github.com/FocuswithJustin/outline/internal/bridge"
	"github.com/FocuswithJustin/outline/internal/formats/markdown"
	"github.com/FocuswithJustin/outline/internal/logging"
	"github.com/FocuswithJustin/outline/internal/validation"
)

// IDsCmd lists every node with its id.
type IDsCmd struct {
	File   string `arg:"" help:"Markdown file (.md, .md.xz, .md.gz)" type:"existingfile"`
	JSON   bool   `help:"Print a JSON outline"`
	Legacy bool   `help:"Include legacy positional ids"`
}

func (c *IDsCmd) Run(app *App) error {
	src, err := app.load(c.File)
	if err != nil {
		return err
	}
	nodes := bridge.Outline(src.doc, c.Legacy || app.Config.Lookup.Compat)
	if c.JSON {
		return bridge.Encode(app.Out, bridge.OK(nodes, src.doc.Version()))
	}
	var walk func(ns []bridge.Node, depth int)
	walk = func(ns []bridge.Node, depth int) {
		for _, n := range ns {
			line := strings.Repeat("  ", depth) + n.ID.String()
			if n.LegacyID != "" {
				line += " (" + n.LegacyID + ")"
			}
			if s := summary(n); s != "" {
				line += "  " + s
			}
			fmt.Fprintln(app.Out, line)
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return nil
}

func summary(n bridge.Node) string {
	text := n.Text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i] + " ..."
	}
	const maxLen = 60
	if r := []rune(text); len(r) > maxLen {
		text = string(r[:maxLen]) + "..."
	}
	return text
}

// OpCmd applies an operation that takes no argument.
type OpCmd struct {
	File  string `arg:"" help:"Markdown file (.md, .md.xz, .md.gz)" type:"existingfile"`
	Ref   string `arg:"" help:"Target node id, or positional id with --compat"`
	Write bool   `short:"w" help:"Write the result back to the file"`
	Out   string `short:"o" help:"Write the result to this file" type:"path"`
	JSON  bool   `help:"Print the result as a JSON payload with range edits"`
}

func (c *OpCmd) Run(app *App, kctx *kong.Context) error {
	return c.apply(app, kctx.Selected().Name, "")
}

// ValueOpCmd applies an operation that takes a new value.
type ValueOpCmd struct {
	OpCmd `embed:""`
	Value string `arg:"" help:"New value"`
}

func (c *ValueOpCmd) Run(app *App, kctx *kong.Context) error {
	return c.apply(app, kctx.Selected().Name, c.Value)
}

func (c *OpCmd) apply(app *App, op, arg string) error {
	src, err := app.load(c.File)
	if err != nil {
		return err
	}
	id, err := resolve.Resolver{CompatMode: app.Config.Lookup.Compat}.ResolveID(src.doc, c.Ref)
	if err != nil {
		logging.OperationFailed(app.Ctx, op, c.Ref, err)
		return err
	}
	editor := ops.NewEditor(app.ids, ops.WithRenderer(app.writer()), ops.WithLogger(app.Logger()))
	r, err := editor.Apply(src.doc, op, id, arg)
	if err != nil {
		logging.OperationFailed(app.Ctx, op, id.String(), err)
		return err
	}
	newID := ""
	if !r.NewID.IsZero() {
		newID = r.NewID.String()
	}
	logging.OperationApplied(app.Ctx, op, id.String(), newID, r.Document.Version())

	dest := c.Out
	if c.Write {
		dest = src.path
	}
	if dest != "" {
		if err := validation.ValidateOutputPath(dest); err != nil {
			return errors.Wrap(err, "invalid output path")
		}
		if err := archive.WriteFile(dest, []byte(r.Text), 0o644); err != nil {
			return err
		}
	}

	switch {
	case c.JSON:
		return bridge.Encode(app.Out, bridge.OK(bridge.FromResult(r), r.Document.Version()))
	case dest == "":
		_, err := fmt.Fprint(app.Out, r.Text)
		return err
	case newID == "":
		fmt.Fprintf(app.Out, "%s: removed %s\n", op, id)
	default:
		fmt.Fprintf(app.Out, "%s: %s\n", op, newID)
	}
	return nil
}

// CheckCmd reports diagnostics.
type CheckCmd struct {
	File    string `arg:"" help:"Markdown file (.md, .md.xz, .md.gz)" type:"existingfile"`
	JSON    bool   `help:"Print diagnostics as JSON"`
	Context int    `help:"Lines of source context around each finding" default:"1"`
}

func (c *CheckCmd) Run(app *App) error {
	src, err := app.load(c.File)
	if err != nil {
		return err
	}
	checker := diag.NewChecker(diag.WithSource(src.text), diag.WithContextLines(c.Context))
	ds, err := diag.NewSession(checker, app.Logger()).Check(app.Ctx, src.doc)
	if err != nil {
		return err
	}
	if c.JSON {
		if ds == nil {
			ds = []diag.Diagnostic{}
		}
		if err := bridge.Encode(app.Out, bridge.OK(ds, src.doc.Version())); err != nil {
			return err
		}
	} else {
		for _, d := range ds {
			fmt.Fprintf(app.Out, "%s:%s\n", src.path, d)
			for _, l := range d.ContextLines {
				fmt.Fprintf(app.Out, "    | %s\n", l)
			}
		}
	}
	if diag.HasErrors(ds) {
		return fmt.Errorf("%s: %d problem(s) found", src.path, len(ds))
	}
	return nil
}

// LookupCmd resolves a reference to a node.
type LookupCmd struct {
	File string `arg:"" help:"Markdown file (.md, .md.xz, .md.gz)" type:"existingfile"`
	Ref  string `arg:"" help:"Node id, or positional id with --compat"`
	JSON bool   `help:"Print the node as JSON"`
}

func (c *LookupCmd) Run(app *App) error {
	src, err := app.load(c.File)
	if err != nil {
		return err
	}
	res, err := resolve.Resolver{CompatMode: app.Config.Lookup.Compat}.Resolve(src.doc, c.Ref)
	if err != nil {
		if c.JSON {
			_ = bridge.Encode(app.Out, bridge.Fail(err))
		}
		return err
	}
	payload := bridge.FromResolution(res)
	if c.JSON {
		return bridge.Encode(app.Out, bridge.OK(payload, src.doc.Version()))
	}
	fmt.Fprintf(app.Out, "%s\t%s\t%s\n", payload.Node.ID, payload.Node.LegacyID, payload.Node.Type)
	return nil
}

// ViewCmd prints the materialized view.
type ViewCmd struct {
	File string `arg:"" help:"Markdown file (.md, .md.xz, .md.gz)" type:"existingfile"`
	Map  bool   `help:"Print the view-to-source mapping as JSON instead of the text"`
}

func (c *ViewCmd) Run(app *App) error {
	src, err := app.load(c.File)
	if err != nil {
		return err
	}
	v, err := view.Materialize(src.doc, markdown.Writer{})
	if err != nil {
		return err
	}
	if c.Map {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v.Mapping)
	}
	_, err = fmt.Fprint(app.Out, v.Text)
	return err
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Out, "outline version %s\n", version)
	return nil
}
