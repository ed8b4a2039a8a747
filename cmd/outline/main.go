// Command outline inspects and restructures Markdown documents through
// stable, content-addressed node ids.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/outline/core/cache"
	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/tree"
	"github.com/FocuswithJustin/outline/internal/archive"
	"github.com/FocuswithJustin/outline/internal/config"
	"github.com/FocuswithJustin/outline/internal/formats/markdown"
	"github.com/FocuswithJustin/outline/internal/logging"
	"github.com/FocuswithJustin/outline/internal/validation"
	"github.com/FocuswithJustin/outline/internal/vcs"
)

const version = "0.1.0"

// CLI defines the command-line interface for outline.
type CLI struct {
	Config    string `name:"config" short:"c" help:"Configuration file" type:"path" default:".outline.yaml"`
	LogLevel  string `name:"log-level" help:"Override log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Override log format (text, json)"`
	Compat    bool   `help:"Accept legacy positional ids such as n0.2.1"`

	IDs     IDsCmd     `cmd:"" name:"ids" help:"List nodes with their ids"`
	Op      OpGroup    `cmd:"" help:"Apply a structure operation"`
	Check   CheckCmd   `cmd:"" help:"Report structural problems"`
	Lookup  LookupCmd  `cmd:"" help:"Resolve a node reference"`
	View    ViewCmd    `cmd:"" help:"Print the flattened view of a document"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// OpGroup contains the structure operations.
type OpGroup struct {
	Promote     OpCmd      `cmd:"" help:"Decrease a heading's level"`
	Demote      OpCmd      `cmd:"" help:"Increase a heading's level"`
	MoveUp      OpCmd      `cmd:"" name:"move-up" help:"Swap a node with its previous sibling"`
	MoveDown    OpCmd      `cmd:"" name:"move-down" help:"Swap a node with its next sibling"`
	Nest        OpCmd      `cmd:"" help:"Move a node under its previous sibling"`
	Unnest      OpCmd      `cmd:"" help:"Move a node out of its container"`
	ToOrdered   OpCmd      `cmd:"" name:"to-ordered" help:"Make a list ordered"`
	ToUnordered OpCmd      `cmd:"" name:"to-unordered" help:"Make a list unordered"`
	Delete      OpCmd      `cmd:"" help:"Remove a node"`
	SetText     ValueOpCmd `cmd:"" name:"set-text" help:"Replace the text of a heading, paragraph or list item"`
	SetCode     ValueOpCmd `cmd:"" name:"set-code" help:"Replace the body of a code block"`
	SetLanguage ValueOpCmd `cmd:"" name:"set-language" help:"Change the language of a code block"`
}

// App carries what commands share: settings, logging and output.
type App struct {
	Config *config.Config
	Out    io.Writer
	Ctx    context.Context
	ids    *tree.Identifier
}

func newApp(cli *CLI, out io.Writer) (*App, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if cli.Compat {
		cfg.Lookup.Compat = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	logging.InitLogger(level, format)

	app := &App{
		Config: cfg,
		Out:    out,
		Ctx:    logging.WithSessionID(context.Background(), uuid.NewString()),
	}
	if cfg.Cache.Size > 0 {
		app.ids = tree.NewIdentifier(cache.NewIdentityCache(cfg.Cache.Size))
	} else {
		app.ids = tree.NewIdentifier(nil)
	}
	return app, nil
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *slog.Logger {
	return logging.LoggerFromContext(a.Ctx)
}

// source is a parsed input file.
type source struct {
	path string
	text string
	doc  *tree.Document
}

// load validates, reads and parses path.
func (a *App) load(path string) (*source, error) {
	if _, err := validation.ValidateSourceFile(path); err != nil {
		return nil, errors.Wrapf(err, "invalid input %s", path)
	}
	start := time.Now()
	data, err := archive.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pctx := vcs.FileContext(a.Ctx, path, a.Config.Author)
	doc, err := markdown.NewReader(a.ids).Parse(string(data), path, pctx)
	if err != nil {
		return nil, err
	}
	logging.DocumentLoaded(path, doc.Len(), time.Since(start), "commit", pctx.Commit)
	return &source{path: path, text: string(data), doc: doc}, nil
}

// done logs cache counters at the end of a run.
func (a *App) done() {
	if c := a.ids.Cache(); c != nil {
		logging.CacheStats(c.Stats())
	}
}

func (a *App) writer() markdown.Writer {
	return markdown.Writer{EmitIDs: a.Config.Output.EmitIDs}
}

// run parses args and executes the selected command.
func run(args []string, out io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("outline"),
		kong.Description("Stable node ids and structure operations for Markdown"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(out, os.Stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	app, err := newApp(&cli, out)
	if err != nil {
		return err
	}
	defer app.done()
	if err := kctx.Run(app); err != nil {
		logging.ErrorContext(app.Ctx, "command_failed", "command", kctx.Command(), "error", err.Error())
		return err
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "outline: %v\n", err)
		os.Exit(1)
	}
}
