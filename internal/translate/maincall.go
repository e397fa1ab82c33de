package translate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/resource"
)

const (
	// MainCallName is both the default import identifier and the module file
	// stem the page wrapper is loaded from.
	MainCallName = "MainCall"
	pageCallName = "Page"
)

// MainCall wraps page registrations with the MainCall helper:
// Page(args) becomes Page(MainCall(args)), and a default import of MainCall
// is added when missing. The parsed *js.AST is stored in target.AST and
// target.SourceCode is printed from it.
type MainCall struct{}

// Translate implements resource.Translator.
func (MainCall) Translate(_ context.Context, c *resource.Context, _ *resource.FileResource, target *resource.FileResource) error {
	data, err := os.ReadFile(target.SourceAbsolutePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", target.SourceAbsolutePath, err)
	}
	helper := filepath.Join(filepath.Dir(c.BuildPath), "utils", MainCallName)
	rel, err := importPath(filepath.Dir(target.SourceAbsolutePath), helper)
	if err != nil {
		return err
	}
	ast, res, err := rewriteMainCall(string(data), rel)
	if err != nil {
		return fmt.Errorf("parse %s: %w", target.SourceAbsolutePath, err)
	}
	slog.Debug("MainCall rewrite",
		logfields.Path(target.SourceAbsolutePath),
		slog.Bool("import_inserted", res.Inserted),
		slog.Int("wrapped", res.Wrapped))
	target.AST = ast
	target.SourceCode = ast.JSString()
	return nil
}

// importPath renders helper relative to dir as an ES module specifier.
func importPath(dir, helper string) (string, error) {
	rel, err := filepath.Rel(dir, helper)
	if err != nil {
		return "", fmt.Errorf("relative import path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}

// rewrite reports what rewriteMainCall changed.
type rewrite struct {
	Inserted bool
	Wrapped  int
}

func rewriteMainCall(src, importFrom string) (*js.AST, rewrite, error) {
	ast, err := js.Parse(parse.NewInputString(src), js.Options{})
	if err != nil {
		return nil, rewrite{}, err
	}

	w := &pageWrapper{}
	js.Walk(w, &ast.BlockStmt)
	res := rewrite{Wrapped: w.wrapped}

	if !hasDefaultImport(ast, MainCallName) {
		imp := &js.ImportStmt{
			Default: []byte(MainCallName),
			Module:  []byte("'" + importFrom + "'"),
		}
		ast.BlockStmt.List = append([]js.IStmt{imp}, ast.BlockStmt.List...)
		res.Inserted = true
	}
	return ast, res, nil
}

func hasDefaultImport(ast *js.AST, local string) bool {
	for _, stmt := range ast.BlockStmt.List {
		if imp, ok := stmt.(*js.ImportStmt); ok && string(imp.Default) == local {
			return true
		}
	}
	return false
}

// pageWrapper rewrites Page(args) into Page(MainCall(args)). Calls already
// wrapped are left as is; Page calls nested in a Page argument are not
// visited.
type pageWrapper struct {
	wrapped int
}

func (w *pageWrapper) Enter(n js.INode) js.IVisitor {
	call, ok := n.(*js.CallExpr)
	if !ok || !isIdent(call.X, pageCallName) {
		return w
	}
	if len(call.Args.List) == 1 {
		if inner, ok := call.Args.List[0].Value.(*js.CallExpr); ok && isIdent(inner.X, MainCallName) {
			return nil
		}
	}
	call.Args = js.Args{List: []js.Arg{{Value: &js.CallExpr{
		X:    &js.Var{Data: []byte(MainCallName)},
		Args: call.Args,
	}}}}
	w.wrapped++
	return nil
}

func (w *pageWrapper) Exit(js.INode) {}

func isIdent(e js.IExpr, name string) bool {
	v, ok := e.(*js.Var)
	return ok && string(v.Data) == name
}
