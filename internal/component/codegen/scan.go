// Package codegen turns //mvc: source markers into component registrations.
//
// A controller or service is declared with directives in its type's doc
// comment:
//
//	//mvc:controller
//	//mvc:path /demo
//	type DemoAction struct{ ... }
//
//	//mvc:service [name]
//	//mvc:implements IDemoService[,Other]
//	type DemoService struct{ ... }
//
// Handler methods carry a route directive. Bound parameter names default to
// the names in the method signature; explicit names replace them and a
// name=override entry renames a single parameter:
//
//	//mvc:route /add
//	func (d *DemoAction) Add(w http.ResponseWriter, r *http.Request, a, b int)
package codegen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"mvc-server/internal/component"
)

const (
	directivePrefix = "//mvc:"

	// OutputFile is the file written into every package with components.
	OutputFile = "zz_components.go"
)

var ErrMarker = errors.New("invalid mvc marker")

type Route struct {
	Method string
	Path   string
	Params []string
}

type Component struct {
	Name       string
	Role       component.Role
	BeanName   string
	Path       string
	Implements []string
	Routes     []Route
}

// Package is one Go package of the scanned tree.
type Package struct {
	Dir        string
	Name       string
	Dotted     string
	Components []Component
}

// ScanDir walks dir recursively and collects the markers of every package.
// base is the dotted name of dir itself; nested directories extend it.
func ScanDir(dir, base string) ([]Package, error) {
	if base == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		base = filepath.Base(abs)
	}

	var pkgs []Package
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && (name == "testdata" || name == "vendor" ||
			strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		dotted := base
		if rel != "." {
			dotted = base + "." + strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
		}

		pkg, ok, err := scanPackage(path, dotted)
		if err != nil {
			return err
		}
		if ok {
			pkgs = append(pkgs, pkg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pkgs, nil
}

// scanPackage parses the non-test sources of one directory. ok is false
// when the directory holds no Go package.
func scanPackage(dir, dotted string) (Package, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Package{}, false, err
	}
	var files []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") || n == OutputFile {
			continue
		}
		files = append(files, filepath.Join(dir, n))
	}
	if len(files) == 0 {
		return Package{}, false, nil
	}
	sort.Strings(files)

	pkg := Package{Dir: dir, Dotted: dotted}
	fset := token.NewFileSet()
	var parsed []*ast.File
	for _, f := range files {
		file, err := parser.ParseFile(fset, f, nil, parser.ParseComments)
		if err != nil {
			return Package{}, false, fmt.Errorf("parse %s: %w", f, err)
		}
		if pkg.Name == "" {
			pkg.Name = file.Name.Name
		} else if pkg.Name != file.Name.Name {
			return Package{}, false, fmt.Errorf("%s: multiple packages %s and %s", dir, pkg.Name, file.Name.Name)
		}
		parsed = append(parsed, file)
	}

	comps, err := extract(fset, parsed)
	if err != nil {
		return Package{}, false, err
	}
	pkg.Components = comps
	return pkg, true, nil
}

// extract reads type markers first so that routes can attach to their
// receivers regardless of file order.
func extract(fset *token.FileSet, files []*ast.File) ([]Component, error) {
	byName := map[string]*Component{}
	var order []string

	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				c, found, err := parseTypeMarkers(doc, ts.Name.Name, fset.Position(ts.Pos()))
				if err != nil {
					return nil, err
				}
				if !found {
					continue
				}
				byName[c.Name] = &c
				order = append(order, c.Name)
			}
		}
	}

	for _, file := range files {
		imports := importNames(file)
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Doc == nil {
				continue
			}
			args, found := directive(fn.Doc, "route")
			if !found {
				continue
			}
			pos := fset.Position(fn.Pos())
			recv := receiverName(fn)
			c, ok := byName[recv]
			if !ok || c.Role != component.RoleController {
				return nil, fmt.Errorf("%w: %s: route on %s which is not a controller", ErrMarker, pos, fn.Name.Name)
			}
			if !fn.Name.IsExported() {
				return nil, fmt.Errorf("%w: %s: route on unexported method %s", ErrMarker, pos, fn.Name.Name)
			}
			if len(args) == 0 {
				return nil, fmt.Errorf("%w: %s: route on %s needs a path", ErrMarker, pos, fn.Name.Name)
			}
			params, err := routeParams(boundNames(fn.Type, imports), args[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMarker, pos, err)
			}
			c.Routes = append(c.Routes, Route{Method: fn.Name.Name, Path: args[0], Params: params})
		}
	}

	sort.Strings(order)
	out := make([]Component, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func parseTypeMarkers(doc *ast.CommentGroup, name string, pos token.Position) (Component, bool, error) {
	c := Component{Name: name}
	if doc == nil {
		return c, false, nil
	}
	found := false
	for _, line := range doc.List {
		kind, args, ok := parseDirective(line.Text)
		if !ok {
			continue
		}
		found = true
		switch kind {
		case "controller", "service":
			role := component.RoleController
			if kind == "service" {
				role = component.RoleService
			}
			if c.Role != component.RoleNone && c.Role != role {
				return c, false, fmt.Errorf("%w: %s: %s is both controller and service", ErrMarker, pos, name)
			}
			c.Role = role
			if role == component.RoleService && len(args) > 0 {
				c.BeanName = args[0]
			}
		case "path":
			if len(args) != 1 {
				return c, false, fmt.Errorf("%w: %s: path on %s takes one argument", ErrMarker, pos, name)
			}
			c.Path = args[0]
		case "implements":
			for _, arg := range args {
				for _, iface := range strings.Split(arg, ",") {
					if iface = strings.TrimSpace(iface); iface != "" {
						c.Implements = append(c.Implements, iface)
					}
				}
			}
		case "route":
			return c, false, fmt.Errorf("%w: %s: route belongs on a method, not on type %s", ErrMarker, pos, name)
		default:
			return c, false, fmt.Errorf("%w: %s: unknown directive mvc:%s", ErrMarker, pos, kind)
		}
	}
	if !found {
		return c, false, nil
	}
	if c.Role == component.RoleNone {
		return c, false, fmt.Errorf("%w: %s: %s has markers but is neither controller nor service", ErrMarker, pos, name)
	}
	if c.Path != "" && c.Role != component.RoleController {
		return c, false, fmt.Errorf("%w: %s: path on service %s", ErrMarker, pos, name)
	}
	if len(c.Implements) > 0 && c.Role != component.RoleService {
		return c, false, fmt.Errorf("%w: %s: implements on controller %s", ErrMarker, pos, name)
	}
	return c, true, nil
}

func parseDirective(text string) (kind string, args []string, ok bool) {
	if !strings.HasPrefix(text, directivePrefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, directivePrefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func directive(doc *ast.CommentGroup, kind string) ([]string, bool) {
	for _, line := range doc.List {
		if k, args, ok := parseDirective(line.Text); ok && k == kind {
			return args, true
		}
	}
	return nil, false
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	typ := fn.Recv.List[0].Type
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = star.X
	}
	if ident, ok := typ.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// importNames maps the local name of each import to its path.
func importNames(file *ast.File) map[string]string {
	out := map[string]string{}
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := path[strings.LastIndex(path, "/")+1:]
		if spec.Name != nil {
			name = spec.Name.Name
		}
		out[name] = path
	}
	return out
}

// boundNames lists the signature names of parameters the dispatcher binds
// from request values. Unnamed or blank parameters yield "".
func boundNames(ft *ast.FuncType, imports map[string]string) []string {
	var names []string
	for _, field := range ft.Params.List {
		if isInjected(field.Type, imports) {
			continue
		}
		if len(field.Names) == 0 {
			names = append(names, "")
			continue
		}
		for _, n := range field.Names {
			if n.Name == "_" {
				names = append(names, "")
				continue
			}
			names = append(names, n.Name)
		}
	}
	return names
}

func isInjected(expr ast.Expr, imports map[string]string) bool {
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		pointer = true
		expr = star.X
	}
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	switch imports[pkg.Name] {
	case "net/http":
		return (pointer && sel.Sel.Name == "Request") || (!pointer && sel.Sel.Name == "ResponseWriter")
	case "context":
		return !pointer && sel.Sel.Name == "Context"
	}
	return false
}

// routeParams applies the directive arguments to the signature names.
func routeParams(natural, args []string) ([]string, error) {
	var positional []string
	overrides := map[string]string{}
	for _, arg := range args {
		if from, to, ok := strings.Cut(arg, "="); ok {
			if from == "" || to == "" {
				return nil, fmt.Errorf("malformed override %q", arg)
			}
			overrides[from] = to
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) > 0 && len(overrides) > 0 {
		return nil, errors.New("explicit names and overrides cannot be mixed")
	}
	if len(positional) > len(natural) {
		return nil, fmt.Errorf("%d names for %d bound parameters", len(positional), len(natural))
	}

	names := append([]string(nil), natural...)
	copy(names, positional)
	for from, to := range overrides {
		found := false
		for i, n := range names {
			if n == from {
				names[i] = to
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("override of unknown parameter %q", from)
		}
	}

	for _, n := range names {
		if n != "" {
			return names, nil
		}
	}
	return nil, nil
}
