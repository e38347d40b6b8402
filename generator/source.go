package generator

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"go/types"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/goaux/stacktrace/v2"
	"golang.org/x/tools/go/packages"
)

// targetSpec is one struct declaration selected for generation, before any
// type or field analysis.
type targetSpec struct {
	Name string
	Spec *ast.TypeSpec
	St   *ast.StructType // nil when the declaration is not a plain struct
	File *ast.File
	Dir  directive
	Pos  token.Pos
}

// collectTargets selects generation targets from the parsed files: the named
// types when typeNames is non-empty, the directive-annotated types otherwise
// (in source order). The directive is recognized in the TypeSpec doc or, for
// single-spec declarations, the enclosing GenDecl doc.
func collectTargets(fset *token.FileSet, files []*ast.File, typeNames []string) ([]targetSpec, error) {
	byName := make(map[string]targetSpec)
	var order []targetSpec
	for _, file := range files {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				dir, err := parseDirective(doc)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", fset.Position(ts.Pos()), err)
				}
				t := targetSpec{Name: ts.Name.Name, Spec: ts, File: file, Dir: dir, Pos: ts.Pos()}
				if st, ok := ts.Type.(*ast.StructType); ok && !ts.Assign.IsValid() {
					t.St = st
				}
				byName[t.Name] = t
				if dir.Found {
					order = append(order, t)
				}
			}
		}
	}
	if len(typeNames) > 0 {
		out := make([]targetSpec, 0, len(typeNames))
		for _, name := range typeNames {
			t, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%s: %w", name, ErrTypeNotFound)
			}
			if t.St == nil {
				return nil, fmt.Errorf("%s: %w", name, ErrNotStruct)
			}
			out = append(out, t)
		}
		return out, nil
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Pos < order[j].Pos })
	for _, t := range order {
		if t.St == nil {
			return nil, fmt.Errorf("%s: %w", t.Name, ErrNotStruct)
		}
	}
	return order, nil
}

// importSet accumulates the import block of the generated file.
type importSet struct {
	byPath map[string]string // path -> package name
}

func (s *importSet) add(path, name string) {
	if s.byPath == nil {
		s.byPath = make(map[string]string)
	}
	if _, ok := s.byPath[path]; !ok {
		s.byPath[path] = name
	}
}

// qualify returns a types.Qualifier that records every foreign package it
// qualifies with, so re-emitting field types fills the import block as a
// side effect.
func (s *importSet) qualify(current *types.Package) types.Qualifier {
	return func(p *types.Package) string {
		if p == current {
			return ""
		}
		s.add(p.Path(), p.Name())
		return p.Name()
	}
}

func (s *importSet) list() []Import {
	paths := make([]string, 0, len(s.byPath))
	for p := range s.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]Import, 0, len(paths))
	for _, p := range paths {
		im := Import{Path: p}
		if name := s.byPath[p]; pathBase(p) != name {
			im.Alias = name
		}
		out = append(out, im)
	}
	return out
}

func pathBase(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// collectExprImports records imports for package-qualified types appearing in
// a verbatim field type (file mode). The qualifier is resolved against the
// source file's import block, falling back to the qualifier itself as path.
func collectExprImports(file *ast.File, x ast.Expr, imp *importSet) {
	ast.Inspect(x, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				imp.add(importPathFor(file, id.Name), id.Name)
			}
		}
		return true
	})
}

func importPathFor(file *ast.File, qual string) string {
	for _, im := range file.Imports {
		path, err := strconv.Unquote(im.Path.Value)
		if err != nil {
			continue
		}
		if im.Name != nil {
			if im.Name.Name == qual {
				return path
			}
			continue
		}
		if path == qual || strings.HasSuffix(path, "/"+qual) {
			return path
		}
	}
	return qual
}

func addAssertImports(imp *importSet, file *ast.File, asserts []string) {
	for _, a := range asserts {
		if qual, _, ok := strings.Cut(a, "."); ok {
			imp.add(importPathFor(file, qual), qual)
		}
	}
}

func exprString(fset *token.FileSet, x ast.Expr) string {
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, fset, x)
	return buf.String()
}

// typeParams renders a generic target's type-parameter list and the matching
// argument list, both copied verbatim from the source declaration.
func typeParams(fset *token.FileSet, tp *ast.FieldList) (params, args string) {
	if tp == nil || len(tp.List) == 0 {
		return "", ""
	}
	var ps, as []string
	for _, f := range tp.List {
		names := make([]string, len(f.Names))
		for i, id := range f.Names {
			names[i] = id.Name
		}
		ps = append(ps, strings.Join(names, ", ")+" "+exprString(fset, f.Type))
		as = append(as, names...)
	}
	return "[" + strings.Join(ps, ", ") + "]", "[" + strings.Join(as, ", ") + "]"
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedSyntax

// runPackageMode loads packages with full type information and generates one
// file per package that has targets.
func runPackageMode(ctx context.Context, tmpl *template.Template, gen Gen, opts *options, patterns []string, stdout io.Writer) error {
	log := loggerFrom(ctx)
	cfg := &packages.Config{Mode: loadMode, Context: ctx}
	if opts.Tags != "" {
		cfg.BuildFlags = []string{"-tags", opts.Tags}
	}
	pkgs, err := stacktrace.Trace2(packages.Load(cfg, patterns...))
	if err != nil {
		return err
	}
	if err := loadErrors(pkgs); err != nil {
		return err
	}
	if len(pkgs) > 1 {
		if len(opts.Types) > 0 {
			return fmt.Errorf("--type needs a single package, patterns matched %d", len(pkgs))
		}
		if opts.Output != "" {
			return fmt.Errorf("--out needs a single package, patterns matched %d", len(pkgs))
		}
	}
	total := 0
	for _, pkg := range pkgs {
		specs, err := collectTargets(pkg.Fset, pkg.Syntax, opts.Types)
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			log.Debug("no targets", "package", pkg.PkgPath)
			continue
		}
		total += len(specs)
		imp := &importSet{}
		targets := make([]Target, 0, len(specs))
		for _, ts := range specs {
			suffix, der, err := opts.resolveTarget(ts)
			if err != nil {
				return err
			}
			fields, err := structFields(pkg, ts.Name, imp)
			if err != nil {
				return err
			}
			params, args := typeParams(pkg.Fset, ts.Spec.TypeParams)
			t, err := buildTarget(ts.Name, params, args, fields, suffix, der)
			if err != nil {
				return err
			}
			addAssertImports(imp, ts.File, der.Asserts)
			targets = append(targets, *t)
		}
		dir, err := pkgDir(pkg)
		if err != nil {
			return err
		}
		outPath := filepath.Join(dir, defaultOutputName)
		if opts.Output != "" {
			outPath = opts.Output
		}
		pkgName, err := outputPackage(opts, pkg.Name, dir, outPath)
		if err != nil {
			return err
		}
		log.Debug("generate", "package", pkg.PkgPath, "targets", len(targets), "out", outPath)
		m := buildModel(gen, pkgName, targets, imp)
		if err := emit(ctx, tmpl, opts, m, outPath, stdout); err != nil {
			return err
		}
	}
	if total == 0 {
		return ErrNoTargets
	}
	return nil
}

func loadErrors(pkgs []*packages.Package) error {
	var errs []packages.Error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		errs = append(errs, p.Errors...)
	})
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s (%d errors; delete a stale generated file or use --in)", errs[0], len(errs))
}

func structFields(pkg *packages.Package, name string, imp *importSet) ([]fieldInfo, error) {
	obj := pkg.Types.Scope().Lookup(name)
	if obj == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrTypeNotFound)
	}
	st, ok := obj.Type().Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotStruct)
	}
	return fieldsFromStruct(name, st, pkg.Types, imp)
}

func pkgDir(pkg *packages.Package) (string, error) {
	if len(pkg.GoFiles) == 0 {
		return "", fmt.Errorf("%s: no Go files", pkg.PkgPath)
	}
	return filepath.Dir(pkg.GoFiles[0]), nil
}

// stdinName is the input marker for file mode reading standard input.
const stdinName = "(stdin)"

// runFileMode parses a single file without type information. Input comes
// from opts.Input, or from cin when opts.Input is empty.
func runFileMode(ctx context.Context, tmpl *template.Template, gen Gen, opts *options, cin io.Reader, stdout io.Writer) error {
	log := loggerFrom(ctx)
	fset := token.NewFileSet()
	var (
		file    *ast.File
		outPath string
		srcDir  string
		err     error
	)
	if opts.Input == "" {
		src, err := io.ReadAll(bufio.NewReader(cin))
		if err != nil {
			return stacktrace.Trace(err)
		}
		file, err = parser.ParseFile(fset, stdinName, src, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return err
		}
		outPath = "-"
		srcDir = "."
	} else {
		abs, err := filepath.Abs(opts.Input)
		if err != nil {
			return stacktrace.Trace(err)
		}
		file, err = parser.ParseFile(fset, abs, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return err
		}
		outPath = strings.TrimSuffix(abs, ".go") + "_partial_gen.go"
		srcDir = filepath.Dir(abs)
	}
	if opts.Output != "" {
		outPath = opts.Output
	}
	specs, err := collectTargets(fset, []*ast.File{file}, opts.Types)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return ErrNoTargets
	}
	imp := &importSet{}
	targets := make([]Target, 0, len(specs))
	for _, ts := range specs {
		suffix, der, err := opts.resolveTarget(ts)
		if err != nil {
			return err
		}
		fields, err := fieldsFromASTStruct(fset, ts.Name, ts.St, file, imp)
		if err != nil {
			return err
		}
		params, args := typeParams(fset, ts.Spec.TypeParams)
		t, err := buildTarget(ts.Name, params, args, fields, suffix, der)
		if err != nil {
			return err
		}
		addAssertImports(imp, ts.File, der.Asserts)
		targets = append(targets, *t)
	}
	pkgName, err := outputPackage(opts, file.Name.Name, srcDir, outPath)
	if err != nil {
		return err
	}
	log.Debug("generate", "in", fset.Position(file.Pos()).Filename, "targets", len(targets), "out", outPath)
	m := buildModel(gen, pkgName, targets, imp)
	return emit(ctx, tmpl, opts, m, outPath, stdout)
}
