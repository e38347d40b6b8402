package generator

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// fieldInfo is one named field of the source struct, normalized so the two
// input modes feed the same model builder.
type fieldInfo struct {
	Name     string
	BaseType string // rendered source type
	Wrapped  bool   // true when the generated type gains a "*"
	CloneOp  string
	Tag      reflect.StructTag
}

// fieldsFromStruct reads fields off type information (package mode).
// A field is already optional iff its underlying kind is nilable; type
// parameters are always wrapped, their underlying is a constraint interface.
func fieldsFromStruct(name string, st *types.Struct, current *types.Package, imp *importSet) ([]fieldInfo, error) {
	qual := imp.qualify(current)
	out := make([]fieldInfo, 0, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		if v.Embedded() {
			return nil, fmt.Errorf("%s: %s: %w", name, v.Name(), ErrEmbeddedField)
		}
		wrapped := !isNilableType(v.Type())
		out = append(out, fieldInfo{
			Name:     v.Name(),
			BaseType: types.TypeString(v.Type(), qual),
			Wrapped:  wrapped,
			CloneOp:  cloneOpType(v.Type(), wrapped),
			Tag:      reflect.StructTag(st.Tag(i)),
		})
	}
	return out, nil
}

func isNilableType(t types.Type) bool {
	if _, ok := t.(*types.TypeParam); ok {
		return false
	}
	switch t.Underlying().(type) {
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Signature, *types.Interface:
		return true
	}
	return false
}

func cloneOpType(t types.Type, wrapped bool) string {
	if wrapped {
		return cloneOpPointer
	}
	switch t.Underlying().(type) {
	case *types.Pointer:
		return cloneOpPointer
	case *types.Slice:
		return cloneOpSlice
	case *types.Map:
		return cloneOpMap
	}
	return ""
}

// fieldsFromASTStruct reads fields off syntax alone (file mode). The
// already-optional test is purely syntactic here, so a named type whose
// underlying happens to be nilable is still wrapped.
func fieldsFromASTStruct(fset *token.FileSet, name string, st *ast.StructType, file *ast.File, imp *importSet) ([]fieldInfo, error) {
	var out []fieldInfo
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			return nil, fmt.Errorf("%s: %s: %w", name, exprString(fset, f.Type), ErrEmbeddedField)
		}
		base := exprString(fset, f.Type)
		wrapped := !isNilableExpr(f.Type)
		op := cloneOpExpr(f.Type, wrapped)
		var tag reflect.StructTag
		if f.Tag != nil {
			if s, err := strconv.Unquote(f.Tag.Value); err == nil {
				tag = reflect.StructTag(s)
			}
		}
		collectExprImports(file, f.Type, imp)
		for _, id := range f.Names {
			out = append(out, fieldInfo{
				Name:     id.Name,
				BaseType: base,
				Wrapped:  wrapped,
				CloneOp:  op,
				Tag:      tag,
			})
		}
	}
	return out, nil
}

func isNilableExpr(x ast.Expr) bool {
	switch t := x.(type) {
	case *ast.ParenExpr:
		return isNilableExpr(t.X)
	case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType:
		return true
	case *ast.ArrayType:
		return t.Len == nil
	case *ast.Ident:
		return t.Name == "any"
	}
	return false
}

func cloneOpExpr(x ast.Expr, wrapped bool) string {
	if wrapped {
		return cloneOpPointer
	}
	switch t := unparen(x).(type) {
	case *ast.StarExpr:
		return cloneOpPointer
	case *ast.ArrayType:
		if t.Len == nil {
			return cloneOpSlice
		}
	case *ast.MapType:
		return cloneOpMap
	}
	return ""
}

func unparen(x ast.Expr) ast.Expr {
	for {
		p, ok := x.(*ast.ParenExpr)
		if !ok {
			return x
		}
		x = p.X
	}
}

// buildTarget assembles the template model for one struct.
func buildTarget(name, params, args string, fields []fieldInfo, suffix string, der deriveSet) (*Target, error) {
	t := &Target{
		Name:        name,
		Partial:     name + suffix,
		Params:      params,
		Args:        args,
		Constructor: constructorName(name, suffix),
		ToName:      "To" + exportedName(name),
		Stringer:    der.Stringer,
		Clone:       der.Clone,
		JSON:        der.JSON,
		Asserts:     der.Asserts,
	}
	if t.Params != "" && len(t.Asserts) > 0 {
		return nil, fmt.Errorf("%s: cannot assert interface conformance for a generic type", name)
	}
	reserved := map[string]bool{
		"Merge":   true,
		"ApplyTo": true,
		t.ToName:  true,
	}
	if t.Stringer {
		reserved["String"] = true
	}
	if t.Clone {
		reserved["Clone"] = true
	}
	for _, f := range fields {
		if reserved[f.Name] {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, ErrMethodCollision)
		}
		typ := f.BaseType
		if f.Wrapped {
			typ = "*" + typ
			t.HasWrapped = true
		}
		fld := Field{Name: f.Name, Type: typ, Wrapped: f.Wrapped, CloneOp: f.CloneOp}
		if der.JSON {
			fld.Tag = jsonTag(f)
		}
		t.Fields = append(t.Fields, fld)
	}
	return t, nil
}

// jsonTag synthesizes the tag for the json derive: the original field's JSON
// name and options are kept, omitempty is ensured.
func jsonTag(f fieldInfo) string {
	name := f.Name
	var extra []string
	if v, ok := f.Tag.Lookup("json"); ok {
		if v == "-" {
			return "`json:\"-\"`"
		}
		parts := strings.Split(v, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		for _, o := range parts[1:] {
			if o != "" && o != "omitempty" {
				extra = append(extra, o)
			}
		}
	}
	parts := append([]string{name}, extra...)
	parts = append(parts, "omitempty")
	return "`json:\"" + strings.Join(parts, ",") + "\"`"
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func constructorName(name, suffix string) string {
	if token.IsExported(name) {
		return "New" + name + suffix
	}
	return "new" + exportedName(name) + suffix
}

// buildModel finishes the per-file model: derive support imports and the
// shared error type.
func buildModel(gen Gen, pkgName string, targets []Target, imp *importSet) *Model {
	m := &Model{Gen: gen, Package: pkgName, Targets: targets}
	for _, t := range targets {
		if t.HasWrapped {
			m.MissingError = true
		}
		if t.Stringer {
			imp.add("strings", "strings")
			if len(t.Fields) > 0 {
				imp.add("fmt", "fmt")
			}
		}
		if t.Clone {
			for _, f := range t.Fields {
				switch f.CloneOp {
				case cloneOpSlice:
					imp.add("slices", "slices")
				case cloneOpMap:
					imp.add("maps", "maps")
				}
			}
		}
	}
	m.Imports = imp.list()
	return m
}
