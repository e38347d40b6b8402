package generator

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "fixture.go", src, parser.ParseComments|parser.SkipObjectResolution)
	require.NoError(t, err)
	return fset, f
}

func typecheck(t *testing.T, src string) *types.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "fixture.go", src, parser.ParseComments)
	require.NoError(t, err)
	conf := types.Config{}
	pkg, err := conf.Check("fixture", fset, []*ast.File{f}, nil)
	require.NoError(t, err)
	return pkg
}

func TestFieldsFromASTStruct_Classification(t *testing.T) {
	src := `package fixture

type Labels []string

type Foo struct {
	A int
	B *int
	C []int
	D map[string]int
	E chan int
	F func() error
	G any
	H interface{ M() }
	I [3]int
	J Labels
	K (*int)
}
`
	fset, file := parseSrc(t, src)
	specs, err := collectTargets(fset, []*ast.File{file}, []string{"Foo"})
	require.NoError(t, err)
	require.Len(t, specs, 1)

	imp := &importSet{}
	fields, err := fieldsFromASTStruct(fset, "Foo", specs[0].St, file, imp)
	require.NoError(t, err)

	wrapped := map[string]bool{}
	for _, f := range fields {
		wrapped[f.Name] = f.Wrapped
	}
	assert.Equal(t, map[string]bool{
		"A": true,  // basic
		"B": false, // pointer
		"C": false, // slice
		"D": false, // map
		"E": false, // chan
		"F": false, // func
		"G": false, // any
		"H": false, // interface
		"I": true,  // array, not a slice
		"J": true,  // named type, no type info in file mode
		"K": false, // parenthesized pointer
	}, wrapped)
	assert.Empty(t, imp.list())
}

func TestFieldsFromStruct_Classification(t *testing.T) {
	src := `package fixture

type Labels []string
type Handler func() error

type Foo[T any] struct {
	A int
	B *int
	C Labels
	D Handler
	E map[string]int
	F T
	G [3]int
}
`
	pkg := typecheck(t, src)
	obj := pkg.Scope().Lookup("Foo")
	require.NotNil(t, obj)
	st, ok := obj.Type().Underlying().(*types.Struct)
	require.True(t, ok)

	imp := &importSet{}
	fields, err := fieldsFromStruct("Foo", st, pkg, imp)
	require.NoError(t, err)

	byName := map[string]fieldInfo{}
	for _, f := range fields {
		byName[f.Name] = f
	}
	assert.True(t, byName["A"].Wrapped)
	assert.False(t, byName["B"].Wrapped)
	assert.False(t, byName["C"].Wrapped, "named slice type is nilable with type info")
	assert.False(t, byName["D"].Wrapped, "named func type is nilable with type info")
	assert.False(t, byName["E"].Wrapped)
	assert.True(t, byName["F"].Wrapped, "type parameters are always wrapped")
	assert.True(t, byName["G"].Wrapped)

	assert.Equal(t, "Labels", byName["C"].BaseType, "same-package types are unqualified")
	assert.Equal(t, "T", byName["F"].BaseType)
	assert.Equal(t, cloneOpSlice, byName["C"].CloneOp)
	assert.Equal(t, cloneOpPointer, byName["B"].CloneOp)
	assert.Empty(t, imp.list())
}

func TestFieldsFromStruct_Embedded(t *testing.T) {
	src := `package fixture

type Base struct{}

type Foo struct {
	Base
	A int
}
`
	pkg := typecheck(t, src)
	st := pkg.Scope().Lookup("Foo").Type().Underlying().(*types.Struct)
	_, err := fieldsFromStruct("Foo", st, pkg, &importSet{})
	require.ErrorIs(t, err, ErrEmbeddedField)
}

func TestCollectTargets(t *testing.T) {
	src := `package fixture

//partialgen:generate
type B struct{ N int }

// A is documented.
//
//partialgen:generate suffix=Opt
type A struct{ N int }

type C struct{ N int }

type NotAStruct int

type Alias = A
`
	fset, file := parseSrc(t, src)

	t.Run("directive scan keeps source order", func(t *testing.T) {
		specs, err := collectTargets(fset, []*ast.File{file}, nil)
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "B", specs[0].Name)
		assert.Equal(t, "A", specs[1].Name)
		assert.Equal(t, "Opt", specs[1].Dir.Suffix)
	})

	t.Run("explicit selection", func(t *testing.T) {
		specs, err := collectTargets(fset, []*ast.File{file}, []string{"C", "A"})
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "C", specs[0].Name)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := collectTargets(fset, []*ast.File{file}, []string{"Nope"})
		require.ErrorIs(t, err, ErrTypeNotFound)
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := collectTargets(fset, []*ast.File{file}, []string{"NotAStruct"})
		require.ErrorIs(t, err, ErrNotStruct)
	})

	t.Run("alias is not a struct declaration", func(t *testing.T) {
		_, err := collectTargets(fset, []*ast.File{file}, []string{"Alias"})
		require.ErrorIs(t, err, ErrNotStruct)
	})
}

func TestCollectTargets_GenDeclDoc(t *testing.T) {
	src := `package fixture

//partialgen:generate
type (
	A struct{ N int }
)

//partialgen:generate
type (
	B struct{ N int }
	C struct{ N int }
)
`
	fset, file := parseSrc(t, src)
	specs, err := collectTargets(fset, []*ast.File{file}, nil)
	require.NoError(t, err)
	// The GenDecl doc only reaches a single-spec declaration.
	require.Len(t, specs, 1)
	assert.Equal(t, "A", specs[0].Name)
}

func TestBuildTarget_Naming(t *testing.T) {
	fields := []fieldInfo{{Name: "N", BaseType: "int", Wrapped: true, CloneOp: cloneOpPointer}}

	tgt, err := buildTarget("Foo", "", "", fields, "Partial", deriveSet{})
	require.NoError(t, err)
	assert.Equal(t, "FooPartial", tgt.Partial)
	assert.Equal(t, "NewFooPartial", tgt.Constructor)
	assert.Equal(t, "ToFoo", tgt.ToName)
	assert.True(t, tgt.HasWrapped)
	assert.Equal(t, "*int", tgt.Fields[0].Type)

	tgt, err = buildTarget("foo", "", "", fields, "Partial", deriveSet{})
	require.NoError(t, err)
	assert.Equal(t, "fooPartial", tgt.Partial)
	assert.Equal(t, "newFooPartial", tgt.Constructor)
	assert.Equal(t, "ToFoo", tgt.ToName)
}

func TestBuildTarget_MethodCollision(t *testing.T) {
	for _, name := range []string{"Merge", "ApplyTo", "ToFoo"} {
		_, err := buildTarget("Foo", "", "",
			[]fieldInfo{{Name: name, BaseType: "int", Wrapped: true}},
			"Partial", deriveSet{})
		require.ErrorIs(t, err, ErrMethodCollision, name)
	}

	// String and Clone are reserved only when the derive asks for them.
	fields := []fieldInfo{{Name: "String", BaseType: "int", Wrapped: true}}
	_, err := buildTarget("Foo", "", "", fields, "Partial", deriveSet{})
	require.NoError(t, err)
	_, err = buildTarget("Foo", "", "", fields, "Partial", deriveSet{Stringer: true})
	require.ErrorIs(t, err, ErrMethodCollision)
}

func TestBuildTarget_GenericAssertRejected(t *testing.T) {
	_, err := buildTarget("Foo", "[T any]", "[T]", nil, "Partial",
		deriveSet{Asserts: []string{"fmt.Stringer"}})
	require.Error(t, err)
}

func TestBuildTarget_ZeroFields(t *testing.T) {
	tgt, err := buildTarget("Empty", "", "", nil, "Partial", deriveSet{Stringer: true})
	require.NoError(t, err)
	assert.Empty(t, tgt.Fields)
	assert.False(t, tgt.HasWrapped)
}

func TestJSONTag(t *testing.T) {
	tests := []struct {
		name string
		f    fieldInfo
		want string
	}{
		{
			name: "no source tag",
			f:    fieldInfo{Name: "Host"},
			want: "`json:\"Host,omitempty\"`",
		},
		{
			name: "name from source tag",
			f:    fieldInfo{Name: "Host", Tag: reflect.StructTag(`json:"host"`)},
			want: "`json:\"host,omitempty\"`",
		},
		{
			name: "options kept, omitempty not duplicated",
			f:    fieldInfo{Name: "Host", Tag: reflect.StructTag(`json:"host,omitempty,string"`)},
			want: "`json:\"host,string,omitempty\"`",
		},
		{
			name: "ignored stays ignored",
			f:    fieldInfo{Name: "Host", Tag: reflect.StructTag(`json:"-"`)},
			want: "`json:\"-\"`",
		},
		{
			name: "empty name keeps field name",
			f:    fieldInfo{Name: "Host", Tag: reflect.StructTag(`json:",string"`)},
			want: "`json:\"Host,string,omitempty\"`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jsonTag(tt.f))
		})
	}
}

func TestTypeParams(t *testing.T) {
	src := `package fixture

type Pair[K comparable, V any] struct {
	Key K
	Val V
}
`
	fset, file := parseSrc(t, src)
	specs, err := collectTargets(fset, []*ast.File{file}, []string{"Pair"})
	require.NoError(t, err)
	params, args := typeParams(fset, specs[0].Spec.TypeParams)
	assert.Equal(t, "[K comparable, V any]", params)
	assert.Equal(t, "[K, V]", args)
}

func TestImportPathFor(t *testing.T) {
	src := `package fixture

import (
	"time"
	"encoding/json"
	yaml "gopkg.in/yaml.v3"
)

var _ = time.Now
var _ = json.Valid
var _ = yaml.Marshal
`
	_, file := parseSrc(t, src)
	assert.Equal(t, "time", importPathFor(file, "time"))
	assert.Equal(t, "encoding/json", importPathFor(file, "json"))
	assert.Equal(t, "gopkg.in/yaml.v3", importPathFor(file, "yaml"))
	assert.Equal(t, "fmt", importPathFor(file, "fmt"), "unknown qualifiers fall back to themselves")
}
