package generator

// Model is the root value the code template is executed with.
// One Model corresponds to one generated file.
type Model struct {
	Gen     Gen
	Package string
	Imports []Import
	Targets []Target

	// MissingError is true when at least one target has a wrapped field,
	// which is the only case the MissingFieldError type is referenced.
	MissingError bool
}

type Gen struct {
	Name    string
	Version string
}

type Import struct {
	Alias string
	Path  string
}

// Target is one struct to generate a partial counterpart for.
type Target struct {
	Name        string // Foo
	Partial     string // FooPartial
	Params      string // "[T any]" for generic targets, "" otherwise
	Args        string // "[T]" for generic targets, "" otherwise
	Constructor string // NewFooPartial, newFooPartial for unexported targets
	ToName      string // ToFoo
	Fields      []Field
	HasWrapped  bool

	Stringer bool
	Clone    bool
	JSON     bool
	Asserts  []string
}

type Field struct {
	Name    string
	Type    string // type in the generated struct, "*" prefixed when wrapped
	Wrapped bool
	CloneOp string // one of cloneOpPointer, cloneOpSlice, cloneOpMap, or ""
	Tag     string // rendered struct tag including backquotes, or ""
}

const (
	cloneOpPointer = "pointer"
	cloneOpSlice   = "slice"
	cloneOpMap     = "map"
)
