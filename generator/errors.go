package generator

import "errors"

var (
	// ErrNotStruct is returned when a selected or annotated type is not a
	// struct with named fields.
	ErrNotStruct = errors.New("not a struct type")

	// ErrTypeNotFound is returned when a type named by --type does not
	// exist in the loaded package.
	ErrTypeNotFound = errors.New("type not found")

	// ErrEmbeddedField is returned for structs with embedded fields,
	// which have no name to carry over.
	ErrEmbeddedField = errors.New("embedded fields are not supported")

	// ErrMethodCollision is returned when a field name is equal to the
	// name of a method the generator would emit.
	ErrMethodCollision = errors.New("field collides with a generated method")

	// ErrNoTargets is returned when neither --type nor a directive marks
	// anything to generate.
	ErrNoTargets = errors.New("nothing to generate")

	// ErrDirective is returned for a syntactically malformed
	// partialgen:generate directive.
	ErrDirective = errors.New("malformed directive")
)
