package generator

import (
	"fmt"
	"go/ast"
	"strings"
)

// directiveName marks a struct for generation when it appears in the doc
// comment of its type declaration:
//
//	//partialgen:generate [suffix=Name] [derive=a,b,...]
const directiveName = "partialgen:generate"

type directive struct {
	Found   bool
	Suffix  string
	Derives []string
}

// parseDirective scans a doc comment group for the directive line.
// Keys other than suffix and derive, and pairs without "=value", are
// syntactic errors.
func parseDirective(doc *ast.CommentGroup) (directive, error) {
	var d directive
	if doc == nil {
		return d, nil
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, "//"+directiveName)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue // some other directive sharing the prefix
		}
		if d.Found {
			return d, fmt.Errorf("duplicate %s: %w", directiveName, ErrDirective)
		}
		d.Found = true
		for _, kv := range strings.Fields(rest) {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || v == "" {
				return d, fmt.Errorf("%s: %q: %w", directiveName, kv, ErrDirective)
			}
			switch k {
			case "suffix":
				d.Suffix = v
			case "derive":
				d.Derives = strings.Split(v, ",")
			default:
				return d, fmt.Errorf("%s: unknown key %q: %w", directiveName, k, ErrDirective)
			}
		}
	}
	return d, nil
}
