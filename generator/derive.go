package generator

import (
	"fmt"
	"regexp"
	"strings"
)

// Built-in derives get dedicated code, anything else that looks like a
// (possibly package-qualified) identifier becomes a conformance assertion
// `var _ name = FooPartial{}` and is left to the compiler to resolve.
var reDeriveName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type deriveSet struct {
	Stringer bool
	Clone    bool
	JSON     bool
	Asserts  []string
}

// parseDerives normalizes a derive list. Entries may themselves be
// comma-separated (directive values and flag values share the syntax),
// duplicates are dropped, order of assertions is kept.
func parseDerives(list []string) (deriveSet, error) {
	var d deriveSet
	seen := make(map[string]bool)
	for _, entry := range list {
		for _, name := range strings.Split(entry, ",") {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			switch name {
			case "stringer":
				d.Stringer = true
			case "clone":
				d.Clone = true
			case "json":
				d.JSON = true
			default:
				if !reDeriveName.MatchString(name) {
					return d, fmt.Errorf("invalid derive %q", name)
				}
				d.Asserts = append(d.Asserts, name)
			}
		}
	}
	return d, nil
}
