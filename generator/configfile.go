package generator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goaux/stacktrace/v2"
	"gopkg.in/yaml.v3"
)

// configFileName is discovered from the start directory upward, stopping at
// the module root (the first directory containing go.mod).
const configFileName = ".partialgen.yaml"

// FileConfig is the schema of .partialgen.yaml. Global keys apply to every
// target, entries under "types" override them per type.
type FileConfig struct {
	Suffix    string                `yaml:"suffix"`
	Derive    []string              `yaml:"derive"`
	Format    *bool                 `yaml:"format"`
	FormatCmd string                `yaml:"format_cmd"`
	Types     map[string]TypeConfig `yaml:"types"`
}

type TypeConfig struct {
	Suffix string   `yaml:"suffix"`
	Derive []string `yaml:"derive"`
}

// loadFileConfig returns the nearest config file above start, or (nil, "")
// when there is none.
func loadFileConfig(start string) (*FileConfig, string, error) {
	path, err := findConfigFile(start)
	if err != nil || path == "" {
		return nil, "", err
	}
	f, err := stacktrace.Trace2(os.Open(path))
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	var fc FileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) { // empty file
			return &fc, path, nil
		}
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return &fc, path, nil
}

func findConfigFile(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", stacktrace.Trace(err)
	}
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil { // if NO error
			return path, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil { // module root
			return "", nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
