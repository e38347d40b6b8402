package generator

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/goaux/iter/bufioscanner"
	"github.com/goaux/stacktrace/v2"
	"github.com/takumakei/partial-gen-go/execpipe"
	"golang.org/x/tools/imports"
)

const defaultOutputName = "partial_gen.go"

// emit renders the model, formats the result and writes it to outPath,
// "-" meaning stdout.
func emit(ctx context.Context, tmpl *template.Template, opts *options, m *Model, outPath string, stdout io.Writer) error {
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, m); err != nil {
		return err
	}
	data, err := formatSource(ctx, opts, outPath, buf.Bytes())
	if err != nil {
		return err
	}
	if outPath == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := stacktrace.Trace(os.WriteFile(outPath, data, 0644)); err != nil {
		return err
	}
	loggerFrom(ctx).Debug("wrote", "path", outPath, "bytes", len(data))
	return nil
}

func formatSource(ctx context.Context, opts *options, filename string, src []byte) ([]byte, error) {
	if !opts.Format {
		return src, nil
	}
	if opts.FormatCmd != "" {
		out := new(bytes.Buffer)
		if err := execpipe.Run(ctx, out, bytes.NewReader(src), opts.FormatCmd); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	}
	if filename == "-" {
		filename = defaultOutputName
	}
	return imports.Process(filename, src, nil)
}

// outputPackage decides the package clause of the generated file: --package
// wins, then the source package name, unless the output goes to a different
// directory, whose package name is sniffed from its Go files.
func outputPackage(opts *options, srcName, srcDir, outPath string) (string, error) {
	if opts.Package != "" {
		return opts.Package, nil
	}
	if outPath != "-" {
		outDir, err := filepath.Abs(filepath.Dir(outPath))
		if err != nil {
			return "", stacktrace.Trace(err)
		}
		absSrc, err := filepath.Abs(srcDir)
		if err != nil {
			return "", stacktrace.Trace(err)
		}
		if outDir != absSrc {
			return detectPackageName(outDir)
		}
	}
	return srcName, nil
}

// detectPackageName scans dir's Go files for a package clause, falling back
// to a sanitized directory basename.
func detectPackageName(dir string) (string, error) {
	list, err := stacktrace.Trace2(os.ReadDir(dir))
	if err != nil {
		return "", err
	}
	for _, v := range list {
		if !v.IsDir() && strings.HasSuffix(v.Name(), ".go") {
			if n, err := readPackageClause(filepath.Join(dir, v.Name())); err == nil { // if NO error
				return n, nil
			}
		}
	}
	return reNonIdent.ReplaceAllString(filepath.Base(dir), "_"), nil
}

var reNonIdent = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func readPackageClause(file string) (string, error) {
	f, err := stacktrace.Trace2(os.Open(file))
	if err != nil {
		return "", err
	}
	defer f.Close()
	s := bufioscanner.New(bufio.NewScanner(f))
	for _, line := range s.Text() {
		m := rePackage.FindStringSubmatch(strings.TrimSpace(line))
		if len(m) >= 2 {
			return m[1], nil
		}
	}
	return "", errNotFound
}

var rePackage = regexp.MustCompile(`^package\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

var errNotFound = errors.New("not found")
