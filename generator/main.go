// Package generator turns struct declarations into partial counterparts:
// sibling structs in which every field is optional, plus the operations to
// lift, merge, materialize and patch them.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/goaux/contextvalue"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/takumakei/partial-gen-go/execpipe"
)

// Main is the whole command: consumers embed their usage text, fill a Config
// and call Main from their func main.
func Main(ctx context.Context, config Config) {
	if config.DefaultSuffix == "" {
		config.DefaultSuffix = "Partial"
	}
	cmd := &cobra.Command{
		Use:     config.Use,
		Short:   config.Short,
		Long:    render(config.Long),
		Version: config.Version,
		RunE:    run,

		ValidArgsFunction: validArgs,

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	fl := cmd.Flags()
	fl.SortFlags = false
	fl.StringSliceVarP(&flags.Types, "type", "t", nil, "generate for the named struct `types`")
	fl.StringVarP(&flags.Input, "in", "i", "", "single-file mode: read `filename.go`, no type information")
	fl.StringVarP(&flags.Output, "out", "o", config.DefaultOutput, "output `filename.go`, \"-\" means stdout")
	fl.StringVarP(&flags.Suffix, "suffix", "s", config.DefaultSuffix, "`suffix` of the generated type names")
	fl.StringArrayVarP(&flags.Derives, "derive", "d", config.DefaultDerives, "`name` to derive on the generated types (repeatable)")
	fl.StringVarP(&flags.Package, "package", "p", "", "`package` clause of the emitted file")
	fl.StringVar(&flags.Tags, "tags", "", "build `tags` for the package loader")
	fl.BoolVarP(&flags.Format, "format", "F", config.DefaultFormat, "format the output (goimports equivalent)")
	fl.StringVar(&flags.FormatCmd, "format-cmd", config.DefaultFormatCmd, "pipe the output through an external formatter `command`")
	fl.BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.MarkFlagFilename("in", "go")
	cmd.MarkFlagFilename("out", "go")
	cmd.RegisterFlagCompletionFunc("package", func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.RegisterFlagCompletionFunc("derive", func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return []cobra.Completion{"stringer", "clone", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	ctx = contextvalue.With(ctx, &config)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err.Error())
		os.Exit(1)
	}
}

func render(usage string) string {
	if isTTY(os.Stdout) {
		r, err := glamour.NewTermRenderer(
			glamour.WithEnvironmentConfig(),
			glamour.WithWordWrap(100),
		)
		if err == nil { // if NO error
			if s, err := r.Render(usage); err == nil { // if NO error
				return s
			}
		}
	}
	return usage
}

func validArgs(_ *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}

var flags flagsType

type flagsType struct {
	Types     []string
	Input     string
	Output    string
	Suffix    string
	Derives   []string
	Package   string
	Tags      string
	Format    bool
	FormatCmd string
	Verbose   bool
}

func run(cmd *cobra.Command, args []string) error {
	config, ok := contextvalue.From[*Config](cmd.Context())
	if !ok {
		panic("never")
	}
	text := config.Template
	if text == "" {
		text = builtinTemplate
	}
	tmpl, err := template.New("partial").Funcs(funcs).Parse(text)
	if err != nil {
		panic(err)
	}

	logger := newLogger(flags.Verbose)
	ctx := contextvalue.With(cmd.Context(), logger)

	opts, err := resolveOptions(logger, cmd, config)
	if err != nil {
		return err
	}

	if opts.Format && opts.FormatCmd != "" {
		if err := execpipe.CheckPath(opts.FormatCmd); err != nil {
			return fmt.Errorf("%s was not found, consider using `--format=false`", opts.FormatCmd)
		}
	}

	cin := cmd.InOrStdin()
	gen := Gen{Name: cmd.Name(), Version: cmd.Version}
	switch {
	case opts.Input != "":
		return runFileMode(ctx, tmpl, gen, opts, nil, cmd.OutOrStdout())
	case len(args) > 0 || len(opts.Types) > 0:
		if len(args) == 0 {
			args = []string{"."}
		}
		return runPackageMode(ctx, tmpl, gen, opts, args, cmd.OutOrStdout())
	case !isTTY(cin):
		return runFileMode(ctx, tmpl, gen, opts, cin, cmd.OutOrStdout())
	default:
		return pflag.ErrHelp
	}
}

// funcs is available to consumer-supplied templates.
var funcs = map[string]any{
	"basename": filepath.Base,
	"dirname":  filepath.Dir,

	"jsonify": jsonify,
}

func jsonify(v any) (string, error) {
	buf := new(bytes.Buffer)
	je := json.NewEncoder(buf)
	je.SetEscapeHTML(false)
	je.SetIndent("", "  ")
	err := je.Encode(v)
	return buf.String(), err
}

func isTTY(io any) bool {
	if f, ok := io.(*os.File); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}
