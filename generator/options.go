package generator

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/caarlos0/env/v6"
	"github.com/charmbracelet/log"
	"github.com/goaux/stacktrace/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options is the effective configuration of one run, resolved from built-in
// defaults, the config file, flags and the environment, in that order of
// precedence. Per-type settings (config file "types:" entries and source
// directives) are more specific than any global source and win for suffix
// and derives.
type options struct {
	Types     []string
	Input     string
	Output    string
	Suffix    string
	Derives   []string
	Package   string
	Tags      string
	Format    bool
	FormatCmd string

	perType map[string]TypeConfig
}

type envOverrides struct {
	Suffix    *string  `env:"PARTIALGEN_SUFFIX"`
	Derives   []string `env:"PARTIALGEN_DERIVE"`
	Output    *string  `env:"PARTIALGEN_OUT"`
	Package   *string  `env:"PARTIALGEN_PACKAGE"`
	Format    *bool    `env:"PARTIALGEN_FORMAT"`
	FormatCmd *string  `env:"PARTIALGEN_FORMAT_CMD"`
}

func (ov envOverrides) apply(o *options) {
	if ov.Suffix != nil {
		o.Suffix = *ov.Suffix
	}
	if ov.Derives != nil {
		o.Derives = ov.Derives
	}
	if ov.Output != nil {
		o.Output = *ov.Output
	}
	if ov.Package != nil {
		o.Package = *ov.Package
	}
	if ov.Format != nil {
		o.Format = *ov.Format
	}
	if ov.FormatCmd != nil {
		o.FormatCmd = *ov.FormatCmd
	}
}

var reSuffix = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func resolveOptions(logger *log.Logger, cmd *cobra.Command, config *Config) (*options, error) {
	opts := &options{
		Types:     flags.Types,
		Input:     flags.Input,
		Output:    config.DefaultOutput,
		Suffix:    config.DefaultSuffix,
		Derives:   config.DefaultDerives,
		Package:   flags.Package,
		Tags:      flags.Tags,
		Format:    config.DefaultFormat,
		FormatCmd: config.DefaultFormatCmd,
	}
	start := "."
	if opts.Input != "" {
		start = filepath.Dir(opts.Input)
	}
	fc, path, err := loadFileConfig(start)
	if err != nil {
		return nil, err
	}
	if fc != nil {
		logger.Debug("config file", "path", path)
		if fc.Suffix != "" {
			opts.Suffix = fc.Suffix
		}
		if fc.Derive != nil {
			opts.Derives = fc.Derive
		}
		if fc.Format != nil {
			opts.Format = *fc.Format
		}
		if fc.FormatCmd != "" {
			opts.FormatCmd = fc.FormatCmd
		}
		opts.perType = fc.Types
	}
	fl := cmd.Flags()
	if fl.Changed("out") {
		opts.Output = flags.Output
	}
	if fl.Changed("suffix") {
		opts.Suffix = flags.Suffix
	}
	if fl.Changed("derive") {
		opts.Derives = flags.Derives
	}
	if fl.Changed("format") {
		opts.Format = flags.Format
	}
	if fl.Changed("format-cmd") {
		opts.FormatCmd = flags.FormatCmd
	}
	_ = godotenv.Load() // a missing .env is fine
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return nil, stacktrace.Trace(err)
	}
	ov.apply(opts)
	if !reSuffix.MatchString(opts.Suffix) {
		return nil, fmt.Errorf("invalid suffix %q", opts.Suffix)
	}
	if _, err := parseDerives(opts.Derives); err != nil {
		return nil, err
	}
	return opts, nil
}

// forType resolves the suffix and derive list for one target.
func (o *options) forType(name string, dir directive) (suffix string, derives []string) {
	suffix, derives = o.Suffix, o.Derives
	if tc, ok := o.perType[name]; ok {
		if tc.Suffix != "" {
			suffix = tc.Suffix
		}
		if tc.Derive != nil {
			derives = tc.Derive
		}
	}
	if dir.Suffix != "" {
		suffix = dir.Suffix
	}
	if dir.Derives != nil {
		derives = dir.Derives
	}
	return suffix, derives
}

func (o *options) resolveTarget(ts targetSpec) (string, deriveSet, error) {
	suffix, list := o.forType(ts.Name, ts.Dir)
	if !reSuffix.MatchString(suffix) {
		return "", deriveSet{}, fmt.Errorf("%s: invalid suffix %q", ts.Name, suffix)
	}
	der, err := parseDerives(list)
	if err != nil {
		return "", deriveSet{}, fmt.Errorf("%s: %w", ts.Name, err)
	}
	return suffix, der, nil
}
