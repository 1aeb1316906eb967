package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/config"
	"github.com/roach88/querykit/internal/querydef"
)

// CompileResult is the compile command's success payload.
type CompileResult struct {
	Entity string         `json:"entity"`
	SQL    string         `json:"sql"`
	Params map[string]any `json:"params"`
	Cached bool           `json:"cached,omitempty"`
}

// String renders the result for text output: the SQL line followed by the
// bindings in name order.
func (r CompileResult) String() string {
	var sb strings.Builder
	sb.WriteString(r.SQL)

	names := make([]string, 0, len(r.Params))
	for name := range r.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("\n  :%s = %v", name, r.Params[name]))
	}
	return sb.String()
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <querydef.cue>",
		Short: "Compile a CUE query definition to parameterized SQL",
		Long: `Compile a declarative CUE query definition to a SQL statement with
named placeholders plus its parameter bindings.

Values from the definition never appear in the SQL text; they are emitted
only as bindings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCompile(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts, formatter)
	if err != nil {
		return err
	}

	def, err := querydef.LoadFile(path)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return NewExitError(ExitCommandError, "loading query definition failed")
	}
	formatter.VerboseLog("Loaded definition for entity %q from %s", def.Entity, path)

	b, err := def.Build(cfg)
	if err != nil {
		formatter.Error(ErrCodeBuild, err.Error(), nil)
		return NewExitError(ExitFailure, "building query failed")
	}

	return formatter.Success(CompileResult{
		Entity: b.Entity(),
		SQL:    b.ToSQL(),
		Params: b.Parameters(),
		Cached: b.CacheEnabled(),
	})
}

// loadConfig resolves the builder configuration from the --config flag,
// falling back to defaults.
func loadConfig(opts *RootOptions, formatter *OutputFormatter) (config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return config.Config{}, NewExitError(ExitCommandError, "loading config failed")
	}
	formatter.VerboseLog("Loaded config from %s", opts.Config)
	return cfg, nil
}
