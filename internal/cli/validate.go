package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/querydef"
)

// ValidateResult is the validate command's success payload.
type ValidateResult struct {
	Valid    string   `json:"valid"` // file path that validated
	Entity   string   `json:"entity"`
	Filters  int      `json:"filters"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r ValidateResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: valid (entity %s, %d filter(s))", r.Valid, r.Entity, r.Filters)
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "\n  warning: %s", w)
	}
	return sb.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <querydef.cue>",
		Short: "Validate a CUE query definition without printing SQL",
		Long: `Validate that a CUE query definition loads and builds under the active
configuration. Exit code 0 means every identifier, operator, and bound
passed validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	if _, err := def.Build(cfg); err != nil {
		formatter.Error(ErrCodeBuild, err.Error(), nil)
		return NewExitError(ExitFailure, "query definition is invalid")
	}

	return formatter.Success(ValidateResult{
		Valid:    path,
		Entity:   def.Entity,
		Filters:  len(def.Filters),
		Warnings: lintDef(def),
	})
}

// lintDef reports definition smells that build fine but are usually
// mistakes.
func lintDef(def *querydef.QueryDef) []string {
	var warnings []string
	if def.Native != "" && len(def.Filters) > 0 {
		warnings = append(warnings, "native statement set: filters are ignored at render time")
	}
	if def.Page != nil && (def.Limit > 0 || def.Offset > 0) {
		warnings = append(warnings, "page and limit/offset both set: the later clause wins")
	}
	if len(def.Having) > 0 && len(def.GroupBy) == 0 {
		warnings = append(warnings, "having without groupBy")
	}
	return warnings
}
