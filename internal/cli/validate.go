package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/listenleak/internal/harness"
)

// ValidationError describes one scenario file that failed to load.
type ValidationError struct {
	File    string   `json:"file"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Validate scenarios without running them",
		Long: `Validate scenario files without running them.

Checks each document against the scenario schema, rejects unknown fields
and verifies that every listener a step refers to is declared.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := findScenarioFiles(paths, "")
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true, Files: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		if _, err := harness.LoadScenario(file); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, toValidationError(file, err))
		}
	}

	if formatter.JSON() {
		if err := formatter.Report(result, !result.Valid, ErrCodeInvalid,
			fmt.Sprintf("%d of %d scenario(s) invalid", len(result.Errors), result.Files)); err != nil {
			return err
		}
	} else {
		writeValidationText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) invalid", len(result.Errors)))
	}
	return nil
}

func toValidationError(file string, err error) ValidationError {
	var schemaErr *harness.SchemaError
	if errors.As(err, &schemaErr) {
		return ValidationError{File: file, Message: "schema violation", Details: schemaErr.Details}
	}
	return ValidationError{File: file, Message: err.Error()}
}

func writeValidationText(f *OutputFormatter, result ValidationResult) {
	w := f.Writer
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s: %s\n", e.File, e.Message)
		for _, d := range e.Details {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	if result.Valid {
		fmt.Fprintf(w, "✓ %d scenario(s) valid\n", result.Files)
	}
}
