package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/listenleak/internal/detector"
	"github.com/roach88/listenleak/internal/harness"
	"github.com/roach88/listenleak/internal/journal"
	"github.com/roach88/listenleak/internal/report"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string // optional SQLite journal path
	Update  bool   // regenerate golden files
	Filter  string // scenario filter (glob pattern)

	// SessionGenerator allows overriding session IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator detector.SessionIDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name     string         `json:"name"`
	File     string         `json:"file"`
	Pass     bool           `json:"pass"`
	Session  string         `json:"session,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Measures map[string]any `json:"measures,omitempty"`

	// text holds the human-readable measure reports, shown with --verbose.
	text string
}

// RunResult holds the overall result of a run.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario|dir>...",
		Short: "Run leak-detection scenarios",
		Long: `Run scenario files against an instrumented window.

Each scenario's expectations are checked. When a golden file exists at
golden/<name>.golden beside the scenario, its measures must match it too.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, journal cannot be opened, etc.)

Examples:
  listenleak run ./scenarios
  listenleak run ./scenarios --filter "bound-*"
  listenleak run ./scenarios --update
  listenleak run leak.yaml --journal ./leaks.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite journal to record into")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	files, err := findScenarioFiles(paths, opts.Filter)
	if err != nil {
		return err
	}

	gen := opts.SessionGenerator
	if gen == nil {
		gen = detector.UUIDv7Generator{}
	}
	runOpts := []harness.RunOption{
		harness.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
		harness.WithSessionIDGenerator(gen),
	}

	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				formatter.VerboseLog("error closing journal: %v", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithRecorder(j))
	}

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		formatter.VerboseLog("Running %s", file)
		sr := runScenarioFile(file, opts, runOpts)
		if !formatter.JSON() {
			writeScenarioText(formatter, sr)
		}

		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		if err := formatter.Report(result, result.Failed > 0, ErrCodeRunFailed,
			fmt.Sprintf("%d scenario(s) failed", result.Failed)); err != nil {
			return err
		}
	} else {
		writeRunSummary(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runScenarioFile loads, runs and golden-checks one scenario file.
func runScenarioFile(file string, opts *RunOptions, runOpts []harness.RunOption) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Session = result.Session
	sr.Errors = result.Errors
	sr.Measures = make(map[string]any, len(result.Measures))
	var text strings.Builder
	for _, name := range result.MeasureOrder {
		m := result.Measures[name]
		sr.Measures[name] = report.Measure(m)
		_ = report.WriteText(&text, name, m)
	}
	sr.text = text.String()

	if err := checkGolden(file, scenario.Name, result, opts.Update); err != nil {
		sr.Errors = append(sr.Errors, err.Error())
		return sr
	}

	sr.Pass = result.Pass
	return sr
}

// errGoldenMismatch is reported when measures differ from the golden file.
var errGoldenMismatch = errors.New("measures do not match golden file (run with --update to regenerate)")

// checkGolden writes the golden file when update is set; otherwise it
// compares against the golden file if one exists.
func checkGolden(file, name string, result *harness.Result, update bool) error {
	data, err := harness.GoldenJSON(name, result)
	if err != nil {
		return fmt.Errorf("failed to render golden form: %w", err)
	}
	path := goldenFilePath(file)

	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	golden, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(golden, data) {
		return errGoldenMismatch
	}
	return nil
}

func writeScenarioText(f *OutputFormatter, sr ScenarioResult) {
	w := f.Writer
	if !sr.Pass {
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	fmt.Fprintf(w, "✓ %s\n", sr.Name)
	if f.Verbose {
		fmt.Fprint(w, sr.text)
	}
}

func writeRunSummary(f *OutputFormatter, result RunResult) {
	w := f.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}
