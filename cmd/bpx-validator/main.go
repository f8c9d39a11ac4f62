// Package main implements the bpx-validator CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"

	bpx "github.com/bpxgo/validator"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/loader"
	"github.com/bpxgo/validator/pkg/logger"
	"github.com/bpxgo/validator/pkg/validator"
	"github.com/bpxgo/validator/worker"
)

const (
	version = "0.1.0"
	usage   = `bpx-validator - BPX battery parameter document validator

Usage:
  bpx-validator [options] <file>...
  bpx-validator [options] -            (read from stdin)
  cat cell.json | bpx-validator -      (pipe input)

Examples:
  bpx-validator cell.json
  bpx-validator -vtol 0.01 cell.yaml
  bpx-validator -output json *.json
  bpx-validator -format hcl - < cell.hcl

Options:
`
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration
type Config struct {
	Tolerance   float64
	Output      OutputFormat
	StdinFormat loader.Format
	Strict      bool
	Quiet       bool
	Verbose     bool
	Dump        bool
	Metrics     bool
	Workers     int
	ShowVersion bool
	Help        bool
	Files       []string
}

// ValidationOutput represents the JSON output structure
type ValidationOutput struct {
	Document string        `json:"document"`
	Model    string        `json:"model,omitempty"`
	Valid    bool          `json:"valid"`
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Issues   []IssueOutput `json:"issues,omitempty"`
	Duration string        `json:"duration"`
}

// IssueOutput represents a single issue in JSON output
type IssueOutput struct {
	Severity    string   `json:"severity"`
	Code        string   `json:"code"`
	Diagnostics string   `json:"diagnostics"`
	Expression  []string `json:"expression,omitempty"`
	Line        int      `json:"line,omitempty"`
	Column      int      `json:"column,omitempty"`
}

func main() {
	config, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if config.ShowVersion {
		fmt.Printf("bpx-validator v%s (BPX %s)\n", version, bpx.FormatVersion)
		os.Exit(0)
	}

	if config.Help || len(config.Files) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(0)
	}

	os.Exit(run(config, os.Stdin, os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*Config, error) {
	config := &Config{Output: OutputText}

	fs := flag.NewFlagSet("bpx-validator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var output, format string
	fs.Float64Var(&config.Tolerance, "vtol", 1e-3, "Absolute voltage tolerance in volts for the cut-off consistency check")
	fs.StringVar(&output, "output", "text", "Output format: text, json")
	fs.StringVar(&format, "format", "json", "Format of stdin input: json, yaml, hcl")
	fs.BoolVar(&config.Strict, "strict", false, "Require every expression to compile and treat warnings as errors")
	fs.BoolVar(&config.Quiet, "quiet", false, "Only show failures and warnings")
	fs.BoolVar(&config.Verbose, "verbose", false, "Show debug logging")
	fs.BoolVar(&config.Dump, "dump", false, "Dump the decoded document of each valid file")
	fs.BoolVar(&config.Metrics, "metrics", false, "Print validation metrics to stderr when done")
	fs.IntVar(&config.Workers, "workers", 0, "Number of parallel workers (default: one per CPU)")
	fs.BoolVar(&config.ShowVersion, "v", false, "Show version")
	fs.BoolVar(&config.Help, "help", false, "Show help")

	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if !(config.Tolerance >= 0) {
		err := issue.ErrorWithID(issue.DiagConfigTolerance,
			map[string]any{"value": strconv.FormatFloat(config.Tolerance, 'g', -1, 64)}, nil)
		fmt.Fprintf(stderr, "Error: %s\n", err.Message)
		return nil, err
	}

	// Parse output format
	switch strings.ToLower(output) {
	case "json":
		config.Output = OutputJSON
	default:
		config.Output = OutputText
	}
	config.StdinFormat = loader.Format(strings.ToLower(format))

	// Remaining arguments are files
	config.Files = fs.Args()

	return config, nil
}

// input is one document to validate, or the reason it could not be read.
type input struct {
	name string
	doc  *loader.Document
	err  error
}

func run(config *Config, stdin io.Reader, stdout, stderr io.Writer) int {
	level := logger.LevelWarn
	if config.Verbose {
		level = logger.LevelDebug
	}
	log := logger.New(stderr, level, logger.FormatText)

	metrics := bpx.NewMetrics()
	v, err := validator.New(
		validator.WithStrictMode(config.Strict),
		validator.WithLogger(log),
		validator.WithMetrics(metrics),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to initialize validator: %v\n", err)
		return 1
	}

	inputs := collect(config, stdin)
	if !config.Quiet && config.Output == OutputText {
		fmt.Fprintf(stderr, "Validating %d document(s) against BPX %s...\n\n", len(inputs), bpx.FormatVersion)
	}

	// Documents that loaded become jobs; the rest fail immediately
	jobs := make([]worker.Job, 0, len(inputs))
	for _, in := range inputs {
		if in.err != nil {
			continue
		}
		job := worker.Job{ID: in.name, Raw: in.doc.Raw, Tolerance: worker.Tolerance(config.Tolerance)}
		if in.doc.Format == loader.FormatJSON {
			job.Source = in.doc.Source
		}
		jobs = append(jobs, job)
	}
	batch := worker.NewBatch(v, config.Workers).Run(context.Background(), jobs)

	hasErrors := false
	outputs := make([]ValidationOutput, 0, len(inputs))
	next := 0
	for _, in := range inputs {
		var jr *worker.JobResult
		if in.err != nil {
			jr = &worker.JobResult{ID: in.name, Error: in.err}
		} else {
			jr = batch.Results[next]
			next++
		}

		out := buildOutput(jr)
		outputs = append(outputs, out)
		if !out.Valid || (config.Strict && out.Warnings > 0) {
			hasErrors = true
		}
		if config.Output == OutputText {
			printTextResult(stdout, out, config)
		}
		if config.Dump && jr.Result != nil {
			fmt.Fprintf(stdout, "-- %s decoded --\n", jr.ID)
			spew.Fdump(stdout, jr.Result.Document)
		}
	}

	// Output JSON if requested
	if config.Output == OutputJSON {
		jsonOutput, _ := json.MarshalIndent(outputs, "", "  ")
		fmt.Fprintln(stdout, string(jsonOutput))
	}

	if config.Metrics {
		snap, _ := json.MarshalIndent(metrics.Snapshot(), "", "  ")
		fmt.Fprintln(stderr, string(snap))
	}

	if hasErrors {
		return 1
	}
	return 0
}

// collect expands glob patterns and loads every matching file. "-" reads
// one document from stdin.
func collect(config *Config, stdin io.Reader) []input {
	var inputs []input
	for _, file := range config.Files {
		if file == "-" {
			inputs = append(inputs, readStdin(config.StdinFormat, stdin))
			continue
		}

		// Handle glob patterns
		matches, err := filepath.Glob(file)
		if err != nil {
			inputs = append(inputs, input{name: file, err: fmt.Errorf("bad pattern: %w", err)})
			continue
		}
		if len(matches) == 0 {
			inputs = append(inputs, input{name: file, err: fmt.Errorf("no files match pattern: %s", file)})
			continue
		}
		for _, match := range matches {
			doc, err := loader.Load(match)
			inputs = append(inputs, input{name: match, doc: doc, err: err})
		}
	}
	return inputs
}

func readStdin(format loader.Format, stdin io.Reader) input {
	in := input{name: "stdin"}
	data, err := io.ReadAll(stdin)
	if err != nil {
		in.err = fmt.Errorf("failed to read stdin: %w", err)
		return in
	}
	raw, err := loader.Parse(data, format, in.name)
	if err != nil {
		in.err = err
		return in
	}
	in.doc = &loader.Document{Path: in.name, Format: format, Source: data, Raw: raw}
	return in
}

func buildOutput(jr *worker.JobResult) ValidationOutput {
	out := ValidationOutput{
		Document: jr.ID,
		Valid:    jr.Valid(),
		Duration: jr.Duration.Round(time.Microsecond).String(),
	}

	if jr.Error != nil {
		out.Errors = 1
		iss := IssueOutput{
			Severity:    string(issue.SeverityError),
			Code:        "exception",
			Diagnostics: jr.Error.Error(),
		}
		if e, ok := issue.AsError(jr.Error); ok {
			iss.Code = string(e.Code)
			iss.Diagnostics = e.Message
			if len(e.Path) > 0 {
				iss.Expression = []string{e.Path.String()}
			}
			iss.Line, iss.Column = e.Line, e.Column
		}
		out.Issues = append(out.Issues, iss)
		return out
	}

	out.Model = string(jr.Result.Document.Header.Model)
	out.Warnings = jr.Result.Warnings.WarningCount()
	for _, iss := range jr.Result.Warnings.Issues {
		out.Issues = append(out.Issues, IssueOutput{
			Severity:    string(iss.Severity),
			Code:        string(iss.Code),
			Diagnostics: iss.Diagnostics,
			Expression:  iss.Expression,
		})
	}
	return out
}

func printTextResult(w io.Writer, out ValidationOutput, config *Config) {
	status := "VALID"
	if !out.Valid {
		status = "INVALID"
	}
	if config.Quiet && out.Valid && out.Warnings == 0 {
		return
	}

	fmt.Fprintf(w, "== %s ==\n", out.Document)
	fmt.Fprintf(w, "Status: %s\n", status)
	if out.Model != "" {
		fmt.Fprintf(w, "Model: %s\n", out.Model)
	}
	fmt.Fprintf(w, "Errors: %d, Warnings: %d\n", out.Errors, out.Warnings)
	if !config.Quiet {
		fmt.Fprintf(w, "Duration: %s\n", out.Duration)
	}

	// Issues
	if len(out.Issues) > 0 {
		fmt.Fprintln(w, "\nIssues:")
		for _, iss := range out.Issues {
			loc := ""
			if len(iss.Expression) > 0 {
				loc = fmt.Sprintf(" @ %s", strings.Join(iss.Expression, ", "))
			}
			if iss.Line > 0 {
				loc += fmt.Sprintf(" (line %d, column %d)", iss.Line, iss.Column)
			}
			fmt.Fprintf(w, "  %s [%s] %s%s\n", severityLabel(issue.Severity(iss.Severity)), iss.Code, iss.Diagnostics, loc)
		}
	}

	fmt.Fprintln(w)
}

func severityLabel(severity issue.Severity) string {
	switch severity {
	case issue.SeverityError:
		return "ERROR"
	case issue.SeverityWarning:
		return "WARN "
	case issue.SeverityInformation:
		return "INFO "
	default:
		return "     "
	}
}
