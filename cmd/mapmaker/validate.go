package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/pipeline"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	skipped bool
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var errValidationFailed = errors.New("validation failed")

func newValidateCmd(g *globalFlags) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a table can be plotted and report how it covers the regions",
		Long: `validate runs the read and schema checks a plot would run and, unless
--offline is set, compares the NIS codes with the boundary dataset:
codes without a region, regions without a row and codes on several rows
are all reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, !offline)
			if err != nil {
				return err
			}
			return runValidate(cmd, a, args[0], offline)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the boundary coverage phase")
	return cmd
}

func runValidate(cmd *cobra.Command, a *app, file string, offline bool) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	read := &phase{name: "Read table"}
	schema := &phase{name: "Schema (NIS code and data columns)"}
	coverage := &phase{name: "Boundary coverage", skipped: offline}
	phases := []*phase{read, schema, coverage}

	fmt.Fprintf(out, "=== Validating %s ===\n\n", file)

	ds, err := a.pipeline.Inspect(ctx, pipeline.Request{URI: file, Read: a.read})
	switch kind := domain.ErrorKind(err); {
	case err == nil:
		fmt.Fprintf(out, "Rows: %d, data columns: %v\n", ds.Table.RowCount(), ds.DataColumns())
	case readFailure(kind):
		read.errorf("%v", err)
	default:
		schema.errorf("%s: %v", kind, err)
	}
	if err != nil {
		schema.skipped = !read.passed()
		coverage.skipped = true
	}

	if !coverage.skipped {
		checkCoverage(cmd, a, ds, coverage)
	}

	return report(out, phases)
}

// readFailure reports whether an error kind means the file could not be
// loaded at all, so schema checks never ran.
func readFailure(kind string) bool {
	switch kind {
	case "unsupported_format", "unreadable_input", "invalid_option", "internal":
		return true
	}
	return false
}

func checkCoverage(cmd *cobra.Command, a *app, ds domain.Dataset, p *phase) {
	cov, err := a.pipeline.Coverage(cmd.Context(), ds)
	if err != nil {
		p.errorf("load boundary dataset %s: %v", a.pipeline.Boundary().URL, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Regions: %d, with data: %d, without data: %d\n",
		cov.Regions, cov.Matched, len(cov.MissingRegions))

	for _, c := range cov.UnknownCodes {
		p.errorf("NIS code %d has no region in %s", c, a.pipeline.Boundary().Feature)
	}
	for _, c := range cov.DuplicateCodes {
		p.errorf("NIS code %d appears on more than one row; only the last is plotted", c)
	}
}

func report(out io.Writer, phases []*phase) error {
	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return nil
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return errValidationFailed
}
