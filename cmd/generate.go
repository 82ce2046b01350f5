// File: cmd/generate.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/config"
	"github.com/mobilesec-ms/reportgen/internal/observability"
	"github.com/mobilesec-ms/reportgen/internal/reporting"
	"github.com/mobilesec-ms/reportgen/internal/service"
)

// ErrThresholdExceeded is returned when --fail-on matches at least one finding.
var ErrThresholdExceeded = errors.New("findings at or above the --fail-on severity were reported")

// generateOptions holds the parsed flags of the generate command.
type generateOptions struct {
	jobs       schemas.JobIDs
	format     string
	outputPath string
	failOn     string
}

func newGenerateCmd(factory service.ComponentFactory) *cobra.Command {
	var opts generateOptions

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one report from completed scanner jobs",
		Long: `Fetches the scan results for the given job ids, builds the consolidated report
and writes it to --output (or stdout). Only --apk is required.

With --fail-on the command exits non-zero when the report contains a finding at
or above that severity, which lets CI pipelines gate on the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runGenerate(ctx, cfg, observability.GetLogger(), factory, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := generateCmd.Flags()
	f.StringVar(&opts.jobs.APKScanner, "apk", "", "apkscanner job id (required)")
	f.StringVar(&opts.jobs.SecretHunter, "secrets", "", "secrethunter job id")
	f.StringVar(&opts.jobs.CryptoCheck, "crypto", "", "cryptocheck job id")
	f.StringVar(&opts.jobs.NetworkInspector, "network", "", "networkinspector job id")
	f.StringVarP(&opts.format, "format", "f", "json", "Output format: json, pdf or sarif")
	f.StringVarP(&opts.outputPath, "output", "o", "", "Output file path. If unset, the report is written to stdout.")
	f.StringVar(&opts.failOn, "fail-on", "", "Exit non-zero if a finding at or above this severity exists (critical, high, medium, low)")
	f.String("log-level", "", "Log level (overrides logger.level)")
	f.String("report-version", "", "Version stamped into report metadata (overrides report.version)")
	_ = generateCmd.MarkFlagRequired("apk")

	return generateCmd
}

// runGenerate contains the core, testable logic of the generate command.
func runGenerate(
	ctx context.Context,
	cfg config.Interface,
	logger *zap.Logger,
	factory service.ComponentFactory,
	opts generateOptions,
	stdout, stderr io.Writer,
) error {
	threshold, err := parseFailOn(opts.failOn)
	if err != nil {
		return err
	}

	components, err := factory.Create(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Shutdown()

	res, err := components.Generator.Generate(ctx, service.Request{
		JobIDs: opts.jobs,
		Format: reporting.ParseFormat(opts.format),
	})
	if err != nil {
		return err
	}

	if err := reporting.WriteOutput(res.Output, opts.outputPath, stdout); err != nil {
		return err
	}
	if opts.outputPath != "" && opts.outputPath != "-" && opts.outputPath != "stdout" {
		logger.Info("Report written", zap.String("path", opts.outputPath), zap.String("format", res.Format.String()))
	}

	printSummary(stderr, res.Report)

	if threshold != "" && atOrAbove(res.Report.Summary, threshold) > 0 {
		return ErrThresholdExceeded
	}
	return nil
}

// parseFailOn accepts an empty value (no gate) or one of the four severities.
func parseFailOn(s string) (schemas.Severity, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	sev, ok := schemas.ParseSeverity(strings.TrimSpace(s))
	if !ok {
		return "", fmt.Errorf("invalid --fail-on value %q (want critical, high, medium or low)", s)
	}
	return sev, nil
}

// atOrAbove counts findings with severity >= threshold.
func atOrAbove(s schemas.Summary, threshold schemas.Severity) int {
	n := s.Critical
	if threshold == schemas.SeverityCritical {
		return n
	}
	n += s.High
	if threshold == schemas.SeverityHigh {
		return n
	}
	n += s.Medium
	if threshold == schemas.SeverityMedium {
		return n
	}
	return n + s.Low
}

func printSummary(w io.Writer, report *schemas.Report) {
	if report == nil {
		return
	}
	s := report.Summary

	header := color.New(color.Bold)
	header.Fprintf(w, "\nReport %s for %s (%s)\n", report.Metadata.ReportID, s.PackageName, s.Filename)
	fmt.Fprintf(w, "  Total issues: %d\n", s.TotalIssues)
	color.New(color.FgHiRed).Fprintf(w, "  Critical:     %d\n", s.Critical)
	color.New(color.FgRed).Fprintf(w, "  High:         %d\n", s.High)
	color.New(color.FgYellow).Fprintf(w, "  Medium:       %d\n", s.Medium)
	color.New(color.FgBlue).Fprintf(w, "  Low:          %d\n", s.Low)

	if len(report.Recommendations) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No recommendations.")
		return
	}
	header.Fprintln(w, "Recommendations:")
	for _, rec := range report.Recommendations {
		fmt.Fprintf(w, "  [%s] %s\n", rec.Priority, rec.Message)
	}
}
