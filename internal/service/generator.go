// File: internal/service/generator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/reporting"
	"github.com/mobilesec-ms/reportgen/internal/upstream"
)

// Fetcher retrieves every requested scan result for one request.
type Fetcher interface {
	FetchAll(ctx context.Context, jobs schemas.JobIDs) (*upstream.Snapshot, error)
}

// ReportBuilder turns a snapshot into a report.
type ReportBuilder interface {
	Build(snap *upstream.Snapshot) (*schemas.Report, error)
}

// Request is one report generation order.
type Request struct {
	JobIDs schemas.JobIDs
	Format reporting.Format
}

// Result carries the built report and its rendering.
type Result struct {
	Report *schemas.Report
	Output *reporting.Output
	Format reporting.Format
}

// Generator runs Validate, Fetch, Build and Render once per request. Nothing is retried.
type Generator struct {
	fetcher    Fetcher
	builder    ReportBuilder
	renderOpts reporting.Options
	logger     *zap.Logger
}

// NewGenerator wires a Generator from its collaborators.
func NewGenerator(fetcher Fetcher, builder ReportBuilder, renderOpts reporting.Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderOpts.Logger == nil {
		renderOpts.Logger = logger
	}
	return &Generator{
		fetcher:    fetcher,
		builder:    builder,
		renderOpts: renderOpts,
		logger:     logger.Named("generator"),
	}
}

// Generate produces the report for req. Errors are one of *ValidationError,
// *upstream.MandatoryUpstreamError, *AggregationError or *RenderError.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.JobIDs.Get(schemas.ServiceAPKScanner) == "" {
		return nil, &ValidationError{Field: "job_ids.apkscanner", Message: MissingAPKJobMessage}
	}

	snap, err := g.fetcher.FetchAll(ctx, req.JobIDs)
	if err != nil {
		var mandatory *upstream.MandatoryUpstreamError
		if !errors.As(err, &mandatory) {
			err = &upstream.MandatoryUpstreamError{
				Service: schemas.ServiceAPKScanner,
				JobID:   req.JobIDs.Get(schemas.ServiceAPKScanner),
				Err:     err,
			}
		}
		return nil, err
	}

	report, err := g.build(snap)
	if err != nil {
		return nil, err
	}

	out, err := g.render(req.Format, report)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Report generated.",
		zap.String("report_id", report.Metadata.ReportID),
		zap.String("format", req.Format.String()),
		zap.String("package", report.Summary.PackageName),
		zap.Int("total_issues", report.Summary.TotalIssues),
		zap.Duration("duration", time.Since(start)))

	return &Result{Report: report, Output: out, Format: req.Format}, nil
}

func (g *Generator) build(snap *upstream.Snapshot) (report *schemas.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Panic while building report.", zap.Any("panic", r), zap.Stack("stack"))
			report, err = nil, &AggregationError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	report, err = g.builder.Build(snap)
	if err != nil {
		return nil, &AggregationError{Err: err}
	}
	return report, nil
}

func (g *Generator) render(format reporting.Format, report *schemas.Report) (out *reporting.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Panic while rendering report.", zap.Any("panic", r), zap.String("format", format.String()))
			out, err = nil, &RenderError{Format: format.String(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	renderer, err := reporting.New(format, g.renderOpts)
	if err != nil {
		return nil, &RenderError{Format: format.String(), Err: err}
	}
	out, err = renderer.Render(report)
	if err != nil {
		return nil, &RenderError{Format: format.String(), Err: err}
	}
	return out, nil
}
