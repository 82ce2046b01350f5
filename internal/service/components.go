// File: internal/service/components.go
package service

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/config"
	"github.com/mobilesec-ms/reportgen/internal/network"
	"github.com/mobilesec-ms/reportgen/internal/reporting"
	"github.com/mobilesec-ms/reportgen/internal/results"
	"github.com/mobilesec-ms/reportgen/internal/results/providers"
	"github.com/mobilesec-ms/reportgen/internal/upstream"
)

// Components holds the long-lived pieces shared by every request: the pooled
// HTTP client, the fetcher with its rate limiters, and the generator on top.
type Components struct {
	Generator  *Generator
	HTTPClient *http.Client
}

// Shutdown releases pooled upstream connections.
func (c *Components) Shutdown() {
	if c == nil || c.HTTPClient == nil {
		return
	}
	c.HTTPClient.CloseIdleConnections()
}

// ComponentFactory builds Components from configuration. Commands depend on
// this interface so tests can substitute their own wiring.
type ComponentFactory interface {
	Create(cfg config.Interface, logger *zap.Logger) (*Components, error)
}

type concreteFactory struct{}

// NewComponentFactory returns the production factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create wires transport, upstream client, fetcher, builder and renderers.
func (f *concreteFactory) Create(cfg config.Interface, logger *zap.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	upstreams := cfg.Upstreams()
	if upstreams.For(schemas.ServiceAPKScanner).BaseURL == "" {
		return nil, fmt.Errorf("apkscanner base URL is not configured (hint: check APKSCANNER_URL)")
	}

	httpClient := network.NewClient(network.ClientConfigFrom(cfg.Network(), logger))
	logger.Debug("Upstream HTTP client initialized.", zap.Bool("http2", cfg.Network().ForceHTTP2))

	client := upstream.NewHTTPClient(httpClient, upstreams, cfg.Network().MaxResponseBytes)
	fetcher := upstream.NewFetcher(client, upstreams, logger)
	for _, s := range schemas.Services {
		sc := upstreams.For(s)
		logger.Debug("Upstream configured.",
			zap.String("service", string(s)),
			zap.String("base_url", sc.BaseURL),
			zap.Duration("timeout", sc.Timeout),
			zap.Float64("rate_limit", sc.RateLimit))
	}

	rc := cfg.Report()
	builder := results.NewBuilder(rc)
	renderOpts := reporting.Options{
		ToolName:           rc.Platform,
		ToolVersion:        rc.Version,
		InformationURI:     rc.InformationURI,
		MaxRecommendations: rc.MaxPDFRecommendations,
		CWE:                providers.NewInMemoryCWEProvider(),
		Logger:             logger.Named("renderer"),
	}

	logger.Info("Report generation components initialized.")
	return &Components{
		Generator:  NewGenerator(fetcher, builder, renderOpts, logger),
		HTTPClient: httpClient,
	}, nil
}
