package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/internal/config"
	"github.com/mobilesec-ms/reportgen/internal/observability"
	"github.com/mobilesec-ms/reportgen/internal/server"
	"github.com/mobilesec-ms/reportgen/internal/service"
)

// runner is what serve needs from the HTTP server.
type runner interface {
	Start(ctx context.Context) error
}

// newServer is swapped in tests to avoid binding a port.
var newServer = func(cfg config.ServerConfig, gen server.ReportGenerator, logger *zap.Logger) runner {
	return server.NewServer(cfg, gen, logger)
}

func newServeCmd(factory service.ComponentFactory) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the report generation HTTP API",
		Long: `Starts the HTTP API exposing POST /generate and GET /health.
The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runServe(ctx, cfg, observability.GetLogger(), factory)
		},
	}

	serveCmd.Flags().String("host", "", "Address to bind (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides server.port and PORT)")
	serveCmd.Flags().String("log-level", "", "Log level (overrides logger.level)")
	return serveCmd
}

func runServe(ctx context.Context, cfg config.Interface, logger *zap.Logger, factory service.ComponentFactory) error {
	components, err := factory.Create(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Shutdown()

	logger.Info("Starting report API", zap.String("address", cfg.Server().Addr()), zap.String("version", Version))
	return newServer(cfg.Server(), components.Generator, logger).Start(ctx)
}
