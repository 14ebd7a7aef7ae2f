package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/mcp-jira/internal/server"
)

// runStdioServer runs the server with STDIO transport. Nothing may be written
// to stdout except protocol messages.
func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, sc *server.ServerContext, stdin io.Reader, stdout io.Writer) error {
	stdioServer := mcpserver.NewStdioServer(mcpSrv)
	stdioServer.SetErrorLogger(slog.NewLogLogger(sc.Logger().Handler(), slog.LevelError))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if config.Metrics.Enabled {
		metricsServer, err := newMetricsServer(config.Metrics, sc)
		if err != nil {
			return err
		}
		if metricsServer != nil {
			runUntilDone(gctx, g, sc.Logger(), "metrics", metricsServer.Start, metricsServer.Shutdown)
		}
	}

	g.Go(func() error {
		// The stdio loop ends on EOF, which also stops the metrics server.
		defer cancel()
		if err := stdioServer.Listen(gctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
