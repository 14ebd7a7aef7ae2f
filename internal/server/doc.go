// Package server holds the dependencies and HTTP infrastructure shared by
// every MCP transport of the Jira server.
//
// ServerContext carries the Jira client, the response processor, the logger,
// the instrumentation provider and the server Config. It is built with
// functional options:
//
//	sc, err := server.NewServerContext(ctx,
//		server.WithJiraClient(client),
//		server.WithProcessor(output.NewProcessor(settings.OutputConfig())),
//		server.WithLogger(logger),
//		server.WithReadOnly(settings.ReadOnly),
//	)
//	if err != nil {
//		return err
//	}
//	defer sc.Shutdown()
//
// HealthChecker exposes /healthz, /readyz and /healthz/detailed for the
// network transports, and MetricsServer serves Prometheus metrics on a
// separate listener.
package server
