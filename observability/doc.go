// Package observability provides OpenTelemetry tracing and metrics for
// assetgraph builds.
//
// Both are opt-in. When disabled, the global otel providers stay the noop
// defaults and every span or instrument call is free.
//
// Tracing:
//
//	shutdown, err := observability.InitTracer(ctx, cfg.Tracing, log)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "assetgraph.perform")
//	defer span.End()
//
// Metrics:
//
//	shutdown, err := observability.InitMeter(ctx, cfg.Metrics, log)
//	metrics, err := observability.NewMetrics(observability.Meter("assetgraph"))
//	metrics.RecordNodeVisit(ctx, "Filter", "run", "ok", elapsed)
package observability
