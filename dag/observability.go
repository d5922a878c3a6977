package dag

import (
	"context"
	"time"

	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/observability"
	"github.com/kbukum/assetgraph/operation"
)

// WithTracing wraps a Step with OpenTelemetry span creation.
// Each visit creates a span named "{prefix}.{phase}".
func WithTracing(step Step, prefix string) Step {
	return &tracingStep{inner: step, prefix: prefix}
}

type tracingStep struct {
	inner  Step
	prefix string
}

func (s *tracingStep) Visit(ctx context.Context, v *Visit, emit operation.Emit) error {
	ctx, span := observability.StartSpan(ctx, s.prefix+"."+string(v.Phase))
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrNodeID, v.Node.ID)
	observability.SetSpanAttribute(ctx, observability.AttrNodeKind, string(v.Node.Kind()))
	observability.SetSpanAttribute(ctx, observability.AttrPhase, string(v.Phase))

	err := s.inner.Visit(ctx, v, emit)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return err
}

// WithMetrics wraps a Step with metric recording.
// Records visit count, duration, and errors by code.
func WithMetrics(step Step, metrics *observability.Metrics) Step {
	return &metricsStep{inner: step, metrics: metrics}
}

type metricsStep struct {
	inner   Step
	metrics *observability.Metrics
}

func (s *metricsStep) Visit(ctx context.Context, v *Visit, emit operation.Emit) error {
	start := time.Now()
	err := s.inner.Visit(ctx, v, emit)
	duration := time.Since(start)

	kind := string(v.Node.Kind())
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		s.metrics.RecordError(ctx, string(errorCode(err)), kind)
	}
	s.metrics.RecordNodeVisit(ctx, kind, string(v.Phase), status, duration)
	return err
}

// WithLogging wraps a Step with visit logging. Events carry the trace and
// span ids of the active span.
func WithLogging(step Step, log *logger.Logger) Step {
	return &loggingStep{inner: step, log: log}
}

type loggingStep struct {
	inner Step
	log   *logger.Logger
}

func (s *loggingStep) Visit(ctx context.Context, v *Visit, emit operation.Emit) error {
	start := time.Now()
	err := s.inner.Visit(ctx, v, emit)
	duration := time.Since(start)

	log := s.log.WithContext(ctx)
	fields := logger.DurationFields("visit", duration)
	fields[logger.FieldNodeID] = v.Node.ID
	fields[logger.FieldNodeName] = v.Node.Name
	fields[logger.FieldNodeKind] = string(v.Node.Kind())
	fields[logger.FieldPhase] = string(v.Phase)

	if err != nil {
		log.Error("node visit failed", logger.MergeWithError(fields, err))
	} else {
		log.Debug("node visit completed", fields)
	}
	return err
}

func errorCode(err error) errors.ErrorCode {
	if nodeErr, ok := errors.AsNodeError(err); ok {
		return nodeErr.Code
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return errors.ErrCodeInternal
}
