package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

// Recorder publishes scheduler measurements through the global meter.
// Instruments are created lazily-safe: a no-op meter provider keeps all
// methods harmless in tests and one-shot runs.
type Recorder struct {
	steps        otelmetric.Int64Counter
	stepDuration otelmetric.Float64Histogram
	quality      otelmetric.Int64Histogram
	runs         otelmetric.Int64Counter
	runDuration  otelmetric.Float64Histogram
}

func NewRecorder() (*Recorder, error) {
	meter := otel.Meter("campaign-engine/workflow")
	steps, err := meter.Int64Counter("campaign_steps_total",
		otelmetric.WithDescription("Agent step executions"))
	if err != nil {
		return nil, err
	}
	stepDuration, err := meter.Float64Histogram("campaign_step_duration_seconds",
		otelmetric.WithDescription("Agent step wall time"))
	if err != nil {
		return nil, err
	}
	quality, err := meter.Int64Histogram("campaign_quality_score",
		otelmetric.WithDescription("Quality gate scores per review pass"))
	if err != nil {
		return nil, err
	}
	runs, err := meter.Int64Counter("campaign_runs_total",
		otelmetric.WithDescription("Completed campaign runs by status"))
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram("campaign_run_duration_seconds",
		otelmetric.WithDescription("Campaign run wall time"))
	if err != nil {
		return nil, err
	}
	return &Recorder{
		steps:        steps,
		stepDuration: stepDuration,
		quality:      quality,
		runs:         runs,
		runDuration:  runDuration,
	}, nil
}

func (r *Recorder) StepCompleted(ctx context.Context, agentName string, degraded bool, elapsed time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("agent", agentName),
		attribute.Bool("degraded", degraded),
	)
	r.steps.Add(ctx, 1, attrs)
	r.stepDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (r *Recorder) QualityAssessed(ctx context.Context, score int, revision int) {
	r.quality.Record(ctx, int64(score),
		otelmetric.WithAttributes(attribute.Int("revision", revision)))
}

func (r *Recorder) RunCompleted(ctx context.Context, status campaign.Status, elapsed time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("status", string(status)))
	r.runs.Add(ctx, 1, attrs)
	r.runDuration.Record(ctx, elapsed.Seconds(), attrs)
}
