package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "jira-lite"

var (
	metricsOnce        sync.Once
	repoOpCounter      metric.Int64Counter
	authOpCounter      metric.Int64Counter
	tokenCounter       metric.Int64Counter
	rateLimitCounter   metric.Int64Counter
	reminderCounter    metric.Int64Counter
	mailCounter        metric.Int64Counter
	deliverableCounter metric.Int64Counter
)

func initCounters() {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)
		repoOpCounter, _ = meter.Int64Counter("repository.operations")
		authOpCounter, _ = meter.Int64Counter("auth.operations")
		tokenCounter, _ = meter.Int64Counter("auth.access_token.validations")
		rateLimitCounter, _ = meter.Int64Counter("ratelimit.decisions")
		reminderCounter, _ = meter.Int64Counter("meetings.reminders")
		mailCounter, _ = meter.Int64Counter("mail.dispatches")
		deliverableCounter, _ = meter.Int64Counter("deliverables.operations")
	})
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	initCounters()
	if repoOpCounter == nil {
		return
	}
	repoOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthOperation(ctx context.Context, operation, outcome string) {
	initCounters()
	if authOpCounter == nil {
		return
	}
	authOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome string) {
	initCounters()
	if tokenCounter == nil {
		return
	}
	tokenCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, action, outcome string) {
	initCounters()
	if rateLimitCounter == nil {
		return
	}
	rateLimitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordReminderDispatch(ctx context.Context, outcome string) {
	initCounters()
	if reminderCounter == nil {
		return
	}
	reminderCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordMailDispatch(ctx context.Context, kind, outcome string) {
	initCounters()
	if mailCounter == nil {
		return
	}
	mailCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func RecordDeliverableOperation(ctx context.Context, operation, outcome string) {
	initCounters()
	if deliverableCounter == nil {
		return
	}
	deliverableCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
