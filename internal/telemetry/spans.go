package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for instance lifecycle spans.
const (
	AttrOperation         = "ordo.operation"
	AttrApplication       = "ordo.application"
	AttrRoot              = "ordo.root"
	AttrTable             = "ordo.table"
	AttrState             = "ordo.state"
	AttrLeaderLive        = "ordo.leader.live"
	AttrClearCoordination = "ordo.init.clear_coordination"
	AttrClearTable        = "ordo.init.clear_table"
)

func Operation(op string) attribute.KeyValue     { return attribute.String(AttrOperation, op) }
func Application(name string) attribute.KeyValue { return attribute.String(AttrApplication, name) }
func Root(root string) attribute.KeyValue        { return attribute.String(AttrRoot, root) }
func Table(name string) attribute.KeyValue       { return attribute.String(AttrTable, name) }
func State(s string) attribute.KeyValue          { return attribute.String(AttrState, s) }
func LeaderLive(live bool) attribute.KeyValue    { return attribute.Bool(AttrLeaderLive, live) }

// ClearCoordination and ClearTable record the initialize flags.
func ClearCoordination(v bool) attribute.KeyValue { return attribute.Bool(AttrClearCoordination, v) }
func ClearTable(v bool) attribute.KeyValue        { return attribute.Bool(AttrClearTable, v) }

// StartAdminSpan starts the span "admin.<op>" for a lifecycle operation on
// the instance at root. The caller ends it.
func StartAdminSpan(ctx context.Context, op, root, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, 3+len(attrs))
	all = append(all, Operation(op), Root(root), Table(table))
	all = append(all, attrs...)
	return currentTracer().Start(ctx, "admin."+op, trace.WithAttributes(all...))
}

// AddEvent marks a step (table created, state cleared) on the span in ctx.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes adds attrs to the span in ctx.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// RecordError records err on the span in ctx and marks it failed. A nil err
// is ignored.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID and SpanID return the ids of the span in ctx for log
// correlation, or "" when it carries none.
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

func SpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}
