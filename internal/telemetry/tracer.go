package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on awsasync spans. Offload attributes are attached to
// every offloaded call; AWS and HTTP attributes are set by the collaborators
// that know about them.
const (
	// ========================================================================
	// Offload attributes
	// ========================================================================
	AttrOffloadLabel    = "offload.label"    // Operation or counterpart label
	AttrOffloadCallID   = "offload.call_id"  // UUID of the call
	AttrOffloadExecutor = "offload.executor" // native or queue
	AttrOffloadWorkers  = "offload.workers"
	AttrOffloadWaitMs   = "offload.queue_wait_ms"
	AttrOffloadPanic    = "offload.panic"

	// ========================================================================
	// Augment attributes
	// ========================================================================
	AttrAugmentClient      = "augment.client" // Go type of the wrapped client
	AttrAugmentOperation   = "augment.operation"
	AttrAugmentCounterpart = "augment.counterpart"

	// ========================================================================
	// AWS attributes
	// ========================================================================
	AttrAWSService   = "aws.service"
	AttrAWSRegion    = "aws.region"
	AttrAWSErrorCode = "aws.error_code"

	// ========================================================================
	// Gateway attributes
	// ========================================================================
	AttrHTTPRoute     = "http.route"
	AttrHTTPRequestID = "http.request_id"
)

// Span names.
const (
	SpanOffloadCall  = "offload.call"
	SpanAugment      = "augment.client"
	SpanGatewayInvoke = "gateway.invoke"
)

// OffloadLabel returns an attribute for the label of an offloaded call.
func OffloadLabel(label string) attribute.KeyValue {
	return attribute.String(AttrOffloadLabel, label)
}

// OffloadCallID returns an attribute for the call UUID.
func OffloadCallID(id string) attribute.KeyValue {
	return attribute.String(AttrOffloadCallID, id)
}

// OffloadExecutor returns an attribute for the executor kind.
func OffloadExecutor(kind string) attribute.KeyValue {
	return attribute.String(AttrOffloadExecutor, kind)
}

func OffloadWorkers(n int) attribute.KeyValue {
	return attribute.Int(AttrOffloadWorkers, n)
}

func OffloadWaitMs(ms float64) attribute.KeyValue {
	return attribute.Float64(AttrOffloadWaitMs, ms)
}

func OffloadPanic(recovered bool) attribute.KeyValue {
	return attribute.Bool(AttrOffloadPanic, recovered)
}

// AugmentClient returns an attribute naming the wrapped client type.
func AugmentClient(typeName string) attribute.KeyValue {
	return attribute.String(AttrAugmentClient, typeName)
}

func AugmentOperation(name string) attribute.KeyValue {
	return attribute.String(AttrAugmentOperation, name)
}

func AugmentCounterpart(name string) attribute.KeyValue {
	return attribute.String(AttrAugmentCounterpart, name)
}

// AWSService returns an attribute for the AWS service name (s3, sts, ...).
func AWSService(name string) attribute.KeyValue {
	return attribute.String(AttrAWSService, name)
}

// Region returns an attribute for the AWS region.
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrAWSRegion, region)
}

// AWSErrorCode returns an attribute for a smithy API error code.
func AWSErrorCode(code string) attribute.KeyValue {
	return attribute.String(AttrAWSErrorCode, code)
}

func HTTPRoute(route string) attribute.KeyValue {
	return attribute.String(AttrHTTPRoute, route)
}

func HTTPRequestID(id string) attribute.KeyValue {
	return attribute.String(AttrHTTPRequestID, id)
}

// StartOffloadSpan starts the span that covers one offloaded call, from
// submission to completion. The caller ends it on the worker.
func StartOffloadSpan(ctx context.Context, label, callID, executor string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		OffloadLabel(label),
		OffloadCallID(callID),
		OffloadExecutor(executor),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanOffloadCall, trace.WithAttributes(allAttrs...))
}

// StartGatewaySpan starts a span for an HTTP invocation of a counterpart.
func StartGatewaySpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		AWSService(service),
		AugmentCounterpart(operation),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanGatewayInvoke, trace.WithAttributes(allAttrs...))
}
