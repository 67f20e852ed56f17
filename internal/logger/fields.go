package logger

import (
	"log/slog"
	"time"
)

// Standard field keys. Use them consistently so logs can be queried by key.
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeyRequestID = "request_id"

	// Client surface
	KeyService     = "service"     // Client kind: s3, sts, sim
	KeyOperation   = "operation"   // Original operation name (method)
	KeyCounterpart = "counterpart" // Counterpart name (method + suffix)
	KeyIdentifier  = "identifier"  // Operation identifier as found in metadata
	KeyReason      = "reason"      // Why an operation was skipped
	KeyCount       = "count"

	// Offloading
	KeyCallID   = "call_id"
	KeyLabel    = "label"
	KeyExecutor = "executor"
	KeyWorkers  = "workers"
	KeyWaitMs   = "wait_ms"

	// AWS
	KeyRegion    = "region"
	KeyEndpoint  = "endpoint"
	KeyErrorCode = "error_code"

	// Generic
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyPath       = "path"
	KeyPort       = "port"
)

// Service returns an attribute for the client kind.
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// Operation returns an attribute for an operation name.
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Counterpart returns an attribute for a counterpart name.
func Counterpart(name string) slog.Attr {
	return slog.String(KeyCounterpart, name)
}

// CallID returns an attribute for an offloaded call identifier.
func CallID(id string) slog.Attr {
	return slog.String(KeyCallID, id)
}

// DurationMs returns an attribute for a duration in milliseconds.
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}

// Err returns an attribute for an error; nil errors produce an empty attribute
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
