package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/internal/telemetry"
	"github.com/marmos91/awsasync/pkg/augment"
	"github.com/marmos91/awsasync/pkg/awsclient"
	"github.com/marmos91/awsasync/pkg/offload"
)

// MaxRequestBody caps the size of an invoke request body.
const MaxRequestBody = 1 << 20

// HeaderCallID carries the ID of the offloaded call in invoke responses.
const HeaderCallID = "X-Call-ID"

// Response is the envelope of health responses.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ServiceInfo describes one exposed service.
type ServiceInfo struct {
	Name       string `json:"name"`
	Client     string `json:"client"`
	Operations int    `json:"operations"`
	Skipped    int    `json:"skipped"`
}

// OperationInfo describes one installed counterpart.
type OperationInfo struct {
	Name        string `json:"name"`
	Method      string `json:"method"`
	Counterpart string `json:"counterpart"`
	Input       string `json:"input,omitempty"`
}

// OperationList is the body of GET /api/v1/services/{service}/operations.
type OperationList struct {
	Service    string            `json:"service"`
	Operations []OperationInfo   `json:"operations"`
	Skipped    []augment.Skipped `json:"skipped,omitempty"`
}

// Handler serves the gateway endpoints.
type Handler struct {
	clients        map[string]*augment.Client[any]
	requestTimeout time.Duration
	metrics        Metrics
	startTime      time.Time
}

// NewHandler creates the gateway handlers for clients, keyed by service name.
func NewHandler(clients map[string]*augment.Client[any], requestTimeout time.Duration, m Metrics) *Handler {
	return &Handler{
		clients:        clients,
		requestTimeout: requestTimeout,
		metrics:        m,
		startTime:      time.Now(),
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSON(w, http.StatusOK, Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"service":    "awsasync",
			"services":   len(h.clients),
			"started_at": h.startTime.UTC().Format(time.RFC3339),
			"uptime":     uptime.Round(time.Second).String(),
		},
	})
}

// ListServices handles GET /api/v1/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.clients))
	for name := range h.clients {
		names = append(names, name)
	}
	slices.Sort(names)

	claims := ClaimsFromContext(r.Context())
	infos := make([]ServiceInfo, 0, len(names))
	for _, name := range names {
		if claims != nil && !claims.Allows(name) {
			continue
		}
		c := h.clients[name]
		infos = append(infos, ServiceInfo{
			Name:       name,
			Client:     fmt.Sprintf("%T", c.Sync()),
			Operations: len(c.Operations()),
			Skipped:    len(c.Skipped()),
		})
	}
	WriteJSON(w, http.StatusOK, infos)
}

// ListOperations handles GET /api/v1/services/{service}/operations.
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	client, ok := h.client(w, r, service)
	if !ok {
		return
	}

	ops := client.Operations()
	list := OperationList{
		Service:    service,
		Operations: make([]OperationInfo, 0, len(ops)),
		Skipped:    client.Skipped(),
	}
	for _, op := range ops {
		info := OperationInfo{Name: op.Name, Method: op.Method, Counterpart: op.Counterpart}
		if t, ok := awsclient.InputType(op); ok {
			info.Input = t.Elem().Name()
		}
		list.Operations = append(list.Operations, info)
	}
	WriteJSON(w, http.StatusOK, list)
}

// Invoke handles POST /api/v1/services/{service}/operations/{operation}.
//
// The counterpart is awaited with the request context bounded by the
// configured request timeout; the first result is written as JSON.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	operation := chi.URLParam(r, "operation")

	client, ok := h.client(w, r, service)
	if !ok {
		return
	}

	cp, ok := client.Find(operation)
	if !ok {
		NotFound(w, fmt.Sprintf("service %q has no operation %q", service, operation))
		return
	}

	if h.metrics != nil {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		w = ww
		defer func() {
			h.metrics.ObserveInvoke(service, cp.Name(), ww.Status(), time.Since(start))
		}()
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBody))
	if err != nil {
		BadRequest(w, fmt.Sprintf("failed to read request body: %v", err))
		return
	}

	requestID := middleware.GetReqID(r.Context())
	ctx, span := telemetry.StartGatewaySpan(r.Context(), service, cp.Name(), telemetry.HTTPRequestID(requestID))
	defer span.End()

	lc := logger.NewLogContext(requestID).
		WithService(service).
		WithOperation(cp.Name()).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	args, err := awsclient.DecodeArgs(ctx, cp.Operation(), body)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	future := cp.Call(args...)
	w.Header().Set(HeaderCallID, future.ID())

	results, err := future.Await(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		writeInvokeError(ctx, w, err)
		return
	}

	logger.DebugCtx(ctx, "Gateway invoke completed", logger.KeyCallID, future.ID(),
		logger.KeyDurationMs, lc.DurationMs())

	if len(results) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, results[0])
}

// client resolves service, writing the 404 or 403 problem when it cannot be used.
func (h *Handler) client(w http.ResponseWriter, r *http.Request, service string) (*augment.Client[any], bool) {
	client, ok := h.clients[service]
	if !ok {
		NotFound(w, fmt.Sprintf("unknown service %q", service))
		return nil, false
	}
	if claims := ClaimsFromContext(r.Context()); claims != nil && !claims.Allows(service) {
		Forbidden(w, fmt.Sprintf("token is not valid for service %q", service))
		return nil, false
	}
	return client, true
}

// writeInvokeError maps an awaited error to a problem response.
func writeInvokeError(ctx context.Context, w http.ResponseWriter, err error) {
	var panicErr *offload.PanicError

	switch {
	case errors.Is(err, offload.ErrBadArguments):
		BadRequest(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(w, "operation did not complete before the request timeout")
	case errors.As(err, &panicErr):
		logger.ErrorCtx(ctx, "Gateway operation panicked", logger.Err(err))
		InternalServerError(w, "operation panicked")
	default:
		if code, msg, ok := awsclient.APIError(err); ok {
			telemetry.SetAttributes(ctx, telemetry.AWSErrorCode(code))
			logger.DebugCtx(ctx, "Gateway operation failed", logger.KeyErrorCode, code, logger.Err(err))
			BadGateway(w, code, msg)
			return
		}
		logger.DebugCtx(ctx, "Gateway operation failed", logger.Err(err))
		InternalServerError(w, err.Error())
	}
}
