package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentgate/agentgate/pkg/clog"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	statusCode int
	data       any
	message    string
	err        error
}

func contextWithResponseReceiver(ctx context.Context, rr *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, rr)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	if rr, ok := ctx.Value(responseReceiverKey{}).(*responseReceiver); ok {
		return rr
	}
	return nil
}

// SetJSONResponse records a 200 success envelope for the current request.
func SetJSONResponse(ctx context.Context, data any, message string) {
	setResponse(ctx, http.StatusOK, data, message)
}

// SetJSONCreated records a 201 success envelope for the current request.
func SetJSONCreated(ctx context.Context, data any, message string) {
	setResponse(ctx, http.StatusCreated, data, message)
}

func setResponse(ctx context.Context, status int, data any, message string) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.statusCode = status
		rr.data = data
		rr.message = message
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewEnvelopeChiMiddleware writes the `{status, data, message}` /
// `{status: "error", error: {...}}` envelope recorded by the handler.
// Handlers that write to the ResponseWriter directly (health) simply record
// nothing.
func NewEnvelopeChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			writeEnvelope(ctx, rw, rr)
		})
	}
}

type successEnvelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeEnvelope(ctx context.Context, rw http.ResponseWriter, rr *responseReceiver) {
	if rr.err != nil {
		writeJSONError(ctx, rw, asError(ctx, rr.err))
		return
	}
	if rr.statusCode == 0 {
		// Handler wrote its own response.
		return
	}
	writeJSON(ctx, rw, rr.statusCode, successEnvelope{
		Status:  "success",
		Data:    rr.data,
		Message: rr.message,
	})
}

func asError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return NewError(Canceled, "connection closed", err)
	}
	clog.AddError(ctx, err)
	var cErr *Error
	if errors.As(err, &cErr) {
		if cErr.Stack != "" {
			clog.AddStack(ctx, cErr.Stack)
		}
		return cErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(DeadlineExceeded, "request timed out", err)
	}
	return NewError(Unknown, "unknown error", err)
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, statusCode int, response any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(response); err != nil {
		writeJSONError(ctx, rw, NewError(Internal, "server error", err))
		return
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(statusCode)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}

func writeJSONError(ctx context.Context, rw http.ResponseWriter, origErr *Error) {
	errObj := map[string]any{
		"code":    origErr.apiCode(),
		"message": origErr.Msg,
	}
	for k, v := range origErr.Ctx {
		errObj[k] = v
	}
	body := map[string]any{
		"status": "error",
		"error":  errObj,
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(body); err != nil {
		buf = bytes.NewBufferString(`{"status":"error","error":{"code":"SERVICE_UNAVAILABLE","message":"server error"}}`)
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(origErr.Code.HTTPCode())
	if _, err := rw.Write(buf.Bytes()); err != nil {
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
}
