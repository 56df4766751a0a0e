package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
)

func TestWriteError_MapsStatusAndBody(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{errors.NewValidationError("No images supplied", "images is empty"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{errors.NewNotFoundError("order", "999999"), http.StatusNotFound, "NOT_FOUND"},
		{errors.NewUpstreamError("Failed to fetch", nil), http.StatusBadGateway, "UPSTREAM_FAILED"},
		{assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithRequestID(req.Context(), "req-1"))
			rr := httptest.NewRecorder()

			WriteError(rr, req, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestWriteAttachment(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAttachment(rr, "orden_servicio.pdf", "application/pdf", []byte("%PDF-1.3"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="orden_servicio.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "8", rr.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.3", rr.Body.String())
}

func TestInstrument_AssignsRequestID(t *testing.T) {
	var seen string
	h := Instrument("/x", logger.NewTestLogger(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "caller-id", seen)
	assert.Equal(t, "caller-id", rr.Header().Get(RequestIDHeader))
}

func TestInstrument_RecoversPanics(t *testing.T) {
	h := Instrument("/boom", logger.NewTestLogger(t), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map")
	}))

	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
}

func TestMethodGuard(t *testing.T) {
	h := MethodGuard(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))

	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestInstrument_LogsServerErrorsWithRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.NewZapAdapter(zap.New(core))

	h := Instrument("/generate_pdf_orden", log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, errors.NewUpstreamError("PDF renderer failed", nil))
	}))

	req := httptest.NewRequest(http.MethodGet, "/generate_pdf_orden?clienteId=7", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	failed := logs.FilterMessage("Request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "req-42", failed[0].ContextMap()["requestId"])
	assert.Equal(t, "/generate_pdf_orden", failed[0].ContextMap()["route"])
	assert.Equal(t, string(errors.ErrCodeUpstreamFailed), failed[0].ContextMap()["code"])
	assert.Equal(t, 1, logs.FilterMessage("HTTP request").Len())
}

func TestWriteError_ClientErrorsAreNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.IntoContext(context.Background(), logger.NewZapAdapter(zap.New(core)))
	req := httptest.NewRequest(http.MethodPost, "/send_orden/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	WriteError(rec, req, errors.NewValidationError("Invalid email", "email"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, logs.Len())
}
