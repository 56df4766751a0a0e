// Package http holds the response and middleware helpers shared by the
// document API and the health server.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code"`
	Details   interface{}            `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorResponse with the status of its code.
// Server-side failures are logged through the request logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.AsStandard(err)
	status := errors.HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), nil).WithError(err).Error("Request failed", map[string]interface{}{
			"code":     string(stdErr.Code),
			"metadata": stdErr.Metadata,
		})
	}
	resp := ErrorResponse{
		Error:     stdErr.Message,
		Code:      string(stdErr.Code),
		Metadata:  stdErr.Metadata,
		RequestID: RequestIDFromContext(r.Context()),
	}
	if stdErr.Details != "" {
		resp.Details = stdErr.Details
	}
	WriteJSON(w, status, resp)
}

// WriteValidationErrors reports schema violations as VALIDATION_FAILED.
func WriteValidationErrors(w http.ResponseWriter, r *http.Request, details interface{}) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     "Request body failed validation",
		Code:      string(errors.ErrCodeValidationFailed),
		Details:   details,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

// WriteAttachment streams data as a download named fileName.
func WriteAttachment(w http.ResponseWriter, fileName, contentType string, data []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
