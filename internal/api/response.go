// internal/api/response.go
package api

import (
	"encoding/json"
	"net/http"

	apperrors "hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"
)

type ErrorResponse struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err to a status and the error envelope. Errors that are not
// StandardErrors are reported as INTERNAL_ERROR without their text.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	requestID := r.Header.Get(requestIDHeader)

	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		log.Error("unhandled error", map[string]interface{}{"error": err, "request_id": requestID, "path": r.URL.Path})
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Status:    "error",
			ErrorCode: string(apperrors.ErrCodeInternal),
			Message:   "internal server error",
			RequestID: requestID,
		})
		return
	}

	status := apperrors.HTTPStatus(stdErr.Code)
	fields := map[string]interface{}{
		"errorCode":  string(stdErr.Code),
		"details":    stdErr.Details,
		"request_id": requestID,
		"status":     status,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields)
	} else {
		log.Warn("request rejected", fields)
	}

	writeJSON(w, status, ErrorResponse{
		Status:    "error",
		ErrorCode: string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		RequestID: requestID,
	})
}
