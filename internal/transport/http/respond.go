package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	derrors "usemy/pkg/domain-errors"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates a coded domain error into the JSON error envelope.
// Plain errors come out as internal; causes are never leaked to the client.
func writeError(w http.ResponseWriter, err error) {
	var de *derrors.Error
	if errors.As(err, &de) {
		writeJSON(w, statusFromCode(de.Code), errorEnvelope{
			Error:   string(de.Code),
			Message: de.Message,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{
		Error:   string(derrors.CodeInternal),
		Message: "internal error",
	})
}

func statusFromCode(code derrors.Code) int {
	switch code {
	case derrors.CodeInvalidInput:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict:
		return http.StatusConflict
	case derrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
