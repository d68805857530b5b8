package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notifica-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreatedEnvelope wraps creation responses.
type CreatedEnvelope struct {
	ID           string               `json:"id"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

// CertificateEnvelope wraps certificate-download responses.
type CertificateEnvelope struct {
	URL string `json:"url"`
}

// ChainEnvelope wraps audit chain verification responses. CorruptIndex is -1
// when the chain is intact.
type ChainEnvelope struct {
	Intact       bool `json:"intact"`
	CorruptIndex int  `json:"corrupt_index"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes. State
// violations come back as 409 so clients can distinguish an illegal
// transition from malformed input.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrStateViolation), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
