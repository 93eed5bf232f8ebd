package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/retention"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

// MessageEnvelope is the health-check response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ResultEnvelope wraps every identity-flow response.
type ResultEnvelope struct {
	Success           bool            `json:"success"`
	VerificationToken string          `json:"verificationToken,omitempty"`
	User              *domain.Account `json:"user,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// RetentionEnvelope wraps the admin purge response.
type RetentionEnvelope struct {
	Success bool              `json:"success"`
	Result  *retention.Result `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ResultEnvelope{Success: false, Error: msg})
}
