package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/verification"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/pkg/validate"
)

// maxBodyBytes caps request bodies on the public identity routes.
const maxBodyBytes = 16 << 10

// VerificationHandler serves the OTP, signup and password reset endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req verification.RequestOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.svc.RequestOTP(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultEnvelope{Success: true})
}

func (h *VerificationHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verification.VerifyOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tok, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultEnvelope{Success: true, VerificationToken: tok})
}

func (h *VerificationHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req verification.SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	acct, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultEnvelope{Success: true, User: acct})
}

func (h *VerificationHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req verification.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultEnvelope{Success: true})
}

// decodeAndValidate writes a 400 and returns false when the body is not
// a well-formed instance of dst.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
