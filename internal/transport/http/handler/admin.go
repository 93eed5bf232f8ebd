package handler

import (
	"net/http"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/retention"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/logger"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/transport/http/middleware"
)

// AdminHandler serves operator endpoints.
type AdminHandler struct {
	retention retention.Service
}

func NewAdminHandler(svc retention.Service) *AdminHandler {
	return &AdminHandler{retention: svc}
}

// RunRetention purges expired ledger rows on demand.
func (h *AdminHandler) RunRetention(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		logger.Log.WithField("operator", claims.Subject).Info("manual retention run")
	}
	res, err := h.retention.Purge(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, RetentionEnvelope{Success: false, Result: res, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, RetentionEnvelope{Success: true, Result: res})
}
