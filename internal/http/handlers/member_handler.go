package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doriangym/contratos-backend/internal/domain"
	"github.com/doriangym/contratos-backend/internal/http/response"
	"github.com/doriangym/contratos-backend/pkg/logger"
)

// Submit handles the public registration form. POST /submit
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON in request body")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		if errors.Is(err, domain.ErrInvalidPlan) {
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidPlan)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	member, err := h.members.Register(r.Context(), &req)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to register member", "error", err, "cedula", req.Cedula)
		writeServiceError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Member registered",
		"member_id", member.ID,
		"cedula", member.Cedula,
		"plan", member.Plan,
	)

	writeJSON(w, http.StatusCreated, member)
}

// StatusImage serves the approval image a QR scan lands on.
// GET /member/{id}/status and GET /member/{id}/status-image
func (h *Handlers) StatusImage(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	assetPath, err := h.members.StatusImage(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, assetPath)
}

// View serves the tokened status view behind RequireQRViewToken.
// GET /member/{id}/view?token=...
func (h *Handlers) View(w http.ResponseWriter, r *http.Request) {
	h.StatusImage(w, r)
}
