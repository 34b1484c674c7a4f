package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/doriangym/contratos-backend/internal/domain"
	"github.com/doriangym/contratos-backend/internal/http/response"
	"github.com/doriangym/contratos-backend/pkg/logger"
)

// Login authenticates an admin and issues an access token. POST /admin/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON in request body")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	resp, err := h.admins.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid credentials")
			return
		}
		logger.ErrorContext(r.Context(), "Admin login failed", "error", err, "username", req.Username)
		response.InternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListMembers returns the member roster for the admin panel. GET /members
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	members, err := h.members.List(r.Context(), limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list members", "error", err)
		response.InternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
		"limit":   limit,
		"offset":  offset,
	})
}

// GetMember returns a single record. GET /member/{id}
func (h *Handlers) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	member, err := h.members.Get(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to get member", "error", err, "member_id", id)
		response.InternalError(w, "Internal server error")
		return
	}
	if member == nil {
		response.NotFound(w, "Member not found")
		return
	}

	writeJSON(w, http.StatusOK, member)
}

// UpdateMember applies a full edit and recomputes the derived fields.
// PUT /member/{id}
func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	var req domain.UpdateRequest
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

	member, err := h.members.Update(r.Context(), id, &req)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to update member", "error", err, "member_id", id)
		writeServiceError(w, err)
		return
	}
	if member == nil {
		response.NotFound(w, "Member not found")
		return
	}

	logger.InfoContext(r.Context(), "Member updated", "member_id", id, "plan", member.Plan)
	writeJSON(w, http.StatusOK, member)
}

// UpdateEstado toggles the stored status without touching any other field.
// PUT /member/{id}/status
func (h *Handlers) UpdateEstado(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	var req domain.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON in request body")
		return
	}
	if _, ok := domain.ParseStatus(req.Estado); !ok {
		response.BadRequest(w, "estado must be 'activo' or 'inactivo'")
		return
	}

	member, err := h.members.UpdateEstado(r.Context(), id, req.Estado)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to update member estado", "error", err, "member_id", id)
		writeServiceError(w, err)
		return
	}
	if member == nil {
		response.NotFound(w, "Member not found")
		return
	}

	logger.InfoContext(r.Context(), "Member estado changed", "member_id", id, "estado", member.Estado)
	writeJSON(w, http.StatusOK, member)
}

// DeleteMember removes the record and its stored blobs. DELETE /member/{id}
func (h *Handlers) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	if err := h.members.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "Member not found")
			return
		}
		logger.ErrorContext(r.Context(), "Failed to delete member", "error", err, "member_id", id)
		response.InternalError(w, "Internal server error")
		return
	}

	logger.InfoContext(r.Context(), "Member deleted", "member_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member deleted"})
}

// DownloadQR streams the member's QR as a PNG attachment. GET /member/{id}/qr
func (h *Handlers) DownloadQR(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	png, err := h.members.QRImage(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="qr-%d.png"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// QRViewURL issues a short-lived tokened link to the status view.
// GET /member/{id}/qr-url
func (h *Handlers) QRViewURL(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	url, err := h.members.ViewURL(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":        url,
		"expires_in": int64(h.config.Auth.QRTokenTTL.Seconds()),
	})
}

// DownloadContract renders and streams the member's PDF contract.
// GET /member/{id}/contract
func (h *Handlers) DownloadContract(w http.ResponseWriter, r *http.Request) {
	id, err := memberID(r)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	pdf, member, err := h.members.Contract(r.Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrMissingArtifact) {
			logger.ErrorContext(r.Context(), "Failed to generate contract", "error", err, "member_id", id)
		}
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, member.Cedula))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
