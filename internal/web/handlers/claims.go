package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/models"
)

// ListItemClaims lists the claims on an item.
// GET /api/items/{id}/claims
func (h *Handler) ListItemClaims(w http.ResponseWriter, r *http.Request) {
	list, err := h.claims.ListForItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, list)
}

// SubmitClaim files a claim on an item for the caller.
// POST /api/items/{id}/claims
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	claim, err := h.claims.Submit(r.Context(), chi.URLParam(r, "id"), req, callerID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusCreated, claim)
}

// ReviewClaim approves or rejects a claim. The decision is the status query
// parameter; the reviewer is the caller.
// PATCH /api/claims/{claimId}/decision?status=approved
func (h *Handler) ReviewClaim(w http.ResponseWriter, r *http.Request) {
	reviewer := callerID(r)
	if reviewer == "" {
		h.writeError(w, r, apperrors.Clone(apperrors.ErrUnauthenticated, ""))
		return
	}
	status, err := models.ParseClaimStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if status == "" {
		h.writeError(w, r, apperrors.Clone(apperrors.ErrValidation, "status is required"))
		return
	}
	claim, err := h.claims.Review(r.Context(), chi.URLParam(r, "claimId"), status, reviewer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, claim)
}
