package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UserProfile returns a campus member's profile.
// GET /api/users/{userId}
func (h *Handler) UserProfile(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, h.users.Profile(chi.URLParam(r, "userId")))
}

// UserReports lists the reports a user has filed.
// GET /api/users/{userId}/reports
func (h *Handler) UserReports(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, h.users.Reports(r.Context(), chi.URLParam(r, "userId")))
}

// UserClaims lists the claims a user has submitted.
// GET /api/users/{userId}/claims
func (h *Handler) UserClaims(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.Claims(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, list)
}

// --- Admin ---

// AdminDashboard returns moderation KPIs.
// GET /api/admin/dashboard
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, h.admin.Dashboard())
}

// AdminUsers lists campus members and their roles.
// GET /api/admin/users
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, h.admin.Users())
}

// FlaggedReports lists items awaiting moderator review.
// GET /api/admin/reports/flagged
func (h *Handler) FlaggedReports(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, h.admin.FlaggedReports(r.Context()))
}

// PendingClaims lists claims awaiting a decision.
// GET /api/admin/claims/pending
func (h *Handler) PendingClaims(w http.ResponseWriter, r *http.Request) {
	list, err := h.admin.PendingClaims(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, list)
}
