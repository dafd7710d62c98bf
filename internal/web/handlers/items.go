package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/models"
)

// BrowseItems returns the first page of the item feed.
// GET /api/items
func (h *Handler) BrowseItems(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, h.items.BrowseItems(r.Context()))
}

// SearchItems returns one page of items matching the query parameters
// status, zone, q, page and pageSize.
// GET /api/items/search
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := models.ParseStatus(q.Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	zone, err := models.ParseZone(q.Get("zone"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := intParam(q.Get("page"), "page", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pageSize, err := intParam(q.Get("pageSize"), "pageSize", models.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	jsonOK(w, http.StatusOK, h.items.SearchItems(r.Context(), status, zone, q.Get("q"), page, pageSize))
}

// GetItem returns a single item.
// GET /api/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, item)
}

// SimilarItems suggests found items that may match the given item.
// GET /api/items/{id}/similar
func (h *Handler) SimilarItems(w http.ResponseWriter, r *http.Request) {
	matches, err := h.items.FindSimilar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, matches)
}

// CreateLostItem files a lost item report.
// POST /api/items/lost
func (h *Handler) CreateLostItem(w http.ResponseWriter, r *http.Request) {
	var req models.LostReport
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.items.CreateLostItem(r.Context(), req, callerID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusCreated, item)
}

// CreateFoundItem files a found item report.
// POST /api/items/found
func (h *Handler) CreateFoundItem(w http.ResponseWriter, r *http.Request) {
	var req models.FoundReport
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.items.CreateFoundItem(r.Context(), req, callerID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusCreated, item)
}

// UpdateItemStatus changes the status of the caller's own report.
// PATCH /api/items/{id}/status
func (h *Handler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.items.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req, callerID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, item)
}

func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrValidation, name+" must be an integer")
	}
	return n, nil
}
