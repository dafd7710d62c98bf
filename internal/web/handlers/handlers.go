// Package handlers exposes the lost-and-found services over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/internal/admin"
	"github.com/jredh-dev/lostfound/internal/claims"
	"github.com/jredh-dev/lostfound/internal/items"
	"github.com/jredh-dev/lostfound/internal/token"
	"github.com/jredh-dev/lostfound/internal/users"
	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/logger"
	"github.com/jredh-dev/lostfound/pkg/models"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	items  *items.Service
	claims *claims.Service
	users  *users.Service
	admin  *admin.Service
	tokens *token.Service
	log    *zap.Logger
}

// New creates a new Handler.
func New(
	itemService *items.Service,
	claimService *claims.Service,
	userService *users.Service,
	adminService *admin.Service,
	tokens *token.Service,
	log *zap.Logger,
) *Handler {
	return &Handler{
		items:  itemService,
		claims: claimService,
		users:  userService,
		admin:  adminService,
		tokens: tokens,
		log:    logger.OrNop(log).With(zap.String("component", "http")),
	}
}

// Routes mounts the API under r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(Identify(h.tokens, h.log))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.BrowseItems)
			r.Get("/search", h.SearchItems)
			r.Post("/lost", h.CreateLostItem)
			r.Post("/found", h.CreateFoundItem)
			r.Get("/{id}", h.GetItem)
			r.Get("/{id}/similar", h.SimilarItems)
			r.Patch("/{id}/status", h.UpdateItemStatus)
			r.Get("/{id}/claims", h.ListItemClaims)
			r.Post("/{id}/claims", h.SubmitClaim)
		})

		r.Patch("/claims/{claimId}/decision", h.ReviewClaim)

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Get("/", h.UserProfile)
			r.Get("/reports", h.UserReports)
			r.Get("/claims", h.UserClaims)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminMiddleware)
			r.Get("/dashboard", h.AdminDashboard)
			r.Get("/users", h.AdminUsers)
			r.Get("/reports/flagged", h.FlaggedReports)
			r.Get("/claims/pending", h.PendingClaims)
		})
	})
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, map[string]string{"status": "ok"})
}

func jsonOK(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError renders err as {"error": {code, message, status}}. Server-side
// failures are logged with the underlying cause.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err))
	}
	jsonOK(w, appErr.Status, map[string]*apperrors.Error{"error": appErr})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var enumErr *models.UnknownEnumValueError
		if errors.As(err, &enumErr) {
			return apperrors.Wrap(err, apperrors.ErrValidation, enumErr.Error())
		}
		return apperrors.Wrap(err, apperrors.ErrValidation, "malformed request body")
	}
	return nil
}
