package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/identity"
	"github.com/go-chi/chi/v5"
)

const healthTimeout = 2 * time.Second

// Invalidator drops cached reference data.
type Invalidator interface {
	Invalidate(ctx context.Context, companyID int64, kinds ...domain.Kind) error
}

// Pinger is a dependency probed by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AdminHandler serves cache invalidation and health.
type AdminHandler struct {
	cache  Invalidator
	checks map[string]Pinger
	logger *slog.Logger
}

// NewAdminHandler creates the handler. checks names each probed dependency.
func NewAdminHandler(cache Invalidator, checks map[string]Pinger, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{cache: cache, checks: checks, logger: logger}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/api/cache/company/{companyID}/invalidate", h.Invalidate)
}

// Invalidate drops the cache entries of one company. The optional kind query
// parameter restricts it to one data kind.
func (h *AdminHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	companyID, err := identity.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		Error(w, http.StatusBadRequest, errInvalidCompany)
		return
	}

	var kinds []domain.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := domain.ParseKind(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		kinds = append(kinds, kind)
	}

	if err := h.cache.Invalidate(r.Context(), companyID, kinds...); err != nil {
		h.logger.Error("Cache invalidation failed", "company_id", companyID, "error", err)
		Error(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.logger.Info("Cache invalidated", "company_id", companyID, "kinds", kinds)
	JSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Health reports the status of every probed dependency.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", "dependency", name, "error", err)
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	JSON(w, status, map[string]any{"status": overall, "dependencies": deps})
}
