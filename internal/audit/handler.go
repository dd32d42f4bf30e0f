package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/gym-management/internal"
	auditmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/gym-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) ([]auditmodel.Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// List serves GET /audit-logs?entity_type=&entity_id=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{EntityType: q.Get("entity_type")}

	if raw := q.Get("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleError(w, r, internal.NewValidationFieldError("entity_id", "entity_id must be a positive integer", internal.ErrCodeValidationFailed))
			return
		}
		filter.EntityID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleError(w, r, internal.NewValidationFieldError("limit", "limit must be an integer", internal.ErrCodeValidationFailed))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entries)
}
