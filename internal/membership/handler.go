package membership

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/transport"
)

// ActionAuthorizer checks the permission a specific lifecycle action needs.
type ActionAuthorizer interface {
	Authorize(ctx context.Context, id *identity.Identity, required string) (auth.Decision, error)
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	Authorizer ActionAuthorizer
}

func NewHandler(svc ServiceAPI, authorizer ActionAuthorizer, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Authorizer:  authorizer,
	}
}

// Create handles POST /memberships
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateMembershipDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	m, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

// Get handles GET /memberships/{membershipID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "membershipID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	m, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

// ListByMember handles GET /members/{memberID}/memberships
func (h *Handler) ListByMember(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "memberID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	list, err := h.Service.ListByMember(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

// Holds handles GET /memberships/{membershipID}/holds
func (h *Handler) Holds(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "membershipID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	holds, err := h.Service.Holds(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, holds)
}

// Lifecycle handles POST /memberships/{membershipID}/lifecycle. Rejections
// are answered as {success: false, message} with the error's status.
func (h *Handler) Lifecycle(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "membershipID")
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}
	var dto LifecycleDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.lifecycleError(w, r, err)
		return
	}

	var required string
	switch strings.ToLower(strings.TrimSpace(dto.Action)) {
	case ActionHold:
		required = auth.PermHoldMemberships
	case ActionResume:
		required = auth.PermResumeMemberships
	default:
		h.lifecycleError(w, r, ErrUnknownAction.AppError())
		return
	}

	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.lifecycleError(w, r, internal.ErrUnauthenticated)
		return
	}
	decision, err := h.Authorizer.Authorize(r.Context(), caller, required)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}
	if !decision.Allowed {
		h.Logger.WarnContext(r.Context(), "lifecycle action denied", "user_id", caller.UserID, "action", dto.Action, "required", required)
		h.lifecycleError(w, r, internal.ErrForbidden)
		return
	}

	result, err := h.Service.Transition(r.Context(), id, dto)
	if err != nil {
		h.lifecycleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) lifecycleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok || appErr.StatusCode >= http.StatusInternalServerError {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, appErr.StatusCode, LifecycleResult{Success: false, Message: appErr.GetDetailedMessage()})
}

// Plans handles GET /plans
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Service.Plans(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, plans)
}

// CreatePlan handles POST /plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var dto CreatePlanDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	plan, err := h.Service.CreatePlan(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, plan)
}
