package payment

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal/transport"
)

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

// Modes handles GET /payment-modes
func (h *Handler) Modes(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.Service.Modes())
}

// Get handles GET /payments/{paymentID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "paymentID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// ListByMembership handles GET /memberships/{membershipID}/payments
func (h *Handler) ListByMembership(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "membershipID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	payments, err := h.Service.ListByMembership(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, payments)
}

// Create handles POST /payments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreatePaymentDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	p, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

// Collect handles POST /payments/{paymentID}/collect
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "paymentID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	var dto CollectDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	p, err := h.Service.Collect(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// ChangeMode handles PUT /payments/{paymentID}/mode
func (h *Handler) ChangeMode(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "paymentID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	var dto ChangeModeDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	p, err := h.Service.ChangeMode(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}
