package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/identity"
	"github.com/frahmantamala/gym-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Cookies SessionCookies
}

func NewHandler(svc ServiceAPI, cookies SessionCookies, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Cookies:     cookies,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.WarnContext(r.Context(), "authentication failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.Cookies.SetCookie(w, result.Token, result.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.Cookies.TokenFromRequest(r)
	if token != "" {
		if err := h.Service.Logout(r.Context(), token); err != nil {
			h.HandleError(w, r, err)
			return
		}
	}
	h.Cookies.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.Service.LogoutAll(r.Context(), id); err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.Cookies.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	profile, err := h.Service.Me(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var dto ChangePasswordDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), id, dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	// every session was revoked, including this one
	h.Cookies.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var dto RequestCodeDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	expiresAt, err := h.Service.RequestCode(r.Context(), id, dto.Purpose)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"expires_at": expiresAt})
}

func (h *Handler) ConfirmCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var dto VerifyCodeDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	if err := h.Service.ConfirmCode(r.Context(), id, dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"verified": true})
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrUnauthenticated)
		return nil, false
	}
	return id, true
}

type RoleHandler struct {
	*transport.BaseHandler
	Service RoleServiceAPI
}

func NewRoleHandler(svc RoleServiceAPI, lg *slog.Logger) *RoleHandler {
	return &RoleHandler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Permissions lists the catalog grouped by module.
func (h *RoleHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	catalog := h.Service.Catalog()
	modules := catalog.Modules()
	out := make([]ModulePermissions, 0, len(modules))
	for _, m := range modules {
		out = append(out, ModulePermissions{Module: m, Permissions: catalog.PermissionsForModule(m)})
	}
	h.WriteJSON(w, http.StatusOK, out)
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto RoleDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	role, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *RoleHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := h.IDParam(r, "roleID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	var dto RolePermissionsDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	role, err := h.Service.SetPermissions(r.Context(), roleID, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roleID, err := h.IDParam(r, "roleID")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), roleID); err != nil {
		h.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
