package setting

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	All(ctx context.Context, category string) ([]*Setting, error)
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, key string, dto SetSettingDTO) (*Setting, error)
	SetMany(ctx context.Context, dto BulkSettingsDTO) ([]*Setting, error)
	Delete(ctx context.Context, key string) error
	AllConfig(ctx context.Context, storeID string) ([]*ConfigEntry, error)
	GetConfig(ctx context.Context, key string) (*ConfigEntry, error)
	SetConfig(ctx context.Context, key, value, storeID string) (*ConfigEntry, error)
	DeleteConfig(ctx context.Context, key string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.All(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SettingsResponse{Settings: settings})
}

func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.Service.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, setting)
}

func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	var dto SetSettingDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	setting, err := h.Service.Set(r.Context(), chi.URLParam(r, "key"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, setting)
}

func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var dto BulkSettingsDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	settings, err := h.Service.SetMany(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SettingsResponse{Settings: settings})
}

func (h *Handler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListConfig(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.AllConfig(r.Context(), callerStore(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ConfigResponse{Config: entries})
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.GetConfig(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var dto SetConfigDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	entry, err := h.Service.SetConfig(r.Context(), chi.URLParam(r, "key"), dto.Value, callerStore(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteConfig(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func callerStore(r *http.Request) string {
	if caller, ok := auth.UserFromContext(r.Context()); ok {
		return caller.StoreID
	}
	return ""
}
