package portal

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, storeID string) ([]*Portal, error)
	Get(ctx context.Context, id string) (*Portal, error)
	Save(ctx context.Context, id string, dto SavePortalDTO) (*Portal, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

func (h *Handler) ListPortals(w http.ResponseWriter, r *http.Request) {
	portals, err := h.Service.List(r.Context(), storeOf(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PortalsResponse{Portals: portals})
}

func (h *Handler) GetPortal(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdatePortal(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) DeletePortal(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	var dto SavePortalDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if store := storeOf(r); store != "" {
		dto.StoreID = store
	}

	p, err := h.Service.Save(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, status, p)
}

func storeOf(r *http.Request) string {
	if caller, ok := auth.UserFromContext(r.Context()); ok {
		return caller.StoreID
	}
	return r.URL.Query().Get("loja_id")
}
