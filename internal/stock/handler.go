package stock

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, dto CreateItemDTO) (*Item, error)
	Update(ctx context.Context, id string, dto UpdateItemDTO) (*Item, error)
	SetPhotos(ctx context.Context, id string, photos []string) (*Item, error)
	Delete(ctx context.Context, id string) error
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

// ListStock handles GET /stock?status=&q=
func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		StoreID: q.Get("loja_id"),
		Status:  q.Get("status"),
		Search:  q.Get("q"),
	}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		filter.StoreID = caller.StoreID
	}

	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ItemsResponse{Items: items})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var dto CreateItemDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		dto.StoreID = caller.StoreID
	}

	item, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var dto UpdateItemDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	item, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) SetPhotos(w http.ResponseWriter, r *http.Request) {
	var dto SetPhotosDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	item, err := h.Service.SetPhotos(r.Context(), chi.URLParam(r, "id"), dto.Photos)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
