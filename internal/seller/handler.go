package seller

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Seller, error)
	Get(ctx context.Context, id string) (*Seller, error)
	Create(ctx context.Context, dto CreateSellerDTO) (*Seller, error)
	Update(ctx context.Context, id string, dto UpdateSellerDTO) (*Seller, error)
	SetActive(ctx context.Context, id string, active bool) (*Seller, error)
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

// ListSellers handles GET /sellers?ativo=true
func (h *Handler) ListSellers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		StoreID:    q.Get("loja_id"),
		ActiveOnly: q.Get("ativo") == "true",
	}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		filter.StoreID = caller.StoreID
	}

	sellers, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SellersResponse{Sellers: sellers})
}

func (h *Handler) GetSeller(w http.ResponseWriter, r *http.Request) {
	seller, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, seller)
}

func (h *Handler) CreateSeller(w http.ResponseWriter, r *http.Request) {
	var dto CreateSellerDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		dto.StoreID = caller.StoreID
	}

	seller, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, seller)
}

func (h *Handler) UpdateSeller(w http.ResponseWriter, r *http.Request) {
	var dto UpdateSellerDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	seller, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, seller)
}

func (h *Handler) SetSellerActive(w http.ResponseWriter, r *http.Request) {
	var dto SetActiveDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	seller, err := h.Service.SetActive(r.Context(), chi.URLParam(r, "id"), dto.Active)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, seller)
}

func (h *Handler) DeleteSeller(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
