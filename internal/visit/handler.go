package visit

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Visit, error)
	Get(ctx context.Context, id string) (*Visit, error)
	Create(ctx context.Context, dto CreateVisitDTO) (*Visit, error)
	Update(ctx context.Context, id string, dto UpdateVisitDTO) (*Visit, error)
	UpdateStatus(ctx context.Context, id, status string) (*Visit, error)
	AssignSeller(ctx context.Context, id, seller string) (*Visit, error)
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

// ListVisits handles GET /visits?status=&vendedor=&from=&to=. Dates are
// RFC 3339 or YYYY-MM-DD.
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		StoreID: q.Get("loja_id"),
		Status:  q.Get("status"),
		Seller:  q.Get("vendedor"),
	}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		filter.StoreID = caller.StoreID
	}

	var err error
	if filter.From, err = parseDate(q.Get("from")); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	if filter.To, err = parseDate(q.Get("to")); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	visits, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, VisitsResponse{Visits: visits})
}

func (h *Handler) GetVisit(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var dto CreateVisitDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		dto.StoreID = caller.StoreID
	}

	v, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) UpdateVisit(w http.ResponseWriter, r *http.Request) {
	var dto UpdateVisitDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	v, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) UpdateVisitStatus(w http.ResponseWriter, r *http.Request) {
	var dto UpdateStatusDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	v, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), dto.Status)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) AssignSeller(w http.ResponseWriter, r *http.Request) {
	var dto AssignSellerDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	v, err := h.Service.AssignSeller(r.Context(), chi.URLParam(r, "id"), dto.Seller)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
