package script

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Script, error)
	Get(ctx context.Context, id string) (*Script, error)
	Save(ctx context.Context, id string, dto SaveScriptDTO) (*Script, error)
	Reorder(ctx context.Context, dto ReorderDTO) ([]*Script, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

// ListScripts handles GET /scripts?categoria=
func (h *Handler) ListScripts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{StoreID: q.Get("loja_id"), Category: q.Get("categoria")}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		filter.StoreID = caller.StoreID
	}

	scripts, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ScriptsResponse{Scripts: scripts})
}

func (h *Handler) GetScript(w http.ResponseWriter, r *http.Request) {
	sc, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) CreateScript(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateScript(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) ReorderScripts(w http.ResponseWriter, r *http.Request) {
	var dto ReorderDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	scripts, err := h.Service.Reorder(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ScriptsResponse{Scripts: scripts})
}

func (h *Handler) DeleteScript(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	var dto SaveScriptDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.StoreID != "" {
		dto.StoreID = caller.StoreID
	}

	sc, err := h.Service.Save(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, status, sc)
}
