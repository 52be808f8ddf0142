package cloudsync

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Pull(ctx context.Context) (*Report, error)
	PullTable(ctx context.Context, name string) (*Report, error)
	Push(ctx context.Context) (*Report, error)
	Status() Status
}

type StatusResponse struct {
	Status
	Pushed     int64 `json:"pushed"`
	PushFailed int64 `json:"push_failed"`
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Pusher  *Pusher
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, pusher *Pusher) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Pusher:      pusher,
	}
}

// Pull runs a full pull. Per-table failures are reported in the body with
// a 200; only a cancelled run is an error.
func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Pull(context.WithoutCancel(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) PullTable(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.PullTable(context.WithoutCancel(r.Context()), chi.URLParam(r, "table"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

// Push runs a full push; a push already in progress answers 409.
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Push(context.WithoutCancel(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: h.Service.Status()}
	if h.Pusher != nil {
		resp.Pushed, resp.PushFailed = h.Pusher.Stats()
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
