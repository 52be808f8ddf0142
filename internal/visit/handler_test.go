package visit_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/frahmantamala/dealership-crm/internal/visit"
	visitSqlite "github.com/frahmantamala/dealership-crm/internal/visit/sqlite"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Visit Handler", func() {
	var router chi.Router

	BeforeEach(func() {
		service := visit.NewService(visitSqlite.NewVisitRepository(openDB()), nil, quietLogger)
		handler := visit.NewHandler(transport.NewBaseHandler(quietLogger), service)
		caller := &auth.User{Username: "ana", Role: coreuser.RoleSDR, StoreID: "loja-a"}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Get("/visits", handler.ListVisits)
		router.Post("/visits", handler.CreateVisit)
		router.Get("/visits/{id}", handler.GetVisit)
		router.Put("/visits/{id}/status", handler.UpdateVisitStatus)
		router.Put("/visits/{id}/seller", handler.AssignSeller)
		router.Delete("/visits/{id}", handler.DeleteVisit)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
		return rec
	}

	It("creates visits in the caller's store and moves them along", func() {
		rec := do(http.MethodPost, "/visits", map[string]string{"cliente": "Maria", "loja_id": "loja-z"})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var created visit.Visit
		Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())
		Expect(created.StoreID).To(Equal("loja-a"))

		Expect(do(http.MethodPut, "/visits/"+created.ID+"/status", map[string]string{"status": "Agendado"}).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPut, "/visits/"+created.ID+"/seller", map[string]string{"vendedor": "Pedro"}).Code).To(Equal(http.StatusOK))

		rec = do(http.MethodGet, "/visits?status=Agendado&vendedor=Pedro", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list visit.VisitsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
		Expect(list.Visits).To(HaveLen(1))

		Expect(do(http.MethodDelete, "/visits/"+created.ID, nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, "/visits/"+created.ID, nil).Code).To(Equal(http.StatusNotFound))
	})

	It("rejects bad dates", func() {
		Expect(do(http.MethodGet, "/visits?from=yesterday", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/visits?from=2026-03-01&to=2026-03-31T00:00:00Z", nil).Code).To(Equal(http.StatusOK))
	})
})
