package setting_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	"github.com/frahmantamala/dealership-crm/internal/setting"
	settingSqlite "github.com/frahmantamala/dealership-crm/internal/setting/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Setting Handler", func() {
	var router chi.Router

	BeforeEach(func() {
		service := setting.NewService(settingSqlite.NewSettingRepository(openDB()), nil, quietLogger)
		handler := setting.NewHandler(transport.NewBaseHandler(quietLogger), service)
		caller := &auth.User{Username: "chefe", Role: coreuser.RoleAdmin, StoreID: "loja-a"}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Get("/settings", handler.ListSettings)
		router.Put("/settings", handler.PutSettings)
		router.Get("/settings/{key}", handler.GetSetting)
		router.Put("/settings/{key}", handler.PutSetting)
		router.Delete("/settings/{key}", handler.DeleteSetting)
		router.Get("/config", handler.ListConfig)
		router.Put("/config/{key}", handler.PutConfig)
		router.Get("/config/{key}", handler.GetConfig)
		router.Delete("/config/{key}", handler.DeleteConfig)
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

	It("round-trips a setting", func() {
		Expect(do(http.MethodGet, "/settings/ai_prompt", nil).Code).To(Equal(http.StatusNotFound))

		rec := do(http.MethodPut, "/settings/ai_prompt", map[string]string{"value": "seja cordial", "category": "ai"})
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = do(http.MethodGet, "/settings?category=ai", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list setting.SettingsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
		Expect(list.Settings).To(HaveLen(1))
		Expect(list.Settings[0].Value).To(Equal("seja cordial"))

		Expect(do(http.MethodDelete, "/settings/ai_prompt", nil).Code).To(Equal(http.StatusNoContent))
	})

	It("writes settings in bulk", func() {
		rec := do(http.MethodPut, "/settings", map[string]interface{}{
			"settings": []map[string]string{{"key": "a", "value": "1"}, {"key": "b", "value": "2"}},
		})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPut, "/settings", map[string]interface{}{"settings": []interface{}{}}).Code).To(Equal(http.StatusBadRequest))
	})

	It("stamps config with the caller's store", func() {
		rec := do(http.MethodPut, "/config/horario", map[string]string{"valor": "9-18"})
		Expect(rec.Code).To(Equal(http.StatusOK))
		var entry setting.ConfigEntry
		Expect(json.Unmarshal(rec.Body.Bytes(), &entry)).To(Succeed())
		Expect(entry.StoreID).To(Equal("loja-a"))

		rec = do(http.MethodGet, "/config", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("horario"))
	})
})
