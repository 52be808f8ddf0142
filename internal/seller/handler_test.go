package seller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	sellerDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/seller"
	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	"github.com/frahmantamala/dealership-crm/internal/seller"
	sellerSqlite "github.com/frahmantamala/dealership-crm/internal/seller/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Seller Handler Integration", func() {
	var router chi.Router

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&sellerDatamodel.Vendedor{})).To(Succeed())

		service := seller.NewService(sellerSqlite.NewSellerRepository(db), nil, quietLogger)
		handler := seller.NewHandler(transport.NewBaseHandler(quietLogger), service)
		caller := &auth.User{Username: "chefe", Role: coreuser.RoleAdmin, StoreID: "loja-a"}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Get("/sellers", handler.ListSellers)
		router.Post("/sellers", handler.CreateSeller)
		router.Get("/sellers/{id}", handler.GetSeller)
		router.Put("/sellers/{id}", handler.UpdateSeller)
		router.Put("/sellers/{id}/active", handler.SetSellerActive)
		router.Delete("/sellers/{id}", handler.DeleteSeller)
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

	list := func(query string) []*seller.Seller {
		rec := do(http.MethodGet, "/sellers"+query, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
		var resp seller.SellersResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp.Sellers
	}

	It("manages sellers in the caller's store", func() {
		rec := do(http.MethodPost, "/sellers", map[string]string{"nome": "Pedro", "telefone": "11 99999-0000", "loja_id": "loja-z"})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var pedro seller.Seller
		Expect(json.Unmarshal(rec.Body.Bytes(), &pedro)).To(Succeed())
		Expect(pedro.StoreID).To(Equal("loja-a"))
		Expect(pedro.Active).To(BeTrue())

		Expect(do(http.MethodPost, "/sellers", map[string]string{"nome": "Joana"}).Code).To(Equal(http.StatusCreated))
		Expect(list("")).To(HaveLen(2))

		rec = do(http.MethodPut, "/sellers/"+pedro.ID+"/active", map[string]bool{"ativo": false})
		Expect(rec.Code).To(Equal(http.StatusOK))

		active := list("?ativo=true")
		Expect(active).To(HaveLen(1))
		Expect(active[0].Name).To(Equal("Joana"))

		rec = do(http.MethodPut, "/sellers/"+pedro.ID, map[string]string{"nome": "Pedro Souza"})
		Expect(rec.Code).To(Equal(http.StatusOK))
		var renamed seller.Seller
		Expect(json.Unmarshal(rec.Body.Bytes(), &renamed)).To(Succeed())
		Expect(renamed.Name).To(Equal("Pedro Souza"))
		Expect(renamed.Active).To(BeFalse())

		Expect(do(http.MethodDelete, "/sellers/"+pedro.ID, nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, "/sellers/"+pedro.ID, nil).Code).To(Equal(http.StatusNotFound))
	})

	It("rejects an invalid body", func() {
		Expect(do(http.MethodPost, "/sellers", map[string]string{"nome": ""}).Code).To(Equal(http.StatusBadRequest))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sellers", bytes.NewBufferString("{")))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
