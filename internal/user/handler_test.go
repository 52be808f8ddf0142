package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/frahmantamala/dealership-crm/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("User Handler", func() {
	var (
		service *user.Service
		router  chi.Router
		caller  *auth.User
	)

	BeforeEach(func() {
		service = user.NewService(NewMockRepository(), nil, bcrypt.MinCost, quietLogger)
		handler := user.NewHandler(transport.NewBaseHandler(quietLogger), service)
		caller = &auth.User{Username: "chefe", Role: coreuser.RoleAdmin}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Get("/users", handler.ListUsers)
		router.Post("/users", handler.CreateUser)
		router.Get("/users/me", handler.GetCurrentUser)
		router.Get("/users/{username}", handler.GetUser)
		router.Delete("/users/{username}", handler.DeleteUser)
		router.Patch("/users/{username}/active", handler.SetUserActive)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("creates a user and hides the hash", func() {
		rec := do(http.MethodPost, "/users", map[string]interface{}{
			"username": "Ana", "password": "segredo1", "role": "sdr",
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Body.String()).NotTo(ContainSubstring("$2a$"))

		var resp user.UserResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Username).To(Equal("ana"))
		Expect(resp.Active).To(BeTrue())
	})

	It("maps validation errors to 400", func() {
		rec := do(http.MethodPost, "/users", map[string]interface{}{"username": "ana"})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
	})

	It("rejects a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for unknown users", func() {
		Expect(do(http.MethodGet, "/users/ghost", nil).Code).To(Equal(http.StatusNotFound))
	})

	It("keeps staff to their own record", func() {
		_, err := service.Create(context.Background(), user.CreateUserDTO{Username: "ana", Password: "segredo1", Role: "sdr"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(context.Background(), user.CreateUserDTO{Username: "bia", Password: "segredo1", Role: "sdr"})
		Expect(err).NotTo(HaveOccurred())

		caller = &auth.User{Username: "ana", Role: coreuser.RoleSDR}
		Expect(do(http.MethodGet, "/users/bia", nil).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodGet, "/users/ANA", nil).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/users/me", nil).Code).To(Equal(http.StatusOK))
	})

	It("scopes listing to the caller's store", func() {
		_, err := service.Create(context.Background(), user.CreateUserDTO{Username: "ana", Password: "segredo1", Role: "sdr", StoreID: "loja-a"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(context.Background(), user.CreateUserDTO{Username: "bia", Password: "segredo1", Role: "sdr", StoreID: "loja-b"})
		Expect(err).NotTo(HaveOccurred())

		caller = &auth.User{Username: "chefe", Role: coreuser.RoleMaster, StoreID: "loja-b"}
		rec := do(http.MethodGet, "/users?loja_id=loja-a", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp user.UsersResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Users).To(HaveLen(1))
		Expect(resp.Users[0].Username).To(Equal("bia"))
	})

	It("refuses to delete the signed-in user", func() {
		Expect(do(http.MethodDelete, "/users/Chefe", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("toggles the active flag", func() {
		_, err := service.Create(context.Background(), user.CreateUserDTO{Username: "ana", Password: "segredo1", Role: "sdr"})
		Expect(err).NotTo(HaveOccurred())

		rec := do(http.MethodPatch, "/users/ana/active", map[string]bool{"ativo": false})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"ativo":false`))
	})
})
