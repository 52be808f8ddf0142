package cloudsync_test

import (
	"errors"

	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Table mappings", func() {
	var registry *cloudsync.Registry

	BeforeEach(func() {
		registry = cloudsync.DefaultRegistry()
	})

	It("lists the tables with settings first", func() {
		names := registry.CloudNames()
		Expect(names).To(HaveLen(8))
		Expect(names[:2]).To(Equal([]string{"config", "crm_settings"}))
		Expect(names).To(ContainElements("usuarios", "visitas", "estoque", "vendedores", "portais", "scripts"))
	})

	It("rejects unknown tables", func() {
		_, err := registry.Lookup("clientes")
		Expect(errors.Is(err, internal.ErrUnknownTable)).To(BeTrue())
	})

	Describe("usuarios", func() {
		var users *cloudsync.Table

		BeforeEach(func() {
			var err error
			users, err = registry.Lookup("usuarios")
			Expect(err).NotTo(HaveOccurred())
		})

		It("renames password columns for the cloud", func() {
			out := users.ToCloud(map[string]any{
				"username":       "Maria",
				"password":       "$2a$10$hash",
				"reset_password": int64(1),
				"ativo":          int64(0),
				"unknown":        "dropped",
			})

			Expect(out).To(HaveKeyWithValue("username", "maria"))
			Expect(out).To(HaveKeyWithValue("password_hash", "$2a$10$hash"))
			Expect(out).To(HaveKeyWithValue("force_password_change", true))
			Expect(out).To(HaveKeyWithValue("ativo", false))
			Expect(out).NotTo(HaveKey("password"))
			Expect(out).NotTo(HaveKey("unknown"))
		})

		It("maps cloud rows back to local names", func() {
			out := users.ToLocal(map[string]any{
				"username":              " Joao ",
				"password_hash":         "hash",
				"force_password_change": false,
				"permissions":           []any{"visitas", "estoque"},
				"extra_cloud_column":    1,
			})

			Expect(out).To(HaveKeyWithValue("username", "joao"))
			Expect(out).To(HaveKeyWithValue("password", "hash"))
			Expect(out).To(HaveKeyWithValue("reset_password", false))
			Expect(out).To(HaveKeyWithValue("permissions", `["visitas","estoque"]`))
			Expect(out).NotTo(HaveKey("extra_cloud_column"))
		})

		It("folds keys", func() {
			key, ok := users.KeyOf(map[string]any{"username": "ADMIN"})
			Expect(ok).To(BeTrue())
			Expect(key).To(Equal("admin"))

			_, ok = users.KeyOf(map[string]any{"username": "  "})
			Expect(ok).To(BeFalse())
		})
	})

	It("coerces JSON numbers on integer columns", func() {
		stock, err := registry.Lookup("estoque")
		Expect(err).NotTo(HaveOccurred())

		out := stock.ToLocal(map[string]any{"id": "e1", "ano": float64(2021), "km": "35000", "preco": 89900.5})
		Expect(out).To(HaveKeyWithValue("ano", int64(2021)))
		Expect(out).To(HaveKeyWithValue("km", int64(35000)))
		Expect(out).To(HaveKeyWithValue("preco", 89900.5))
	})

	It("keeps ids case-sensitive outside usuarios", func() {
		visits, err := registry.Lookup("visitas")
		Expect(err).NotTo(HaveOccurred())

		key, ok := visits.KeyOf(map[string]any{"id": "AbC"})
		Expect(ok).To(BeTrue())
		Expect(key).To(Equal("AbC"))
	})
})

var _ = Describe("Lock", func() {
	It("admits a single holder", func() {
		lock := cloudsync.NewLock()
		Expect(lock.TryAcquire()).To(BeTrue())
		Expect(lock.TryAcquire()).To(BeFalse())
		Expect(lock.Held()).To(BeTrue())
		Expect(lock.HeldSince().IsZero()).To(BeFalse())

		lock.Release()
		Expect(lock.Held()).To(BeFalse())
		Expect(lock.HeldSince().IsZero()).To(BeTrue())
		Expect(lock.TryAcquire()).To(BeTrue())
	})
})
