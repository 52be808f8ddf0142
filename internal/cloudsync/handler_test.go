package cloudsync_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sync Handler", func() {
	var (
		lock   *cloudsync.Lock
		router chi.Router
	)

	BeforeEach(func() {
		localDB := openLocalDB()
		cloudDB := openCloudDB()
		Expect(cloudDB.Exec(`INSERT INTO config (chave, valor) VALUES ('horario', '9-18')`).Error).To(Succeed())

		lock = cloudsync.NewLock()
		engine := cloudsync.NewEngine(localDB, cloudDB, cloudsync.DefaultRegistry(), lock, nil, cloudsync.Options{}, quietLogger)
		handler := cloudsync.NewHandler(transport.NewBaseHandler(quietLogger), engine, nil)

		router = chi.NewRouter()
		router.Post("/sync/pull", handler.Pull)
		router.Post("/sync/pull/{table}", handler.PullTable)
		router.Post("/sync/push", handler.Push)
		router.Get("/sync/status", handler.Status)
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil).WithContext(context.Background()))
		return rec
	}

	It("pulls and reports the last run in the status", func() {
		rec := do(http.MethodPost, "/sync/pull")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var report cloudsync.Report
		Expect(json.Unmarshal(rec.Body.Bytes(), &report)).To(Succeed())
		Expect(report.Direction).To(Equal(cloudsync.DirectionPull))
		Expect(report.Written()).To(Equal(1))

		rec = do(http.MethodGet, "/sync/status")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var status cloudsync.StatusResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &status)).To(Succeed())
		Expect(status.Locked).To(BeFalse())
		Expect(status.LastPull).NotTo(BeNil())
	})

	It("pulls a single table and rejects unknown ones", func() {
		Expect(do(http.MethodPost, "/sync/pull/config").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, "/sync/pull/clientes").Code).To(Equal(http.StatusNotFound))
	})

	It("answers 409 while another push holds the lock", func() {
		Expect(lock.TryAcquire()).To(BeTrue())
		Expect(do(http.MethodPost, "/sync/push").Code).To(Equal(http.StatusConflict))

		lock.Release()
		Expect(do(http.MethodPost, "/sync/push").Code).To(Equal(http.StatusOK))
	})
})
