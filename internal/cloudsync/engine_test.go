package cloudsync_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/setting"
	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/stock"
	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/user"
	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/visit"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	localstore "github.com/frahmantamala/dealership-crm/internal/store/local"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Engine", func() {
	var (
		ctx     context.Context
		localDB *gorm.DB
		cloudDB *gorm.DB
		lock    *cloudsync.Lock
		bus     *events.EventBus
		opts    cloudsync.Options
		engine  *cloudsync.Engine
	)

	newEngine := func() *cloudsync.Engine {
		return cloudsync.NewEngine(localDB, cloudDB, cloudsync.DefaultRegistry(), lock, bus, opts, quietLogger)
	}

	BeforeEach(func() {
		ctx = context.Background()
		localDB = openLocalDB()
		cloudDB = openCloudDB()
		lock = cloudsync.NewLock()
		bus = events.NewEventBus(quietLogger)
		opts = cloudsync.Options{BatchSize: 50, RetryBase: time.Millisecond}
		engine = newEngine()
	})

	Describe("Pull", func() {
		It("copies cloud users with local column names", func() {
			Expect(cloudDB.Exec(`INSERT INTO usuarios (username, password_hash, nome, role, ativo, force_password_change, permissions)
				VALUES ('Joao', 'hash', 'Joao Silva', 'vendedor', 1, 1, '["visitas"]')`).Error).To(Succeed())

			report, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Err()).NotTo(HaveOccurred())

			var got user.Usuario
			Expect(localDB.First(&got, "username = ?", "joao").Error).To(Succeed())
			Expect(got.Password).To(Equal("hash"))
			Expect(got.ResetPassword).To(BeTrue())
			Expect(got.Ativo).To(BeTrue())
			Expect([]string(got.Permissions)).To(Equal([]string{"visitas"}))
		})

		It("lets the cloud win on conflicting rows", func() {
			Expect(localDB.Create(&visit.Visita{ID: "v1", Cliente: "Local", Status: "Pendente"}).Error).To(Succeed())
			Expect(cloudDB.Exec(`INSERT INTO visitas (id, cliente, status) VALUES ('v1', 'Cloud', 'Vendido')`).Error).To(Succeed())

			_, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())

			var got visit.Visita
			Expect(localDB.First(&got, "id = ?", "v1").Error).To(Succeed())
			Expect(got.Cliente).To(Equal("Cloud"))
			Expect(got.Status).To(Equal("Vendido"))
		})

		It("reads only the configured store", func() {
			opts.StoreID = "loja-a"
			engine = newEngine()
			Expect(cloudDB.Exec(`INSERT INTO estoque (id, nome, loja_id) VALUES ('e1', 'Onix', 'loja-a'), ('e2', 'Gol', 'loja-b')`).Error).To(Succeed())

			_, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())

			var items []stock.Estoque
			Expect(localDB.Find(&items).Error).To(Succeed())
			Expect(items).To(HaveLen(1))
			Expect(items[0].ID).To(Equal("e1"))
		})

		It("pages through large tables", func() {
			opts.BatchSize = 2
			engine = newEngine()
			for i := 0; i < 5; i++ {
				Expect(cloudDB.Exec("INSERT INTO config (chave, valor) VALUES (?, ?)", fmt.Sprintf("k%d", i), "v").Error).To(Succeed())
			}

			report, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Tables[0].Table).To(Equal("config"))
			Expect(report.Tables[0].Read).To(Equal(5))
			Expect(report.Tables[0].Written).To(Equal(5))
			Expect(countRows(localDB, "config")).To(Equal(int64(5)))
		})

		It("keeps pulling after a table fails", func() {
			Expect(cloudDB.Exec("DROP TABLE scripts").Error).To(Succeed())
			Expect(cloudDB.Exec(`INSERT INTO crm_settings (key, value) VALUES ('prompt', 'hello')`).Error).To(Succeed())
			Expect(cloudDB.Exec(`INSERT INTO visitas (id, cliente) VALUES ('v9', 'Ana')`).Error).To(Succeed())

			report, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Err()).To(HaveOccurred())
			Expect(report.Err().Error()).To(ContainSubstring("scripts"))
			Expect(report.Tables).To(HaveLen(8))
			Expect(countRows(localDB, "crm_settings")).To(Equal(int64(1)))
			Expect(countRows(localDB, "visitas")).To(Equal(int64(1)))
		})

		It("keeps local-only rows unless pruning", func() {
			Expect(localDB.Create(&setting.Config{Chave: "stale", Valor: "x"}).Error).To(Succeed())

			_, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(countRows(localDB, "config")).To(Equal(int64(1)))

			opts.PruneOnPull = true
			engine = newEngine()
			report, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Tables[0].Pruned).To(Equal(1))
			Expect(countRows(localDB, "config")).To(Equal(int64(0)))
		})

		It("publishes a completion event", func() {
			received := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypePullCompleted, func(_ context.Context, ev events.Event) error {
				received <- ev
				return nil
			})

			_, err := engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())

			var ev events.Event
			Eventually(received).Should(Receive(&ev))
			completed, ok := ev.(*events.SyncCompletedEvent)
			Expect(ok).To(BeTrue())
			Expect(completed.Direction).To(Equal(cloudsync.DirectionPull))
			Expect(completed.Tables).To(Equal(8))
		})

		It("pulls a single table by name", func() {
			Expect(cloudDB.Exec(`INSERT INTO estoque (id, nome, ano, fotos) VALUES ('e1', 'Onix', 2022, '["a.jpg"]')`).Error).To(Succeed())
			Expect(cloudDB.Exec(`INSERT INTO visitas (id, cliente) VALUES ('v1', 'Ana')`).Error).To(Succeed())

			report, err := engine.PullTable(ctx, "estoque")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.TableNames()).To(Equal([]string{"estoque"}))
			Expect(countRows(localDB, "visitas")).To(Equal(int64(0)))

			var got stock.Estoque
			Expect(localDB.First(&got, "id = ?", "e1").Error).To(Succeed())
			Expect(got.Ano).To(Equal(2022))
			Expect([]string(got.Fotos)).To(Equal([]string{"a.jpg"}))

			_, err = engine.PullTable(ctx, "clientes")
			Expect(errors.Is(err, internal.ErrUnknownTable)).To(BeTrue())
		})
	})

	Describe("Push", func() {
		It("upserts local rows into the cloud with renamed columns", func() {
			Expect(localDB.Create(&user.Usuario{Username: "maria", Password: "hash", Role: "admin", ResetPassword: true}).Error).To(Succeed())
			Expect(cloudDB.Exec(`INSERT INTO usuarios (username, password_hash, role) VALUES ('maria', 'old', 'vendedor')`).Error).To(Succeed())

			report, err := engine.Push(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Err()).NotTo(HaveOccurred())
			Expect(report.Written()).To(Equal(1))
			Expect(lock.Held()).To(BeFalse())

			var row struct {
				PasswordHash        string
				Role                string
				ForcePasswordChange bool
			}
			Expect(cloudDB.Table("usuarios").
				Select("password_hash, role, force_password_change").
				Where("username = ?", "maria").
				Scan(&row).Error).To(Succeed())
			Expect(row.PasswordHash).To(Equal("hash"))
			Expect(row.Role).To(Equal("admin"))
			Expect(row.ForcePasswordChange).To(BeTrue())
		})

		It("stamps the store on rows without one", func() {
			opts.StoreID = "loja-a"
			engine = newEngine()
			Expect(localDB.Create(&stock.Estoque{ID: "e1", Nome: "Onix"}).Error).To(Succeed())

			_, err := engine.Push(ctx)
			Expect(err).NotTo(HaveOccurred())

			var store string
			Expect(cloudDB.Table("estoque").Select("loja_id").Where("id = ?", "e1").Scan(&store).Error).To(Succeed())
			Expect(store).To(Equal("loja-a"))
		})

		It("refuses to run while another push holds the lock", func() {
			Expect(lock.TryAcquire()).To(BeTrue())
			defer lock.Release()

			report, err := engine.Push(ctx)
			Expect(report).To(BeNil())
			Expect(errors.Is(err, internal.ErrSyncInProgress)).To(BeTrue())
		})

		It("reports cloud failures per table", func() {
			Expect(cloudDB.Exec("DROP TABLE portais").Error).To(Succeed())
			Expect(localDB.Exec(`INSERT INTO portais (id, nome, ativo) VALUES ('p1', 'Webmotors', 1)`).Error).To(Succeed())

			report, err := engine.Push(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Failed()).To(Equal(1))
			Expect(report.Err().Error()).To(ContainSubstring("portais"))
			Expect(lock.Held()).To(BeFalse())
		})
	})

	Describe("single records", func() {
		It("pushes and deletes one row", func() {
			Expect(localDB.Create(&visit.Visita{ID: "v1", Cliente: "Ana"}).Error).To(Succeed())

			Expect(engine.PushRecord(ctx, "visitas", "v1")).To(Succeed())
			Expect(countRows(cloudDB, "visitas")).To(Equal(int64(1)))

			Expect(engine.DeleteRecord(ctx, "visitas", "v1")).To(Succeed())
			Expect(countRows(cloudDB, "visitas")).To(Equal(int64(0)))
		})

		It("folds usernames", func() {
			Expect(localDB.Create(&user.Usuario{Username: "carla", Password: "x", Role: "sdr"}).Error).To(Succeed())
			Expect(engine.PushRecord(ctx, "usuarios", "CARLA")).To(Succeed())
			Expect(countRows(cloudDB, "usuarios")).To(Equal(int64(1)))
		})

		It("pushes users stored with mixed-case names", func() {
			Expect(localDB.Exec(`INSERT INTO usuarios (username, password, role) VALUES ('Admin', 'hash', 'admin')`).Error).To(Succeed())

			Expect(engine.PushRecord(ctx, "usuarios", "Admin")).To(Succeed())

			var names []string
			Expect(cloudDB.Table("usuarios").Pluck("username", &names).Error).To(Succeed())
			Expect(names).To(Equal([]string{"admin"}))
		})

		It("keeps one local user across push and pull after folding", func() {
			Expect(localDB.Exec(`INSERT INTO usuarios (username, password, role) VALUES ('Admin', 'hash', 'admin')`).Error).To(Succeed())
			Expect(localstore.Migrate(localDB, quietLogger)).To(Succeed())

			_, err := engine.Push(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.Pull(ctx)
			Expect(err).NotTo(HaveOccurred())

			var names []string
			Expect(localDB.Table("usuarios").Pluck("username", &names).Error).To(Succeed())
			Expect(names).To(Equal([]string{"admin"}))
		})

		It("fails for rows missing locally", func() {
			err := engine.PushRecord(ctx, "visitas", "nope")
			Expect(errors.Is(err, gorm.ErrRecordNotFound)).To(BeTrue())
		})
	})

	It("exposes the last reports and lock state", func() {
		Expect(engine.Status().LastPull).To(BeNil())

		_, err := engine.Pull(ctx)
		Expect(err).NotTo(HaveOccurred())

		status := engine.Status()
		Expect(status.LastPull).NotTo(BeNil())
		Expect(status.LastPush).To(BeNil())
		Expect(status.Locked).To(BeFalse())
		Expect(status.LockedSince).To(BeNil())
	})
})
