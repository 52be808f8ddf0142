package cloudsync_test

import (
	"context"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/user"
	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/visit"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type fakePuller struct {
	tables []string
	err    error
}

func (p *fakePuller) PullTable(_ context.Context, name string) (*cloudsync.Report, error) {
	p.tables = append(p.tables, name)
	return &cloudsync.Report{Direction: cloudsync.DirectionPull}, p.err
}

type fakeFeed struct {
	changes []cloudsync.Change
	tables  []string
}

func (f *fakeFeed) Subscribe(ctx context.Context, tables []string, handle func(context.Context, cloudsync.Change)) error {
	f.tables = tables
	for _, ch := range f.changes {
		handle(ctx, ch)
	}
	return nil
}

var _ = Describe("DecodeChange", func() {
	It("parses trigger payloads", func() {
		ch, err := cloudsync.DecodeChange([]byte(`{"type":"update","table":"visitas","record":{"id":"v1","cliente":"Ana"},"old_record":null}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(ch.Type).To(Equal(cloudsync.ChangeUpdate))
		Expect(ch.Table).To(Equal("visitas"))
		Expect(ch.Record).To(HaveKeyWithValue("cliente", "Ana"))
	})

	It("rejects payloads without a table", func() {
		_, err := cloudsync.DecodeChange([]byte(`{"type":"INSERT"}`))
		Expect(err).To(HaveOccurred())

		_, err = cloudsync.DecodeChange([]byte(`not json`))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Mirror", func() {
	var (
		ctx     context.Context
		localDB *gorm.DB
		lock    *cloudsync.Lock
		puller  *fakePuller
		mirror  *cloudsync.Mirror
	)

	BeforeEach(func() {
		ctx = context.Background()
		localDB = openLocalDB()
		lock = cloudsync.NewLock()
		puller = &fakePuller{}
		mirror = cloudsync.NewMirror(localDB, cloudsync.DefaultRegistry(), lock, puller, "", quietLogger)
	})

	It("upserts inserted and updated rows", func() {
		Expect(mirror.Apply(ctx, cloudsync.Change{
			Type:   cloudsync.ChangeInsert,
			Table:  "usuarios",
			Record: map[string]any{"username": "Pedro", "password_hash": "h1", "role": "sdr", "force_password_change": true},
		})).To(Succeed())
		Expect(mirror.Apply(ctx, cloudsync.Change{
			Type:   cloudsync.ChangeUpdate,
			Table:  "usuarios",
			Record: map[string]any{"username": "pedro", "password_hash": "h2", "role": "sdr", "force_password_change": false},
		})).To(Succeed())

		var got user.Usuario
		Expect(localDB.First(&got, "username = ?", "pedro").Error).To(Succeed())
		Expect(got.Password).To(Equal("h2"))
		Expect(got.ResetPassword).To(BeFalse())
		Expect(mirror.Applied()).To(Equal(int64(2)))
	})

	It("deletes by the key of the old record", func() {
		Expect(localDB.Create(&visit.Visita{ID: "v1", Cliente: "Ana"}).Error).To(Succeed())

		Expect(mirror.Apply(ctx, cloudsync.Change{
			Type:      cloudsync.ChangeDelete,
			Table:     "visitas",
			OldRecord: map[string]any{"id": "v1"},
		})).To(Succeed())
		Expect(countRows(localDB, "visitas")).To(Equal(int64(0)))
	})

	It("drops changes while a push holds the lock", func() {
		Expect(lock.TryAcquire()).To(BeTrue())

		Expect(mirror.Apply(ctx, cloudsync.Change{
			Type:   cloudsync.ChangeInsert,
			Table:  "visitas",
			Record: map[string]any{"id": "v2", "cliente": "Bia"},
		})).To(Succeed())

		Expect(countRows(localDB, "visitas")).To(Equal(int64(0)))
		Expect(lock.Skipped()).To(Equal(int64(1)))
		Expect(mirror.Applied()).To(BeZero())
	})

	It("ignores unknown tables", func() {
		Expect(mirror.Apply(ctx, cloudsync.Change{Type: cloudsync.ChangeInsert, Table: "audit_log", Record: map[string]any{"id": 1}})).To(Succeed())
		Expect(mirror.Ignored()).To(Equal(int64(1)))
	})

	It("ignores rows of other stores", func() {
		mirror = cloudsync.NewMirror(localDB, cloudsync.DefaultRegistry(), lock, puller, "loja-a", quietLogger)

		Expect(mirror.Apply(ctx, cloudsync.Change{
			Type:   cloudsync.ChangeInsert,
			Table:  "visitas",
			Record: map[string]any{"id": "v3", "cliente": "Caio", "loja_id": "loja-b"},
		})).To(Succeed())
		Expect(countRows(localDB, "visitas")).To(Equal(int64(0)))
		Expect(mirror.Ignored()).To(Equal(int64(1)))
	})

	It("removes a local row that moved to another store", func() {
		mirror = cloudsync.NewMirror(localDB, cloudsync.DefaultRegistry(), lock, puller, "loja-a", quietLogger)
		Expect(localDB.Create(&visit.Visita{ID: "v4", Cliente: "Duda", LojaID: "loja-a"}).Error).To(Succeed())

		Expect(mirror.Apply(ctx, cloudsync.Change{
			Type:   cloudsync.ChangeUpdate,
			Table:  "visitas",
			Record: map[string]any{"id": "v4", "cliente": "Duda", "loja_id": "loja-b"},
		})).To(Succeed())

		Expect(countRows(localDB, "visitas")).To(Equal(int64(0)))
		Expect(mirror.Applied()).To(Equal(int64(1)))
		Expect(mirror.Ignored()).To(BeZero())
	})

	It("pulls the table when the row was too large to send", func() {
		Expect(mirror.Apply(ctx, cloudsync.Change{Type: cloudsync.ChangeUpdate, Table: "estoque"})).To(Succeed())
		Expect(puller.tables).To(Equal([]string{"estoque"}))
	})

	It("fails when a change has no key", func() {
		err := mirror.Apply(ctx, cloudsync.Change{Type: cloudsync.ChangeDelete, Table: "visitas", OldRecord: map[string]any{}})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Listener", func() {
	It("subscribes to every table and mirrors the feed", func() {
		localDB := openLocalDB()
		registry := cloudsync.DefaultRegistry()
		mirror := cloudsync.NewMirror(localDB, registry, cloudsync.NewLock(), nil, "", quietLogger)
		feed := &fakeFeed{changes: []cloudsync.Change{
			{Type: cloudsync.ChangeInsert, Table: "vendedores", Record: map[string]any{"id": "s1", "nome": "Rui", "ativo": true}},
			{Type: cloudsync.ChangeInsert, Table: "vendedores", Record: map[string]any{"nome": "missing id"}},
		}}

		listener := cloudsync.NewListener(feed, mirror, registry, quietLogger)
		Expect(listener.Run(context.Background())).To(Succeed())

		Expect(feed.tables).To(Equal(registry.CloudNames()))
		Expect(countRows(localDB, "vendedores")).To(Equal(int64(1)))
		Expect(listener.Failed()).To(Equal(int64(1)))
	})
})
