package stock_test

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	errors "github.com/frahmantamala/dealership-crm/internal"
	stockDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/stock"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/frahmantamala/dealership-crm/internal/stock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStockService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stock Service Suite")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockRepository struct {
	items      map[string]*stockDatamodel.Estoque
	shouldFail bool
}

func NewMockRepository() *MockRepository {
	return &MockRepository{items: make(map[string]*stockDatamodel.Estoque)}
}

func (m *MockRepository) List(ctx context.Context, filter stock.ListFilter) ([]*stockDatamodel.Estoque, error) {
	if m.shouldFail {
		return nil, stderrors.New("database is locked")
	}
	var out []*stockDatamodel.Estoque
	for _, e := range m.items {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Nome), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*stockDatamodel.Estoque, error) {
	if m.shouldFail {
		return nil, stderrors.New("database is locked")
	}
	e, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MockRepository) Create(ctx context.Context, e *stockDatamodel.Estoque) error {
	m.items[e.ID] = e
	return nil
}

func (m *MockRepository) Update(ctx context.Context, e *stockDatamodel.Estoque) error {
	m.items[e.ID] = e
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type countingPublisher struct {
	saved, deleted int
}

func (p *countingPublisher) Publish(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case events.EventTypeRecordSaved:
		p.saved++
	case events.EventTypeRecordDeleted:
		p.deleted++
	}
	return nil
}

var _ = Describe("Stock Service", func() {
	var (
		ctx       context.Context
		repo      *MockRepository
		publisher *countingPublisher
		service   *stock.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		publisher = &countingPublisher{}
		service = stock.NewService(repo, publisher, quietLogger)
	})

	onix := func() *stock.Item {
		item, err := service.Create(ctx, stock.CreateItemDTO{Name: "Onix LT", Brand: "Chevrolet", Year: 2022, Price: 78900, Mileage: 21000})
		Expect(err).NotTo(HaveOccurred())
		return item
	}

	It("creates available items with generated ids", func() {
		a := onix()
		b := onix()
		Expect(a.ID).NotTo(Equal(b.ID))
		Expect(a.Status).To(Equal(stock.StatusAvailable))
		Expect(a.IsAvailable()).To(BeTrue())
		Expect(a.Photos).To(BeEmpty())
		Expect(repo.items).To(HaveLen(2))
		Expect(publisher.saved).To(Equal(2))
	})

	DescribeTable("rejects invalid items",
		func(dto stock.CreateItemDTO, field string) {
			_, err := service.Create(ctx, dto)
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details.(errors.ValidationErrors).Errors[0].Field).To(Equal(field))
		},
		Entry("missing name", stock.CreateItemDTO{}, "nome"),
		Entry("year too old", stock.CreateItemDTO{Name: "Fusca", Year: 1850}, "ano"),
		Entry("year too far ahead", stock.CreateItemDTO{Name: "Futuro", Year: 3000}, "ano"),
		Entry("negative price", stock.CreateItemDTO{Name: "Gol", Price: -1}, "preco"),
		Entry("negative mileage", stock.CreateItemDTO{Name: "Gol", Mileage: -5}, "km"),
		Entry("unknown status", stock.CreateItemDTO{Name: "Gol", Status: "roubado"}, "status"),
		Entry("photo not a URL", stock.CreateItemDTO{Name: "Gol", Photos: []string{"/tmp/a.jpg"}}, "fotos"),
	)

	It("updates selected fields and normalises the status", func() {
		item := onix()
		status := "Vendido"
		price := 75000.0
		updated, err := service.Update(ctx, item.ID, stock.UpdateItemDTO{Status: &status, Price: &price})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Status).To(Equal(stock.StatusSold))
		Expect(updated.Price).To(Equal(75000.0))
		Expect(updated.Brand).To(Equal("Chevrolet"))
	})

	It("replaces the photo list", func() {
		item := onix()
		photos := []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}
		updated, err := service.SetPhotos(ctx, item.ID, photos)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Photos).To(Equal(photos))
		Expect([]string(repo.items[item.ID].Fotos)).To(Equal(photos))

		updated, err = service.SetPhotos(ctx, item.ID, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Photos).To(BeEmpty())
	})

	It("deletes items", func() {
		item := onix()
		Expect(service.Delete(ctx, item.ID)).To(Succeed())
		Expect(publisher.deleted).To(Equal(1))
		_, err := service.Get(ctx, item.ID)
		Expect(err).To(MatchError(errors.ErrStockNotFound))
	})

	It("wraps repository failures as internal errors", func() {
		repo.shouldFail = true
		_, err := service.List(ctx, stock.ListFilter{})
		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(errors.ErrorTypeInternal))
		Expect(stderrors.Unwrap(err)).To(MatchError("database is locked"))
	})
})
