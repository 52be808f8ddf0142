package stock

import (
	"time"

	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/jsontype"
	stockDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/stock"
)

const TableName = "estoque"

const (
	StatusAvailable = "disponivel"
	StatusReserved  = "reservado"
	StatusSold      = "vendido"
)

var statuses = []string{StatusAvailable, StatusReserved, StatusSold}

type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Brand     string    `json:"marca,omitempty"`
	Model     string    `json:"modelo,omitempty"`
	Year      int       `json:"ano,omitempty"`
	Price     float64   `json:"preco"`
	Mileage   int       `json:"km"`
	Color     string    `json:"cor,omitempty"`
	Photos    []string  `json:"fotos"`
	Status    string    `json:"status"`
	StoreID   string    `json:"loja_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Item) IsAvailable() bool {
	return i.Status == StatusAvailable
}

type ListFilter struct {
	StoreID string
	Status  string
	// Search matches nome, marca or modelo.
	Search string
}

func ToDataModel(i *Item) *stockDatamodel.Estoque {
	return &stockDatamodel.Estoque{
		ID:        i.ID,
		Nome:      i.Name,
		Marca:     i.Brand,
		Modelo:    i.Model,
		Ano:       i.Year,
		Preco:     i.Price,
		Km:        i.Mileage,
		Cor:       i.Color,
		Fotos:     jsontype.StringList(i.Photos),
		Status:    i.Status,
		LojaID:    i.StoreID,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func FromDataModel(e *stockDatamodel.Estoque) *Item {
	photos := []string(e.Fotos)
	if photos == nil {
		photos = []string{}
	}
	return &Item{
		ID:        e.ID,
		Name:      e.Nome,
		Brand:     e.Marca,
		Model:     e.Modelo,
		Year:      e.Ano,
		Price:     e.Preco,
		Mileage:   e.Km,
		Color:     e.Cor,
		Photos:    photos,
		Status:    e.Status,
		StoreID:   e.LojaID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
