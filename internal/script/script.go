// Package script manages the sales scripts sellers read from during calls.
package script

import (
	"time"

	scriptDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/script"
)

const TableName = "scripts"

type Script struct {
	ID        string    `json:"id"`
	Title     string    `json:"titulo"`
	Content   string    `json:"conteudo"`
	Category  string    `json:"categoria,omitempty"`
	Order     int       `json:"ordem"`
	StoreID   string    `json:"loja_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListFilter struct {
	StoreID  string
	Category string
}

func ToDataModel(s *Script) *scriptDatamodel.Script {
	return &scriptDatamodel.Script{
		ID:        s.ID,
		Titulo:    s.Title,
		Conteudo:  s.Content,
		Categoria: s.Category,
		Ordem:     s.Order,
		LojaID:    s.StoreID,
		UpdatedAt: s.UpdatedAt,
	}
}

func FromDataModel(s *scriptDatamodel.Script) *Script {
	return &Script{
		ID:        s.ID,
		Title:     s.Titulo,
		Content:   s.Conteudo,
		Category:  s.Categoria,
		Order:     s.Ordem,
		StoreID:   s.LojaID,
		UpdatedAt: s.UpdatedAt,
	}
}
