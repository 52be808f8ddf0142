// Package portal manages the listing portals a store publishes its stock to.
package portal

import (
	"time"

	portalDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/portal"
)

const TableName = "portais"

type Portal struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	URL       string    `json:"url,omitempty"`
	Active    bool      `json:"ativo"`
	StoreID   string    `json:"loja_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToDataModel(p *Portal) *portalDatamodel.Portal {
	return &portalDatamodel.Portal{
		ID:        p.ID,
		Nome:      p.Name,
		URL:       p.URL,
		Ativo:     p.Active,
		LojaID:    p.StoreID,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromDataModel(p *portalDatamodel.Portal) *Portal {
	return &Portal{
		ID:        p.ID,
		Name:      p.Nome,
		URL:       p.URL,
		Active:    p.Ativo,
		StoreID:   p.LojaID,
		UpdatedAt: p.UpdatedAt,
	}
}
