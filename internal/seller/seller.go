package seller

import (
	"strings"
	"time"

	sellerDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/seller"
)

const TableName = "vendedores"

type Seller struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Phone     string    `json:"telefone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"ativo"`
	StoreID   string    `json:"loja_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Seller) IsActiveSeller() bool {
	return s.Active
}

func (s *Seller) Activate() {
	s.Active = true
	s.UpdatedAt = time.Now().UTC()
}

func (s *Seller) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now().UTC()
}

// Matches compares names the way visits reference sellers: trimmed and
// case-insensitive.
func (s *Seller) Matches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name))
}

type ListFilter struct {
	StoreID    string
	ActiveOnly bool
}

func ToDataModel(s *Seller) *sellerDatamodel.Vendedor {
	return &sellerDatamodel.Vendedor{
		ID:        s.ID,
		Nome:      s.Name,
		Telefone:  s.Phone,
		Email:     s.Email,
		Ativo:     s.Active,
		LojaID:    s.StoreID,
		UpdatedAt: s.UpdatedAt,
	}
}

func FromDataModel(v *sellerDatamodel.Vendedor) *Seller {
	return &Seller{
		ID:        v.ID,
		Name:      v.Nome,
		Phone:     v.Telefone,
		Email:     v.Email,
		Active:    v.Ativo,
		StoreID:   v.LojaID,
		UpdatedAt: v.UpdatedAt,
	}
}
