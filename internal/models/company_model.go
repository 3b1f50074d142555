package models

import "time"

type Company struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Nome      string    `bson:"nome" json:"nome"`
	CNPJs     []string  `bson:"cnpjs" json:"cnpjs"` // armazenados normalizados (apenas dígitos), ordem preservada
	Ativo     bool      `bson:"ativo" json:"ativo"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasCNPJ informa se o CNPJ (já normalizado) pertence à empresa.
func (c Company) HasCNPJ(cnpj string) bool {
	for _, v := range c.CNPJs {
		if v == cnpj {
			return true
		}
	}
	return false
}
