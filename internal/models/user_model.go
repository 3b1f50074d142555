package models

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleGerente Role = "gerente"
	RoleUsuario Role = "usuario"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleGerente, RoleUsuario:
		return true
	}
	return false
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Nome         string    `bson:"nome" json:"nome"`
	Email        string    `bson:"email" json:"email"`
	Role         Role      `bson:"role" json:"role"`
	Ativo        bool      `bson:"ativo" json:"ativo"`
	CompanyIDs   []string  `bson:"company_ids,omitempty" json:"companyIds,omitempty"` // só faz sentido p/ gerente e usuario
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}
