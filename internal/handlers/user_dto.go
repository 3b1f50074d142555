package handlers

type UserCreateDTO struct {
	Nome       string   `json:"nome" validate:"required,min=2"`
	Email      string   `json:"email" validate:"required,email"`
	Senha      string   `json:"senha" validate:"required,min=8"`
	Role       string   `json:"role" validate:"required,role"`
	CompanyIDs []string `json:"companyIds" validate:"omitempty,dive,required"`
}

// Update parcial. Gerente só pode mandar nome e senha do próprio perfil.
type UserPatchDTO struct {
	Nome       *string   `json:"nome,omitempty" validate:"omitempty,min=2"`
	Senha      *string   `json:"senha,omitempty" validate:"omitempty,min=8"`
	Role       *string   `json:"role,omitempty" validate:"omitempty,role"`
	Ativo      *bool     `json:"ativo,omitempty"`
	CompanyIDs *[]string `json:"companyIds,omitempty" validate:"omitempty,dive,required"`
}

func (d UserPatchDTO) touchesAdminFields() bool {
	return d.Role != nil || d.Ativo != nil || d.CompanyIDs != nil
}
