package handlers

// somente os campos do contrato; cnpjs chegam formatados ou não e são normalizados no servidor
type CompanyCreateDTO struct {
	Nome  string   `json:"nome" validate:"required,min=2"`
	CNPJs []string `json:"cnpjs" validate:"required,min=1,dive,required"`
	Ativo *bool    `json:"ativo,omitempty"`
}

// Update parcial; ponteiros distinguem "omitido" de "informado".
type CompanyPatchDTO struct {
	Nome  *string   `json:"nome,omitempty" validate:"omitempty,min=2"`
	CNPJs *[]string `json:"cnpjs,omitempty" validate:"omitempty,min=1,dive,required"`
	Ativo *bool     `json:"ativo,omitempty"`
}

type CompanyPutDTO struct {
	Nome  string   `json:"nome" validate:"required,min=2"`
	CNPJs []string `json:"cnpjs" validate:"required,min=1,dive,required"`
	Ativo bool     `json:"ativo"`
}

// CompanyView acrescenta os CNPJs formatados para exibição.
type CompanyView struct {
	ID              string   `json:"id"`
	Nome            string   `json:"nome"`
	CNPJs           []string `json:"cnpjs"`
	CNPJsFormatados []string `json:"cnpjsFormatados"`
	Ativo           bool     `json:"ativo"`
}
