// Package validation valida rascunhos de solicitação antes de entrarem na coleção.
// Erros são devolvidos como dados (mapa campo -> mensagem), nunca como panic.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

const MaxAttachmentSize int64 = 2 << 20 // 2 MiB

type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

const (
	FieldTitulo     = "titulo"
	FieldOrigem     = "origem"
	FieldMes        = "mes"
	FieldBoleto     = "boleto"
	FieldNotaFiscal = "notaFiscal"
)

// ordem dos campos no formulário, usada por First
var fieldOrder = []string{FieldTitulo, FieldOrigem, FieldMes, FieldBoleto, FieldNotaFiscal}

type Draft struct {
	Titulo     string
	Origem     string
	CompanyID  string
	Mes        *int
	Prioridade models.Prioridade
	Estagio    string
	Descricao  string
	Mensagem   string
	Boleto     models.Attachment
	NotaFiscal models.Attachment
}

type FieldErrors map[string]string

func (e FieldErrors) Empty() bool { return len(e) == 0 }

// First devolve o primeiro campo com erro na ordem do formulário.
func (e FieldErrors) First() string {
	for _, f := range fieldOrder {
		if _, ok := e[f]; ok {
			return f
		}
	}
	for f := range e {
		return f
	}
	return ""
}

// Merge copia os erros de other que ainda não existem em e.
func (e FieldErrors) Merge(other FieldErrors) FieldErrors {
	if e == nil {
		e = FieldErrors{}
	}
	for k, v := range other {
		if _, ok := e[k]; !ok {
			e[k] = v
		}
	}
	return e
}

// Normalize apara o título e reduz a origem a dígitos.
func Normalize(d Draft) Draft {
	d.Titulo = strings.TrimSpace(d.Titulo)
	d.Origem = utils.SanitizeCNPJ(d.Origem)
	d.Estagio = strings.TrimSpace(d.Estagio)
	return d
}

func Validate(d Draft, mode Mode) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(d.Titulo) == "" {
		errs[FieldTitulo] = "titulo is required"
	}

	switch digits := utils.SanitizeCNPJ(d.Origem); {
	case digits == "":
		errs[FieldOrigem] = "origem (cnpj) is required"
	case len(digits) != utils.CNPJLength:
		errs[FieldOrigem] = fmt.Sprintf("origem (cnpj) must have %d digits, got %d", utils.CNPJLength, len(digits))
	}

	if d.Mes != nil && (*d.Mes < 1 || *d.Mes > 12) {
		errs[FieldMes] = fmt.Sprintf("mes must be between 1 and 12, got %d", *d.Mes)
	}

	checkAttachment(errs, FieldBoleto, d.Boleto, mode)
	checkAttachment(errs, FieldNotaFiscal, d.NotaFiscal, mode)

	return errs
}

func checkAttachment(errs FieldErrors, field string, a models.Attachment, mode Mode) {
	if !a.Present() {
		if mode == ModeCreate {
			errs[field] = field + " file is required"
		}
		return
	}
	if a.Size > MaxAttachmentSize {
		errs[field] = fmt.Sprintf("%s file too large: %d bytes (max %d)", field, a.Size, MaxAttachmentSize)
	}
}

// ParseMes converte o campo do formulário. Vazio = ausente.
func ParseMes(raw string) (*int, FieldErrors) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, FieldErrors{FieldMes: fmt.Sprintf("mes must be an integer, got %q", raw)}
	}
	return &n, nil
}
