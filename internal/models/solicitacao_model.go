package models

import (
	"io"
	"time"
)

type Status string

const (
	StatusAberto              Status = "aberto"
	StatusPendente            Status = "pendente"
	StatusEmAndamento         Status = "em_andamento"
	StatusAguardandoValidacao Status = "aguardando_validacao"
	StatusAprovado            Status = "aprovado"
	StatusRejeitado           Status = "rejeitado"
	StatusConcluido           Status = "concluido"
	StatusCancelado           Status = "cancelado"
	StatusFechado             Status = "fechado"
)

type Prioridade string

const (
	PrioridadeBaixa Prioridade = "baixa"
	PrioridadeMedia Prioridade = "media"
	PrioridadeAlta  Prioridade = "alta"
)

func (p Prioridade) IsValid() bool {
	switch p {
	case PrioridadeBaixa, PrioridadeMedia, PrioridadeAlta:
		return true
	}
	return false
}

type AttachmentKind string

const (
	AttachmentNone   AttachmentKind = "none"
	AttachmentHandle AttachmentKind = "handle" // arquivo recebido no form, ainda não enviado ao storage
	AttachmentPath   AttachmentKind = "path"   // já armazenado
)

// Attachment representa boleto/nota fiscal sem sobrecarregar um único campo.
type Attachment struct {
	Kind    AttachmentKind `bson:"kind" json:"kind"`
	Path    string         `bson:"path,omitempty" json:"path,omitempty"`
	Name    string         `bson:"name,omitempty" json:"name,omitempty"`
	Size    int64          `bson:"size,omitempty" json:"size,omitempty"`
	Content io.Reader      `bson:"-" json:"-"`
}

func NoAttachment() Attachment { return Attachment{Kind: AttachmentNone} }

func HandleAttachment(name string, size int64, r io.Reader) Attachment {
	return Attachment{Kind: AttachmentHandle, Name: name, Size: size, Content: r}
}

func PathAttachment(path, name string, size int64) Attachment {
	return Attachment{Kind: AttachmentPath, Path: path, Name: name, Size: size}
}

func (a Attachment) Present() bool {
	switch a.Kind {
	case AttachmentHandle:
		return true
	case AttachmentPath:
		return a.Path != ""
	}
	return false
}

type Solicitacao struct {
	ID         string     `bson:"_id,omitempty" json:"id"`
	Numero     string     `bson:"numero" json:"numero"`
	Titulo     string     `bson:"titulo" json:"titulo"`
	Origem     string     `bson:"origem" json:"origem"` // CNPJ normalizado (14 dígitos)
	CompanyID  string     `bson:"company_id" json:"companyId"`
	Status     Status     `bson:"status" json:"status"`
	Prioridade Prioridade `bson:"prioridade" json:"prioridade"`
	Estagio    string     `bson:"estagio,omitempty" json:"estagio,omitempty"`
	Mes        int        `bson:"mes,omitempty" json:"mes,omitempty"` // 0 = ausente
	Descricao  string     `bson:"descricao,omitempty" json:"descricao,omitempty"`
	Mensagem   string     `bson:"mensagem,omitempty" json:"mensagem,omitempty"`
	Boleto     Attachment `bson:"boleto" json:"boleto"`
	NotaFiscal Attachment `bson:"nota_fiscal" json:"notaFiscal"`

	Visualizado   bool       `bson:"visualizado" json:"visualizado"`
	VisualizadoEm *time.Time `bson:"visualizado_em,omitempty" json:"visualizadoEm,omitempty"`
	Respondido    bool       `bson:"respondido" json:"respondido"`
	RespondidoEm  *time.Time `bson:"respondido_em,omitempty" json:"respondidoEm,omitempty"`

	DataCriacao     time.Time `bson:"data_criacao" json:"dataCriacao"`
	DataAtualizacao time.Time `bson:"data_atualizacao" json:"dataAtualizacao"`
}

// HasAttachment: boleto ou nota fiscal presentes.
func (s Solicitacao) HasAttachment() bool {
	return s.Boleto.Present() || s.NotaFiscal.Present()
}

// Clone copia os ponteiros de timestamp para que alterações no clone não vazem.
func (s Solicitacao) Clone() Solicitacao {
	out := s
	if s.VisualizadoEm != nil {
		t := *s.VisualizadoEm
		out.VisualizadoEm = &t
	}
	if s.RespondidoEm != nil {
		t := *s.RespondidoEm
		out.RespondidoEm = &t
	}
	out.Boleto.Content = nil
	out.NotaFiscal.Content = nil
	return out
}
