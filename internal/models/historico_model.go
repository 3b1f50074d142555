package models

import "time"

type Tipo string

const (
	TipoSolicitacao Tipo = "solicitacao"
	TipoBoleto      Tipo = "boleto"
	TipoNotaFiscal  Tipo = "nota_fiscal"
	TipoAcaoSistema Tipo = "acao_sistema"
)

// ManualEntry é um lançamento do histórico que não vem de uma solicitação.
type ManualEntry struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Tipo      Tipo      `bson:"tipo" json:"tipo"`
	Protocolo string    `bson:"protocolo" json:"protocolo"`
	Status    string    `bson:"status" json:"status"`
	Titulo    string    `bson:"titulo" json:"titulo"`
	Descricao string    `bson:"descricao,omitempty" json:"descricao,omitempty"`
	Origem    string    `bson:"origem,omitempty" json:"origem,omitempty"`
	CompanyID string    `bson:"company_id,omitempty" json:"companyId,omitempty"`
	EventID   string    `bson:"event_id,omitempty" json:"-"` // message id do broker, p/ idempotência do worker
	CriadoEm  time.Time `bson:"criado_em" json:"criadoEm"`
}
