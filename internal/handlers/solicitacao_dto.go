package handlers

import (
	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/models"
)

// PATCH em JSON (sem arquivos). Para trocar anexos use multipart.
type SolicitacaoPatchDTO struct {
	Titulo     *string `json:"titulo,omitempty"`
	Origem     *string `json:"origem,omitempty"`
	Prioridade *string `json:"prioridade,omitempty"`
	Estagio    *string `json:"estagio,omitempty"`
	Mes        *int    `json:"mes,omitempty"`
	Descricao  *string `json:"descricao,omitempty"`
	Mensagem   *string `json:"mensagem,omitempty"`
}

type StatusDTO struct {
	Status string `json:"status" validate:"required"`
}

// SolicitacaoView é a solicitação com rótulo e tom do status para a tela.
type SolicitacaoView struct {
	models.Solicitacao
	StatusLabel string         `json:"statusLabel"`
	StatusTone  lifecycle.Tone `json:"statusTone"`
}

func solicitacaoView(s models.Solicitacao) SolicitacaoView {
	return SolicitacaoView{
		Solicitacao: s,
		StatusLabel: lifecycle.Label(s.Status),
		StatusTone:  lifecycle.ToneOf(s.Status),
	}
}

type SolicitacaoListView struct {
	Items []SolicitacaoView `json:"items"`
	Total int               `json:"total"`
}
