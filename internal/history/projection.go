// Package history projeta solicitações e lançamentos manuais numa linha do tempo única.
package history

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/models"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Source string

const (
	SourceSolicitacao Source = "solicitacao"
	SourceManual      Source = "manual"
)

var ErrUnknownSource = errors.New("unknown history source")

type Row struct {
	ID        string      `json:"id"`
	Tipo      models.Tipo `json:"tipo"`
	Protocolo string      `json:"protocolo"`
	Data      string      `json:"data"`
	Horario   string      `json:"horario"`
	Status    string      `json:"status"`
	Titulo    string      `json:"titulo"`
	Descricao string      `json:"descricao,omitempty"`
	Origem    string      `json:"origem,omitempty"`
	CompanyID string      `json:"-"`
	Source    Source      `json:"source"`
}

// Project gera uma linha por solicitação seguida dos lançamentos manuais.
// Datas ausentes usam now. loc é o calendário do lojista.
func Project(reqs []models.Solicitacao, manual []models.ManualEntry, now time.Time, loc *time.Location) []Row {
	if loc == nil {
		loc = now.Location()
	}
	rows := make([]Row, 0, len(reqs)+len(manual))
	for _, r := range reqs {
		data, horario := split(r.DataCriacao, now, loc)
		rows = append(rows, Row{
			ID:        r.ID,
			Tipo:      models.TipoSolicitacao,
			Protocolo: r.Numero,
			Data:      data,
			Horario:   horario,
			Status:    string(r.Status),
			Titulo:    r.Titulo,
			Descricao: r.Descricao,
			Origem:    r.Origem,
			CompanyID: r.CompanyID,
			Source:    SourceSolicitacao,
		})
	}
	for _, e := range manual {
		data, horario := split(e.CriadoEm, now, loc)
		rows = append(rows, Row{
			ID:        e.ID,
			Tipo:      e.Tipo,
			Protocolo: e.Protocolo,
			Data:      data,
			Horario:   horario,
			Status:    e.Status,
			Titulo:    e.Titulo,
			Descricao: e.Descricao,
			Origem:    e.Origem,
			CompanyID: e.CompanyID,
			Source:    SourceManual,
		})
	}
	return rows
}

func split(at, now time.Time, loc *time.Location) (string, string) {
	if at.IsZero() {
		at = now
	}
	at = at.In(loc)
	return at.Format(DateLayout), at.Format(TimeLayout)
}

type Params struct {
	Tipo   string // "" ou "all" = todos
	Status lifecycle.Bucket
	Text   string
}

func Filter(rows []Row, p Params) []Row {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(p.Text))
	tipo := p.Tipo
	if tipo == "all" {
		tipo = ""
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if tipo != "" && string(r.Tipo) != tipo {
			continue
		}
		if !p.Status.MatchStatus(models.Status(r.Status)) {
			continue
		}
		if needle != "" && !matchText(fold, r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchText(fold cases.Caser, r Row, needle string) bool {
	for _, hay := range []string{r.Protocolo, r.Titulo, r.Descricao, r.Origem} {
		if strings.Contains(fold.String(hay), needle) {
			return true
		}
	}
	return false
}

// DeleteTarget diz o que de fato deve ser apagado para remover uma linha.
type DeleteTarget struct {
	Source Source
	ID     string
}

// ResolveDelete: linha de solicitação vira exclusão da solicitação; a projeção
// em si nunca é apagada.
func ResolveDelete(source Source, id string) (DeleteTarget, error) {
	switch source {
	case SourceSolicitacao, SourceManual:
		if id == "" {
			return DeleteTarget{}, errors.New("history row id is required")
		}
		return DeleteTarget{Source: source, ID: id}, nil
	}
	return DeleteTarget{}, ErrUnknownSource
}
