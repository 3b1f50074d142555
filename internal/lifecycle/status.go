// Package lifecycle define os status válidos de uma solicitação, seus rótulos
// de exibição e os flags de comunicação (visualizado/respondido).
//
// A ordem das transições não é imposta aqui; o backend é a autoridade.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

var ErrUnknownStatus = errors.New("unknown status")

type Tone string

const (
	ToneInfo     Tone = "info"
	ToneWarning  Tone = "warning"
	ToneProgress Tone = "progress"
	ToneSuccess  Tone = "success"
	ToneDanger   Tone = "danger"
	ToneNeutral  Tone = "neutral"
)

type Definition struct {
	Status models.Status `json:"status"`
	Label  string        `json:"label"`
	Tone   Tone          `json:"tone"`
}

var definitions = []Definition{
	{models.StatusAberto, "Aberto", ToneInfo},
	{models.StatusPendente, "Pendente", ToneWarning},
	{models.StatusEmAndamento, "Em andamento", ToneProgress},
	{models.StatusAguardandoValidacao, "Aguardando validação", ToneWarning},
	{models.StatusAprovado, "Aprovado", ToneSuccess},
	{models.StatusRejeitado, "Rejeitado", ToneDanger},
	{models.StatusConcluido, "Concluído", ToneSuccess},
	{models.StatusCancelado, "Cancelado", ToneNeutral},
	{models.StatusFechado, "Fechado", ToneNeutral},
}

var byStatus = func() map[models.Status]Definition {
	m := make(map[models.Status]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Status] = d
	}
	return m
}()

// All devolve as definições na ordem do fluxo.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

func Lookup(s models.Status) (Definition, bool) {
	d, ok := byStatus[s]
	return d, ok
}

func Valid(s models.Status) bool {
	_, ok := byStatus[s]
	return ok
}

// Label devolve o rótulo humano; status desconhecido volta como o token cru.
func Label(s models.Status) string {
	if d, ok := byStatus[s]; ok {
		return d.Label
	}
	return string(s)
}

func ToneOf(s models.Status) Tone {
	if d, ok := byStatus[s]; ok {
		return d.Tone
	}
	return ToneNeutral
}

func Parse(raw string) (models.Status, error) {
	s := models.Status(raw)
	if !Valid(s) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}
