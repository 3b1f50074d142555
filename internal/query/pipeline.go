// Package query deriva a lista visível (filtro, ordenação, paginação) a partir
// de um snapshot da coleção de solicitações. Tudo aqui é puro.
package query

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/models"
)

type SortField string

const (
	SortNumero SortField = "numero"
	SortTitulo SortField = "titulo"
	SortOrigem SortField = "origem"
	SortStatus SortField = "status"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Params struct {
	Text      string
	Bucket    lifecycle.Bucket
	SortBy    SortField
	Direction Direction
	PageSize  int // <= 0: tudo
}

type Result struct {
	Items []models.Solicitacao `json:"items"`
	Total int                  `json:"total"` // quantidade filtrada, antes do corte da página
}

// Run aplica texto -> bucket -> ordenação -> corte. O slice de entrada não é alterado.
func Run(reqs []models.Solicitacao, p Params) Result {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(p.Text))

	filtered := make([]models.Solicitacao, 0, len(reqs))
	for _, r := range reqs {
		if needle != "" && !matchText(fold, r, needle) {
			continue
		}
		if !p.Bucket.Match(r) {
			continue
		}
		filtered = append(filtered, r)
	}

	if key := sortKey(p.SortBy); key != nil {
		desc := p.Direction == Desc
		slices.SortStableFunc(filtered, func(a, b models.Solicitacao) int {
			c := strings.Compare(fold.String(key(a)), fold.String(key(b)))
			if desc {
				return -c
			}
			return c
		})
	}

	total := len(filtered)
	if p.PageSize > 0 && p.PageSize < total {
		filtered = filtered[:p.PageSize]
	}
	return Result{Items: filtered, Total: total}
}

// o status entra pelo rótulo exibido, não pelo token
func matchText(fold cases.Caser, r models.Solicitacao, needle string) bool {
	for _, hay := range []string{r.Numero, r.Titulo, r.Origem, lifecycle.Label(r.Status)} {
		if strings.Contains(fold.String(hay), needle) {
			return true
		}
	}
	return false
}

func sortKey(f SortField) func(models.Solicitacao) string {
	switch f {
	case SortNumero:
		return func(r models.Solicitacao) string { return r.Numero }
	case SortTitulo:
		return func(r models.Solicitacao) string { return r.Titulo }
	case SortOrigem:
		return func(r models.Solicitacao) string { return r.Origem }
	case SortStatus:
		return func(r models.Solicitacao) string { return string(r.Status) }
	}
	return nil
}
