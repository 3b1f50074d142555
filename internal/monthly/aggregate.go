// Package monthly agrega solicitações com boleto em 12 meses para o gráfico
// de pagamentos. As contagens por bucket são uma simplificação de tela e não
// substituem o status da solicitação.
package monthly

import (
	"fmt"
	"time"

	"github.com/Project-FinanceHUB/financehub/internal/clock"
	"github.com/Project-FinanceHUB/financehub/internal/models"
)

var MonthLabels = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Policy decide o que fazer com solicitações sem mes cuja data cai fora da
// janela dos últimos 12 meses (mais antigas ou no futuro).
type Policy string

const (
	PolicyClamp   Policy = "clamp"   // encosta no extremo mais próximo da janela
	PolicyExclude Policy = "exclude" // ignora
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyClamp:
		return PolicyClamp, nil
	case PolicyExclude:
		return PolicyExclude, nil
	}
	return "", fmt.Errorf("unknown month policy %q", s)
}

type Bucket struct {
	Mes      string `json:"mes"`
	Pago     int    `json:"pago"`
	Pendente int    `json:"pendente"`
	Vencido  int    `json:"vencido"`
}

func (b Bucket) Total() int { return b.Pago + b.Pendente + b.Vencido }

type Result struct {
	Buckets [12]Bucket `json:"buckets"`
	HasData bool       `json:"hasData"`
	Counted int        `json:"counted"`
}

type payment int

const (
	pendente payment = iota
	pago
	vencido
)

func classify(s models.Status) payment {
	switch s {
	case models.StatusConcluido, models.StatusFechado, models.StatusAprovado:
		return pago
	case models.StatusRejeitado, models.StatusCancelado:
		return vencido
	}
	return pendente
}

func emptyBuckets() [12]Bucket {
	var b [12]Bucket
	for i := range b {
		b[i].Mes = MonthLabels[i]
	}
	return b
}

// Aggregate conta por mês (ordem de calendário) e situação de pagamento.
// now deve estar no fuso do lojista.
func Aggregate(reqs []models.Solicitacao, now time.Time, policy Policy) Result {
	res := Result{Buckets: emptyBuckets()}
	for _, r := range reqs {
		if !r.Boleto.Present() {
			continue
		}
		slot, ok := Slot(r, now, policy)
		if !ok {
			continue
		}
		b := &res.Buckets[slot]
		switch classify(r.Status) {
		case pago:
			b.Pago++
		case vencido:
			b.Vencido++
		default:
			b.Pendente++
		}
		res.Counted++
	}
	res.HasData = res.Counted > 0
	return res
}

// Slot devolve o índice de calendário (0 = Janeiro). Prefere o campo mes; sem
// ele, usa a distância em meses entre dataCriacao e now dentro da janela de 12
// meses que termina no mês corrente.
func Slot(r models.Solicitacao, now time.Time, policy Policy) (int, bool) {
	if r.Mes >= 1 && r.Mes <= 12 {
		return r.Mes - 1, true
	}
	created := r.DataCriacao
	if created.IsZero() {
		created = now
	}
	diff := clock.MonthsBetween(created, now)
	if diff < 0 || diff > 11 {
		if policy == PolicyExclude {
			return 0, false
		}
		diff = max(0, min(diff, 11))
	}
	// posição 11 da janela = mês corrente, posição 0 = onze meses antes
	month := (int(now.Month()) - 1 - diff + 12) % 12
	return month, true
}

// Sample devolve dados ilustrativos para quando Aggregate não tem dados reais.
func Sample() [12]Bucket {
	b := emptyBuckets()
	seed := [12][3]int{
		{8, 3, 1}, {9, 2, 1}, {7, 4, 2}, {10, 3, 0}, {11, 2, 1}, {9, 5, 1},
		{12, 3, 2}, {10, 4, 1}, {13, 2, 0}, {11, 3, 1}, {9, 4, 2}, {14, 2, 1},
	}
	for i := range b {
		b[i].Pago, b[i].Pendente, b[i].Vencido = seed[i][0], seed[i][1], seed[i][2]
	}
	return b
}
