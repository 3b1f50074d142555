// Package clock isola o "agora" e o calendário do lojista para que as
// derivações dependentes de mês sejam determinísticas em teste.
package clock

import (
	"fmt"
	"time"
)

// MerchantTimezone é o fuso usado na numeração de meses do contrato.
const MerchantTimezone = "America/Sao_Paulo"

type Clock interface {
	Now() time.Time
}

// System devolve time.Now no fuso informado.
type System struct {
	Loc *time.Location
}

func (s System) Now() time.Time {
	if s.Loc == nil {
		return time.Now()
	}
	return time.Now().In(s.Loc)
}

// Fixed devolve sempre o mesmo instante.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Location carrega o fuso pelo nome; vazio cai no MerchantTimezone.
func Location(name string) (*time.Location, error) {
	if name == "" {
		name = MerchantTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// MonthsBetween conta quantos meses de calendário separam from de to, no fuso de to.
// Negativo quando from está no futuro.
func MonthsBetween(from, to time.Time) int {
	from = from.In(to.Location())
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
