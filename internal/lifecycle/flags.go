package lifecycle

import (
	"errors"
	"time"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

var (
	ErrViewedPairing   = errors.New("visualizado and visualizadoEm out of sync")
	ErrAnsweredPairing = errors.New("respondido and respondidoEm out of sync")
)

// MarkViewed liga visualizado junto com o timestamp. Idempotente: se já estava
// visualizado nada muda. Retorna true quando houve alteração.
func MarkViewed(s *models.Solicitacao, now time.Time) bool {
	if s.Visualizado {
		return false
	}
	at := now
	s.Visualizado = true
	s.VisualizadoEm = &at
	return true
}

// MarkAnswered segue a mesma regra de MarkViewed para respondido/respondidoEm.
func MarkAnswered(s *models.Solicitacao, now time.Time) bool {
	if s.Respondido {
		return false
	}
	at := now
	s.Respondido = true
	s.RespondidoEm = &at
	return true
}

func CheckPairing(s models.Solicitacao) error {
	var errs []error
	if s.Visualizado != (s.VisualizadoEm != nil) {
		errs = append(errs, ErrViewedPairing)
	}
	if s.Respondido != (s.RespondidoEm != nil) {
		errs = append(errs, ErrAnsweredPairing)
	}
	return errors.Join(errs...)
}
