package handlers

import (
	"net/http"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

type MeView struct {
	Actor        *access.Actor          `json:"actor"`
	Capabilities map[access.Action]bool `json:"capabilities"`
	SemEmpresa   bool                   `json:"semEmpresa"`
}

// GET /api/me
func Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, MeView{
		Actor:        actor,
		Capabilities: access.Capabilities(actor),
		SemEmpresa:   access.NeedsOnboarding(actor),
	})
}
