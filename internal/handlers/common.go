package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/auth"
	"github.com/Project-FinanceHUB/financehub/internal/history"
	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/service"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

func Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// subPath devolve os segmentos depois de base: "/api/companies/x" com base
// "/api/companies" -> ["x"]. ok=false se o path não está sob base.
func subPath(path, base string) ([]string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimRight(path, "/"), base)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return nil, false
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil, true
	}
	return strings.Split(rest, "/"), true
}

// parseIDFromPath garante o padrão {base}/{id}.
func parseIDFromPath(path, base string) (string, bool) {
	parts, ok := subPath(path, base)
	if !ok || len(parts) != 1 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}

// actorOr401 devolve o ator autenticado ou responde 401.
func actorOr401(w http.ResponseWriter, r *http.Request) (*access.Actor, bool) {
	a := auth.ActorFrom(r.Context())
	if a == nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return a, true
}

// writeServiceError traduz os erros do domínio em status HTTP. Sempre uma única mensagem.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": ve.Fields,
			"first":  ve.Fields.First(),
		})
	case errors.Is(err, service.ErrNoCompany):
		utils.WriteJSON(w, http.StatusForbidden, map[string]any{"error": "no company", "onboarding": true})
	case errors.Is(err, service.ErrForbidden):
		utils.Forbidden(w)
	case errors.Is(err, repository.ErrNotFound):
		utils.NotFound(w)
	case errors.Is(err, service.ErrBusy):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrDuplicateCNPJ),
		errors.Is(err, repository.ErrDuplicateEmail),
		errors.Is(err, repository.ErrDuplicateNumero):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTimeout):
		utils.WriteError(w, http.StatusGatewayTimeout, "the operation took too long, please try again")
	case errors.Is(err, lifecycle.ErrUnknownStatus), errors.Is(err, history.ErrUnknownSource):
		utils.BadRequest(w, err.Error())
	default:
		slog.Error("request_failed", "err", err)
		utils.WriteError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}
