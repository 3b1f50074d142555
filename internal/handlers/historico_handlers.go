package handlers

import (
	"net/http"

	"github.com/Project-FinanceHUB/financehub/internal/history"
	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/service"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

const historicoBase = "/api/historico"

type ManualEntryDTO struct {
	Tipo      string `json:"tipo" validate:"required,tipo"`
	Protocolo string `json:"protocolo"`
	Status    string `json:"status" validate:"required"`
	Titulo    string `json:"titulo" validate:"required,min=2"`
	Descricao string `json:"descricao"`
	Origem    string `json:"origem"`
	CompanyID string `json:"companyId"`
}

// /api/historico
func (h *SolicitacaoHandler) Historico(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		rows, err := h.Svc.History(r.Context(), actor, history.Params{
			Tipo:   q.Get("tipo"),
			Status: lifecycle.ParseBucket(q.Get("status")),
			Text:   q.Get("q"),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, rows)

	case http.MethodPost:
		var dto ManualEntryDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, utils.FormatUnknownFieldError(err))
			return
		}
		if err := validateDTO(dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		e, err := h.Svc.CreateManualEntry(r.Context(), actor, service.ManualEntryInput{
			Tipo:      models.Tipo(dto.Tipo),
			Protocolo: dto.Protocolo,
			Status:    dto.Status,
			Titulo:    dto.Titulo,
			Descricao: dto.Descricao,
			Origem:    utils.SanitizeCNPJ(dto.Origem),
			CompanyID: dto.CompanyID,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusCreated, e)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// DELETE /api/historico/{source}/{id}
func (h *SolicitacaoHandler) HistoricoRow(w http.ResponseWriter, r *http.Request) {
	parts, ok := subPath(r.URL.Path, historicoBase)
	if !ok || len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		utils.NotFound(w)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	if err := h.Svc.DeleteHistoryRow(r.Context(), actor, history.Source(parts[0]), parts[1]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/dashboard/mensal
func (h *SolicitacaoHandler) Mensal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Monthly(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}
