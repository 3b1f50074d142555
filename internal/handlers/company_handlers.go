package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/service"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

type CompanyRepository interface {
	GetAll(ctx context.Context, limit, skip int64) ([]models.Company, error)
	Create(ctx context.Context, c *models.Company) (string, error)
	GetByID(ctx context.Context, id string) (*models.Company, error)
	Update(ctx context.Context, id string, p repository.CompanyPatch) error
	Replace(ctx context.Context, id string, doc *models.Company) error
	Delete(ctx context.Context, id string) error
}

type Publisher interface {
	Publish(ctx context.Context, body string, headers amqp.Table) error
	Close() error
}

type CompanyHandler struct {
	Repo CompanyRepository
	Pub  Publisher
}

func NewCompanyHandler(repo CompanyRepository, pub Publisher) *CompanyHandler {
	return &CompanyHandler{Repo: repo, Pub: pub}
}

const companiesBase = "/api/companies"

func companyView(c models.Company) CompanyView {
	v := CompanyView{ID: c.ID, Nome: c.Nome, CNPJs: c.CNPJs, Ativo: c.Ativo}
	for _, cnpj := range c.CNPJs {
		v.CNPJsFormatados = append(v.CNPJsFormatados, utils.FormatCNPJ(cnpj))
	}
	return v
}

// normalizeCNPJs sanitiza, valida e rejeita repetidos dentro do mesmo payload.
func normalizeCNPJs(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := map[string]bool{}
	for _, r := range raw {
		cnpj := utils.SanitizeCNPJ(r)
		if !utils.ValidateCNPJ(cnpj) {
			return nil, fmt.Errorf("invalid cnpj %q", r)
		}
		if seen[cnpj] {
			return nil, fmt.Errorf("duplicated cnpj %q", r)
		}
		seen[cnpj] = true
		out = append(out, cnpj)
	}
	return out, nil
}

func (h *CompanyHandler) Companies(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	switch r.Method {

	// "getAll", "getAll-pagination"(skip, limit)
	case http.MethodGet:
		if access.NeedsOnboarding(actor) {
			writeServiceError(w, service.ErrNoCompany)
			return
		}
		if !access.Can(actor, access.ViewCompanies, nil) {
			utils.Forbidden(w)
			return
		}
		q := r.URL.Query()
		limit := int64(50)
		skip := int64(0)
		if l := q.Get("limit"); l != "" {
			if v, err := strconv.ParseInt(l, 10, 64); err == nil && v > 0 && v <= 200 {
				limit = v
			}
		}
		if s := q.Get("skip"); s != "" {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
				skip = v
			}
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		list, err := h.Repo.GetAll(ctx, limit, skip)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		visible := access.VisibleCompanies(actor, list)
		out := make([]CompanyView, 0, len(visible))
		for _, c := range visible {
			out = append(out, companyView(c))
		}
		utils.WriteJSON(w, http.StatusOK, out)

	// create
	case http.MethodPost:
		if !access.Can(actor, access.ManageCompanies, nil) {
			utils.Forbidden(w)
			return
		}
		var dto CompanyCreateDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, utils.FormatUnknownFieldError(err))
			return
		}
		if err := validateDTO(dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		cnpjs, err := normalizeCNPJs(dto.CNPJs)
		if err != nil {
			utils.BadRequest(w, err.Error())
			return
		}

		c := models.Company{
			ID:    primitive.NewObjectID().Hex(),
			Nome:  strings.TrimSpace(dto.Nome),
			CNPJs: cnpjs,
			Ativo: dto.Ativo == nil || *dto.Ativo,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := h.Repo.Create(ctx, &c); err != nil {
			if errors.Is(err, repository.ErrDuplicateCNPJ) {
				utils.WriteJSON(w, http.StatusConflict, map[string]string{"error": "cnpj already exists"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		h.publishEvent("Cadastro", &c)
		utils.WriteJSON(w, http.StatusCreated, companyView(c))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *CompanyHandler) CompanyByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDFromPath(r.URL.Path, companiesBase)
	if !ok {
		utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !access.Can(actor, access.ViewCompanies, access.CompanyIDTarget(id)) {
			// fora do escopo se comporta como inexistente
			utils.NotFound(w)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		c, err := h.Repo.GetByID(ctx, id)
		if err != nil {
			utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, companyView(*c))

	case http.MethodPatch:
		if !access.Can(actor, access.ManageCompanies, access.CompanyIDTarget(id)) {
			utils.Forbidden(w)
			return
		}
		var dto CompanyPatchDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, utils.FormatUnknownFieldError(err))
			return
		}
		if err := validateDTO(dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}

		patch := repository.CompanyPatch{Ativo: dto.Ativo}
		if dto.Nome != nil {
			nome := strings.TrimSpace(*dto.Nome)
			patch.Nome = &nome
		}
		if dto.CNPJs != nil {
			cnpjs, err := normalizeCNPJs(*dto.CNPJs)
			if err != nil {
				utils.BadRequest(w, err.Error())
				return
			}
			patch.CNPJs = cnpjs
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.Repo.Update(ctx, id, patch); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				utils.NotFound(w)
			case errors.Is(err, repository.ErrDuplicateCNPJ):
				utils.WriteJSON(w, http.StatusConflict, map[string]string{"error": "cnpj already exists"})
			default:
				utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
			return
		}

		// Retorna o doc atualizado
		c2, _ := h.Repo.GetByID(ctx, id)
		if c2 != nil {
			h.publishEvent("Edição", c2)
			utils.WriteJSON(w, http.StatusOK, companyView(*c2))
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id})

	case http.MethodPut:
		if !access.Can(actor, access.ManageCompanies, access.CompanyIDTarget(id)) {
			utils.Forbidden(w)
			return
		}
		var dto CompanyPutDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, utils.FormatUnknownFieldError(err))
			return
		}
		if err := validateDTO(dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		cnpjs, err := normalizeCNPJs(dto.CNPJs)
		if err != nil {
			utils.BadRequest(w, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		current, err := h.Repo.GetByID(ctx, id)
		if err != nil {
			utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}

		// monta o documento COMPLETO que substituirá o atual (PUT = replace)
		newDoc := models.Company{
			ID:        id,
			Nome:      strings.TrimSpace(dto.Nome),
			CNPJs:     cnpjs,
			Ativo:     dto.Ativo,
			CreatedAt: current.CreatedAt, // preserva criação
			UpdatedAt: time.Now(),
		}

		if err := h.Repo.Replace(ctx, id, &newDoc); err != nil {
			if errors.Is(err, repository.ErrDuplicateCNPJ) {
				utils.WriteJSON(w, http.StatusConflict, map[string]string{"error": "cnpj already exists"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		h.publishEvent("Edição", &newDoc)
		utils.WriteJSON(w, http.StatusOK, companyView(newDoc))

	case http.MethodDelete:
		if !access.Can(actor, access.ManageCompanies, access.CompanyIDTarget(id)) {
			utils.Forbidden(w)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		// Busca antes de deletar para logar o nome
		c, err := h.Repo.GetByID(ctx, id)
		if err != nil {
			utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}

		if err := h.Repo.Delete(ctx, id); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		h.publishEvent("Exclusão", c)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// publishEvent manda um texto curto para a fila; o worker grava como ação do sistema.
func (h *CompanyHandler) publishEvent(acao string, c *models.Company) {
	if h.Pub == nil || c == nil {
		return
	}
	msg := fmt.Sprintf("%s de EMPRESA %s", acao, c.Nome)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = h.Pub.Publish(ctx, msg, amqp.Table{
		"event_id":   primitive.NewObjectID().Hex(),
		"action":     strings.ToLower(acao), // cadastro|edição|exclusão
		"company_id": c.ID,
		"cnpj":       strings.Join(c.CNPJs, ","),
		"nome":       c.Nome,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
