package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/history"
	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/query"
	"github.com/Project-FinanceHUB/financehub/internal/service"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
	"github.com/Project-FinanceHUB/financehub/internal/validation"
)

type SolicitacaoService interface {
	List(ctx context.Context, actor *access.Actor, p query.Params) (query.Result, error)
	Get(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error)
	Create(ctx context.Context, actor *access.Actor, d validation.Draft) (models.Solicitacao, error)
	Update(ctx context.Context, actor *access.Actor, id string, p service.Patch) (models.Solicitacao, error)
	ChangeStatus(ctx context.Context, actor *access.Actor, id, status string) (models.Solicitacao, error)
	MarkViewed(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error)
	MarkAnswered(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error)
	Delete(ctx context.Context, actor *access.Actor, id string) error
	AttachmentURL(ctx context.Context, actor *access.Actor, id, field string) (string, error)
	History(ctx context.Context, actor *access.Actor, p history.Params) ([]history.Row, error)
	CreateManualEntry(ctx context.Context, actor *access.Actor, in service.ManualEntryInput) (models.ManualEntry, error)
	DeleteHistoryRow(ctx context.Context, actor *access.Actor, source history.Source, id string) error
	Monthly(ctx context.Context, actor *access.Actor) (service.MonthlyView, error)
}

type SolicitacaoHandler struct {
	Svc SolicitacaoService
}

func NewSolicitacaoHandler(svc SolicitacaoService) *SolicitacaoHandler {
	return &SolicitacaoHandler{Svc: svc}
}

const (
	solicitacoesBase = "/api/solicitacoes"
	maxFormBody      = 3*validation.MaxAttachmentSize + 1<<20
)

var allowedExt = map[string]bool{".pdf": true, ".xml": true, ".jpg": true, ".jpeg": true, ".png": true}

// /api/solicitacoes
func (h *SolicitacaoHandler) Solicitacoes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		p := query.Params{
			Text:      q.Get("q"),
			Bucket:    lifecycle.ParseBucket(q.Get("bucket")),
			SortBy:    query.SortField(q.Get("sort")),
			Direction: query.Direction(q.Get("dir")),
		}
		if l := q.Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				p.PageSize = v
			}
		}
		res, err := h.Svc.List(r.Context(), actor, p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := SolicitacaoListView{Items: make([]SolicitacaoView, 0, len(res.Items)), Total: res.Total}
		for _, s := range res.Items {
			out.Items = append(out.Items, solicitacaoView(s))
		}
		utils.WriteJSON(w, http.StatusOK, out)

	case http.MethodPost:
		form, cleanup, ferrs, err := parseForm(w, r)
		if err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		defer cleanup()

		mes, merrs := validation.ParseMes(form.value("mes"))
		d := validation.Draft{
			Titulo:     form.value("titulo"),
			Origem:     form.value("origem"),
			CompanyID:  form.value("companyId"),
			Mes:        mes,
			Prioridade: models.Prioridade(form.value("prioridade")),
			Estagio:    form.value("estagio"),
			Descricao:  form.value("descricao"),
			Mensagem:   form.value("mensagem"),
			Boleto:     form.file(validation.FieldBoleto),
			NotaFiscal: form.file(validation.FieldNotaFiscal),
		}
		if errs := ferrs.Merge(merrs); !errs.Empty() {
			// junta com o restante da validação para o cliente ver tudo de uma vez
			all := validation.Validate(validation.Normalize(d), validation.ModeCreate)
			writeServiceError(w, &service.ValidationError{Fields: errs.Merge(all)})
			return
		}

		sol, err := h.Svc.Create(r.Context(), actor, d)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusCreated, solicitacaoView(sol))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// /api/solicitacoes/{id}[/status|/visualizar|/responder|/anexos/{campo}]
func (h *SolicitacaoHandler) SolicitacaoByID(w http.ResponseWriter, r *http.Request) {
	parts, ok := subPath(r.URL.Path, solicitacoesBase)
	if !ok || len(parts) == 0 || parts[0] == "" {
		utils.NotFound(w)
		return
	}
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		h.item(w, r, actor, id)
	case len(parts) == 2 && r.Method == http.MethodPost:
		h.action(w, r, actor, id, parts[1])
	case len(parts) == 3 && parts[1] == "anexos" && r.Method == http.MethodGet:
		u, err := h.Svc.AttachmentURL(r.Context(), actor, id, parts[2])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		http.Redirect(w, r, u, http.StatusFound)
	case len(parts) == 2 || len(parts) == 3:
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		utils.NotFound(w)
	}
}

func (h *SolicitacaoHandler) item(w http.ResponseWriter, r *http.Request, actor *access.Actor, id string) {
	switch r.Method {
	case http.MethodGet:
		sol, err := h.Svc.Get(r.Context(), actor, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, solicitacaoView(sol))

	case http.MethodPatch:
		var (
			p   service.Patch
			err error
		)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			form, cleanup, ferrs, perr := parseForm(w, r)
			if perr != nil {
				utils.BadRequest(w, perr.Error())
				return
			}
			defer cleanup()
			if !ferrs.Empty() {
				writeServiceError(w, &service.ValidationError{Fields: ferrs})
				return
			}
			p, err = patchFromForm(form)
		} else {
			var dto SolicitacaoPatchDTO
			if derr := utils.DecodeStrict(r.Body, &dto); derr != nil {
				utils.BadRequest(w, utils.FormatUnknownFieldError(derr))
				return
			}
			p = patchFromDTO(dto)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		sol, err := h.Svc.Update(r.Context(), actor, id, p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, solicitacaoView(sol))

	case http.MethodDelete:
		if err := h.Svc.Delete(r.Context(), actor, id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *SolicitacaoHandler) action(w http.ResponseWriter, r *http.Request, actor *access.Actor, id, name string) {
	var (
		sol models.Solicitacao
		err error
	)
	switch name {
	case "status":
		var dto StatusDTO
		if derr := utils.DecodeStrict(r.Body, &dto); derr != nil {
			utils.BadRequest(w, utils.FormatUnknownFieldError(derr))
			return
		}
		if verr := validateDTO(dto); verr != nil {
			utils.BadRequest(w, verr.Error())
			return
		}
		sol, err = h.Svc.ChangeStatus(r.Context(), actor, id, dto.Status)
	case "visualizar":
		sol, err = h.Svc.MarkViewed(r.Context(), actor, id)
	case "responder":
		sol, err = h.Svc.MarkAnswered(r.Context(), actor, id)
	default:
		utils.NotFound(w)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, solicitacaoView(sol))
}

// formData guarda os valores e arquivos do multipart já checados.
type formData struct {
	values map[string][]string
	files  map[string]models.Attachment
}

func (f formData) has(k string) bool {
	_, ok := f.values[k]
	return ok
}

func (f formData) value(k string) string {
	if v := f.values[k]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f formData) file(k string) models.Attachment {
	if a, ok := f.files[k]; ok {
		return a
	}
	return models.NoAttachment()
}

// parseForm lê o multipart e abre os arquivos aceitos. Extensão não permitida
// vira erro de campo. cleanup fecha os arquivos e apaga temporários.
func parseForm(w http.ResponseWriter, r *http.Request) (formData, func(), validation.FieldErrors, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseMultipartForm(2 * validation.MaxAttachmentSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			if r.ContentLength > 0 {
				return formData{}, func() {}, nil, fmt.Errorf("request body too large: %d bytes (max %d)", r.ContentLength, mbe.Limit)
			}
			return formData{}, func() {}, nil, fmt.Errorf("request body too large (max %d bytes)", mbe.Limit)
		}
		return formData{}, func() {}, nil, errors.New("invalid multipart form")
	}

	form := formData{values: r.MultipartForm.Value, files: map[string]models.Attachment{}}
	errs := validation.FieldErrors{}
	var opened []io.Closer

	for _, field := range []string{validation.FieldBoleto, validation.FieldNotaFiscal} {
		hs := r.MultipartForm.File[field]
		if len(hs) == 0 {
			continue
		}
		fh := hs[0]
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedExt[ext] {
			errs[field] = field + " must be a pdf, xml, jpg, jpeg or png file"
			continue
		}
		f, err := fh.Open()
		if err != nil {
			errs[field] = field + " could not be read"
			continue
		}
		opened = append(opened, f)
		form.files[field] = models.HandleAttachment(fh.Filename, fh.Size, f)
	}

	cleanup := func() {
		for _, c := range opened {
			_ = c.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}
	return form, cleanup, errs, nil
}

func patchFromForm(f formData) (service.Patch, error) {
	var p service.Patch
	str := func(k string) *string {
		if !f.has(k) {
			return nil
		}
		v := f.value(k)
		return &v
	}
	p.Titulo = str("titulo")
	p.Origem = str("origem")
	p.Estagio = str("estagio")
	p.Descricao = str("descricao")
	p.Mensagem = str("mensagem")
	if v := str("prioridade"); v != nil {
		pr := models.Prioridade(*v)
		p.Prioridade = &pr
	}
	if f.has("mes") {
		mes, errs := validation.ParseMes(f.value("mes"))
		if !errs.Empty() {
			return p, &service.ValidationError{Fields: errs}
		}
		p.Mes = mes
	}
	if a, ok := f.files[validation.FieldBoleto]; ok {
		p.Boleto = &a
	}
	if a, ok := f.files[validation.FieldNotaFiscal]; ok {
		p.NotaFiscal = &a
	}
	return p, nil
}

func patchFromDTO(d SolicitacaoPatchDTO) service.Patch {
	p := service.Patch{
		Titulo: d.Titulo, Origem: d.Origem, Estagio: d.Estagio,
		Descricao: d.Descricao, Mensagem: d.Mensagem, Mes: d.Mes,
	}
	if d.Prioridade != nil {
		pr := models.Prioridade(*d.Prioridade)
		p.Prioridade = &pr
	}
	return p
}
