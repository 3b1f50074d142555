package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/history"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/monthly"
	"github.com/Project-FinanceHUB/financehub/internal/query"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
)

// visible devolve o recorte do ator e a versão do snapshot de onde veio.
func (s *Solicitacoes) visible(ctx context.Context, actor *access.Actor, action access.Action) ([]models.Solicitacao, uint64, error) {
	if access.NeedsOnboarding(actor) {
		return nil, 0, ErrNoCompany
	}
	if !access.Can(actor, action, nil) {
		return nil, 0, ErrForbidden
	}
	if err := s.coll.Ensure(ctx); err != nil {
		return nil, 0, fmt.Errorf("load solicitacoes: %w", err)
	}
	items, version := s.coll.Snapshot()
	return access.VisibleRequests(actor, items), version, nil
}

func (s *Solicitacoes) List(ctx context.Context, actor *access.Actor, p query.Params) (query.Result, error) {
	items, version, err := s.visible(ctx, actor, access.ViewRequests)
	if err != nil {
		return query.Result{}, err
	}
	return s.memo.Run(version, actor.Scope(), items, p), nil
}

func (s *Solicitacoes) Get(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error) {
	if err := s.coll.Ensure(ctx); err != nil {
		return models.Solicitacao{}, fmt.Errorf("load solicitacoes: %w", err)
	}
	sol, ok := s.coll.Get(id)
	if !ok {
		return models.Solicitacao{}, ErrNotFound
	}
	if !access.Can(actor, access.ViewRequests, access.RequestTarget(sol)) {
		return models.Solicitacao{}, ErrForbidden
	}
	return sol, nil
}

// AttachmentURL gera link temporário para boleto ou notaFiscal.
func (s *Solicitacoes) AttachmentURL(ctx context.Context, actor *access.Actor, id, field string) (string, error) {
	sol, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	var a models.Attachment
	switch field {
	case "boleto":
		a = sol.Boleto
	case "notaFiscal", "nota_fiscal":
		a = sol.NotaFiscal
	default:
		return "", ErrNotFound
	}
	if a.Kind != models.AttachmentPath || s.files == nil {
		return "", ErrNotFound
	}
	return s.files.URL(ctx, a.Path, 15*time.Minute)
}

func (s *Solicitacoes) History(ctx context.Context, actor *access.Actor, p history.Params) ([]history.Row, error) {
	items, _, err := s.visible(ctx, actor, access.ViewHistory)
	if err != nil {
		return nil, err
	}
	lctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	manual, err := s.historico.List(lctx)
	if err != nil {
		return nil, fmt.Errorf("list historico: %w", err)
	}
	rows := history.Project(items, access.VisibleEntries(actor, manual), s.now(), s.loc)
	return history.Filter(rows, p), nil
}

type ManualEntryInput struct {
	Tipo      models.Tipo
	Protocolo string
	Status    string
	Titulo    string
	Descricao string
	Origem    string
	CompanyID string
}

func (s *Solicitacoes) CreateManualEntry(ctx context.Context, actor *access.Actor, in ManualEntryInput) (models.ManualEntry, error) {
	if !access.Can(actor, access.CreateManualEntry, access.CompanyIDTarget(in.CompanyID)) {
		return models.ManualEntry{}, ErrForbidden
	}
	e := models.ManualEntry{
		ID:        primitive.NewObjectID().Hex(),
		Tipo:      in.Tipo,
		Protocolo: strings.TrimSpace(in.Protocolo),
		Status:    in.Status,
		Titulo:    strings.TrimSpace(in.Titulo),
		Descricao: in.Descricao,
		Origem:    in.Origem,
		CompanyID: in.CompanyID,
		CriadoEm:  s.now(),
	}
	if e.Protocolo == "" {
		e.Protocolo = "MAN-" + s.node.Generate().String()
	}
	if err := s.persist(ctx, "create manual entry", func(ctx context.Context) error {
		return s.historico.Create(ctx, &e)
	}); err != nil {
		return models.ManualEntry{}, err
	}
	s.log.Info("manual_entry_created", "id", e.ID, "tipo", e.Tipo)
	return e, nil
}

// DeleteHistoryRow: linha de solicitação apaga a solicitação; linha manual
// apaga o lançamento.
func (s *Solicitacoes) DeleteHistoryRow(ctx context.Context, actor *access.Actor, source history.Source, id string) error {
	target, err := history.ResolveDelete(source, id)
	if err != nil {
		return err
	}
	if target.Source == history.SourceSolicitacao {
		return s.Delete(ctx, actor, target.ID)
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	e, err := s.historico.GetByID(gctx, target.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get manual entry: %w", err)
	}
	if !access.Can(actor, access.DeleteHistoryRow, access.CompanyIDTarget(e.CompanyID)) {
		return ErrForbidden
	}
	if err := s.persist(ctx, "delete manual entry", func(ctx context.Context) error {
		return s.historico.Delete(ctx, target.ID)
	}); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.log.Info("manual_entry_deleted", "id", target.ID)
	return nil
}

type MonthlyView struct {
	Buckets [12]monthly.Bucket `json:"buckets"`
	HasData bool               `json:"hasData"`
	Sample  bool               `json:"sample"`
}

// Monthly agrega o recorte visível; sem dados reais devolve a amostra marcada.
func (s *Solicitacoes) Monthly(ctx context.Context, actor *access.Actor) (MonthlyView, error) {
	items, _, err := s.visible(ctx, actor, access.ViewDashboard)
	if err != nil {
		return MonthlyView{}, err
	}
	res := monthly.Aggregate(items, s.now(), s.policy)
	if !res.HasData {
		return MonthlyView{Buckets: monthly.Sample(), Sample: true}, nil
	}
	return MonthlyView{Buckets: res.Buckets, HasData: true}, nil
}
