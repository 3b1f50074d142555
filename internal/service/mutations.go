package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/broker"
	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/store"
	"github.com/Project-FinanceHUB/financehub/internal/validation"
)

// Patch altera só os campos não-nil.
type Patch struct {
	Titulo     *string
	Origem     *string
	Prioridade *models.Prioridade
	Estagio    *string
	Mes        *int
	Descricao  *string
	Mensagem   *string
	Boleto     *models.Attachment
	NotaFiscal *models.Attachment
}

func (s *Solicitacoes) Create(ctx context.Context, actor *access.Actor, d validation.Draft) (models.Solicitacao, error) {
	if access.NeedsOnboarding(actor) {
		return models.Solicitacao{}, ErrNoCompany
	}
	if !access.Can(actor, access.CreateRequest, nil) {
		return models.Solicitacao{}, ErrForbidden
	}
	if err := s.coll.Ensure(ctx); err != nil {
		return models.Solicitacao{}, fmt.Errorf("load solicitacoes: %w", err)
	}

	d = validation.Normalize(d)
	if errs := validation.Validate(d, validation.ModeCreate); !errs.Empty() {
		return models.Solicitacao{}, &ValidationError{Fields: errs}
	}
	if d.Prioridade != "" && !d.Prioridade.IsValid() {
		return models.Solicitacao{}, &ValidationError{Fields: validation.FieldErrors{"prioridade": fmt.Sprintf("unknown prioridade %q", d.Prioridade)}}
	}

	companyID := s.resolveCompany(ctx, actor, d.CompanyID, d.Origem)
	if !access.Can(actor, access.CreateRequest, access.CompanyIDTarget(companyID)) {
		return models.Solicitacao{}, ErrForbidden
	}

	now := s.now()
	sol := models.Solicitacao{
		ID:              primitive.NewObjectID().Hex(),
		Numero:          "SOL-" + s.node.Generate().String(),
		Titulo:          d.Titulo,
		Origem:          d.Origem,
		CompanyID:       companyID,
		Status:          models.StatusAberto,
		Prioridade:      d.Prioridade,
		Estagio:         d.Estagio,
		Mes:             int(now.Month()),
		Descricao:       d.Descricao,
		Mensagem:        d.Mensagem,
		Boleto:          d.Boleto,
		NotaFiscal:      d.NotaFiscal,
		DataCriacao:     now,
		DataAtualizacao: now,
	}
	if sol.Prioridade == "" {
		sol.Prioridade = models.PrioridadeMedia
	}
	if d.Mes != nil {
		sol.Mes = *d.Mes
	}

	uploaded, err := s.upload(ctx, &sol)
	if err != nil {
		return models.Solicitacao{}, err
	}

	s.coll.Insert(sol)
	if err := s.persist(ctx, "create solicitacao", func(ctx context.Context) error {
		return s.repo.Create(ctx, &sol)
	}); err != nil {
		s.coll.Discard(sol.ID)
		s.cleanup(ctx, uploaded)
		s.log.Error("mutation_rollback", "op", "create", "numero", sol.Numero, "err", err)
		return models.Solicitacao{}, err
	}

	s.log.Info("solicitacao_created", "id", sol.ID, "numero", sol.Numero, "company_id", sol.CompanyID)
	s.publish(ctx, broker.EventCreated, sol, actor.UserID)
	return sol.Clone(), nil
}

// resolveCompany: id explícito, senão a empresa dona do CNPJ de origem, senão
// a única empresa do ator.
func (s *Solicitacoes) resolveCompany(ctx context.Context, actor *access.Actor, explicit, origem string) string {
	if explicit != "" {
		return explicit
	}
	if s.companies != nil {
		c, err := s.companies.FindByCNPJ(ctx, origem)
		if err == nil {
			return c.ID
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("company_lookup_failed", "origem", origem, "err", err)
		}
	}
	if len(actor.CompanyIDs) == 1 {
		return actor.CompanyIDs[0]
	}
	return ""
}

func (s *Solicitacoes) Update(ctx context.Context, actor *access.Actor, id string, p Patch) (models.Solicitacao, error) {
	return s.mutate(ctx, actor, id, access.EditRequest, broker.EventUpdated, s.save, func(cur models.Solicitacao) (models.Solicitacao, []string, error) {
		d := validation.Draft{
			Titulo: cur.Titulo, Origem: cur.Origem, CompanyID: cur.CompanyID,
			Prioridade: cur.Prioridade, Estagio: cur.Estagio,
			Descricao: cur.Descricao, Mensagem: cur.Mensagem,
			Boleto: cur.Boleto, NotaFiscal: cur.NotaFiscal,
		}
		if cur.Mes != 0 {
			mes := cur.Mes
			d.Mes = &mes
		}
		if d.Prioridade == "" {
			d.Prioridade = models.PrioridadeMedia
		}
		applyPatch(&d, p)
		d = validation.Normalize(d)
		if errs := validation.Validate(d, validation.ModeUpdate); !errs.Empty() {
			return cur, nil, &ValidationError{Fields: errs}
		}
		if !d.Prioridade.IsValid() {
			return cur, nil, &ValidationError{Fields: validation.FieldErrors{"prioridade": fmt.Sprintf("unknown prioridade %q", d.Prioridade)}}
		}

		next := cur
		next.Titulo, next.Origem = d.Titulo, d.Origem
		next.Prioridade, next.Estagio = d.Prioridade, d.Estagio
		next.Descricao, next.Mensagem = d.Descricao, d.Mensagem
		next.Boleto, next.NotaFiscal = d.Boleto, d.NotaFiscal
		if d.Mes != nil {
			next.Mes = *d.Mes
		}
		if p.Origem != nil && d.Origem != cur.Origem {
			next.CompanyID = s.resolveCompany(ctx, actor, "", d.Origem)
			if !access.Can(actor, access.EditRequest, access.RequestTarget(next)) {
				return cur, nil, ErrForbidden
			}
		}

		var replaced []string
		if p.Boleto != nil && cur.Boleto.Kind == models.AttachmentPath {
			replaced = append(replaced, cur.Boleto.Path)
		}
		if p.NotaFiscal != nil && cur.NotaFiscal.Kind == models.AttachmentPath {
			replaced = append(replaced, cur.NotaFiscal.Path)
		}
		return next, replaced, nil
	})
}

func applyPatch(d *validation.Draft, p Patch) {
	if p.Titulo != nil {
		d.Titulo = *p.Titulo
	}
	if p.Origem != nil {
		d.Origem = *p.Origem
		d.CompanyID = ""
	}
	if p.Prioridade != nil {
		d.Prioridade = *p.Prioridade
	}
	if p.Estagio != nil {
		d.Estagio = *p.Estagio
	}
	if p.Mes != nil {
		d.Mes = p.Mes
	}
	if p.Descricao != nil {
		d.Descricao = *p.Descricao
	}
	if p.Mensagem != nil {
		d.Mensagem = *p.Mensagem
	}
	if p.Boleto != nil {
		d.Boleto = *p.Boleto
	}
	if p.NotaFiscal != nil {
		d.NotaFiscal = *p.NotaFiscal
	}
}

func (s *Solicitacoes) ChangeStatus(ctx context.Context, actor *access.Actor, id, raw string) (models.Solicitacao, error) {
	status, err := lifecycle.Parse(raw)
	if err != nil {
		return models.Solicitacao{}, err
	}
	return s.mutate(ctx, actor, id, access.ChangeStatus, broker.EventStatusChanged, s.save, func(cur models.Solicitacao) (models.Solicitacao, []string, error) {
		next := cur
		next.Status = status
		return next, nil, nil
	})
}

func (s *Solicitacoes) MarkViewed(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error) {
	return s.mutate(ctx, actor, id, access.MarkViewed, broker.EventViewed, s.setFlag(repository.FlagVisualizado), func(cur models.Solicitacao) (models.Solicitacao, []string, error) {
		next := cur.Clone()
		if !lifecycle.MarkViewed(&next, s.now()) {
			return cur, nil, errUnchanged
		}
		return next, nil, nil
	})
}

func (s *Solicitacoes) MarkAnswered(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error) {
	return s.mutate(ctx, actor, id, access.MarkAnswered, broker.EventAnswered, s.setFlag(repository.FlagRespondido), func(cur models.Solicitacao) (models.Solicitacao, []string, error) {
		next := cur.Clone()
		if !lifecycle.MarkAnswered(&next, s.now()) {
			return cur, nil, errUnchanged
		}
		return next, nil, nil
	})
}

// errUnchanged: a mutação não tem efeito (ex.: já visualizada); devolve o atual sem persistir.
var errUnchanged = errors.New("unchanged")

// saveFn grava next no banco. Pode reescrever next com o estado que ficou gravado.
type saveFn func(ctx context.Context, next *models.Solicitacao) error

func (s *Solicitacoes) save(ctx context.Context, next *models.Solicitacao) error {
	return s.repo.Save(ctx, next)
}

// setFlag grava só a flag; se outra instância ligou antes, fica o valor do banco.
func (s *Solicitacoes) setFlag(f repository.Flag) saveFn {
	return func(ctx context.Context, next *models.Solicitacao) error {
		at := next.DataAtualizacao
		if f == repository.FlagVisualizado && next.VisualizadoEm != nil {
			at = *next.VisualizadoEm
		}
		if f == repository.FlagRespondido && next.RespondidoEm != nil {
			at = *next.RespondidoEm
		}
		changed, err := s.repo.SetFlag(ctx, next.ID, f, at)
		if err != nil || changed {
			return err
		}
		stored, err := s.repo.GetByID(ctx, next.ID)
		if err != nil {
			return err
		}
		*next = *stored
		return nil
	}
}

// fresh relê a solicitação do banco e atualiza o snapshot. Sem isso uma
// instância com snapshot velho montaria o próximo estado em cima de dados antigos.
func (s *Solicitacoes) fresh(ctx context.Context, id string) (models.Solicitacao, error) {
	var sol *models.Solicitacao
	err := s.persist(ctx, "read solicitacao", func(ctx context.Context) error {
		var err error
		sol, err = s.repo.GetByID(ctx, id)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		s.coll.Discard(id)
		return models.Solicitacao{}, ErrNotFound
	}
	if err != nil {
		return models.Solicitacao{}, err
	}
	s.coll.Put(*sol)
	return sol.Clone(), nil
}

// mutate é o fluxo comum: gate -> reserva -> relê -> otimista -> persiste -> rollback/publica.
// build recebe o estado atual e devolve o próximo e as chaves de anexos substituídos.
func (s *Solicitacoes) mutate(
	ctx context.Context,
	actor *access.Actor,
	id string,
	action access.Action,
	evType broker.EventType,
	save saveFn,
	build func(cur models.Solicitacao) (models.Solicitacao, []string, error),
) (models.Solicitacao, error) {
	if err := s.coll.Ensure(ctx); err != nil {
		return models.Solicitacao{}, fmt.Errorf("load solicitacoes: %w", err)
	}
	cur, ok := s.coll.Get(id)
	if !ok {
		return models.Solicitacao{}, ErrNotFound
	}
	if !access.Can(actor, action, access.RequestTarget(cur)) {
		return models.Solicitacao{}, ErrForbidden
	}

	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return models.Solicitacao{}, err
	}
	defer release()

	// com a reserva na mão, o banco é a fonte: outra instância pode ter mudado o registro
	cur, err = s.fresh(ctx, id)
	if err != nil {
		return models.Solicitacao{}, err
	}
	if !access.Can(actor, action, access.RequestTarget(cur)) {
		return models.Solicitacao{}, ErrForbidden
	}
	next, replaced, err := build(cur)
	if errors.Is(err, errUnchanged) {
		return cur, nil
	}
	if err != nil {
		return models.Solicitacao{}, err
	}
	next.DataAtualizacao = s.now()

	uploaded, err := s.upload(ctx, &next)
	if err != nil {
		return models.Solicitacao{}, err
	}

	prev, err := s.coll.Apply(id, func(sol *models.Solicitacao) { *sol = next })
	if errors.Is(err, store.ErrNotFound) {
		s.cleanup(ctx, uploaded)
		return models.Solicitacao{}, ErrNotFound
	}

	if err := s.persist(ctx, "save solicitacao", func(ctx context.Context) error {
		return save(ctx, &next)
	}); err != nil {
		if !s.coll.Replace(prev) {
			s.log.Info("late_result_ignored", "id", id)
		}
		s.cleanup(ctx, uploaded)
		s.log.Error("mutation_rollback", "op", evType, "id", id, "err", err)
		return models.Solicitacao{}, err
	}
	s.coll.Replace(next)

	s.cleanup(ctx, replaced)
	s.log.Info("solicitacao_changed", "op", evType, "id", id, "status", next.Status)
	s.publish(ctx, evType, next, actor.UserID)
	return next.Clone(), nil
}

func (s *Solicitacoes) Delete(ctx context.Context, actor *access.Actor, id string) error {
	if err := s.coll.Ensure(ctx); err != nil {
		return fmt.Errorf("load solicitacoes: %w", err)
	}
	cur, ok := s.coll.Get(id)
	if !ok {
		return ErrNotFound
	}
	if !access.Can(actor, access.DeleteRequest, access.RequestTarget(cur)) {
		return ErrForbidden
	}
	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	prev, pos, err := s.coll.Remove(id)
	if err != nil {
		return ErrNotFound
	}
	err = s.persist(ctx, "delete solicitacao", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.coll.Restore(prev, pos)
		s.log.Error("mutation_rollback", "op", "delete", "id", id, "err", err)
		return err
	}

	var keys []string
	for _, a := range []models.Attachment{prev.Boleto, prev.NotaFiscal} {
		if a.Kind == models.AttachmentPath {
			keys = append(keys, a.Path)
		}
	}
	s.cleanup(ctx, keys)
	s.log.Info("solicitacao_deleted", "id", id, "numero", prev.Numero)
	s.publish(ctx, broker.EventDeleted, prev, actor.UserID)
	return nil
}

// upload envia boleto e nota fiscal em paralelo e troca os handles por paths.
// Devolve as chaves enviadas para limpeza em caso de falha posterior.
func (s *Solicitacoes) upload(ctx context.Context, sol *models.Solicitacao) ([]string, error) {
	if s.files == nil {
		// sem storage o anexo fica só como handle (nome e tamanho)
		sol.Boleto.Content = nil
		sol.NotaFiscal.Content = nil
		return nil, nil
	}
	targets := []struct {
		prefix string
		att    *models.Attachment
	}{
		{"boleto", &sol.Boleto},
		{"nota_fiscal", &sol.NotaFiscal},
	}

	keys := make([]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		if t.att.Kind != models.AttachmentHandle || t.att.Content == nil {
			continue
		}
		g.Go(func() error {
			key, err := s.files.Put(gctx, t.prefix, sol.Numero, t.att.Name, t.att.Content, t.att.Size)
			if err != nil {
				return err
			}
			keys[i] = key
			return nil
		})
	}
	err := g.Wait()

	var sent []string
	for _, k := range keys {
		if k != "" {
			sent = append(sent, k)
		}
	}
	if err != nil {
		s.cleanup(ctx, sent)
		return nil, fmt.Errorf("upload attachments: %w", err)
	}
	for i, t := range targets {
		if keys[i] != "" {
			*t.att = models.PathAttachment(keys[i], t.att.Name, t.att.Size)
		}
	}
	return sent, nil
}

func (s *Solicitacoes) cleanup(ctx context.Context, keys []string) {
	if s.files == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.files.Remove(ctx, k); err != nil {
			s.log.Warn("attachment_cleanup_failed", "key", k, "err", err)
		}
	}
}
