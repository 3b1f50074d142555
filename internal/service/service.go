// Package service é a fronteira de mutação: checa permissão, reserva o id,
// aplica de forma otimista na coleção em memória, persiste e desfaz em caso de falha.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/Project-FinanceHUB/financehub/internal/broker"
	"github.com/Project-FinanceHUB/financehub/internal/clock"
	"github.com/Project-FinanceHUB/financehub/internal/inflight"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/monthly"
	"github.com/Project-FinanceHUB/financehub/internal/query"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/store"
	"github.com/Project-FinanceHUB/financehub/internal/validation"
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrNoCompany = errors.New("no company linked to this user")
	ErrBusy      = inflight.ErrBusy
	ErrTimeout   = errors.New("operation timed out")
	ErrNotFound  = repository.ErrNotFound
)

// ValidationError carrega os erros por campo para o cliente.
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	first := e.Fields.First()
	return fmt.Sprintf("invalid %s: %s", first, e.Fields[first])
}

type SolicitacaoRepository interface {
	List(ctx context.Context) ([]models.Solicitacao, error)
	GetByID(ctx context.Context, id string) (*models.Solicitacao, error)
	Create(ctx context.Context, s *models.Solicitacao) error
	Save(ctx context.Context, s *models.Solicitacao) error
	SetFlag(ctx context.Context, id string, f repository.Flag, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type CompanyFinder interface {
	FindByCNPJ(ctx context.Context, cnpj string) (*models.Company, error)
}

type HistoricoRepository interface {
	List(ctx context.Context) ([]models.ManualEntry, error)
	GetByID(ctx context.Context, id string) (*models.ManualEntry, error)
	Create(ctx context.Context, e *models.ManualEntry) error
	Delete(ctx context.Context, id string) error
}

type AttachmentStore interface {
	Put(ctx context.Context, prefix, numero, filename string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, key string) error
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev broker.Event) error
}

type Deps struct {
	Repo      SolicitacaoRepository
	Companies CompanyFinder
	Historico HistoricoRepository
	Files     AttachmentStore // opcional: sem ele anexos ficam só com o nome
	Pub       EventPublisher  // opcional
	Locks     inflight.Locker
	Clock     clock.Clock
	Location  *time.Location
	Policy    monthly.Policy
	Timeout   time.Duration
	Node      *snowflake.Node
	Log       *slog.Logger
}

type Solicitacoes struct {
	repo      SolicitacaoRepository
	companies CompanyFinder
	historico HistoricoRepository
	files     AttachmentStore
	pub       EventPublisher
	locks     inflight.Locker
	clock     clock.Clock
	loc       *time.Location
	policy    monthly.Policy
	timeout   time.Duration
	node      *snowflake.Node
	log       *slog.Logger

	coll *store.Collection
	memo *query.Memo
}

func NewSolicitacoes(d Deps) (*Solicitacoes, error) {
	if d.Repo == nil || d.Historico == nil {
		return nil, errors.New("service: repo and historico are required")
	}
	s := &Solicitacoes{
		repo:      d.Repo,
		companies: d.Companies,
		historico: d.Historico,
		files:     d.Files,
		pub:       d.Pub,
		locks:     d.Locks,
		clock:     d.Clock,
		loc:       d.Location,
		policy:    d.Policy,
		timeout:   d.Timeout,
		node:      d.Node,
		log:       d.Log,
		memo:      query.NewMemo(256),
	}
	if s.locks == nil {
		s.locks = inflight.NewMemory()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.clock == nil {
		s.clock = clock.System{Loc: s.loc}
	}
	if s.policy == "" {
		s.policy = monthly.PolicyClamp
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	if s.node == nil {
		n, err := snowflake.NewNode(1)
		if err != nil {
			return nil, fmt.Errorf("snowflake node: %w", err)
		}
		s.node = n
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("cmp", "solicitacoes")
	s.coll = store.NewCollection(s.repo.List)
	return s, nil
}

// Reload força a releitura da coleção (boot e Watch).
func (s *Solicitacoes) Reload(ctx context.Context) error {
	return s.coll.Load(ctx)
}

// Watch recarrega a coleção a cada intervalo até ctx acabar. Traz mudanças
// feitas por outras instâncias ou direto no banco. every <= 0 desliga.
func (s *Solicitacoes) Watch(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Reload(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("snapshot_reload_failed", "err", err)
			}
		}
	}
}

func (s *Solicitacoes) now() time.Time { return s.clock.Now().In(s.loc) }

// persist roda fn com o timeout de mutação e traduz deadline em ErrTimeout.
func (s *Solicitacoes) persist(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// a escrita pode ter chegado ao banco: o snapshot deixa de ser confiável
		s.coll.Invalidate()
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Solicitacoes) publish(ctx context.Context, typ broker.EventType, sol models.Solicitacao, actorID string) {
	if s.pub == nil {
		return
	}
	ev := broker.Event{
		ID:            s.node.Generate().String(),
		Type:          typ,
		SolicitacaoID: sol.ID,
		Numero:        sol.Numero,
		Titulo:        sol.Titulo,
		Status:        string(sol.Status),
		CompanyID:     sol.CompanyID,
		ActorID:       actorID,
		At:            s.now(),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.pub.PublishEvent(ctx, ev); err != nil {
		s.log.Warn("event_publish_failed", "type", typ, "id", sol.ID, "err", err)
	}
}
