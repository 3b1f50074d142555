package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Project-FinanceHUB/financehub/internal/broker"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
)

// repoMock guarda as solicitações em memória, como o Mongo faria. Os *Fn
// rodam antes e, se devolvem erro, nada é gravado.
type repoMock struct {
	mu    sync.Mutex
	items []models.Solicitacao

	ListFn    func(ctx context.Context) ([]models.Solicitacao, error)
	CreateFn  func(ctx context.Context, s *models.Solicitacao) error
	SaveFn    func(ctx context.Context, s *models.Solicitacao) error
	SetFlagFn func(ctx context.Context, id string, f repository.Flag) error
	DeleteFn  func(ctx context.Context, id string) error
}

func newRepoMock(seed ...models.Solicitacao) *repoMock {
	m := &repoMock{}
	for _, s := range seed {
		m.items = append(m.items, s.Clone())
	}
	return m
}

func (m *repoMock) List(ctx context.Context) ([]models.Solicitacao, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Solicitacao, len(m.items))
	for i, s := range m.items {
		out[i] = s.Clone()
	}
	return out, nil
}

func (m *repoMock) GetByID(_ context.Context, id string) (*models.Solicitacao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	s := m.items[i].Clone()
	return &s, nil
}

func (m *repoMock) Create(ctx context.Context, s *models.Solicitacao) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, s); err != nil {
			return err
		}
	}
	m.insert(*s)
	return nil
}

func (m *repoMock) insert(s models.Solicitacao) {
	m.mu.Lock()
	m.items = append([]models.Solicitacao{s.Clone()}, m.items...)
	m.mu.Unlock()
}

// Save imita o $set: flags ficam como estão no "banco".
func (m *repoMock) Save(ctx context.Context, s *models.Solicitacao) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(ctx, s); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(s.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	stored := m.items[i]
	next := s.Clone()
	next.Visualizado, next.VisualizadoEm = stored.Visualizado, stored.VisualizadoEm
	next.Respondido, next.RespondidoEm = stored.Respondido, stored.RespondidoEm
	m.items[i] = next
	return nil
}

func (m *repoMock) SetFlag(ctx context.Context, id string, f repository.Flag, at time.Time) (bool, error) {
	if m.SetFlagFn != nil {
		if err := m.SetFlagFn(ctx, id, f); err != nil {
			return false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return false, repository.ErrNotFound
	}
	s := &m.items[i]
	switch f {
	case repository.FlagVisualizado:
		if s.Visualizado {
			return false, nil
		}
		s.Visualizado, s.VisualizadoEm = true, &at
	case repository.FlagRespondido:
		if s.Respondido {
			return false, nil
		}
		s.Respondido, s.RespondidoEm = true, &at
	}
	s.DataAtualizacao = at
	return true, nil
}

func (m *repoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		if err := m.DeleteFn(ctx, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

func (m *repoMock) stored(id string) (models.Solicitacao, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id); i >= 0 {
		return m.items[i].Clone(), true
	}
	return models.Solicitacao{}, false
}

func (m *repoMock) index(id string) int {
	for i, s := range m.items {
		if s.ID == id {
			return i
		}
	}
	return -1
}

type companiesMock struct {
	FindByCNPJFn func(ctx context.Context, cnpj string) (*models.Company, error)
}

func (m *companiesMock) FindByCNPJ(ctx context.Context, cnpj string) (*models.Company, error) {
	if m.FindByCNPJFn == nil {
		return nil, errors.New("FindByCNPJFn not set")
	}
	return m.FindByCNPJFn(ctx, cnpj)
}

type historicoMock struct {
	ListFn    func(ctx context.Context) ([]models.ManualEntry, error)
	GetByIDFn func(ctx context.Context, id string) (*models.ManualEntry, error)
	CreateFn  func(ctx context.Context, e *models.ManualEntry) error
	DeleteFn  func(ctx context.Context, id string) error
	UpsertFn  func(ctx context.Context, e *models.ManualEntry) (bool, error)
}

func (m *historicoMock) List(ctx context.Context) ([]models.ManualEntry, error) {
	if m.ListFn == nil {
		return nil, nil
	}
	return m.ListFn(ctx)
}
func (m *historicoMock) GetByID(ctx context.Context, id string) (*models.ManualEntry, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}
func (m *historicoMock) Create(ctx context.Context, e *models.ManualEntry) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(ctx, e)
}
func (m *historicoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFn == nil {
		return nil
	}
	return m.DeleteFn(ctx, id)
}
func (m *historicoMock) UpsertByEventID(ctx context.Context, e *models.ManualEntry) (bool, error) {
	if m.UpsertFn == nil {
		return true, nil
	}
	return m.UpsertFn(ctx, e)
}

type filesMock struct {
	mu      sync.Mutex
	put     []string
	removed []string
	PutErr  error
}

func (f *filesMock) Put(_ context.Context, prefix, numero, filename string, r io.Reader, _ int64) (string, error) {
	if f.PutErr != nil {
		return "", f.PutErr
	}
	_, _ = io.Copy(io.Discard, r)
	key := prefix + "/" + numero + "/" + filename
	f.mu.Lock()
	f.put = append(f.put, key)
	f.mu.Unlock()
	return key, nil
}
func (f *filesMock) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	f.removed = append(f.removed, key)
	f.mu.Unlock()
	return nil
}
func (f *filesMock) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.local/" + key, nil
}

type pubMock struct {
	mu     sync.Mutex
	events []broker.Event
}

func (p *pubMock) PublishEvent(_ context.Context, ev broker.Event) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *pubMock) types() []broker.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]broker.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
