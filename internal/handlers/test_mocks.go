package handlers

import (
	"context"
	"errors"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/history"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/query"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/service"
	"github.com/Project-FinanceHUB/financehub/internal/validation"
)

type repoMock struct {
	GetAllFn  func(ctx context.Context, limit, skip int64) ([]models.Company, error)
	CreateFn  func(ctx context.Context, c *models.Company) (string, error)
	GetByIDFn func(ctx context.Context, id string) (*models.Company, error)
	UpdateFn  func(ctx context.Context, id string, p repository.CompanyPatch) error
	ReplaceFn func(ctx context.Context, id string, doc *models.Company) error
	DeleteFn  func(ctx context.Context, id string) error
}

func (m *repoMock) GetAll(ctx context.Context, limit, skip int64) ([]models.Company, error) {
	if m.GetAllFn == nil {
		return nil, errors.New("GetAllFn not set")
	}
	return m.GetAllFn(ctx, limit, skip)
}
func (m *repoMock) Create(ctx context.Context, c *models.Company) (string, error) {
	if m.CreateFn == nil {
		return "", errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, c)
}
func (m *repoMock) GetByID(ctx context.Context, id string) (*models.Company, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}
func (m *repoMock) Update(ctx context.Context, id string, p repository.CompanyPatch) error {
	if m.UpdateFn == nil {
		return errors.New("UpdateFn not set")
	}
	return m.UpdateFn(ctx, id, p)
}
func (m *repoMock) Replace(ctx context.Context, id string, doc *models.Company) error {
	if m.ReplaceFn == nil {
		return errors.New("ReplaceFn not set")
	}
	return m.ReplaceFn(ctx, id, doc)
}
func (m *repoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFn == nil {
		return errors.New("DeleteFn not set")
	}
	return m.DeleteFn(ctx, id)
}

type userRepoMock struct {
	ListFn    func(ctx context.Context) ([]models.User, error)
	GetByIDFn func(ctx context.Context, id string) (*models.User, error)
	CreateFn  func(ctx context.Context, u *models.User) error
	UpdateFn  func(ctx context.Context, id string, p repository.UserPatch) error
	DeleteFn  func(ctx context.Context, id string) error
}

func (m *userRepoMock) List(ctx context.Context) ([]models.User, error) {
	if m.ListFn == nil {
		return nil, errors.New("ListFn not set")
	}
	return m.ListFn(ctx)
}
func (m *userRepoMock) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}
func (m *userRepoMock) Create(ctx context.Context, u *models.User) error {
	if m.CreateFn == nil {
		return errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, u)
}
func (m *userRepoMock) Update(ctx context.Context, id string, p repository.UserPatch) error {
	if m.UpdateFn == nil {
		return errors.New("UpdateFn not set")
	}
	return m.UpdateFn(ctx, id, p)
}
func (m *userRepoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFn == nil {
		return errors.New("DeleteFn not set")
	}
	return m.DeleteFn(ctx, id)
}

// svcMock: só as funções usadas em cada teste precisam ser definidas.
type svcMock struct {
	ListFn          func(ctx context.Context, actor *access.Actor, p query.Params) (query.Result, error)
	GetFn           func(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error)
	CreateFn        func(ctx context.Context, actor *access.Actor, d validation.Draft) (models.Solicitacao, error)
	UpdateFn        func(ctx context.Context, actor *access.Actor, id string, p service.Patch) (models.Solicitacao, error)
	ChangeStatusFn  func(ctx context.Context, actor *access.Actor, id, status string) (models.Solicitacao, error)
	MarkViewedFn    func(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error)
	MarkAnsweredFn  func(ctx context.Context, actor *access.Actor, id string) (models.Solicitacao, error)
	DeleteFn        func(ctx context.Context, actor *access.Actor, id string) error
	AttachmentURLFn func(ctx context.Context, actor *access.Actor, id, field string) (string, error)
	HistoryFn       func(ctx context.Context, actor *access.Actor, p history.Params) ([]history.Row, error)
	CreateManualFn  func(ctx context.Context, actor *access.Actor, in service.ManualEntryInput) (models.ManualEntry, error)
	DeleteRowFn     func(ctx context.Context, actor *access.Actor, source history.Source, id string) error
	MonthlyFn       func(ctx context.Context, actor *access.Actor) (service.MonthlyView, error)
}

var errNotSet = errors.New("mock fn not set")

func (m *svcMock) List(ctx context.Context, a *access.Actor, p query.Params) (query.Result, error) {
	if m.ListFn == nil {
		return query.Result{}, errNotSet
	}
	return m.ListFn(ctx, a, p)
}
func (m *svcMock) Get(ctx context.Context, a *access.Actor, id string) (models.Solicitacao, error) {
	if m.GetFn == nil {
		return models.Solicitacao{}, errNotSet
	}
	return m.GetFn(ctx, a, id)
}
func (m *svcMock) Create(ctx context.Context, a *access.Actor, d validation.Draft) (models.Solicitacao, error) {
	if m.CreateFn == nil {
		return models.Solicitacao{}, errNotSet
	}
	return m.CreateFn(ctx, a, d)
}
func (m *svcMock) Update(ctx context.Context, a *access.Actor, id string, p service.Patch) (models.Solicitacao, error) {
	if m.UpdateFn == nil {
		return models.Solicitacao{}, errNotSet
	}
	return m.UpdateFn(ctx, a, id, p)
}
func (m *svcMock) ChangeStatus(ctx context.Context, a *access.Actor, id, status string) (models.Solicitacao, error) {
	if m.ChangeStatusFn == nil {
		return models.Solicitacao{}, errNotSet
	}
	return m.ChangeStatusFn(ctx, a, id, status)
}
func (m *svcMock) MarkViewed(ctx context.Context, a *access.Actor, id string) (models.Solicitacao, error) {
	if m.MarkViewedFn == nil {
		return models.Solicitacao{}, errNotSet
	}
	return m.MarkViewedFn(ctx, a, id)
}
func (m *svcMock) MarkAnswered(ctx context.Context, a *access.Actor, id string) (models.Solicitacao, error) {
	if m.MarkAnsweredFn == nil {
		return models.Solicitacao{}, errNotSet
	}
	return m.MarkAnsweredFn(ctx, a, id)
}
func (m *svcMock) Delete(ctx context.Context, a *access.Actor, id string) error {
	if m.DeleteFn == nil {
		return errNotSet
	}
	return m.DeleteFn(ctx, a, id)
}
func (m *svcMock) AttachmentURL(ctx context.Context, a *access.Actor, id, field string) (string, error) {
	if m.AttachmentURLFn == nil {
		return "", errNotSet
	}
	return m.AttachmentURLFn(ctx, a, id, field)
}
func (m *svcMock) History(ctx context.Context, a *access.Actor, p history.Params) ([]history.Row, error) {
	if m.HistoryFn == nil {
		return nil, errNotSet
	}
	return m.HistoryFn(ctx, a, p)
}
func (m *svcMock) CreateManualEntry(ctx context.Context, a *access.Actor, in service.ManualEntryInput) (models.ManualEntry, error) {
	if m.CreateManualFn == nil {
		return models.ManualEntry{}, errNotSet
	}
	return m.CreateManualFn(ctx, a, in)
}
func (m *svcMock) DeleteHistoryRow(ctx context.Context, a *access.Actor, source history.Source, id string) error {
	if m.DeleteRowFn == nil {
		return errNotSet
	}
	return m.DeleteRowFn(ctx, a, source, id)
}
func (m *svcMock) Monthly(ctx context.Context, a *access.Actor) (service.MonthlyView, error) {
	if m.MonthlyFn == nil {
		return service.MonthlyView{}, errNotSet
	}
	return m.MonthlyFn(ctx, a)
}

type pubMock struct {
	PublishFn func(ctx context.Context, body string, headers amqp091.Table) error
	CloseFn   func() error
}

func (p *pubMock) Publish(ctx context.Context, body string, headers amqp091.Table) error {
	if p.PublishFn == nil {
		return nil
	}
	return p.PublishFn(ctx, body, headers)
}
func (p *pubMock) Close() error {
	if p.CloseFn == nil {
		return nil
	}
	return p.CloseFn()
}
