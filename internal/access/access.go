// Package access decide quem pode fazer o quê. É a única fonte de verdade de
// permissão: handlers e serviço perguntam aqui, nunca checam papel direto.
package access

import (
	"slices"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

// Actor é a identidade autenticada que dirige uma operação.
type Actor struct {
	UserID     string      `json:"id"`
	Role       models.Role `json:"role"`
	CompanyIDs []string    `json:"companyIds"`
}

func (a *Actor) IsAdmin() bool { return a != nil && a.Role == models.RoleAdmin }

// Scope identifica o recorte de visibilidade do ator (chave de cache).
func (a *Actor) Scope() string {
	if a == nil {
		return ""
	}
	if a.IsAdmin() {
		return "admin"
	}
	ids := slices.Clone(a.CompanyIDs)
	slices.Sort(ids)
	out := string(a.Role) + ":"
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

type Action string

const (
	ViewRequests      Action = "requests.view"
	CreateRequest     Action = "requests.create"
	EditRequest       Action = "requests.edit"
	DeleteRequest     Action = "requests.delete"
	ChangeStatus      Action = "requests.status"
	MarkViewed        Action = "requests.mark_viewed"
	MarkAnswered      Action = "requests.mark_answered"
	ViewCompanies     Action = "companies.view"
	ManageCompanies   Action = "companies.manage"
	ViewUsers         Action = "users.view"
	ManageUsers       Action = "users.manage"
	EditOwnProfile    Action = "users.edit_own"
	ViewSettings      Action = "settings.view"
	ViewHistory       Action = "history.view"
	CreateManualEntry Action = "history.create"
	DeleteHistoryRow  Action = "history.delete"
	ViewDashboard     Action = "dashboard.view"
)

// Actions lista todas as ações conhecidas, na ordem usada por Capabilities.
var Actions = []Action{
	ViewRequests, CreateRequest, EditRequest, DeleteRequest,
	ChangeStatus, MarkViewed, MarkAnswered,
	ViewCompanies, ManageCompanies,
	ViewUsers, ManageUsers, EditOwnProfile, ViewSettings,
	ViewHistory, CreateManualEntry, DeleteHistoryRow, ViewDashboard,
}

type rule int

const (
	deny        rule = iota
	adminOnly        // só admin
	scoped           // admin, ou alvo dentro das empresas do ator
	staff            // admin e gerente, sem escopo
	self             // admin, ou o próprio usuário
)

var rules = map[Action]rule{
	ViewRequests:      scoped,
	CreateRequest:     scoped,
	EditRequest:       scoped,
	DeleteRequest:     scoped,
	ChangeStatus:      adminOnly,
	MarkViewed:        adminOnly,
	MarkAnswered:      adminOnly,
	ViewCompanies:     scoped,
	ManageCompanies:   adminOnly,
	ViewUsers:         staff,
	ManageUsers:       adminOnly,
	EditOwnProfile:    self,
	ViewSettings:      staff,
	ViewHistory:       scoped,
	CreateManualEntry: adminOnly,
	DeleteHistoryRow:  scoped,
	ViewDashboard:     scoped,
}

// Target descreve o recurso afetado. nil = ação sobre a coleção.
type Target struct {
	CompanyIDs []string
	UserID     string
}

func RequestTarget(r models.Solicitacao) *Target {
	return &Target{CompanyIDs: []string{r.CompanyID}}
}

func CompanyTarget(c models.Company) *Target { return CompanyIDTarget(c.ID) }

func CompanyIDTarget(id string) *Target {
	return &Target{CompanyIDs: []string{id}}
}

func UserTarget(id string) *Target { return &Target{UserID: id} }

// Can falha fechado: ator nil, papel ou ação desconhecidos negam.
func Can(actor *Actor, action Action, target *Target) bool {
	if actor == nil || !actor.Role.IsValid() {
		return false
	}
	r, ok := rules[action]
	if !ok {
		return false
	}
	if actor.IsAdmin() {
		return true
	}

	switch r {
	case scoped:
		if target == nil {
			// sem alvo: listar/criar exige ao menos uma empresa
			return len(actor.CompanyIDs) > 0
		}
		return InScope(actor, target.CompanyIDs)
	case staff:
		return actor.Role == models.RoleGerente
	case self:
		return actor.Role == models.RoleGerente && target != nil && target.UserID != "" && target.UserID == actor.UserID
	}
	return false
}

// InScope: alguma das empresas do alvo está nos grants do ator.
func InScope(actor *Actor, companyIDs []string) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	for _, id := range companyIDs {
		if id != "" && slices.Contains(actor.CompanyIDs, id) {
			return true
		}
	}
	return false
}

// NeedsOnboarding: não-admin sem nenhuma empresa vinculada.
func NeedsOnboarding(actor *Actor) bool {
	return actor != nil && !actor.IsAdmin() && actor.Role.IsValid() && len(actor.CompanyIDs) == 0
}

// Capabilities resume o que o ator pode fazer sem alvo específico (tela /me).
func Capabilities(actor *Actor) map[Action]bool {
	out := make(map[Action]bool, len(Actions))
	for _, a := range Actions {
		var t *Target
		if a == EditOwnProfile && actor != nil {
			t = UserTarget(actor.UserID)
		}
		out[a] = Can(actor, a, t)
	}
	return out
}

func VisibleRequests(actor *Actor, reqs []models.Solicitacao) []models.Solicitacao {
	return filter(actor, reqs, func(r models.Solicitacao) []string { return []string{r.CompanyID} })
}

func VisibleCompanies(actor *Actor, cs []models.Company) []models.Company {
	return filter(actor, cs, func(c models.Company) []string { return []string{c.ID} })
}

// VisibleEntries: lançamentos sem empresa só aparecem para admin.
func VisibleEntries(actor *Actor, es []models.ManualEntry) []models.ManualEntry {
	return filter(actor, es, func(e models.ManualEntry) []string { return []string{e.CompanyID} })
}

func filter[T any](actor *Actor, items []T, companies func(T) []string) []T {
	if actor == nil || !actor.Role.IsValid() {
		return []T{}
	}
	if actor.IsAdmin() {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if InScope(actor, companies(it)) {
			out = append(out, it)
		}
	}
	return out
}
