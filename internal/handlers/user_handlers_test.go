package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
)

func TestUsuarios_List(t *testing.T) {
	rm := &userRepoMock{ListFn: func(context.Context) ([]models.User, error) {
		return []models.User{{ID: "u1", Nome: "Ana", PasswordHash: "segredo"}}, nil
	}}
	h := NewUserHandler(rm)

	req := as(httptest.NewRequest(http.MethodGet, "/api/usuarios", nil), gerenteActor)
	rr := httptest.NewRecorder()
	h.Usuarios(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "segredo") {
		t.Fatal("hash de senha vazou na resposta")
	}

	req = as(httptest.NewRequest(http.MethodGet, "/api/usuarios", nil), usuarioActor)
	rr = httptest.NewRecorder()
	h.Usuarios(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("usuario: status=%d want=%d", rr.Code, http.StatusForbidden)
	}
}

func TestUsuarios_Create(t *testing.T) {
	rm := &userRepoMock{CreateFn: func(_ context.Context, u *models.User) error {
		if u.ID == "" || u.Role != models.RoleGerente || !u.Ativo || len(u.CompanyIDs) != 1 {
			t.Fatalf("user inesperado: %#v", u)
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("senha-forte")) != nil {
			t.Fatal("senha não foi hasheada com bcrypt")
		}
		return nil
	}}
	body := bytes.NewBufferString(`{"nome":"Bia","email":"bia@acme.com","senha":"senha-forte","role":"gerente","companyIds":["` + companyID + `"]}`)
	req := as(httptest.NewRequest(http.MethodPost, "/api/usuarios", body), adminActor)
	rr := httptest.NewRecorder()
	NewUserHandler(rm).Usuarios(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUsuarios_Create_Invalid(t *testing.T) {
	for name, payload := range map[string]string{
		"email":       `{"nome":"Bia","email":"bia","senha":"senha-forte","role":"gerente"}`,
		"senha curta": `{"nome":"Bia","email":"bia@acme.com","senha":"123","role":"gerente"}`,
		"role":        `{"nome":"Bia","email":"bia@acme.com","senha":"senha-forte","role":"root"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := as(httptest.NewRequest(http.MethodPost, "/api/usuarios", bytes.NewBufferString(payload)), adminActor)
			rr := httptest.NewRecorder()
			NewUserHandler(&userRepoMock{}).Usuarios(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestUsuarios_Create_DuplicateEmail(t *testing.T) {
	rm := &userRepoMock{CreateFn: func(context.Context, *models.User) error { return repository.ErrDuplicateEmail }}
	body := bytes.NewBufferString(`{"nome":"Bia","email":"bia@acme.com","senha":"senha-forte","role":"usuario"}`)
	req := as(httptest.NewRequest(http.MethodPost, "/api/usuarios", body), adminActor)
	rr := httptest.NewRecorder()
	NewUserHandler(rm).Usuarios(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusConflict)
	}
}

func TestUsuarios_Create_Forbidden(t *testing.T) {
	body := bytes.NewBufferString(`{"nome":"Bia","email":"bia@acme.com","senha":"senha-forte","role":"usuario"}`)
	req := as(httptest.NewRequest(http.MethodPost, "/api/usuarios", body), gerenteActor)
	rr := httptest.NewRecorder()
	NewUserHandler(&userRepoMock{}).Usuarios(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusForbidden)
	}
}

// Gerente edita nome e senha do próprio perfil, nada além disso.
func TestUsuarioByID_PatchOwnProfile(t *testing.T) {
	rm := &userRepoMock{
		UpdateFn: func(_ context.Context, id string, p repository.UserPatch) error {
			if id != gerenteActor.UserID || p.Nome == nil || *p.Nome != "Novo Nome" || p.Role != nil {
				t.Fatalf("patch inesperado: %s %#v", id, p)
			}
			return nil
		},
		GetByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Nome: "Novo Nome"}, nil
		},
	}
	h := NewUserHandler(rm)

	req := as(httptest.NewRequest(http.MethodPatch, "/api/usuarios/"+gerenteActor.UserID, bytes.NewBufferString(`{"nome":"Novo Nome"}`)), gerenteActor)
	rr := httptest.NewRecorder()
	h.UsuarioByID(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	req = as(httptest.NewRequest(http.MethodPatch, "/api/usuarios/"+gerenteActor.UserID, bytes.NewBufferString(`{"role":"admin"}`)), gerenteActor)
	rr = httptest.NewRecorder()
	h.UsuarioByID(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("self role change: status=%d want=%d", rr.Code, http.StatusForbidden)
	}

	req = as(httptest.NewRequest(http.MethodPatch, "/api/usuarios/outro", bytes.NewBufferString(`{"nome":"Outro"}`)), gerenteActor)
	rr = httptest.NewRecorder()
	h.UsuarioByID(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("other user: status=%d want=%d", rr.Code, http.StatusForbidden)
	}
}

func TestUsuarioByID_PatchAdmin(t *testing.T) {
	rm := &userRepoMock{
		UpdateFn: func(_ context.Context, _ string, p repository.UserPatch) error {
			if p.Ativo == nil || *p.Ativo || p.CompanyIDs == nil {
				t.Fatalf("patch inesperado: %#v", p)
			}
			return nil
		},
		GetByIDFn: func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
	}
	req := as(httptest.NewRequest(http.MethodPatch, "/api/usuarios/u9", bytes.NewBufferString(`{"ativo":false,"companyIds":[]}`)), adminActor)
	rr := httptest.NewRecorder()
	NewUserHandler(rm).UsuarioByID(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUsuarioByID_Delete(t *testing.T) {
	rm := &userRepoMock{DeleteFn: func(_ context.Context, id string) error {
		if id == "sumiu" {
			return repository.ErrNotFound
		}
		return nil
	}}
	h := NewUserHandler(rm)

	for _, tc := range []struct {
		id    string
		actor *access.Actor
		want  int
	}{
		{"u9", adminActor, http.StatusNoContent},
		{"sumiu", adminActor, http.StatusNotFound},
		{adminActor.UserID, adminActor, http.StatusBadRequest},
		{"u9", gerenteActor, http.StatusForbidden},
	} {
		req := as(httptest.NewRequest(http.MethodDelete, "/api/usuarios/"+tc.id, nil), tc.actor)
		rr := httptest.NewRecorder()
		h.UsuarioByID(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s: status=%d want=%d", tc.id, rr.Code, tc.want)
		}
	}
}

func TestMe(t *testing.T) {
	req := as(httptest.NewRequest(http.MethodGet, "/api/me", nil), semEmpresa)
	rr := httptest.NewRecorder()
	Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got MeView
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if !got.SemEmpresa || got.Capabilities[access.ManageUsers] || got.Actor.UserID != semEmpresa.UserID {
		t.Fatalf("payload inesperado: %#v", got)
	}
}
