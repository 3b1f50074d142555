//go:build integration
// +build integration

package repository

/*
	Para rodar: go test -tags=integration -v ./internal/repository -count=1
*/

import (
	"context"
	"errors"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Project-FinanceHUB/financehub/internal/db"
	"github.com/Project-FinanceHUB/financehub/internal/models"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	mongoC, err := mongodb.RunContainer(ctx, tc.WithImage("mongo:7"))
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	t.Cleanup(func() { _ = mongoC.Terminate(ctx) })

	uri, err := mongoC.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("conn string: %v", err)
	}
	client, err := db.NewMongoClient(uri)
	if err != nil {
		t.Fatalf("mongo client: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	return client.Database("testdb")
}

// Exercita: Create -> GetByID -> Update -> Replace -> Delete, com CNPJ duplicado entre empresas
func TestCompanyRepository_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewCompanyRepository(startMongo(t))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	c := models.Company{ID: "c1", Nome: "ACME", CNPJs: []string{"11222333000181", "11222333000262"}, Ativo: true}
	id, err := repo.Create(ctx, &c)
	if err != nil || id != "c1" {
		t.Fatalf("create: id=%q err=%v", id, err)
	}

	dup := models.Company{ID: "c2", Nome: "Outra", CNPJs: []string{"11222333000262"}}
	if _, err := repo.Create(ctx, &dup); !errors.Is(err, ErrDuplicateCNPJ) {
		t.Fatalf("want ErrDuplicateCNPJ, got %v", err)
	}

	got, err := repo.FindByCNPJ(ctx, "11222333000262")
	if err != nil || got.ID != "c1" {
		t.Fatalf("find by cnpj: %#v err=%v", got, err)
	}

	nome := "ACME NEW"
	if err := repo.Update(ctx, id, CompanyPatch{Nome: &nome}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetByID(ctx, id)
	if got.Nome != "ACME NEW" || len(got.CNPJs) != 2 {
		t.Fatalf("after update mismatch: %#v", got)
	}

	newDoc := models.Company{ID: id, Nome: "ACME REPLACED", CNPJs: []string{"11222333000181"}, CreatedAt: got.CreatedAt, UpdatedAt: time.Now().UTC()}
	if err := repo.Replace(ctx, id, &newDoc); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestSolicitacaoRepository_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewSolicitacaoRepository(startMongo(t))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	s := models.Solicitacao{
		ID: "s1", Numero: "SOL-1", Titulo: "Boleto", Origem: "11222333000181", CompanyID: "c1",
		Status: models.StatusAberto, Prioridade: models.PrioridadeMedia,
		Boleto:      models.PathAttachment("boleto/SOL-1/1_b.pdf", "b.pdf", 10),
		NotaFiscal:  models.NoAttachment(),
		DataCriacao: now, DataAtualizacao: now,
	}
	if err := repo.Create(ctx, &s); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := s
	dup.ID = "s2"
	if err := repo.Create(ctx, &dup); !errors.Is(err, ErrDuplicateNumero) {
		t.Fatalf("want ErrDuplicateNumero, got %v", err)
	}

	changed, err := repo.SetFlag(ctx, "s1", FlagVisualizado, now)
	if err != nil || !changed {
		t.Fatalf("set flag: changed=%v err=%v", changed, err)
	}
	if changed, err := repo.SetFlag(ctx, "s1", FlagVisualizado, now.Add(time.Hour)); err != nil || changed {
		t.Fatalf("second set flag: changed=%v err=%v", changed, err)
	}
	if _, err := repo.SetFlag(ctx, "ghost", FlagRespondido, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("set flag ghost: %v", err)
	}

	// snapshot antigo (visualizado=false) não pode desligar a flag
	stale := s
	stale.Status = models.StatusConcluido
	if err := repo.Save(ctx, &stale); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.GetByID(ctx, "s1")
	if err != nil || got.Status != models.StatusConcluido || got.Boleto.Path == "" {
		t.Fatalf("after save mismatch: %#v err=%v", got, err)
	}
	if !got.Visualizado || got.VisualizadoEm == nil || !got.VisualizadoEm.Equal(now) {
		t.Fatalf("visualizado reverted: %#v", got)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %d err=%v", len(list), err)
	}

	ghost := models.Solicitacao{ID: "ghost"}
	if err := repo.Save(ctx, &ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("save ghost: %v", err)
	}
}

func TestHistoricoRepository_UpsertByEventID_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewHistoricoRepository(startMongo(t))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	e := models.ManualEntry{ID: "h1", Tipo: models.TipoAcaoSistema, Titulo: "x", EventID: "msg-1", CriadoEm: time.Now()}
	created, err := repo.UpsertByEventID(ctx, &e)
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	again := e
	again.ID = "h2"
	created, err = repo.UpsertByEventID(ctx, &again)
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}

	// lançamentos manuais sem event_id não colidem no índice parcial
	for _, id := range []string{"m1", "m2"} {
		if err := repo.Create(ctx, &models.ManualEntry{ID: id, Tipo: models.TipoBoleto, Titulo: id, CriadoEm: time.Now()}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	list, _ := repo.List(ctx)
	if len(list) != 3 {
		t.Fatalf("list len=%d", len(list))
	}
}

func TestUserRepository_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewUserRepository(startMongo(t))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	u := models.User{ID: "u1", Nome: "Ana", Email: "Ana@Example.com ", Role: models.RoleGerente, Ativo: true}
	if err := repo.Create(ctx, &u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &models.User{ID: "u2", Email: "ana@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
	got, err := repo.GetByEmail(ctx, "ANA@example.com")
	if err != nil || got.ID != "u1" {
		t.Fatalf("get by email: %#v err=%v", got, err)
	}
	nome := "Ana Maria"
	if err := repo.Update(ctx, "u1", UserPatch{Nome: &nome, CompanyIDs: []string{"c1"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetByID(ctx, "u1")
	if got.Nome != nome || len(got.CompanyIDs) != 1 {
		t.Fatalf("after update: %#v", got)
	}
}
