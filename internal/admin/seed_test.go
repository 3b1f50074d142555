package admin

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type companyCreatorFn func(ctx context.Context, c *models.Company) (string, error)

func (f companyCreatorFn) Create(ctx context.Context, c *models.Company) (string, error) {
	return f(ctx, c)
}

type userCreatorFn func(ctx context.Context, u *models.User) error

func (f userCreatorFn) Create(ctx context.Context, u *models.User) error { return f(ctx, u) }

func TestSeedCompanies(t *testing.T) {
	var got []models.Company
	calls := 0
	repo := companyCreatorFn(func(_ context.Context, c *models.Company) (string, error) {
		calls++
		if calls == 2 {
			return "", repository.ErrDuplicateCNPJ
		}
		got = append(got, *c)
		return c.ID, nil
	})

	require.NoError(t, SeedCompanies(context.Background(), repo, quiet))
	assert.Equal(t, 3, calls)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"11222333000181"}, got[0].CNPJs)
	assert.True(t, got[0].Ativo)
	assert.NotEmpty(t, got[0].ID)
}

func TestSeedAdmin(t *testing.T) {
	var created *models.User
	repo := userCreatorFn(func(_ context.Context, u *models.User) error { created = u; return nil })

	u, err := SeedAdmin(context.Background(), repo, " Admin@FinanceHub.local ", "troque-me-ja", quiet)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Same(t, created, u)
	assert.Equal(t, "admin@financehub.local", u.Email)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("troque-me-ja")))

	u, err = SeedAdmin(context.Background(), repo, "admin@x", "", quiet)
	assert.NoError(t, err)
	assert.Nil(t, u)

	_, err = SeedAdmin(context.Background(), repo, "admin@x", "curta", quiet)
	assert.Error(t, err)

	dup := userCreatorFn(func(context.Context, *models.User) error { return repository.ErrDuplicateEmail })
	u, err = SeedAdmin(context.Background(), dup, "admin@x", "troque-me-ja", quiet)
	assert.NoError(t, err)
	assert.Nil(t, u)
}
