package admin

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

//go:embed seeds/companies.json
var companiesJSON []byte

type seedItem struct {
	Nome  string   `json:"nome"`
	CNPJs []string `json:"cnpjs"`
}

type CompanyCreator interface {
	Create(ctx context.Context, c *models.Company) (string, error)
}

type UserCreator interface {
	Create(ctx context.Context, u *models.User) error
}

// Idempotente: cria se não existir; se já existir, ignora.
func SeedCompanies(ctx context.Context, repo CompanyCreator, log *slog.Logger) error {
	var items []seedItem
	if err := json.Unmarshal(companiesJSON, &items); err != nil {
		return err
	}

	created := 0
	for _, s := range items {
		cnpjs := make([]string, 0, len(s.CNPJs))
		for _, raw := range s.CNPJs {
			cnpj := utils.SanitizeCNPJ(raw)
			if !utils.ValidateCNPJ(cnpj) {
				log.Warn("seed_skip_invalid_cnpj", "raw", raw)
				continue
			}
			cnpjs = append(cnpjs, cnpj)
		}
		if len(cnpjs) == 0 {
			continue
		}

		c := models.Company{
			ID:    primitive.NewObjectID().Hex(),
			Nome:  s.Nome,
			CNPJs: cnpjs,
			Ativo: true,
		}

		// timeout curto por item pra não travar
		ictx, cancel := context.WithTimeout(ctx, 3*time.Second)
		_, err := repo.Create(ictx, &c)
		cancel()

		if err != nil {
			if errors.Is(err, repository.ErrDuplicateCNPJ) {
				log.Info("seed_company_exists", "nome", s.Nome)
				continue
			}
			return err
		}
		created++
		log.Info("seed_company_created", "nome", s.Nome, "id", c.ID)
	}

	log.Info("seed_companies_done", "count", len(items), "created", created)
	return nil
}

// SeedAdmin cria o primeiro admin. Sem senha configurada não faz nada.
// Devolve o usuário criado (ou nil se já existia).
func SeedAdmin(ctx context.Context, repo UserCreator, email, password string, log *slog.Logger) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		log.Warn("seed_admin_skipped", "reason", "SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set")
		return nil, nil
	}
	if len(password) < 8 {
		return nil, errors.New("SEED_ADMIN_PASSWORD must have at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Nome:         "Administrador",
		Email:        email,
		Role:         models.RoleAdmin,
		Ativo:        true,
		PasswordHash: string(hash),
	}

	ictx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repo.Create(ictx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			log.Info("seed_admin_exists", "email", email)
			return nil, nil
		}
		return nil, err
	}
	log.Info("seed_admin_created", "email", email, "id", u.ID)
	return &u, nil
}
