package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/models"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, id string, p repository.UserPatch) error
	Delete(ctx context.Context, id string) error
}

type UserHandler struct {
	Repo UserRepository
}

func NewUserHandler(repo UserRepository) *UserHandler {
	return &UserHandler{Repo: repo}
}

const usuariosBase = "/api/usuarios"

// /api/usuarios
func (h *UserHandler) Usuarios(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !access.Can(actor, access.ViewUsers, nil) {
			utils.Forbidden(w)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		list, err := h.Repo.List(ctx)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, list)

	case http.MethodPost:
		if !access.Can(actor, access.ManageUsers, nil) {
			utils.Forbidden(w)
			return
		}
		var dto UserCreateDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, utils.FormatUnknownFieldError(err))
			return
		}
		if err := validateDTO(dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.Senha), bcrypt.DefaultCost)
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		u := models.User{
			ID:           primitive.NewObjectID().Hex(),
			Nome:         strings.TrimSpace(dto.Nome),
			Email:        dto.Email,
			Role:         models.Role(dto.Role),
			Ativo:        true,
			CompanyIDs:   dto.CompanyIDs,
			PasswordHash: string(hash),
		}
		if u.Role == models.RoleAdmin {
			u.CompanyIDs = nil
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.Repo.Create(ctx, &u); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				utils.WriteJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusCreated, u)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// /api/usuarios/{id}
func (h *UserHandler) UsuarioByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDFromPath(r.URL.Path, usuariosBase)
	if !ok {
		utils.NotFound(w)
		return
	}
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var dto UserPatchDTO
		if err := utils.DecodeStrict(r.Body, &dto); err != nil {
			utils.BadRequest(w, utils.FormatUnknownFieldError(err))
			return
		}
		if err := validateDTO(dto); err != nil {
			utils.BadRequest(w, err.Error())
			return
		}
		full := access.Can(actor, access.ManageUsers, access.UserTarget(id))
		own := access.Can(actor, access.EditOwnProfile, access.UserTarget(id))
		if !full && (!own || dto.touchesAdminFields()) {
			utils.Forbidden(w)
			return
		}

		var patch repository.UserPatch
		if dto.Nome != nil {
			nome := strings.TrimSpace(*dto.Nome)
			patch.Nome = &nome
		}
		if dto.Senha != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Senha), bcrypt.DefaultCost)
			if err != nil {
				utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			s := string(hash)
			patch.PasswordHash = &s
		}
		if dto.Role != nil {
			role := models.Role(*dto.Role)
			patch.Role = &role
		}
		patch.Ativo = dto.Ativo
		if dto.CompanyIDs != nil {
			patch.CompanyIDs = *dto.CompanyIDs
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.Repo.Update(ctx, id, patch); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.NotFound(w)
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		u, err := h.Repo.GetByID(ctx, id)
		if err != nil {
			utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
			return
		}
		utils.WriteJSON(w, http.StatusOK, u)

	case http.MethodDelete:
		if !access.Can(actor, access.ManageUsers, access.UserTarget(id)) {
			utils.Forbidden(w)
			return
		}
		if id == actor.UserID {
			utils.BadRequest(w, "cannot delete your own user")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.Repo.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.NotFound(w)
				return
			}
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
