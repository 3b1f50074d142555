package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("tipo", func(fl validator.FieldLevel) bool {
		switch models.Tipo(fl.Field().String()) {
		case models.TipoSolicitacao, models.TipoBoleto, models.TipoNotaFiscal, models.TipoAcaoSistema:
			return true
		}
		return false
	})
	// usa o nome do json nas mensagens
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// validateDTO devolve só o primeiro problema, numa mensagem curta.
func validateDTO(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Errorf("%s is too short (min %s)", fe.Field(), fe.Param())
	case "role":
		return fmt.Errorf("%s must be one of admin, gerente, usuario", fe.Field())
	case "tipo":
		return fmt.Errorf("%s must be one of solicitacao, boleto, nota_fiscal, acao_sistema", fe.Field())
	}
	return fmt.Errorf("%s is invalid (%s)", fe.Field(), fe.Tag())
}
