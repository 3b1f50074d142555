package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/utils"
)

type ctxKey struct{}

func WithActor(ctx context.Context, a *access.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom devolve nil quando não há ator no contexto.
func ActorFrom(ctx context.Context) *access.Actor {
	a, _ := ctx.Value(ctxKey{}).(*access.Actor)
	return a
}

// Middleware exige um Bearer válido; sem ele responde 401.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearer(r.Header.Get("Authorization"))
		actor, err := t.Parse(raw)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func bearer(h string) string {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
