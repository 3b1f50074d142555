package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

func TestIssueAndParse(t *testing.T) {
	tk := NewTokens("s3cret", time.Hour)
	raw, err := tk.Issue(models.User{ID: "u1", Role: models.RoleUsuario, CompanyIDs: []string{"c1"}})
	require.NoError(t, err)

	actor, err := tk.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.UserID)
	assert.Equal(t, models.RoleUsuario, actor.Role)
	assert.Equal(t, []string{"c1"}, actor.CompanyIDs)
}

func TestParse_Rejects(t *testing.T) {
	tk := NewTokens("s3cret", time.Hour)

	other := NewTokens("other", time.Hour)
	foreign, _ := other.Issue(models.User{ID: "u1", Role: models.RoleAdmin})
	_, err := tk.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tk.Parse("")
	assert.ErrorIs(t, err, ErrMissingToken)

	bad, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
		Role:             "root",
	}).SignedString([]byte("s3cret"))
	_, err = tk.Parse(bad)
	assert.ErrorIs(t, err, ErrInvalidRole)

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: models.RoleAdmin}).SignedString([]byte("s3cret"))
	_, err = tk.Parse(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
		Role:             models.RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	_, err = tk.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	tk := NewTokens("s3cret", time.Minute)
	tk.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, err := tk.Issue(models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	tk.now = time.Now
	_, err = tk.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	tk := NewTokens("s3cret", time.Hour)
	raw, _ := tk.Issue(models.User{ID: "u9", Role: models.RoleGerente, CompanyIDs: []string{"c1"}})

	var seen string
	h := tk.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFrom(r.Context()).UserID
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "u9", seen)
}
