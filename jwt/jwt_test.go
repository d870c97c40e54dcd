package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/router"
	"github.com/stretchr/testify/require"
)

type roleClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (r roleClaims) Validate() error {
	if r.Role != "admin" && r.Role != "user" {
		return errors.New("unknown role")
	}

	return nil
}

func TestManager(t *testing.T) {
	t.Run("simple round trip", func(t *testing.T) {
		m := NewManager("secret", WithIssuer("feather"))
		token, err := m.GenerateSimple("alice", time.Hour)
		require.NoError(t, err)

		claims, err := Decode[SimpleClaims](m, token)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, "feather", claims.Issuer)
	})

	t.Run("expired", func(t *testing.T) {
		m := NewManager("secret")
		m.now = func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}
		token, err := m.GenerateSimple("alice", time.Hour)
		require.NoError(t, err)

		m.now = time.Now
		_, err = Decode[SimpleClaims](m, token)
		require.ErrorIs(t, err, ErrInvalidToken)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewManager("secret").GenerateSimple("alice", time.Hour)
		require.NoError(t, err)
		_, err = Decode[SimpleClaims](NewManager("other"), token)
		require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("custom claims with validation", func(t *testing.T) {
		m := NewManager("secret")
		exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

		token, err := m.Generate(roleClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}, Role: "admin"})
		require.NoError(t, err)
		claims, err := Decode[roleClaims](m, token)
		require.NoError(t, err)
		require.Equal(t, "admin", claims.Role)

		token, err = m.Generate(roleClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}, Role: "root"})
		require.NoError(t, err)
		_, err = Decode[roleClaims](m, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		m := NewManager("secret")
		token, err := m.GenerateSimple("", time.Hour)
		require.NoError(t, err)
		_, err = Decode[SimpleClaims](m, token)
		require.Error(t, err)
	})
}

func TestRequired(t *testing.T) {
	m := NewManager("secret")
	ctx := appctx.New()
	appctx.Insert(ctx, m)
	token, err := m.GenerateSimple("bob", time.Minute)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		req := http.NewRequest(nil)
		req.Headers.Add("Authorization", "Bearer "+token)
		result, err := Required().Handle(req, http.NewResponse(), ctx)
		require.NoError(t, err)
		require.Equal(t, router.Next, result)

		claims, ok := http.Extension[*SimpleClaims](req)
		require.True(t, ok)
		require.Equal(t, "bob", claims.Subject)
	})

	t.Run("missing", func(t *testing.T) {
		resp := http.NewResponse()
		result, err := Required().Handle(http.NewRequest(nil), resp, ctx)
		require.NoError(t, err)
		require.Equal(t, router.End, result)
		require.Equal(t, status.Unauthorized, resp.Status)
	})

	t.Run("no manager", func(t *testing.T) {
		_, err := Required().Handle(http.NewRequest(nil), http.NewResponse(), appctx.New())
		require.Error(t, err)
	})
}
