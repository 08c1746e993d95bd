package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/fieldsales/pkg/auth"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

type loginCounter struct{ ok, failed int }

func (l *loginCounter) RecordLoginAttempt(success bool) {
	if success {
		l.ok++
		return
	}
	l.failed++
}

func newAuthHandler(t *testing.T) (*AuthHandler, *testEnv, *loginCounter) {
	t.Helper()

	env := newEnv(t)
	counter := &loginCounter{}
	h := NewAuthHandler(env.reps, env.blacklist, AuthConfig{JWTSecret: testSecret, JWTExpirationHours: 1}, counter)

	_, err := env.reps.Create(context.Background(), models.SalesRepCreateRequest{
		Username: "karim",
		Name:     "Karim Uddin",
		Password: "secret1",
	})
	require.NoError(t, err)
	return h, env, counter
}

func TestAuthHandler_Login(t *testing.T) {
	h, _, counter := newAuthHandler(t)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
	}{
		{"valid credentials", map[string]string{"username": "karim", "password": "secret1"}, http.StatusOK},
		{"wrong password", map[string]string{"username": "karim", "password": "nope123"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "secret1"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "karim"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := request(http.MethodPost, "/api/v1/auth/login", tt.body)
			require.NoError(t, h.Login(c))
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusOK {
				resp := decode[models.AuthResponse](t, rec)
				assert.Equal(t, "karim", resp.User.Username)
				assert.Equal(t, models.RoleSalesRep, resp.User.Role)
				assert.NotContains(t, rec.Body.String(), "password")

				claims, err := auth.ValidateJWT(resp.Token, testSecret)
				require.NoError(t, err)
				assert.Equal(t, resp.User.ID, claims.UserID)
			}
		})
	}

	assert.Equal(t, 1, counter.ok)
	assert.Equal(t, 2, counter.failed)
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	h, env, _ := newAuthHandler(t)
	ctx := context.Background()

	u, err := env.reps.GetByUsername(ctx, "karim")
	require.NoError(t, err)

	c, rec := request(http.MethodGet, "/api/v1/auth/me", nil)
	require.NoError(t, h.Me(as(c, rep(u.ID))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Karim Uddin", decode[models.UserInfo](t, rec).Name)

	token, err := auth.GenerateJWT(u.ID, u.Username, u.Role, testSecret, 1)
	require.NoError(t, err)

	c, rec = request(http.MethodPost, "/api/v1/auth/logout", nil)
	c.Set("token", token)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	revoked, err := env.blacklist.IsBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = auth.ValidateJWTWithBlacklist(ctx, token, testSecret, env.blacklist)
	assert.Error(t, err)
}

func TestAuthHandler_Unauthenticated(t *testing.T) {
	h, _, _ := newAuthHandler(t)

	c, rec := request(http.MethodGet, "/api/v1/auth/me", nil)
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = request(http.MethodPost, "/api/v1/auth/logout", nil)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
