package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ech/backend/internal/infrastructure/auth"
	"github.com/ech/backend/internal/infrastructure/config"
	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

// tokenAuthenticator validates with the JWT service and consults the
// revocation store
type tokenAuthenticator struct {
	tokens      *auth.JWTService
	revocations auth.RevocationStore
}

func (a tokenAuthenticator) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := a.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if a.revocations != nil {
		if revoked, _ := auth.IsRevoked(ctx, a.revocations, claims); revoked {
			return nil, auth.ErrTokenRevoked
		}
	}
	return claims, nil
}

type failingAuthenticator struct{ err error }

func (f failingAuthenticator) Authenticate(context.Context, string) (*auth.Claims, error) {
	return nil, f.err
}

func newTestTokenPair(t *testing.T, svc *auth.JWTService, groups ...string) (*auth.TokenPair, auth.Subject) {
	t.Helper()
	sub := auth.Subject{
		UserID:   uuid.New(),
		Username: "caissier",
		Groups:   groups,
	}
	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)
	return pair, sub
}

func jwtRouter(a Authenticator, public ...string) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuth(JWTAuthConfig{Authenticator: a, Public: public}))
	return router
}

func serveWithToken(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	pair, sub := newTestTokenPair(t, svc, GroupComptable)

	router := jwtRouter(tokenAuthenticator{tokens: svc})
	router.GET("/api/v1/caisse", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, sub.UserID.String(), claims.UserID)
		assert.Equal(t, []string{GroupComptable}, claims.Groups)
		assert.Equal(t, sub.UserID.String(), GetJWTUserID(c))
		assert.Equal(t, "caissier", GetJWTUsername(c))

		id := GetJWTUserUUID(c)
		require.NotNil(t, id)
		assert.Equal(t, sub.UserID, *id)
		c.Status(http.StatusOK)
	})

	w := serveWithToken(router, "/api/v1/caisse", pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTestJWTService()
	pair, _ := newTestTokenPair(t, svc)

	router := jwtRouter(tokenAuthenticator{tokens: svc})
	router.GET("/api/v1/caisse", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", header: "", code: "UNAUTHORIZED"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", code: dto.ErrCodeTokenInvalid},
		{name: "empty bearer", header: "Bearer ", code: "UNAUTHORIZED"},
		{name: "garbage token", header: "Bearer not.a.jwt", code: dto.ErrCodeTokenInvalid},
		{name: "refresh token as access", header: "Bearer " + pair.RefreshToken, code: dto.ErrCodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/caisse", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuth_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{auth.ErrExpiredToken, dto.ErrCodeTokenExpired},
		{auth.ErrTokenRevoked, dto.ErrCodeTokenRevoked},
		{auth.ErrTokenNotYetValid, dto.ErrCodeTokenInvalid},
		{errors.New("boom"), dto.ErrCodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			router := jwtRouter(failingAuthenticator{err: tt.err})
			router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := serveWithToken(router, "/x", "whatever")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuth_RevokedToken(t *testing.T) {
	svc := newTestJWTService()
	revocations := auth.NewMemoryRevocationStore()
	pair, _ := newTestTokenPair(t, svc)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, revocations.RevokeToken(context.Background(), claims.ID, time.Hour))

	router := jwtRouter(tokenAuthenticator{tokens: svc, revocations: revocations})
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serveWithToken(router, "/x", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, w))
}

func TestJWTAuth_PublicPaths(t *testing.T) {
	public := []string{"/api/v1/auth/login", "/api/v1/auth/refresh"}
	router := jwtRouter(failingAuthenticator{err: auth.ErrInvalidToken}, public...)
	for _, path := range append(public, "/api/v1/auth/me") {
		router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	for _, path := range public {
		assert.Equal(t, http.StatusOK, serveWithToken(router, path, "").Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(router, "/api/v1/auth/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(router, "/api/v1/auth/login/extra", "").Code)
}

func TestJWTAuth_WebSocketQueryToken(t *testing.T) {
	svc := newTestJWTService()
	pair, _ := newTestTokenPair(t, svc)

	router := jwtRouter(tokenAuthenticator{tokens: svc})
	router.GET("/ws/caisse", func(c *gin.Context) {
		assert.Equal(t, "caissier", GetJWTUsername(c))
		c.Status(http.StatusOK)
	})

	t.Run("accepted on upgrade", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws/caisse?token="+pair.AccessToken, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ignored on plain requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws/caisse?token="+pair.AccessToken, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestJWTAccessors_WithoutClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTUsername(c))
	assert.Nil(t, GetJWTUserUUID(c))

	c.Set(JWTUserIDKey, "not-a-uuid")
	assert.Nil(t, GetJWTUserUUID(c))
}
