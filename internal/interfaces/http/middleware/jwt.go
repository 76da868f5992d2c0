package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/auth"
	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Context keys set for authenticated requests. The username key is shared
// with the access log.
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTUsernameKey = "username"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// QueryTokenKey carries the token on websocket upgrades, browsers cannot
	// set headers there
	QueryTokenKey = "token"
)

// Authenticator validates an access token and returns its claims
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// JWTAuthConfig configures JWTAuth. Requests on a Public path pass
// unauthenticated.
type JWTAuthConfig struct {
	Authenticator Authenticator
	Public        []string
	Logger        *zap.Logger
}

var errMissingToken = errors.New("missing authorization token")

// authFailures maps authenticator errors to the 401 body, first match wins
var authFailures = []struct {
	err     error
	code    string
	message string
}{
	{errMissingToken, shared.CodeUnauthorized, "Authentication required"},
	{auth.ErrExpiredToken, dto.ErrCodeTokenExpired, "Token has expired"},
	{auth.ErrTokenRevoked, dto.ErrCodeTokenRevoked, "Token has been revoked"},
	{auth.ErrTokenNotYetValid, dto.ErrCodeTokenInvalid, "Token is not yet valid"},
}

// JWTAuth rejects requests without a valid bearer token with 401 and
// exposes the claims of the others to the handlers and the request logger.
func JWTAuth(cfg JWTAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if slices.Contains(cfg.Public, c.Request.URL.Path) {
			c.Next()
			return
		}

		claims, err := authenticate(c, cfg.Authenticator)
		if err != nil {
			log.Warn("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			code, message := dto.ErrCodeTokenInvalid, "Invalid token"
			for _, f := range authFailures {
				if errors.Is(err, f.err) {
					code, message = f.code, f.message
					break
				}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTUsernameKey, claims.Username)
		c.Request = c.Request.WithContext(logger.WithOperator(c.Request.Context(), logger.Operator{
			UserID:   claims.UserID,
			Username: claims.Username,
		}))
		c.Next()
	}
}

func authenticate(c *gin.Context, a Authenticator) (*auth.Claims, error) {
	token, err := bearerToken(c)
	if err != nil {
		return nil, err
	}
	return a.Authenticate(c.Request.Context(), token)
}

// bearerToken reads the Authorization header, or the token query parameter
// of a websocket upgrade without one
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	switch {
	case header == "" && websocket.IsWebSocketUpgrade(c.Request) && c.Query(QueryTokenKey) != "":
		return c.Query(QueryTokenKey), nil
	case header == "":
		return "", errMissingToken
	case !strings.HasPrefix(header, BearerPrefix):
		return "", auth.ErrInvalidToken
	}
	if token := strings.TrimSpace(header[len(BearerPrefix):]); token != "" {
		return token, nil
	}
	return "", errMissingToken
}

// GetJWTClaims returns nil for anonymous requests
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTUserUUID returns the authenticated user id, or nil when the request
// is anonymous or the claim is malformed
func GetJWTUserUUID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(GetJWTUserID(c))
	if err != nil {
		return nil
	}
	return &id
}

func GetJWTUsername(c *gin.Context) string {
	return c.GetString(JWTUsernameKey)
}
