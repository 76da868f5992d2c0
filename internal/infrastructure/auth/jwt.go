package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/ech/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tells access and refresh tokens apart
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrMissingUserID      = errors.New("missing user_id in claims")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// Claims are the JWT payload. Access tokens carry the groups so permission
// checks need no database round trip, refresh tokens do not.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Groups       []string  `json:"groups,omitempty"`
	Superuser    bool      `json:"superuser,omitempty"`
	TokenType    TokenType `json:"token_type"`
	RefreshCount int       `json:"refresh_count,omitempty"`
}

// UserUUID parses the user_id claim
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// InAnyGroup reports whether the holder is a superuser or in one of groups
func (c *Claims) InAnyGroup(groups ...string) bool {
	return c.Superuser || slices.ContainsFunc(groups, func(g string) bool { return slices.Contains(c.Groups, g) })
}

// IssuedAtTime is the zero time for a token without iat
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// RemainingTTL is how long the token stays valid, never negative
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// Subject is who a token pair is issued to
type Subject struct {
	UserID    uuid.UUID
	Username  string
	Groups    []string
	Superuser bool
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// JWTService signs and verifies HS256 token pairs. The refresh key falls
// back to the access secret when no refresh secret is configured.
type JWTService struct {
	keys       map[TokenType]signingKey
	issuer     string
	maxRefresh int
}

// NewJWTService creates a token service from the jwt configuration
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		keys: map[TokenType]signingKey{
			TokenTypeAccess:  {secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
			TokenTypeRefresh: {secret: []byte(refreshSecret), ttl: cfg.RefreshTokenExpiration},
		},
		issuer:     cfg.Issuer,
		maxRefresh: cfg.MaxRefreshCount,
	}
}

// TTL returns the lifetime of tokens of kind
func (s *JWTService) TTL(kind TokenType) time.Duration {
	return s.keys[kind].ttl
}

// GenerateTokenPair issues a fresh pair for sub
func (s *JWTService) GenerateTokenPair(sub Subject) (*TokenPair, error) {
	return s.issue(sub, 0)
}

func (s *JWTService) issue(sub Subject, refreshCount int) (*TokenPair, error) {
	now := time.Now()
	pair := &TokenPair{TokenType: "Bearer"}

	var err error
	pair.AccessToken, pair.AccessTokenExpiresAt, err = s.sign(TokenTypeAccess, now, Claims{
		Username:  sub.Username,
		Groups:    slices.Clone(sub.Groups),
		Superuser: sub.Superuser,
	}, sub.UserID)
	if err != nil {
		return nil, err
	}
	pair.RefreshToken, pair.RefreshTokenExpiresAt, err = s.sign(TokenTypeRefresh, now, Claims{
		Username:     sub.Username,
		RefreshCount: refreshCount,
	}, sub.UserID)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *JWTService) sign(kind TokenType, now time.Time, claims Claims, userID uuid.UUID) (string, time.Time, error) {
	key := s.keys[kind]
	expires := now.Add(key.ttl)
	claims.UserID = userID.String()
	claims.TokenType = kind
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(expires),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(key.secret)
	return signed, expires, err
}

// ValidateAccessToken verifies an access token and returns its claims
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	return s.parse(TokenTypeAccess, raw)
}

// ValidateRefreshToken verifies a refresh token and returns its claims
func (s *JWTService) ValidateRefreshToken(raw string) (*Claims, error) {
	return s.parse(TokenTypeRefresh, raw)
}

func (s *JWTService) parse(kind TokenType, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.keys[kind].secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case claims.TokenType != kind:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// RefreshTokenPair exchanges a valid refresh token for a new pair. load
// returns the subject as currently stored, so group changes and
// deactivations apply from the next refresh on.
func (s *JWTService) RefreshTokenPair(refreshToken string, load func(userID uuid.UUID) (Subject, error)) (*TokenPair, *Claims, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.RefreshCount >= s.maxRefresh {
		return nil, nil, ErrMaxRefreshExceeded
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	sub, err := load(userID)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.issue(sub, claims.RefreshCount+1)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}
