package identity

import (
	"context"
	"errors"

	"github.com/ech/backend/internal/domain/identity"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService handles authentication operations
type AuthService struct {
	users     identity.UserRepository
	tokens    *auth.JWTService
	revocations auth.RevocationStore
	logger    *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(users identity.UserRepository, tokens *auth.JWTService, revocations auth.RevocationStore, logger *zap.Logger) *AuthService {
	if revocations == nil {
		revocations = auth.NewMemoryRevocationStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, revocations: revocations, logger: logger}
}

func invalidCredentials() error {
	return shared.NewDomainError(shared.CodeUnauthorized, "Invalid username or password")
}

func subjectOf(u *identity.User) auth.Subject {
	return auth.Subject{UserID: u.ID, Username: u.Username, Groups: u.Groups, Superuser: u.IsSuperuser}
}

// Login authenticates a user and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login with unknown username", zap.String("username", input.Username), zap.String("ip", input.IP))
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username), zap.String("ip", input.IP))
		return nil, invalidCredentials()
	}
	if !user.IsActive {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Account has been deactivated")
	}

	pair, err := s.tokens.GenerateTokenPair(subjectOf(user))
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	return &LoginResult{TokenResult: toTokenResult(pair), User: toUserInfo(user)}, nil
}

// Refresh exchanges a refresh token. Groups are reloaded, and a deactivated
// or revoked user gets nothing.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	pair, old, err := s.tokens.RefreshTokenPair(refreshToken, func(id uuid.UUID) (auth.Subject, error) {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			return auth.Subject{}, err
		}
		if !user.IsActive {
			return auth.Subject{}, shared.NewDomainError(shared.CodeUnauthorized, "Account has been deactivated")
		}
		return subjectOf(user), nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeUnauthorized, "Unknown user")
		}
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError(shared.CodeUnauthorized, err.Error())
	}

	revoked, err := auth.IsRevoked(ctx, s.revocations, old)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, auth.ErrTokenRevoked.Error())
	}
	// A refresh token is single use
	if err := s.revocations.RevokeToken(ctx, old.ID, old.RemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke used refresh token", zap.Error(err))
	}

	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the presented access token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" {
		return nil
	}
	return s.revocations.RevokeToken(ctx, input.TokenJTI, input.TTL)
}

// Me returns the current user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user)
	return &info, nil
}

// ChangePassword replaces the password after checking the old one
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if !user.VerifyPassword(input.OldPassword) {
		return shared.NewValidationError("Current password is incorrect")
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	// Sessions opened with the old password end here
	return s.revocations.RevokeUser(ctx, user.ID.String(), s.tokens.TTL(auth.TokenTypeRefresh))
}

// Authenticate validates an access token and checks it was not revoked
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := auth.IsRevoked(ctx, s.revocations, claims)
	if err != nil {
		s.logger.Warn("Token revocations unavailable", zap.Error(err))
		return claims, nil
	}
	if revoked {
		return nil, auth.ErrTokenRevoked
	}
	return claims, nil
}

// revokeUser ends every session of a user
func (s *AuthService) revokeUser(ctx context.Context, userID uuid.UUID) error {
	return s.revocations.RevokeUser(ctx, userID.String(), s.tokens.TTL(auth.TokenTypeRefresh))
}
