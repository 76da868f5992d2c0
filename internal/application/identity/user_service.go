package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/ech/backend/internal/domain/identity"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user administration
type UserService struct {
	users  identity.UserRepository
	auth   *AuthService
	logger *zap.Logger
}

// NewUserService creates a new user service. Deactivating a user revokes
// its sessions through authService.
func NewUserService(users identity.UserRepository, authService *AuthService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, auth: authService, logger: logger}
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	exists, err := s.users.ExistsByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeDuplicateCode, "Username already exists")
	}

	user, err := identity.NewUser(input.Username, input.Password, input.Groups)
	if err != nil {
		return nil, err
	}
	if err := user.SetProfile(input.FirstName, input.LastName, input.Email); err != nil {
		return nil, err
	}
	user.IsSuperuser = input.IsSuperuser

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Strings("groups", user.Groups),
	)
	info := toUserInfo(user)
	return &info, nil
}

// SetActive enables or disables a user. Disabling ends its sessions.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.SetActive(active)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if !active && s.auth != nil {
		if err := s.auth.revokeUser(ctx, user.ID); err != nil {
			s.logger.Warn("Failed to revoke sessions of deactivated user", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
	s.logger.Info("User activation changed", zap.String("user_id", id.String()), zap.Bool("active", active))
	info := toUserInfo(user)
	return &info, nil
}

// SetGroups replaces the permission groups of a user
func (s *UserService) SetGroups(ctx context.Context, id uuid.UUID, groups []string) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.SetGroups(groups); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	info := toUserInfo(user)
	return &info, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[UserInfo], error) {
	filter.Normalize()
	users, total, err := s.users.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	infos := make([]UserInfo, len(users))
	for i := range users {
		infos[i] = toUserInfo(&users[i])
	}
	page := shared.NewPaginated(infos, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Bootstrap creates the first administrator when no user exists yet.
// It does nothing when username is empty or users are already present.
func (s *UserService) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = s.Create(ctx, CreateUserInput{
		Username:    username,
		Password:    password,
		Groups:      []string{identity.GroupAdmin},
		IsSuperuser: true,
	})
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == shared.CodeDuplicateCode {
		// Another instance won the race
		return nil
	}
	if err == nil {
		s.logger.Info("Bootstrap administrator created", zap.String("username", username))
	}
	return err
}
