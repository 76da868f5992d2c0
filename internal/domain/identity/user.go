package identity

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Permission groups
const (
	GroupAdmin      = "Admin"
	GroupAccountant = "Comptable"
	GroupManager    = "Gestionnaire"
)

// KnownGroups lists every group a user may belong to
var KnownGroups = []string{GroupAdmin, GroupAccountant, GroupManager}

// Password cost for bcrypt
const bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.@]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// User is an operator of the back office
type User struct {
	shared.BaseAggregateRoot
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Groups       []string
	IsSuperuser  bool
	IsActive     bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(username, password string, groups []string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateGroups(groups); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		PasswordHash:      hash,
		Groups:            slices.Clone(groups),
		IsActive:          true,
	}, nil
}

// SetProfile updates the display attributes
func (u *User) SetProfile(firstName, lastName, email string) error {
	email = strings.TrimSpace(email)
	if email != "" && !emailRegex.MatchString(email) {
		return shared.NewValidationError("Invalid email format")
	}
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.Email = email
	u.Touch()
	return nil
}

// SetPassword replaces the password hash
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetGroups replaces the permission groups
func (u *User) SetGroups(groups []string) error {
	if err := validateGroups(groups); err != nil {
		return err
	}
	u.Groups = slices.Clone(groups)
	u.Touch()
	return nil
}

// InAnyGroup reports whether the user is a superuser or belongs to one of groups
func (u *User) InAnyGroup(groups ...string) bool {
	if u.IsSuperuser {
		return true
	}
	for _, g := range groups {
		if slices.Contains(u.Groups, g) {
			return true
		}
	}
	return false
}

// SetActive enables or disables login
func (u *User) SetActive(active bool) {
	u.IsActive = active
	u.Touch()
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
}

// DisplayName returns "First Last" or the username
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func validateUsername(username string) error {
	if len(username) < 3 {
		return shared.NewValidationError("Username must be at least 3 characters")
	}
	if len(username) > 150 {
		return shared.NewValidationError("Username cannot exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewValidationError("Username can only contain letters, numbers and _ - . @")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("Password cannot exceed 72 characters")
	}
	return nil
}

func validateGroups(groups []string) error {
	for _, g := range groups {
		if !slices.Contains(KnownGroups, g) {
			return shared.NewValidationError("Unknown group " + g)
		}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
