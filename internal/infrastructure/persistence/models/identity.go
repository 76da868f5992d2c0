package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/ech/backend/internal/domain/identity"
)

// GroupList stores a user's permission groups as a JSON array.
type GroupList []string

// Value implements driver.Valuer
func (g GroupList) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(g))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (g *GroupList) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*g = GroupList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for GroupList")
	}
	var groups []string
	if err := json.Unmarshal(raw, &groups); err != nil {
		return err
	}
	*g = groups
	return nil
}

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Username     string     `gorm:"type:varchar(150);not null;uniqueIndex:idx_users_username"`
	FirstName    string     `gorm:"type:varchar(150)"`
	LastName     string     `gorm:"type:varchar(150)"`
	Email        string     `gorm:"type:varchar(254)"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Groups       GroupList  `gorm:"type:text;not null;default:'[]'"`
	IsSuperuser  bool       `gorm:"not null;default:false"`
	IsActive     bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	groups := make([]string, len(m.Groups))
	copy(groups, m.Groups)
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Groups:            groups,
		IsSuperuser:       m.IsSuperuser,
		IsActive:          m.IsActive,
		LastLoginAt:       m.LastLoginAt,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.Groups = GroupList(u.Groups)
	m.IsSuperuser = u.IsSuperuser
	m.IsActive = u.IsActive
	m.LastLoginAt = u.LastLoginAt
}
