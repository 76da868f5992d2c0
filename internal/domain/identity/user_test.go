package identity

import (
	"errors"
	"testing"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser(" karim ", "s3cretpass", []string{GroupAccountant})
	require.NoError(t, err)
	assert.Equal(t, "karim", u.Username)
	assert.True(t, u.IsActive)
	assert.True(t, u.VerifyPassword("s3cretpass"))
	assert.False(t, u.VerifyPassword("wrong"))
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)

	_, err = NewUser("ab", "s3cretpass", nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	_, err = NewUser("karim", "short", nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	_, err = NewUser("karim", "s3cretpass", []string{"Root"})
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestUser_InAnyGroup(t *testing.T) {
	u, err := NewUser("nadia", "s3cretpass", []string{GroupManager})
	require.NoError(t, err)

	assert.True(t, u.InAnyGroup(GroupAdmin, GroupManager))
	assert.False(t, u.InAnyGroup(GroupAdmin, GroupAccountant))
	assert.False(t, u.InAnyGroup())

	u.IsSuperuser = true
	assert.True(t, u.InAnyGroup(GroupAdmin))
}

func TestUser_ProfileAndDisplayName(t *testing.T) {
	u, _ := NewUser("nadia", "s3cretpass", nil)
	assert.Equal(t, "nadia", u.DisplayName())

	require.NoError(t, u.SetProfile("Nadia", "Benali", "nadia@example.dz"))
	assert.Equal(t, "Nadia Benali", u.DisplayName())
	assert.Error(t, u.SetProfile("", "", "not-an-email"))

	require.NoError(t, u.SetPassword("an0ther-pass"))
	assert.True(t, u.VerifyPassword("an0ther-pass"))
}
