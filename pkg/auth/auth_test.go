package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, salt, err := HashPassword("pepper", "correct-horse")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("pepper", "correct-horse", salt, hash))
	assert.False(t, VerifyPassword("pepper", "wrong-password", salt, hash))
	assert.False(t, VerifyPassword("different-pepper", "correct-horse", salt, hash))
}

func TestAuthenticatePasswordLocal(t *testing.T) {
	hash, salt, err := HashPassword("pepper", "s3cret")
	require.NoError(t, err)
	u := &types.User{LocalAuth: true, PasswordHash: hash, PasswordSalt: salt}

	assert.NoError(t, AuthenticatePassword(u, "s3cret", "pepper", nil))
	assert.Error(t, AuthenticatePassword(u, "wrong", "pepper", nil))
}

type fakeDirectory struct {
	allow map[string]string
}

func (f fakeDirectory) Bind(username, password string) error {
	if f.allow[username] == password {
		return nil
	}
	return apierror.NewAuth("bind rejected")
}

func TestAuthenticatePasswordDirectory(t *testing.T) {
	u := &types.User{LocalAuth: false, Username: "alice"}
	dir := fakeDirectory{allow: map[string]string{"alice": "ldap-pass"}}

	assert.NoError(t, AuthenticatePassword(u, "ldap-pass", "pepper", dir))
	assert.Error(t, AuthenticatePassword(u, "wrong", "pepper", dir))
	assert.Error(t, AuthenticatePassword(u, "ldap-pass", "pepper", nil))
}

func TestTokenIssueAndVerify(t *testing.T) {
	token, hash, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	u := &types.User{TokenHash: hash, TokenExpires: TokenExpiry(30)}
	assert.NoError(t, VerifyToken(u, token))
	assert.Error(t, VerifyToken(u, "wrong-token"))

	u.TokenExpires = time.Now().Add(-time.Hour)
	assert.Error(t, VerifyToken(u, token))
}

func TestParseAuthorization(t *testing.T) {
	cases := []struct {
		header     string
		wantScheme string
		wantErr    bool
	}{
		{"token abc123", "token", false},
		{"Token abc123", "token", false},
		{"Bearer abc123", "bearer", false},
		{"Basic dXNlcjpwYXNz", "basic", false},
		{"Digest abc123", "", true},
		{"malformed", "", true},
	}
	for _, tc := range cases {
		scheme, _, err := ParseAuthorization(tc.header)
		if tc.wantErr {
			assert.Error(t, err, tc.header)
			continue
		}
		require.NoError(t, err, tc.header)
		assert.Equal(t, tc.wantScheme, scheme)
	}
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAtLeast(types.RoleAdmin, types.RoleUser))
	assert.False(t, RoleAtLeast(types.RoleUser, types.RoleAdmin))
	assert.True(t, RoleAtLeast(types.RoleAnalyst, types.RoleAnalyst))
}

func TestGroupRoleAtLeast(t *testing.T) {
	assert.True(t, GroupRoleAtLeast(types.GroupRoleOwner, types.GroupRoleUser))
	assert.False(t, GroupRoleAtLeast(types.GroupRoleMonitor, types.GroupRoleUser))
}
