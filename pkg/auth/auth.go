// Package auth implements Thorium's two authentication modes (local
// password hashing and delegated directory-service bind), bearer
// token issuance, and Authorization-header parsing.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// argon2 parameters. Tuned for an interactive login path rather than
// bulk hashing, matching Argon2id's recommended baseline.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
	tokenLen     = 32
)

// Directory authenticates a username/password pair against an
// external LDAP-style directory. Thorium names only the interface:
// the concrete bind client is an out-of-scope external collaborator.
type Directory interface {
	Bind(username, password string) error
}

// HashPassword derives an Argon2id hash of password salted with a
// fresh random salt and the cluster-wide pepper. The salt is returned
// alongside the hash since both must be stored to verify later.
func HashPassword(pepper, password string) (hash string, salt []byte, err error) {
	salt = make([]byte, saltLen)
	if _, err = rand.Read(salt); err != nil {
		return "", nil, apierror.Wrap(err, apierror.KindInternal, "generate password salt")
	}
	sum := argon2.IDKey([]byte(pepper+password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(sum), salt, nil
}

// VerifyPassword reports whether password, combined with pepper,
// reproduces wantHash under salt.
func VerifyPassword(pepper, password string, salt []byte, wantHash string) bool {
	sum := argon2.IDKey([]byte(pepper+password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	got := hex.EncodeToString(sum)
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHash)) == 1
}

// AuthenticatePassword verifies a user's password under whichever
// mode the user record specifies: a local Argon2id hash, or a bind
// against the directory service.
func AuthenticatePassword(u *types.User, password, pepper string, dir Directory) error {
	if u.LocalAuth {
		if !VerifyPassword(pepper, password, u.PasswordSalt, u.PasswordHash) {
			return apierror.NewAuth("invalid credentials")
		}
		return nil
	}
	if dir == nil {
		return apierror.New(apierror.KindUnavailable, "directory service not configured")
	}
	if err := dir.Bind(u.Username, password); err != nil {
		return apierror.Wrap(err, apierror.KindAuth, "directory bind failed")
	}
	return nil
}

// GenerateToken returns a fresh 32-byte CSPRNG bearer token (hex
// encoded) and the sha256 hash stored on the user record so the raw
// token is never persisted.
func GenerateToken() (token, hash string, err error) {
	raw := make([]byte, tokenLen)
	if _, err = rand.Read(raw); err != nil {
		return "", "", apierror.Wrap(err, apierror.KindInternal, "generate token")
	}
	token = hex.EncodeToString(raw)
	sum := sha256.Sum256([]byte(token))
	hash = hex.EncodeToString(sum[:])
	return token, hash, nil
}

// TokenExpiry returns the expiry timestamp for a token issued now,
// given the configured validity window.
func TokenExpiry(days int) time.Time {
	return time.Now().Add(time.Duration(days) * 24 * time.Hour)
}

// VerifyToken reports whether a presented token still matches u's
// stored hash and has not expired.
func VerifyToken(u *types.User, token string) error {
	if u.TokenHash == "" {
		return apierror.NewAuth("no token issued")
	}
	sum := sha256.Sum256([]byte(token))
	got := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(got), []byte(u.TokenHash)) != 1 {
		return apierror.NewAuth("invalid token")
	}
	if time.Now().After(u.TokenExpires) {
		return apierror.NewAuth("token expired")
	}
	return nil
}

// ParseAuthorization extracts a bearer credential from an
// Authorization header value, accepting the case-insensitive schemes
// "token"/"Token", "bearer"/"Bearer", and "basic"/"Basic".
func ParseAuthorization(header string) (scheme, credential string, err error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 {
		return "", "", apierror.NewBadRequest("malformed authorization header")
	}
	scheme = strings.ToLower(parts[0])
	credential = strings.TrimSpace(parts[1])
	switch scheme {
	case "token", "bearer", "basic":
		return scheme, credential, nil
	default:
		return "", "", apierror.NewBadRequest(fmt.Sprintf("unsupported authorization scheme %q", parts[0]))
	}
}

// RoleAtLeast reports whether have meets or exceeds want in
// Thorium's privilege order: Admin > Analyst > Developer > User.
func RoleAtLeast(have, want types.Role) bool {
	order := map[types.Role]int{
		types.RoleUser:      0,
		types.RoleDeveloper: 1,
		types.RoleAnalyst:   2,
		types.RoleAdmin:     3,
	}
	return order[have] >= order[want]
}

// GroupRoleAtLeast is RoleAtLeast for the group-scoped role order:
// Monitor < User < Owner.
func GroupRoleAtLeast(have, want types.GroupRole) bool {
	order := map[types.GroupRole]int{
		types.GroupRoleMonitor: 0,
		types.GroupRoleUser:    1,
		types.GroupRoleOwner:   2,
	}
	return order[have] >= order[want]
}
