// internal/auth/auth_test.go
package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	require.NoError(t, Init(0))

	token, err := CreateJWT("abc123")
	require.NoError(t, err)
	id, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = AuthenticateJWT(token + "x")
	assert.Error(t, err)
	_, err = AuthenticateJWT("not-a-token")
	assert.Error(t, err)
}

func TestJWTRejectsOtherKeys(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	token, err := CreateJWT("abc123")
	require.NoError(t, err)

	require.NoError(t, Init(time.Hour))
	_, err = AuthenticateJWT(token)
	assert.Error(t, err, "a restart invalidates old identities")
}

func TestJWTExpired(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	claims := jwt.MapClaims{"sub": "abc123", "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTMissingSubject(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"iat": time.Now().Unix()}).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestInitFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "key")
	pubPath := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	require.NoError(t, InitFromPath(privPath, pubPath, 0))
	token, err := CreateJWT("from-file")
	require.NoError(t, err)
	id, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "from-file", id)

	assert.Error(t, InitFromPath(filepath.Join(dir, "missing"), pubPath, 0))
	assert.Error(t, InitFromPath(pubPath, pubPath, 0), "a public key is not a private key")
}

func TestSecretHashing(t *testing.T) {
	empty, err := HashSecret("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	encoded, err := HashSecret("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))
	assert.NotContains(t, encoded, "hunter2")

	assert.True(t, MatchSecret("hunter2", encoded))
	assert.False(t, MatchSecret("hunter3", encoded))
	assert.False(t, MatchSecret("", encoded))
	assert.False(t, MatchSecret("hunter2", "hunter2"), "malformed hashes never match")

	again, err := HashSecret("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again, "every hash is salted")
}

func TestDecodeHashErrors(t *testing.T) {
	_, _, _, err := DecodeHash("$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
	_, _, _, err = DecodeHash("nope")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
