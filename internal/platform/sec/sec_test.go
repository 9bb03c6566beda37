// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gigly/internal/platform/sec"
)

/*
TestCodeHash checks bcrypt hashing of one-time codes.
*/
func TestCodeHash(t *testing.T) {
	hash, err := sec.HashCode("123456")
	require.NoError(t, err)

	assert.NotEqual(t, "123456", hash)
	assert.True(t, sec.CheckCodeHash("123456", hash))
	assert.False(t, sec.CheckCodeHash("654321", hash))
	assert.False(t, sec.CheckCodeHash("123456", "not-a-hash"))
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, sec.HashToken("refresh"), sec.HashToken("refresh"))
	assert.NotEqual(t, sec.HashToken("refresh"), sec.HashToken("refresh2"))
	assert.Len(t, sec.HashToken("refresh"), 64)
}

func TestGenerators(t *testing.T) {
	token, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 43)
	assert.NotContains(t, token, "=")

	other, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	code, err := sec.GenerateNumericCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Empty(t, strings.Trim(code, "0123456789"))
}

/*
TestTokenService_RoundTrip signs with an ephemeral key and verifies the claims.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewEphemeralTokenService("gigly-test")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("acc-1", "09012345678", sec.RoleHelper.String(), time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.UserID)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "09012345678", claims.Phone)
	assert.Equal(t, "helper", claims.Role)
}

func TestTokenService_Rejects(t *testing.T) {
	service, err := sec.NewEphemeralTokenService("gigly-test")
	require.NoError(t, err)

	t.Run("Expired", func(t *testing.T) {
		token, err := service.GenerateAccessToken("acc-1", "", "client", -time.Minute)
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other, err := sec.NewEphemeralTokenService("someone-else")
		require.NoError(t, err)
		token, err := other.GenerateAccessToken("acc-1", "", "client", time.Minute)
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("ForeignKey", func(t *testing.T) {
		other, err := sec.NewEphemeralTokenService("gigly-test")
		require.NoError(t, err)
		token, err := other.GenerateAccessToken("acc-1", "", "client", time.Minute)
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := service.VerifyToken("not.a.jwt")
		assert.Error(t, err)
	})
}

/*
TestNewTokenService_KeyFiles loads a PEM key pair from disk.
*/
func TestNewTokenService_KeyFiles(t *testing.T) {
	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	ephemeral, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privateDER := x509.MarshalPKCS1PrivateKey(ephemeral)
	publicDER, err := x509.MarshalPKIXPublicKey(&ephemeral.PublicKey)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privateDER}), 0o600))
	require.NoError(t, os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}), 0o600))

	service, err := sec.NewTokenService(privatePath, publicPath, "gigly-test")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("acc-2", "", "client", time.Minute)
	require.NoError(t, err)
	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-2", claims.UserID)

	_, err = sec.NewTokenService(filepath.Join(dir, "missing.pem"), publicPath, "gigly-test")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	role, err := sec.ParseRole("helper")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleHelper, role)
	assert.True(t, role.RequiresEmail())
	assert.False(t, sec.RoleClient.RequiresEmail())

	_, err = sec.ParseRole("admin")
	assert.Error(t, err)
	assert.False(t, sec.Role("admin").Valid())
}
