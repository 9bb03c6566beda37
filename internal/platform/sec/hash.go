// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashCode hashes a one-time code using the bcrypt algorithm.
//
// Codes are short, so the identity service never stores them in clear text
// even though they expire within minutes.
func HashCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash code: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckCodeHash compares a plain-text code with its hashed version.
func CheckCodeHash(code, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(code))
	return err == nil
}

// HashToken returns the hex SHA-256 digest of an opaque token.
// Refresh tokens are looked up by this digest.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateSecureToken returns a URL-safe random token of length bytes.
func GenerateSecureToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateNumericCode returns a uniformly random decimal code of the given length.
func GenerateNumericCode(length int) (string, error) {
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		digit, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate code: %w", err)
		}
		builder.WriteByte(byte('0' + digit.Int64()))
	}

	return builder.String(), nil
}
