// Package auth authenticates API requests with bearer keys.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefix is the prefix for all generated API keys
	KeyPrefix = "tpk_"
	// KeyLength is the length of the random part of the key (32 bytes = 256 bits)
	KeyLength = 32
	// BCryptCost is the cost factor for bcrypt hashing
	BCryptCost = 12
)

// Role represents the access level of an API key
type Role string

const (
	RoleReadonly   Role = "readonly"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// rank orders roles; a role may do everything a lower role may.
var rank = map[Role]int{
	RoleReadonly:   1,
	RoleAdmin:      2,
	RoleSuperadmin: 3,
}

// GenerateAPIKey generates a new random API key carrying KeyPrefix.
func GenerateAPIKey() (string, error) {
	randomBytes := make([]byte, KeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(key string) (string, error) {
	return hashWithCost(key, BCryptCost)
}

func hashWithCost(key string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey reports whether key matches a bcrypt hash.
func VerifyAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// VerifyAPIKeyConstantTime compares a token with the plain ADMIN_API_KEY.
func VerifyAPIKeyConstantTime(got, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// ExtractBearerToken extracts the bearer token from an Authorization header
func ExtractBearerToken(authHeader string) string {
	token := strings.TrimSpace(authHeader)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// ValidateRole checks if a given role string is valid
func ValidateRole(role string) bool {
	_, ok := rank[Role(role)]
	return ok
}

// HasPermission reports whether userRole may access a resource guarded by
// requiredRole. readonly reads the catalog, admin also edits tours and
// seasons, superadmin also manages keys. Unknown roles have no access.
func HasPermission(userRole, requiredRole Role) bool {
	have, ok := rank[userRole]
	if !ok {
		return false
	}
	need, ok := rank[requiredRole]
	if !ok {
		return false
	}
	return have >= need
}
