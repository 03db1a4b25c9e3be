package auth

import (
	"crypto/subtle"
	"strings"

	"bistrogest/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashed reports whether stored is already a bcrypt hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// CheckAccessCode compares a login code with a stored hash.
// Plain codes restored from old backups are still accepted.
func CheckAccessCode(stored, code string) bool {
	if stored == "" || code == "" {
		return false
	}
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(code)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1
}

// RoleForStaff maps the free-text staff position to a session role.
func RoleForStaff(position string) models.UserRole {
	p := strings.ToLower(strings.TrimSpace(position))
	if p == "manager" || strings.HasPrefix(p, "gérant") || strings.HasPrefix(p, "gerant") {
		return models.RoleManager
	}
	return models.RoleWaiter
}
