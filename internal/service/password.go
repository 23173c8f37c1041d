package service

import (
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

// DefaultBcryptCost is deliberately above the library default so brute
// forcing stays expensive. Changing it only affects newly created hashes.
const DefaultBcryptCost = 12

const passwordMinLength = 8

var studentIDPattern = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher with the given bcrypt cost factor.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash produces a salted bcrypt hash of the password. The strength policy is
// enforced first; two calls on the same input yield different hashes.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if !h.IsValidPassword(password) {
		return "", appErrors.ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hashed), nil
}

// Verify reports whether the password matches the stored hash. Any internal
// failure, malformed hashes included, reads as a mismatch so nothing leaks
// through error paths. The comparison itself is bcrypt's constant-time one.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsValidPassword is the strength predicate: minimum length plus uppercase,
// lowercase, digit and symbol character classes.
func (h *PasswordHasher) IsValidPassword(password string) bool {
	if len(password) < passwordMinLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// IsValidStudentID validates the student-number format shared by
// registration and lookups.
func IsValidStudentID(studentID string) bool {
	return studentIDPattern.MatchString(studentID)
}
