package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
)

func TestHashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(4)

	hash, err := hasher.Hash("Secure1!pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.NotContains(t, hash, "Secure1!pass")

	assert.True(t, hasher.Verify("Secure1!pass", hash))
	assert.False(t, hasher.Verify("Secure1!pas", hash))
}

func TestHashSaltsEachCall(t *testing.T) {
	hasher := NewPasswordHasher(4)

	first, err := hasher.Hash("Secure1!pass")
	require.NoError(t, err)
	second, err := hasher.Hash("Secure1!pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("Secure1!pass", first))
	assert.True(t, hasher.Verify("Secure1!pass", second))
}

func TestHashEnforcesStrengthPolicy(t *testing.T) {
	hasher := NewPasswordHasher(4)

	_, err := hasher.Hash("weak")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWeakPassword.Code, appErrors.FromError(err).Code)
}

func TestVerifyMalformedHashReadsAsMismatch(t *testing.T) {
	hasher := NewPasswordHasher(4)

	assert.False(t, hasher.Verify("Secure1!pass", "not-a-bcrypt-hash"))
	assert.False(t, hasher.Verify("Secure1!pass", ""))
}

func TestIsValidPassword(t *testing.T) {
	hasher := NewPasswordHasher(4)

	cases := []struct {
		name     string
		password string
		want     bool
	}{
		{"all classes", "Secure1!pass", true},
		{"too short", "Se1!abc", false},
		{"no uppercase", "secure1!pass", false},
		{"no lowercase", "SECURE1!PASS", false},
		{"no digit", "Secure!!pass", false},
		{"no symbol", "Secure11pass", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, hasher.IsValidPassword(tc.password))
		})
	}
}

func TestIsValidStudentID(t *testing.T) {
	cases := []struct {
		name string
		id   string
		want bool
	}{
		{"minimum length", "STU123", true},
		{"maximum length", "STU123456789", true},
		{"too short", "STU12", false},
		{"too long", "STU1234567890", false},
		{"lowercase rejected", "stu123456", false},
		{"symbols rejected", "STU-12345", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidStudentID(tc.id))
		})
	}
}
