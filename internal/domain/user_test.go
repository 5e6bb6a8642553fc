package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail(" A@B.com "))
	assert.Equal(t, "a@b.com", NormalizeEmail("a@b.com"))

	// Normalization is idempotent.
	once := NormalizeEmail("  MiXeD@CaSe.ORG")
	assert.Equal(t, once, NormalizeEmail(once))
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "alice@example.com", "x.y+z@sub.domain.io"}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}

	invalid := []string{"", "a@b", "ab.com", "a b@c.de", "a@b@c.de", "@b.com"}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(strings.Repeat("a", 24)))
	assert.True(t, ValidID("64b2f0c8e1a2b3c4d5e6f708"))

	assert.False(t, ValidID(""))
	assert.False(t, ValidID(strings.Repeat("a", 23)))
	assert.False(t, ValidID(strings.Repeat("a", 25)))
	assert.False(t, ValidID(strings.Repeat("z", 24)))
}

func TestUserPublicStripsHash(t *testing.T) {
	u := User{ID: "1", Email: "a@b.com", PasswordHash: "secret-hash"}
	pub := u.Public()
	assert.Equal(t, u.ID, pub.ID)
	assert.Equal(t, u.Email, pub.Email)
}
