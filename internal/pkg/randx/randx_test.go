package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratedIDsArePrefixedAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := UserID()
		assert.True(t, strings.HasPrefix(id, UserIDPrefix))
		assert.False(t, seen[id])
		seen[id] = true
	}

	assert.True(t, strings.HasPrefix(CommentID(), CommentIDPrefix))
}

func TestIsValidProjectID(t *testing.T) {
	assert.True(t, IsValidProjectID("demo"))
	assert.True(t, IsValidProjectID("team-42/deck"))

	assert.False(t, IsValidProjectID(""))
	assert.False(t, IsValidProjectID(strings.Repeat("x", 129)))
}
