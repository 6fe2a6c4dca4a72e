package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID(uuid.NewString()))
	for _, id := range []string{"", "root", "42", "folderDropList-x"} {
		assert.False(t, IsValidID(id), "id %q", id)
	}
}
