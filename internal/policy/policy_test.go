package policy

import (
	"testing"

	"civicboard/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(&models.User{Role: models.RoleAdmin}))
	assert.False(t, IsAdmin(&models.User{Role: models.RoleUser}))
	assert.False(t, IsAdmin(&models.User{Role: models.RoleModerator}))
	assert.False(t, IsAdmin(nil))
}

func TestIsOwnerOrAdmin(t *testing.T) {
	owner := &models.User{ID: 1, Role: models.RoleUser}
	other := &models.User{ID: 2, Role: models.RoleUser}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}

	tests := []struct {
		name    string
		user    *models.User
		ownerID uint
		want    bool
	}{
		{"owner", owner, 1, true},
		{"other user", other, 1, false},
		{"admin on foreign resource", admin, 1, true},
		{"admin on own resource", admin, 3, true},
		{"anonymous", nil, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOwnerOrAdmin(tt.user, tt.ownerID))
		})
	}
}
