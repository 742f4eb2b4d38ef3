package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
)

func TestHasPermission(t *testing.T) {
	officer := &models.User{Rank: models.RankUser, Permissions: datatypes.JSONSlice[string]{"Leo"}}
	owner := &models.User{Rank: models.RankOwner}
	nobody := &models.User{Rank: models.RankUser}

	tests := []struct {
		name     string
		user     *models.User
		required []Permission
		want     bool
	}{
		{"granted", officer, []Permission{Leo}, true},
		{"any of", officer, []Permission{Dispatch, Leo}, true},
		{"missing", officer, []Permission{ManageValues}, false},
		{"owner bypass", owner, []Permission{ManageCadSettings}, true},
		{"no requirement", nobody, nil, true},
		{"no grants", nobody, []Permission{Leo}, false},
		{"nil user", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.user, tt.required...))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, ReviewWarrants.Valid())
	assert.False(t, Permission("Root").Valid())
}
