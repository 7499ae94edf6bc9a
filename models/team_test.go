package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siuno/teamfund-api/models"
)

func TestGenerateInviteCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := models.GenerateInviteCode()
		assert.Len(t, code, 16)
		for _, c := range code {
			assert.Contains(t, "0123456789ABCDEF", string(c))
		}
		assert.False(t, seen[code], "invite codes should not repeat")
		seen[code] = true
	}
}

func TestRoleCanManageFunds(t *testing.T) {
	assert.True(t, models.RoleLeader.CanManageFunds())
	assert.True(t, models.RoleTreasurer.CanManageFunds())
	assert.False(t, models.RoleMember.CanManageFunds())
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, models.RoleLeader.IsValid())
	assert.False(t, models.Role("Captain").IsValid())
}
