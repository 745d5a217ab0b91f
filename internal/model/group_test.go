package model_test

import (
	"testing"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestGroupJoinGate(t *testing.T) {
	key := "abc123"
	blank := ""

	tests := []struct {
		name             string
		group            model.Group
		hasPasskey       bool
		requiresApproval bool
	}{
		{"public", model.Group{Privacy: model.PrivacyPublic}, false, false},
		{"public ignores stray passkey", model.Group{Privacy: model.PrivacyPublic, Passkey: &key}, false, false},
		{"passkey", model.Group{Privacy: model.PrivacyPrivatePasskey, Passkey: &key}, true, false},
		{"passkey missing", model.Group{Privacy: model.PrivacyPrivatePasskey}, false, true},
		{"passkey blank", model.Group{Privacy: model.PrivacyPrivatePasskey, Passkey: &blank}, false, true},
		{"request", model.Group{Privacy: model.PrivacyPrivateRequest}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hasPasskey, tt.group.HasPasskey())
			assert.Equal(t, tt.requiresApproval, tt.group.RequiresApproval())
		})
	}
}

func TestPrivacyAndRole(t *testing.T) {
	assert.True(t, model.PrivacyPrivateRequest.Valid())
	assert.False(t, model.Privacy("secret").Valid())
	assert.False(t, model.PrivacyPublic.IsPrivate())
	assert.True(t, model.PrivacyPrivatePasskey.IsPrivate())

	assert.True(t, model.RoleAdmin.Valid())
	assert.False(t, model.RoleNonMember.Valid())
}
