package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSecrets(t *testing.T) {
	cases := []struct {
		name     string
		identity string
		session  string
		wantErr  string
	}{
		{"defaults", devIdentitySecret, devSessionSecret, "IDENTITY_SECRET"},
		{"session default", "id-5f1c", devSessionSecret, "SESSION_SECRET"},
		{"empty identity", "", "sess-9a2b", "IDENTITY_SECRET"},
		{"identical", "same-secret", "same-secret", "must differ"},
		{"ok", "id-5f1c", "sess-9a2b", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := (&Config{IdentitySecret: tc.identity, SessionSecret: tc.session}).ValidateSecrets()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_DefaultSecretsFailValidation(t *testing.T) {
	t.Setenv("IDENTITY_SECRET", "")
	t.Setenv("SESSION_SECRET", "")
	assert.Error(t, Load().ValidateSecrets())

	t.Setenv("IDENTITY_SECRET", "id-5f1c")
	t.Setenv("SESSION_SECRET", "sess-9a2b")
	assert.NoError(t, Load().ValidateSecrets())
}
