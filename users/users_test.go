package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/internal/errors"
	"github.com/jrsteele09/agent-console/users"
)

func validRegistration() users.Registration {
	return users.Registration{
		Email:                 "ops@example.com",
		Password:              "Secret123",
		ConfirmPassword:       "Secret123",
		DataProcessingConsent: true,
		TermsAccepted:         true,
		PrivacyPolicyAccepted: true,
	}
}

func TestRegistrationValidate(t *testing.T) {
	t.Run("valid registration passes", func(t *testing.T) {
		require.NoError(t, validRegistration().Validate())
	})

	t.Run("each missing consent is rejected", func(t *testing.T) {
		for _, mutate := range []func(*users.Registration){
			func(r *users.Registration) { r.DataProcessingConsent = false },
			func(r *users.Registration) { r.TermsAccepted = false },
			func(r *users.Registration) { r.PrivacyPolicyAccepted = false },
		} {
			reg := validRegistration()
			mutate(&reg)
			require.ErrorIs(t, reg.Validate(), errors.ErrConsentRequired)
		}
	})

	t.Run("consent is checked before the form fields", func(t *testing.T) {
		reg := users.Registration{Email: "not-an-email"}
		require.ErrorIs(t, reg.Validate(), errors.ErrConsentRequired)
	})

	t.Run("mismatched passwords", func(t *testing.T) {
		reg := validRegistration()
		reg.ConfirmPassword = "Other123"
		require.ErrorIs(t, reg.Validate(), errors.ErrValidation)
	})

	t.Run("bad email", func(t *testing.T) {
		reg := validRegistration()
		reg.Email = "nope"
		require.ErrorIs(t, reg.Validate(), errors.ErrValidation)
	})
}

func TestUserHasConsented(t *testing.T) {
	u := &users.User{DataProcessingConsent: true, TermsAccepted: true}
	require.False(t, u.HasConsented())
	u.PrivacyPolicyAccepted = true
	require.True(t, u.HasConsented())
}
