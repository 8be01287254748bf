package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jrsteele09/agent-console/internal/errors"
)

// User is the operator's identity as served by GET /auth/me.
type User struct {
	ID                    int64      `json:"id"`                          // Remote user id
	Email                 string     `json:"email"`                       // Login email
	CreatedAt             time.Time  `json:"created_at"`                  // Account creation time
	ConsentTimestamp      *time.Time `json:"consent_timestamp,omitempty"` // When the GDPR consents were given
	DataProcessingConsent bool       `json:"data_processing_consent"`
	TermsAccepted         bool       `json:"terms_accepted"`
	PrivacyPolicyAccepted bool       `json:"privacy_policy_accepted"`
}

// HasConsented reports whether all three registration consents are on record.
func (u *User) HasConsented() bool {
	return u.DataProcessingConsent && u.TermsAccepted && u.PrivacyPolicyAccepted
}

// Registration is the payload for POST /auth/register.
type Registration struct {
	Email                 string `json:"email"`
	Password              string `json:"password"`
	ConfirmPassword       string `json:"-"`
	DataProcessingConsent bool   `json:"data_processing_consent"`
	TermsAccepted         bool   `json:"terms_accepted"`
	PrivacyPolicyAccepted bool   `json:"privacy_policy_accepted"`
}

// CheckConsent fails with ErrConsentRequired unless every consent flag is set.
func (r Registration) CheckConsent() error {
	if !r.DataProcessingConsent || !r.TermsAccepted || !r.PrivacyPolicyAccepted {
		return fmt.Errorf("%w: data processing, terms of service and privacy policy must all be accepted", errors.ErrConsentRequired)
	}
	return nil
}

// Validate runs the checks that can be made before contacting the server:
// consents first, then the form fields.
func (r Registration) Validate() error {
	if err := r.CheckConsent(); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return fmt.Errorf("%w: invalid email address", errors.ErrValidation)
	}
	if r.Password == "" {
		return fmt.Errorf("%w: password is required", errors.ErrValidation)
	}
	if r.ConfirmPassword != "" && r.ConfirmPassword != r.Password {
		return fmt.Errorf("%w: passwords do not match", errors.ErrValidation)
	}
	return nil
}
