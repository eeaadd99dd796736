package model

import "time"

// ValidationCode classifies why a credential probe against a GitLab instance
// did not succeed. An empty code means the probe succeeded.
type ValidationCode string

const (
	CodeInvalidURL              ValidationCode = "invalid_url"
	CodeNetworkError            ValidationCode = "network_error"
	CodeTimeout                 ValidationCode = "timeout"
	CodeInvalidToken            ValidationCode = "invalid_token"
	CodeInsufficientPermissions ValidationCode = "insufficient_permissions"
	CodeNotFound                ValidationCode = "not_found"
	CodeAPIError                ValidationCode = "api_error"
)

// ValidationResult is the classified outcome of probing a GitLab instance's
// /user endpoint with a given credential. Exactly one of the two shapes
// holds: Valid with AccountName set, or invalid with Code and Message set.
type ValidationResult struct {
	Valid       bool
	AccountName string
	Code        ValidationCode
	Message     string
}

// CredentialConfig is a stored, named binding of a GitLab base URL and an
// encrypted access token to one owning user.
type CredentialConfig struct {
	ID             string
	OwnerID        string
	DisplayName    string
	BaseURL        string
	EncryptedToken []byte
	ProjectRef     string

	// IsActive is true iff the most recent validation attempt succeeded.
	// The remaining validation fields mirror that attempt's outcome.
	IsActive          bool
	ValidationMessage string
	ValidationCode    ValidationCode
	AccountName       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyValidation copies a probe outcome onto the config. On success the
// error fields are cleared; on failure AccountName is cleared.
func (c *CredentialConfig) ApplyValidation(res ValidationResult) {
	c.IsActive = res.Valid
	if res.Valid {
		c.ValidationMessage = ""
		c.ValidationCode = ""
		c.AccountName = res.AccountName
		return
	}
	c.ValidationMessage = res.Message
	c.ValidationCode = res.Code
	c.AccountName = ""
}

// TokenUpdate says whether an update request replaces the stored access
// token or keeps it. Modeling this explicitly avoids the ambiguity of an
// empty string meaning "no change".
type TokenUpdate struct {
	replace bool
	token   string
}

// KeepToken leaves the stored token untouched.
func KeepToken() TokenUpdate { return TokenUpdate{} }

// ReplaceToken swaps in newToken.
func ReplaceToken(newToken string) TokenUpdate {
	return TokenUpdate{replace: true, token: newToken}
}

// Replacement returns the new token and true when the update replaces the
// stored token, or ("", false) when it keeps it.
func (u TokenUpdate) Replacement() (string, bool) {
	return u.token, u.replace
}
