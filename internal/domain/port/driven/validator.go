package driven

import (
	"context"

	"github.com/avolkov/labchat/internal/domain/model"
)

// CredentialValidator defines the driven port for probing a GitLab instance
// with a plaintext credential.
//
// Validate performs exactly one remote call per invocation (none at all when
// baseURL does not parse) and never retries: each probe may count against the
// instance's rate limits, so retry is the caller's decision. Failure modes
// are data, not errors -- the result is always well formed, with exactly one
// of {Valid + AccountName, Code + Message} populated.
type CredentialValidator interface {
	Validate(ctx context.Context, baseURL, token string) model.ValidationResult
}
