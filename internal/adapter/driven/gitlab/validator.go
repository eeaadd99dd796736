// Package gitlab implements the GitLab-facing driven ports: credential
// validation against the /api/v4/user endpoint and merge request reads via
// the go-gitlab client library.
package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialValidator = (*Validator)(nil)

// maxBodyExcerpt caps how much of a remote error body is copied into a
// validation message.
const maxBodyExcerpt = 200

// Validator probes a GitLab instance's current-user endpoint to classify a
// credential. It issues exactly one HTTP request per Validate call and never
// retries; each probe may count against the instance's rate limits.
//
// The validator deliberately uses a bare http.Client rather than the
// go-gitlab library: classification needs the raw status code and the
// distinction between timeout and other transport failures, which the
// library folds into one error type.
type Validator struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewValidator creates a Validator whose probes are bounded by timeout.
func NewValidator(timeout time.Duration, logger *slog.Logger) *Validator {
	return &Validator{
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

// Validate probes baseURL's /api/v4/user endpoint with token and classifies
// the outcome. A URL that does not parse as absolute http(s) short-circuits
// without any network call.
func (v *Validator) Validate(ctx context.Context, baseURL, token string) model.ValidationResult {
	baseURL = strings.TrimRight(baseURL, "/")

	if msg, ok := checkURL(baseURL); !ok {
		v.logger.Warn("invalid gitlab url", "url", baseURL)
		return model.ValidationResult{
			Code:    model.CodeInvalidURL,
			Message: msg,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v4/user", nil)
	if err != nil {
		return model.ValidationResult{
			Code:    model.CodeInvalidURL,
			Message: fmt.Sprintf("Invalid GitLab URL: %v", err),
		}
	}
	req.Header.Set("PRIVATE-TOKEN", token)

	resp, err := v.client.Do(req)
	if err != nil {
		return v.classifyTransportError(baseURL, err)
	}
	defer resp.Body.Close()

	return v.classifyResponse(baseURL, resp)
}

// checkURL reports whether raw is an absolute http(s) URL, with a
// caller-facing message when it is not.
func checkURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("Invalid GitLab URL format: %v", err), false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("Invalid GitLab URL format: scheme %q is not http or https", u.Scheme), false
	}
	if u.Host == "" {
		return "Invalid GitLab URL format: missing host", false
	}
	return "", true
}

func (v *Validator) classifyTransportError(baseURL string, err error) model.ValidationResult {
	if errors.Is(err, context.DeadlineExceeded) {
		v.logger.Warn("gitlab validation timeout", "url", baseURL, "timeout", v.timeout)
		return model.ValidationResult{
			Code:    model.CodeTimeout,
			Message: "Connection timeout - GitLab instance unreachable",
		}
	}

	v.logger.Warn("gitlab validation network error", "url", baseURL, "error", err)
	return model.ValidationResult{
		Code:    model.CodeNetworkError,
		Message: "Network error - could not reach GitLab instance",
	}
}

func (v *Validator) classifyResponse(baseURL string, resp *http.Response) model.ValidationResult {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
			return model.ValidationResult{
				Code:    model.CodeAPIError,
				Message: fmt.Sprintf("GitLab API returned unreadable user payload: %v", err),
			}
		}
		if body.Username == "" {
			body.Username = "unknown"
		}
		v.logger.Info("gitlab validation successful", "url", baseURL, "username", body.Username)
		return model.ValidationResult{Valid: true, AccountName: body.Username}

	case resp.StatusCode == http.StatusUnauthorized:
		v.logger.Warn("gitlab validation failed: invalid token", "url", baseURL)
		return model.ValidationResult{
			Code:    model.CodeInvalidToken,
			Message: "Invalid access token or token expired",
		}

	case resp.StatusCode == http.StatusForbidden:
		v.logger.Warn("gitlab validation failed: insufficient permissions", "url", baseURL)
		return model.ValidationResult{
			Code:    model.CodeInsufficientPermissions,
			Message: "Token lacks required permissions",
		}

	case resp.StatusCode == http.StatusNotFound:
		v.logger.Warn("gitlab api endpoint not found", "url", baseURL)
		return model.ValidationResult{
			Code:    model.CodeNotFound,
			Message: "GitLab API endpoint not found - check URL",
		}

	default:
		excerpt := readExcerpt(resp.Body)
		v.logger.Warn("gitlab api error", "url", baseURL, "status", resp.StatusCode)
		msg := fmt.Sprintf("GitLab API error: %d", resp.StatusCode)
		if excerpt != "" {
			msg += ": " + excerpt
		}
		return model.ValidationResult{
			Code:    model.CodeAPIError,
			Message: msg,
		}
	}
}

func readExcerpt(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyExcerpt))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
