package driven

import (
	"context"

	"github.com/avolkov/labchat/internal/domain/model"
)

// GitLabReader defines the driven port for reading merge request data from a
// GitLab instance on behalf of a stored credential. The token is plaintext
// here; decryption happens in the application layer.
type GitLabReader interface {
	// ListMergeRequests returns project merge requests filtered by state
	// ("opened", "closed", "merged", or "all").
	ListMergeRequests(ctx context.Context, baseURL, token, projectRef, state string) ([]model.MergeRequest, error)

	// GetMergeRequest returns one merge request by its project-local iid.
	GetMergeRequest(ctx context.Context, baseURL, token, projectRef string, iid int) (*model.MergeRequest, error)
}
