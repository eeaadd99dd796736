package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	gl "github.com/xanzy/go-gitlab"

	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitLabReader = (*Client)(nil)

// Client implements the driven.GitLabReader port using the go-gitlab library.
// The base URL and token vary per stored credential config, so a go-gitlab
// client is constructed per call on top of one shared caching HTTP client
// (httpcache, ETag-based conditional requests). The cache sits only under
// merge request reads, never under credential validation.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a merge request reader with an in-memory cache transport.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
	}
}

func (c *Client) api(baseURL, token string) (*gl.Client, error) {
	client, err := gl.NewClient(token,
		gl.WithBaseURL(baseURL),
		gl.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client for %q: %w", baseURL, err)
	}
	return client, nil
}

// ListMergeRequests returns project merge requests filtered by state.
func (c *Client) ListMergeRequests(ctx context.Context, baseURL, token, projectRef, state string) ([]model.MergeRequest, error) {
	api, err := c.api(baseURL, token)
	if err != nil {
		return nil, err
	}

	opts := &gl.ListProjectMergeRequestsOptions{
		ListOptions: gl.ListOptions{PerPage: 20},
	}
	if state != "" && state != "all" {
		opts.State = gl.Ptr(state)
	}

	mrs, _, err := api.MergeRequests.ListProjectMergeRequests(projectRef, opts, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing merge requests for project %q: %w", projectRef, err)
	}

	result := make([]model.MergeRequest, 0, len(mrs))
	for _, mr := range mrs {
		result = append(result, mapMergeRequest(mr))
	}
	return result, nil
}

// GetMergeRequest returns one merge request by its project-local iid.
func (c *Client) GetMergeRequest(ctx context.Context, baseURL, token, projectRef string, iid int) (*model.MergeRequest, error) {
	api, err := c.api(baseURL, token)
	if err != nil {
		return nil, err
	}

	mr, _, err := api.MergeRequests.GetMergeRequest(projectRef, iid, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("getting merge request !%d for project %q: %w", iid, projectRef, err)
	}

	mapped := mapMergeRequest(mr)
	return &mapped, nil
}

func mapMergeRequest(mr *gl.MergeRequest) model.MergeRequest {
	out := model.MergeRequest{
		IID:          mr.IID,
		Title:        mr.Title,
		Description:  mr.Description,
		State:        mr.State,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Labels:       []string(mr.Labels),
		Upvotes:      mr.Upvotes,
		Downvotes:    mr.Downvotes,
		WebURL:       mr.WebURL,
	}
	if mr.Author != nil {
		out.Author = mr.Author.Username
	}
	if mr.CreatedAt != nil {
		out.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		out.UpdatedAt = *mr.UpdatedAt
	}
	if out.Labels == nil {
		out.Labels = []string{}
	}
	return out
}
