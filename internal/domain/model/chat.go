package model

import "time"

// Chat message roles as stored and as sent to the model backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatSession groups the messages of one conversation for one user.
type ChatSession struct {
	ID        string
	OwnerID   string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is one turn in a session.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// MergeRequest is the subset of a GitLab merge request surfaced to chat
// queries.
type MergeRequest struct {
	IID          int
	Title        string
	Description  string
	State        string
	Author       string
	SourceBranch string
	TargetBranch string
	Labels       []string
	Upvotes      int
	Downvotes    int
	WebURL       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
