package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/labchat/internal/crypto"
	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// systemPrompt frames the model's role for free-form questions.
const systemPrompt = "You are a helpful GitLab assistant for a code review panel. " +
	"Answer questions about merge requests and code review clearly and concisely, " +
	"using markdown formatting."

// maxListedMergeRequests caps how many MRs a single chat answer includes.
const maxListedMergeRequests = 10

var (
	mrDetailPattern = regexp.MustCompile(`(?i)(?:merge request|\bmr)\s*[!#]?(\d+)`)
	mrListPattern   = regexp.MustCompile(`(?i)\bmerge requests?\b|\bmrs\b`)
)

// ChatReply is the outcome of one chat turn.
type ChatReply struct {
	SessionID string
	Content   string
	Model     string
}

// ChatService relays chat messages to the LLM backend and answers merge
// request queries directly from the GitLab API using the caller's stored
// credential. Tool failures (no config, API errors) become chat content so
// the user sees what to fix; only persistence failures are errors.
type ChatService struct {
	chats   driven.ChatStore
	configs driven.ConfigStore
	llm     driven.ChatModel
	gitlab  driven.GitLabReader
	cipher  *crypto.TokenCipher
	logger  *slog.Logger
}

// NewChatService creates a ChatService with all required dependencies.
func NewChatService(
	chats driven.ChatStore,
	configs driven.ConfigStore,
	llm driven.ChatModel,
	gitlab driven.GitLabReader,
	cipher *crypto.TokenCipher,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		chats:   chats,
		configs: configs,
		llm:     llm,
		gitlab:  gitlab,
		cipher:  cipher,
		logger:  logger,
	}
}

// Send handles one chat turn. An empty sessionID starts a new session; an
// existing one must belong to ownerID.
func (s *ChatService) Send(ctx context.Context, ownerID, sessionID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message required", model.ErrValidation)
	}

	now := time.Now().UTC()

	var session *model.ChatSession
	if sessionID == "" {
		session = &model.ChatSession{
			ID:        uuid.NewString(),
			OwnerID:   ownerID,
			Title:     sessionTitle(message),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.chats.InsertSession(ctx, *session); err != nil {
			return nil, err
		}
	} else {
		var err error
		session, err = s.chats.GetSession(ctx, sessionID, ownerID)
		if err != nil {
			return nil, err
		}
	}

	userMsg := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      model.RoleUser,
		Content:   message,
		CreatedAt: now,
	}
	if err := s.chats.InsertMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	content, err := s.answer(ctx, ownerID, session.ID, message)
	if err != nil {
		return nil, err
	}

	assistantMsg := model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      model.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.InsertMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	if err := s.chats.TouchSession(ctx, session.ID, assistantMsg.CreatedAt); err != nil {
		s.logger.Warn("failed to touch chat session", "session_id", session.ID, "error", err)
	}

	return &ChatReply{
		SessionID: session.ID,
		Content:   content,
		Model:     s.llm.ModelName(),
	}, nil
}

// Sessions returns the caller's sessions, newest first.
func (s *ChatService) Sessions(ctx context.Context, ownerID string) ([]model.ChatSession, error) {
	return s.chats.ListSessions(ctx, ownerID)
}

// Messages returns a session's messages after an ownership check.
func (s *ChatService) Messages(ctx context.Context, sessionID, ownerID string) ([]model.ChatMessage, error) {
	if _, err := s.chats.GetSession(ctx, sessionID, ownerID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, sessionID)
}

// ModelName reports the LLM backend's model identifier.
func (s *ChatService) ModelName() string {
	return s.llm.ModelName()
}

// answer routes a message: recognized merge request queries hit the GitLab
// API directly, everything else goes through the model with the session
// history as context.
func (s *ChatService) answer(ctx context.Context, ownerID, sessionID, message string) (string, error) {
	if m := mrDetailPattern.FindStringSubmatch(message); m != nil {
		iid, err := strconv.Atoi(m[1])
		if err == nil {
			return s.answerMergeRequestDetail(ctx, ownerID, iid), nil
		}
	}
	if mrListPattern.MatchString(message) {
		return s.answerMergeRequestList(ctx, ownerID, requestedState(message)), nil
	}

	history, err := s.chats.ListMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}

	prompt := make([]model.ChatMessage, 0, len(history)+1)
	prompt = append(prompt, model.ChatMessage{Role: model.RoleSystem, Content: systemPrompt})
	prompt = append(prompt, history...)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat model: %w", err)
	}
	return reply, nil
}

// toolConfig picks the credential config used for merge request queries:
// the first active one that names a project. The second return is a chat
// message explaining what is missing when none qualifies.
func (s *ChatService) toolConfig(ctx context.Context, ownerID string) (*model.CredentialConfig, string) {
	configs, err := s.configs.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list configs for chat", "error", err)
		return nil, "I couldn't look up your GitLab configurations. Please try again."
	}

	var activeWithoutProject bool
	for i := range configs {
		if !configs[i].IsActive {
			continue
		}
		if configs[i].ProjectRef == "" {
			activeWithoutProject = true
			continue
		}
		return &configs[i], ""
	}

	if activeWithoutProject {
		return nil, "No project ID configured. Please set a project ID in your GitLab configuration."
	}
	return nil, "No valid GitLab configuration found. Please add one in settings first."
}

func (s *ChatService) answerMergeRequestList(ctx context.Context, ownerID, state string) string {
	cfg, missing := s.toolConfig(ctx, ownerID)
	if cfg == nil {
		return missing
	}

	token, err := s.cipher.Decrypt(cfg.EncryptedToken)
	if err != nil {
		s.logger.Error("failed to decrypt token for chat", "config_id", cfg.ID, "error", err)
		return "Your stored access token could not be read. Please re-enter it in settings."
	}

	mrs, err := s.gitlab.ListMergeRequests(ctx, cfg.BaseURL, token, cfg.ProjectRef, state)
	if err != nil {
		s.logger.Warn("merge request list failed", "config_id", cfg.ID, "error", err)
		return fmt.Sprintf("Fetching merge requests failed: %v", err)
	}

	if len(mrs) == 0 {
		return fmt.Sprintf("No %s merge requests found in project %s.", state, cfg.ProjectRef)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s merge requests in project %s:\n", len(mrs), state, cfg.ProjectRef)
	for i, mr := range mrs {
		if i == maxListedMergeRequests {
			fmt.Fprintf(&b, "\n_...and %d more._\n", len(mrs)-maxListedMergeRequests)
			break
		}
		b.WriteString("\n")
		b.WriteString(formatMergeRequest(mr, false))
	}
	return b.String()
}

func (s *ChatService) answerMergeRequestDetail(ctx context.Context, ownerID string, iid int) string {
	cfg, missing := s.toolConfig(ctx, ownerID)
	if cfg == nil {
		return missing
	}

	token, err := s.cipher.Decrypt(cfg.EncryptedToken)
	if err != nil {
		s.logger.Error("failed to decrypt token for chat", "config_id", cfg.ID, "error", err)
		return "Your stored access token could not be read. Please re-enter it in settings."
	}

	mr, err := s.gitlab.GetMergeRequest(ctx, cfg.BaseURL, token, cfg.ProjectRef, iid)
	if err != nil {
		s.logger.Warn("merge request detail failed", "config_id", cfg.ID, "iid", iid, "error", err)
		return fmt.Sprintf("Fetching merge request !%d failed: %v", iid, err)
	}

	return formatMergeRequest(*mr, true)
}

func formatMergeRequest(mr model.MergeRequest, withDescription bool) string {
	labels := "None"
	if len(mr.Labels) > 0 {
		quoted := make([]string, len(mr.Labels))
		for i, l := range mr.Labels {
			quoted[i] = "`" + l + "`"
		}
		labels = strings.Join(quoted, ", ")
	}

	votes := ""
	if mr.Upvotes > 0 || mr.Downvotes > 0 {
		votes = fmt.Sprintf(" (+%d/-%d)", mr.Upvotes, mr.Downvotes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### MR !%d: %s\n\n", mr.IID, mr.Title)
	fmt.Fprintf(&b, "- **Author:** @%s\n", mr.Author)
	fmt.Fprintf(&b, "- **Status:** `%s`%s\n", mr.State, votes)
	fmt.Fprintf(&b, "- **Branch:** `%s` → `%s`\n", mr.SourceBranch, mr.TargetBranch)
	fmt.Fprintf(&b, "- **Labels:** %s\n", labels)
	fmt.Fprintf(&b, "- **Created:** %s | **Updated:** %s\n", mr.CreatedAt.Format("2006-01-02"), mr.UpdatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "- **URL:** %s\n", mr.WebURL)

	if withDescription && mr.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", mr.Description)
	}
	return b.String()
}

// requestedState maps message wording to a merge request state filter.
func requestedState(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "merged"):
		return "merged"
	case strings.Contains(lower, "closed"):
		return "closed"
	case strings.Contains(lower, "all"):
		return "all"
	default:
		return "opened"
	}
}

func sessionTitle(message string) string {
	const maxTitle = 60
	runes := []rune(message)
	if len(runes) <= maxTitle {
		return message
	}
	return string(runes[:maxTitle]) + "…"
}
