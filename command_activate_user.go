package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
)

// ActivateUserHandler turns the signed token from the activation link
// into an active account. Tokens for unknown users and malformed tokens
// report the same failure so the response does not reveal which accounts
// exist.
type ActivateUserHandler struct {
	repo     RepositoryManager
	tokens   *ActivationTokenService
	activity ActivitySink
	Logger   Logger
}

func NewActivateUserHandler(repo RepositoryManager, tokens *ActivationTokenService) *ActivateUserHandler {
	return &ActivateUserHandler{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		Logger:   defLogger{},
	}
}

func (h *ActivateUserHandler) WithLogger(logger Logger) *ActivateUserHandler {
	h.Logger = logger
	return h
}

func (h *ActivateUserHandler) WithActivitySink(sink ActivitySink) *ActivateUserHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ActivateUserHandler) Execute(ctx context.Context, token string) (*User, error) {
	uid, err := h.tokens.Decode(token)
	if err != nil {
		return nil, err
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, uid.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrActivationInvalid
		}
		return nil, err
	}

	if err := h.repo.Users().Activate(ctx, user.ID); err != nil {
		return nil, err
	}

	user.MarkActivated()

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserActivated,
		UserID:     user.ID.String(),
		Identifier: user.Username,
		OccurredAt: time.Now(),
	}); err != nil {
		h.Logger.Warn("activity sink record error", "error", err)
	}

	return user, nil
}
