package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username string `json:"user_name"`
	Password string `json:"pwd"`
	Email    string `json:"email"`
}

func (e RegisterUserMessage) Type() string { return "account.register_user" }

// RegisterUserHandler creates an inactive account and dispatches the
// activation email. The email goes out after the transaction commits so
// a rollback never leaks a link to a user that does not exist.
type RegisterUserHandler struct {
	repo     RepositoryManager
	tokens   *ActivationTokenService
	mailer   Mailer
	baseURL  string
	activity ActivitySink
	Logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens *ActivationTokenService, mailer Mailer, cfg Config) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		tokens:   tokens,
		mailer:   mailer,
		baseURL:  cfg.GetActivationBaseURL(),
		activity: noopActivitySink{},
		Logger:   defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.Logger = logger
	return h
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	var user *User

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Users().UsernameExists(ctx, event.Username)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return err
		}

		uid, err := hashid.NewUUID(event.Username)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to generate user id")
		}

		user = &User{
			ID:           uid,
			Username:     event.Username,
			Email:        event.Email,
			PasswordHash: hash,
			Active:       false,
		}

		user, err = h.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			// concurrent registration can still slip past the pre check,
			// the unique index is the source of truth
			if IsConflictError(err) {
				return ErrUsernameTaken
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserRegistered,
		UserID:     user.ID.String(),
		Identifier: user.Username,
		OccurredAt: time.Now(),
	}); err != nil {
		h.Logger.Warn("activity sink record error", "error", err)
	}

	h.dispatchActivationEmail(user)

	return user, nil
}

// dispatchActivationEmail is fire and forget. A failed send only logs;
// the account stays registered and support can resend the link.
func (h *RegisterUserHandler) dispatchActivationEmail(user *User) {
	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.Logger.Error("failed to generate activation token", "error", err, "user", user.ID)
		return
	}

	link := fmt.Sprintf("%s/activate/%s", h.baseURL, token)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.tokens.TTL())
		defer cancel()

		if err := h.mailer.SendActivationEmail(ctx, user.Email, user.Username, link); err != nil {
			h.Logger.Error("failed to send activation email", "error", err, "user", user.ID)
		}
	}()
}
