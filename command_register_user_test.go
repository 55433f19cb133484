package accounts_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/freshmart/accounts"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureMailer hands the activation link to the test over a channel so
// the fire and forget dispatch can be observed without sleeping.
type captureMailer struct {
	links chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{links: make(chan string, 1)}
}

func (m *captureMailer) SendActivationEmail(_ context.Context, to, username, link string) error {
	m.links <- link
	return nil
}

func (m *captureMailer) waitForLink(t *testing.T) string {
	t.Helper()
	select {
	case link := <-m.links:
		return link
	case <-time.After(5 * time.Second):
		t.Fatal("no activation email dispatched")
		return ""
	}
}

func newRegisterHandler(t *testing.T, repo accounts.RepositoryManager) (*accounts.RegisterUserHandler, *accounts.ActivationTokenService, *captureMailer) {
	t.Helper()
	tokens := accounts.NewActivationTokenService([]byte("test-key"), time.Hour, "accounts-test", nil)
	mailer := newCaptureMailer()
	handler := accounts.NewRegisterUserHandler(repo, tokens, mailer, newTestConfig())
	return handler, tokens, mailer
}

func TestRegisterUserCreatesInactiveAccount(t *testing.T) {
	repo := setupRepo(t)
	handler, tokens, mailer := newRegisterHandler(t, repo)

	user, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "peppa",
		Password: "s3cret-password",
		Email:    "peppa@example.com",
	})
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.NotEqual(t, "s3cret-password", user.PasswordHash)
	assert.NoError(t, accounts.ComparePasswordAndHash("s3cret-password", user.PasswordHash))

	link := mailer.waitForLink(t)
	require.True(t, strings.Contains(link, "/activate/"))

	// the emailed token resolves back to the new account
	token := link[strings.LastIndex(link, "/")+1:]
	uid, err := tokens.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)
}

func TestRegisterUserDuplicateUsername(t *testing.T) {
	repo := setupRepo(t)
	handler, _, mailer := newRegisterHandler(t, repo)
	ctx := context.Background()

	_, err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Username: "peppa",
		Password: "s3cret-password",
		Email:    "peppa@example.com",
	})
	require.NoError(t, err)
	mailer.waitForLink(t)

	_, err = handler.Execute(ctx, accounts.RegisterUserMessage{
		Username: "peppa",
		Password: "another-password",
		Email:    "other@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, accounts.ErrUsernameTaken))

	select {
	case link := <-mailer.links:
		t.Fatalf("no email expected for a rejected registration, got %s", link)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegisterUserSharedEmail(t *testing.T) {
	repo := setupRepo(t)
	handler, _, mailer := newRegisterHandler(t, repo)
	ctx := context.Background()

	first, err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Username: "peppa",
		Password: "s3cret-password",
		Email:    "family@example.com",
	})
	require.NoError(t, err)
	mailer.waitForLink(t)

	// a household can register several accounts under one mailbox
	second, err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Username: "george",
		Password: "another-password",
		Email:    "family@example.com",
	})
	require.NoError(t, err)
	mailer.waitForLink(t)

	assert.NotEqual(t, first.ID, second.ID)

	found, err := repo.Users().GetByIdentifier(ctx, "george")
	require.NoError(t, err)
	assert.Equal(t, "family@example.com", found.Email)
}

func TestRegisterUserEmptyPassword(t *testing.T) {
	repo := setupRepo(t)
	handler, _, _ := newRegisterHandler(t, repo)

	_, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "peppa",
		Email:    "peppa@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, accounts.ErrNoEmptyString))
}
