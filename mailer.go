package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const sendgridSendURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridMailer delivers the activation email through the SendGrid v3
// mail send API.
type SendGridMailer struct {
	apiKey    string
	fromEmail string
	fromName  string
	client    *http.Client
	Logger    Logger
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    &http.Client{Timeout: 10 * time.Second},
		Logger:    defLogger{},
	}
}

func (m *SendGridMailer) WithLogger(logger Logger) *SendGridMailer {
	m.Logger = logger
	return m
}

type sgEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To []sgEmailAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMailPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgEmailAddress      `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (m *SendGridMailer) SendActivationEmail(ctx context.Context, to, username, link string) error {
	payload := sgMailPayload{
		Personalizations: []sgPersonalization{
			{To: []sgEmailAddress{{Email: to, Name: username}}},
		},
		From:    sgEmailAddress{Email: m.fromEmail, Name: m.fromName},
		Subject: "Activate your account",
		Content: []sgContent{{
			Type: "text/html",
			Value: fmt.Sprintf(
				`<p>Hi %s,</p><p>Click the link below to activate your account. The link is valid for one hour.</p><p><a href="%s">%s</a></p>`,
				username, link, link,
			),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode email payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridSendURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build email request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "email provider request failed")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return errors.New("email provider rejected message", errors.CategoryExternal).
			WithMetadata(map[string]any{"status": res.StatusCode, "to": to})
	}

	m.Logger.Info("activation email sent", "to", to)
	return nil
}

// LogMailer prints the email to the log instead of sending it. Used in
// development and in tests.
type LogMailer struct {
	Logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendActivationEmail(_ context.Context, to, username, link string) error {
	payload := map[string]any{
		"to":       to,
		"username": username,
		"link":     link,
		"subject":  "Activate your account",
	}
	m.Logger.Info("== ACTIVATION EMAIL ==\n%s", print.MaybePrettyJSON(payload))
	return nil
}

var (
	_ Mailer = (*SendGridMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
