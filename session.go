package accounts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the server side session record. The Token field is the
// opaque identifier the client holds in its cookie; everything else lives
// only in the store.
type SessionObject struct {
	Token     string         `json:"token,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Username  string         `json:"username,omitempty"`
	IssuedAt  *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetToken() string {
	return s.Token
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetUsername() string {
	return s.Username
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiresAt() *time.Time {
	return s.ExpiresAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// Expired reports whether the record outlived its expiry. Stores with
// native TTL support normally never return expired records; the check
// covers the in memory store.
func (s *SessionObject) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s username=%s iat=%s data=%v",
		s.UserID,
		s.Username,
		issuedAt,
		s.Data,
	)
}

// NewSessionObject builds a record for the given identity. The token is
// assigned by the store on Create.
func NewSessionObject(identity Identity) *SessionObject {
	now := time.Now()
	return &SessionObject{
		UserID:   identity.ID(),
		Username: identity.Username(),
		IssuedAt: &now,
		Data:     map[string]any{},
	}
}
