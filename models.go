package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. New accounts start out inactive and are
// flipped to active once the owner follows the activation link we mail
// them.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string         `bun:"email,notnull" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	Active         bool           `bun:"is_active,notnull,default:false" json:"is_active,omitempty"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	ActivatedAt    *time.Time     `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]interface{})
	}
	u.Metadata[key] = val
	return u
}

// MarkActivated flips the account to active. Safe to call on an already
// active user.
func (u *User) MarkActivated() *User {
	u.Active = true
	if u.ActivatedAt == nil {
		now := time.Now()
		u.ActivatedAt = &now
	}
	return u
}

// Address is a shipping address owned by a user. At most one address per
// user carries the default flag; the first address a user creates becomes
// the default.
type Address struct {
	bun.BaseModel `bun:"table:addresses,alias:addr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Receiver      string     `bun:"receiver,notnull" json:"receiver,omitempty"`
	Addr          string     `bun:"addr,notnull" json:"addr,omitempty"`
	ZipCode       string     `bun:"zip_code" json:"zip_code,omitempty"`
	Phone         string     `bun:"phone,notnull" json:"phone,omitempty"`
	IsDefault     bool       `bun:"is_default,notnull,default:false" json:"is_default,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Product is the slice of the catalog the profile page needs in order to
// resolve a browse-history entry into something renderable.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Price         int64      `bun:"price,notnull" json:"price,omitempty"`
	Unit          string     `bun:"unit" json:"unit,omitempty"`
	Image         string     `bun:"image" json:"image,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
