package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// EnsureSchema creates the tables the service needs when they do not
// exist yet. The UNIQUE constraints on users.username and users.email are
// carried by the model tags, which closes the register race at the
// storage layer: two concurrent registrations for the same username can
// both pass the application pre-check but only one insert commits.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Address)(nil),
		(*Product)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create table")
		}
	}

	if _, err := db.NewCreateIndex().
		Model((*Address)(nil)).
		Index("idx_addresses_user_default").
		Column("user_id", "is_default").
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create address index")
	}

	return nil
}
