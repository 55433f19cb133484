package accounts

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Addresses interface {
	repository.Repository[*Address]

	CreateForUser(ctx context.Context, userID uuid.UUID, record *Address) (*Address, error)
	CreateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, record *Address) (*Address, error)
	GetDefault(ctx context.Context, userID uuid.UUID) (*Address, error)
	GetDefaultTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Address, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Address, error)
}

type addresses struct {
	repository.Repository[*Address]
	db *bun.DB
}

var (
	_ Addresses                       = (*addresses)(nil)
	_ repository.Repository[*Address] = (*addresses)(nil)
)

func NewAddressesRepository(db *bun.DB) Addresses {
	repo := repository.NewRepository[*Address](db, repository.ModelHandlers[*Address]{
		NewRecord: func() *Address { return &Address{} },
		GetID: func(a *Address) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Address, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &addresses{
		Repository: repo,
		db:         db,
	}
}

// CreateForUser persists a new address applying the default flag rule:
// the first address a user creates becomes the default, every later one
// does not. The read and the insert run in one transaction so two
// concurrent first addresses cannot both end up default.
func (a *addresses) CreateForUser(ctx context.Context, userID uuid.UUID, record *Address) (*Address, error) {
	var created *Address
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = a.CreateForUserTx(ctx, tx, userID, record)
		return err
	})
	return created, err
}

func (a *addresses) CreateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, record *Address) (*Address, error) {
	_, err := a.GetDefaultTx(ctx, tx, userID)
	switch {
	case err == nil:
		record.IsDefault = false
	case repository.IsRecordNotFound(err):
		record.IsDefault = true
	default:
		return nil, err
	}

	record.UserID = &userID
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *addresses) GetDefault(ctx context.Context, userID uuid.UUID) (*Address, error) {
	return a.GetDefaultTx(ctx, a.db, userID)
}

func (a *addresses) GetDefaultTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Address, error) {
	record := &Address{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.is_default = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, err
	}
	return record, nil
}

func (a *addresses) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Address, error) {
	var records []*Address
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
