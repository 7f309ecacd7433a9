package user

import (
	"context"
	e "onetime/internal/core/domain/errors"
	"onetime/internal/core/domain/user"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PgxUserDirectory is a pgx-backed user directory for the reminder
// completion flow. Password policy is checked with ozzo rules, the stored
// credential is a bcrypt hash produced by the injected hasher.
type PgxUserDirectory struct {
	pool   *pgxpool.Pool
	hasher user.PasswordHasher
}

func NewPgxDirectory(pool *pgxpool.Pool, hasher user.PasswordHasher) *PgxUserDirectory {
	if pool == nil {
		panic(e.NewNilArgumentError("pool"))
	}
	if hasher == nil {
		panic(e.NewNilArgumentError("hasher"))
	}
	return &PgxUserDirectory{pool: pool, hasher: hasher}
}

func (d *PgxUserDirectory) ValidForUpdate(
	ctx context.Context,
	id user.ID,
	password user.RawPassword,
) (bool, error) {
	err := validation.Validate(string(password), validation.Required, validation.Length(6, 256))
	if err != nil {
		return false, nil
	}

	var exists bool
	err = d.pool.QueryRow(
		ctx,
		"SELECT EXISTS (SELECT 1 FROM app_user WHERE id = $1)",
		int64(id),
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (d *PgxUserDirectory) Update(ctx context.Context, id user.ID, password user.RawPassword) error {
	hash, err := d.hasher.HashPassword(password)
	if err != nil {
		return err
	}
	result, err := d.pool.Exec(
		ctx,
		"UPDATE app_user SET password_hash = $2 WHERE id = $1",
		int64(id),
		string(hash),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return user.ErrUserDoesNotExist
	}
	return nil
}
