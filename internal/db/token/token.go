package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	c "onetime/internal/core/domain/common"
	e "onetime/internal/core/domain/errors"
	"onetime/internal/core/domain/token"
	"onetime/internal/core/domain/user"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Activation and reminder tokens share one shape but live in separate
// tables, the store is parameterized by the table it serves.
const (
	ActivationTable = "activation_token"
	ReminderTable   = "reminder_token"
)

type PgxTokenStore struct {
	pool  *pgxpool.Pool
	table string
	now   func() time.Time
}

func NewPgxStore(pool *pgxpool.Pool, table string, now func() time.Time) *PgxTokenStore {
	if pool == nil {
		panic(e.NewNilArgumentError("pool"))
	}
	if table == "" {
		panic(e.NewNilArgumentError("table"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &PgxTokenStore{pool: pool, table: table, now: now}
}

func (s *PgxTokenStore) Create(ctx context.Context, input token.CreateInput) (t token.Token, err error) {
	row := s.pool.QueryRow(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %s (user_id, code, completed, created_at)
			VALUES ($1, $2, false, $3)
			RETURNING id, user_id, code, completed, completed_at, created_at`,
			s.table,
		),
		int64(input.UserID),
		string(input.Code),
		s.now(),
	)
	return scanToken(row)
}

func (s *PgxTokenStore) GetOne(ctx context.Context, query token.Query) (t token.Token, err error) {
	row := s.pool.QueryRow(
		ctx,
		fmt.Sprintf(
			`SELECT id, user_id, code, completed, completed_at, created_at
			FROM %s
			WHERE ($1 OR user_id = $2)
				AND ($3 OR code = $4)
				AND ($5 OR completed = $6)
				AND ($7 OR created_at > $8)
				AND ($9 OR created_at <= $10)
			ORDER BY id
			LIMIT 1`,
			s.table,
		),
		queryArgs(query)...,
	)
	t, err = scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, token.ErrTokenDoesNotExist
	}
	return t, err
}

func (s *PgxTokenStore) MarkCompleted(ctx context.Context, id token.ID, at time.Time) (bool, error) {
	// Single guarded UPDATE, concurrent attempts resolve to one winner.
	result, err := s.pool.Exec(
		ctx,
		fmt.Sprintf(
			`UPDATE %s SET completed = true, completed_at = $2
			WHERE id = $1 AND completed = false`,
			s.table,
		),
		int64(id),
		at,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (s *PgxTokenStore) Delete(ctx context.Context, id token.ID) (bool, error) {
	result, err := s.pool.Exec(
		ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table),
		int64(id),
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (s *PgxTokenStore) DeleteMany(ctx context.Context, query token.Query) (int64, error) {
	result, err := s.pool.Exec(
		ctx,
		fmt.Sprintf(
			`DELETE FROM %s
			WHERE ($1 OR user_id = $2)
				AND ($3 OR code = $4)
				AND ($5 OR completed = $6)
				AND ($7 OR created_at > $8)
				AND ($9 OR created_at <= $10)`,
			s.table,
		),
		queryArgs(query)...,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func queryArgs(query token.Query) []interface{} {
	return []interface{}{
		!query.UserIDEquals.IsPresent,
		int64(query.UserIDEquals.Value),
		!query.CodeEquals.IsPresent,
		string(query.CodeEquals.Value),
		!query.CompletedEquals.IsPresent,
		query.CompletedEquals.Value,
		!query.CreatedAfter.IsPresent,
		query.CreatedAfter.Value,
		!query.CreatedNotAfter.IsPresent,
		query.CreatedNotAfter.Value,
	}
}

func scanToken(row pgx.Row) (t token.Token, err error) {
	var id, userID int64
	var code string
	var completed bool
	var completedAt sql.NullTime
	var createdAt time.Time
	err = row.Scan(&id, &userID, &code, &completed, &completedAt, &createdAt)
	if err != nil {
		return t, err
	}
	return token.Token{
		ID:          token.ID(id),
		UserID:      user.ID(userID),
		Code:        token.Code(code),
		Completed:   completed,
		CompletedAt: c.NewOptional(completedAt.Time, completedAt.Valid),
		CreatedAt:   createdAt,
	}, nil
}
