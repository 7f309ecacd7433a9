package token

import (
	"context"
	"errors"
	c "onetime/internal/core/domain/common"
	"onetime/internal/core/domain/user"
	"time"
)

var ErrTokenDoesNotExist = errors.New("token does not exist")

type CreateInput struct {
	UserID user.ID
	Code   Code
}

// Query is a conjunction of filters. Absent fields do not constrain the
// result set. CreatedAfter is a strict comparison, CreatedNotAfter is
// inclusive, so a threshold splits tokens into exactly two sets.
type Query struct {
	UserIDEquals    c.Optional[user.ID]
	CodeEquals      c.Optional[Code]
	CompletedEquals c.Optional[bool]
	CreatedAfter    c.Optional[time.Time]
	CreatedNotAfter c.Optional[time.Time]
}

func (q Query) Matches(t Token) bool {
	if q.UserIDEquals.IsPresent && t.UserID != q.UserIDEquals.Value {
		return false
	}
	if q.CodeEquals.IsPresent && t.Code != q.CodeEquals.Value {
		return false
	}
	if q.CompletedEquals.IsPresent && t.Completed != q.CompletedEquals.Value {
		return false
	}
	if q.CreatedAfter.IsPresent && !t.CreatedAt.After(q.CreatedAfter.Value) {
		return false
	}
	if q.CreatedNotAfter.IsPresent && t.CreatedAt.After(q.CreatedNotAfter.Value) {
		return false
	}
	return true
}

type Store interface {
	// Create assigns the ID and CreatedAt and returns the stored token.
	Create(ctx context.Context, input CreateInput) (Token, error)
	// GetOne returns the first token matching the query, in store
	// iteration order, or ErrTokenDoesNotExist. Callers must not assume
	// recency when a user has several matching tokens.
	GetOne(ctx context.Context, query Query) (Token, error)
	// MarkCompleted sets completed and completedAt, but only if the token
	// is still not completed at update time. It reports whether the
	// update took effect, so that concurrent completion attempts resolve
	// to exactly one winner.
	MarkCompleted(ctx context.Context, id ID, at time.Time) (bool, error)
	Delete(ctx context.Context, id ID) (bool, error)
	DeleteMany(ctx context.Context, query Query) (int64, error)
}
