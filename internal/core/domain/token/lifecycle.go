package token

import (
	"context"
	"errors"
	c "onetime/internal/core/domain/common"
	e "onetime/internal/core/domain/errors"
	"onetime/internal/core/domain/user"
	"time"
)

// DefaultWindow is the validity period of a token after creation.
const DefaultWindow = 72 * time.Hour

// Lifecycle is the state machine shared by activation and reminder tokens:
// a token is created pending, may be completed exactly once while still
// within its window, and is otherwise swept once the window has passed.
type Lifecycle struct {
	store  Store
	codes  CodeGenerator
	now    func() time.Time
	window time.Duration
}

func NewLifecycle(
	store Store,
	codes CodeGenerator,
	now func() time.Time,
	window time.Duration,
) *Lifecycle {
	if store == nil {
		panic(e.NewNilArgumentError("store"))
	}
	if codes == nil {
		panic(e.NewNilArgumentError("codes"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Lifecycle{store: store, codes: codes, now: now, window: window}
}

func (l *Lifecycle) Window() time.Duration {
	return l.window
}

// Create always persists a new pending token. Existing pending tokens for
// the same user are left untouched.
func (l *Lifecycle) Create(ctx context.Context, userID user.ID) (Token, error) {
	return l.store.Create(ctx, CreateInput{UserID: userID, Code: l.codes.GenerateCode()})
}

// FindActive returns the first pending and unexpired token for the user,
// optionally narrowed by an exact code match. Absence is not an error.
func (l *Lifecycle) FindActive(
	ctx context.Context,
	userID user.ID,
	code c.Optional[Code],
) (t Token, ok bool, err error) {
	t, err = l.store.GetOne(ctx, Query{
		UserIDEquals:    c.NewOptional(userID, true),
		CodeEquals:      code,
		CompletedEquals: c.NewOptional(false, true),
		CreatedAfter:    c.NewOptional(l.expiryThreshold(), true),
	})
	if errors.Is(err, ErrTokenDoesNotExist) {
		return t, false, nil
	}
	if err != nil {
		return t, false, err
	}
	return t, true, nil
}

// Complete looks up the pending and unexpired token matching (userID, code)
// and atomically marks it completed. A wrong, expired or already completed
// code reports false with no error. The conditional update at the store
// guarantees at most one success when several attempts race on one code.
func (l *Lifecycle) Complete(ctx context.Context, userID user.ID, code Code) (bool, error) {
	t, ok, err := l.FindActive(ctx, userID, c.NewOptional(code, true))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return l.store.MarkCompleted(ctx, t.ID, l.now())
}

// FindCompleted returns the first completed token for the user regardless
// of age.
func (l *Lifecycle) FindCompleted(ctx context.Context, userID user.ID) (t Token, ok bool, err error) {
	t, err = l.store.GetOne(ctx, Query{
		UserIDEquals:    c.NewOptional(userID, true),
		CompletedEquals: c.NewOptional(true, true),
	})
	if errors.Is(err, ErrTokenDoesNotExist) {
		return t, false, nil
	}
	if err != nil {
		return t, false, err
	}
	return t, true, nil
}

// Remove deletes a completed token for the user, reporting false if the
// user has none.
func (l *Lifecycle) Remove(ctx context.Context, userID user.ID) (bool, error) {
	t, ok, err := l.FindCompleted(ctx, userID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return l.store.Delete(ctx, t.ID)
}

// SweepExpired deletes every token past its window that was never
// completed. Completed tokens and still valid pending tokens are never
// touched.
func (l *Lifecycle) SweepExpired(ctx context.Context) (int64, error) {
	return l.store.DeleteMany(ctx, Query{
		CompletedEquals: c.NewOptional(false, true),
		CreatedNotAfter: c.NewOptional(l.expiryThreshold(), true),
	})
}

func (l *Lifecycle) expiryThreshold() time.Time {
	return l.now().Add(-l.window)
}
