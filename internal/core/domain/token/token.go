package token

import (
	c "onetime/internal/core/domain/common"
	"onetime/internal/core/domain/user"
	"time"
)

type ID int64

// Code is the opaque bearer secret presented back by the user to complete
// a token. It is generated once at creation and never changes.
type Code string

type Token struct {
	ID          ID
	UserID      user.ID
	Code        Code
	Completed   bool
	CompletedAt c.Optional[time.Time]
	CreatedAt   time.Time
}

// IsPending reports whether the token can still be completed at the given
// moment. Validity is derived from CreatedAt, there is no stored expiry.
func (t *Token) IsPending(now time.Time, window time.Duration) bool {
	return !t.Completed && now.Sub(t.CreatedAt) < window
}

func (t *Token) IsExpired(now time.Time, window time.Duration) bool {
	return !t.Completed && now.Sub(t.CreatedAt) >= window
}
