package user

import (
	"context"
	"errors"
)

type ID int64

type RawPassword string

func (p RawPassword) String() string {
	return "***"
}

type PasswordHash string

func (p PasswordHash) String() string {
	return "***"
}

var ErrUserDoesNotExist = errors.New("user does not exist")

// Directory is the narrow view of the user subsystem needed by the
// reminder completion flow. ValidForUpdate checks the proposed password
// against policy without changing anything; Update actually sets it.
type Directory interface {
	ValidForUpdate(ctx context.Context, id ID, password RawPassword) (bool, error)
	Update(ctx context.Context, id ID, password RawPassword) error
}

type PasswordHasher interface {
	HashPassword(password RawPassword) (PasswordHash, error)
	ValidatePassword(password RawPassword, hash PasswordHash) bool
}
