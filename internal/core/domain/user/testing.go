package user

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sync"
)

type FakeDirectory struct {
	Passwords     map[ID]RawPassword
	InvalidUpdate bool
	ReturnError   bool
	lock          sync.Mutex
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{Passwords: make(map[ID]RawPassword)}
}

func (d *FakeDirectory) ValidForUpdate(ctx context.Context, id ID, password RawPassword) (bool, error) {
	if d.ReturnError {
		return false, fmt.Errorf("could not validate password for user %d", id)
	}
	if d.InvalidUpdate {
		return false, nil
	}
	return password != "", nil
}

func (d *FakeDirectory) Update(ctx context.Context, id ID, password RawPassword) error {
	if d.ReturnError {
		return fmt.Errorf("could not update password for user %d", id)
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Passwords[id] = password
	return nil
}

func (d *FakeDirectory) PasswordFor(id ID) (RawPassword, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	p, ok := d.Passwords[id]
	return p, ok
}

type FakePasswordHasher struct{}

func NewFakePasswordHasher() *FakePasswordHasher {
	return &FakePasswordHasher{}
}

func (h *FakePasswordHasher) HashPassword(password RawPassword) (PasswordHash, error) {
	hash := md5.New()
	io.WriteString(hash, string(password))
	return PasswordHash(fmt.Sprintf("%x", hash.Sum(nil))), nil
}

func (h *FakePasswordHasher) ValidatePassword(password RawPassword, hash PasswordHash) bool {
	actualHash, err := h.HashPassword(password)
	if err != nil {
		return false
	}
	return actualHash == hash
}
