package token

import (
	"context"
	"fmt"
	c "onetime/internal/core/domain/common"
	"sync"
	"time"
)

type FakeCodeGenerator struct {
	Code Code
}

func NewFakeCodeGenerator(code string) *FakeCodeGenerator {
	return &FakeCodeGenerator{Code: Code(code)}
}

func (g *FakeCodeGenerator) GenerateCode() Code {
	return g.Code
}

type FakeStore struct {
	Tokens      []Token
	ReturnError bool
	Now         func() time.Time

	nextID ID
	lock   sync.Mutex
}

func NewFakeStore(now func() time.Time) *FakeStore {
	return &FakeStore{Tokens: make([]Token, 0, 10), Now: now}
}

func (s *FakeStore) Create(ctx context.Context, input CreateInput) (t Token, err error) {
	if s.ReturnError {
		return t, fmt.Errorf("could not access fake token store")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.nextID++
	t = Token{
		ID:        s.nextID,
		UserID:    input.UserID,
		Code:      input.Code,
		CreatedAt: s.Now(),
	}
	s.Tokens = append(s.Tokens, t)
	return t, nil
}

func (s *FakeStore) GetOne(ctx context.Context, query Query) (t Token, err error) {
	if s.ReturnError {
		return t, fmt.Errorf("could not access fake token store")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, t := range s.Tokens {
		if query.Matches(t) {
			return t, nil
		}
	}
	return t, ErrTokenDoesNotExist
}

func (s *FakeStore) MarkCompleted(ctx context.Context, id ID, at time.Time) (bool, error) {
	if s.ReturnError {
		return false, fmt.Errorf("could not access fake token store")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for ix := range s.Tokens {
		if s.Tokens[ix].ID != id || s.Tokens[ix].Completed {
			continue
		}
		s.Tokens[ix].Completed = true
		s.Tokens[ix].CompletedAt = c.NewOptional(at, true)
		return true, nil
	}
	return false, nil
}

func (s *FakeStore) Delete(ctx context.Context, id ID) (bool, error) {
	if s.ReturnError {
		return false, fmt.Errorf("could not access fake token store")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for ix := range s.Tokens {
		if s.Tokens[ix].ID == id {
			s.Tokens = append(s.Tokens[:ix], s.Tokens[ix+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *FakeStore) DeleteMany(ctx context.Context, query Query) (int64, error) {
	if s.ReturnError {
		return 0, fmt.Errorf("could not access fake token store")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	kept := s.Tokens[:0]
	deleted := int64(0)
	for _, t := range s.Tokens {
		if query.Matches(t) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	s.Tokens = kept
	return deleted, nil
}

func (s *FakeStore) GetByID(id ID) (t Token, ok bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, t := range s.Tokens {
		if t.ID == id {
			return t, true
		}
	}
	return t, false
}
