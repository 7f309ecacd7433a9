package activation

import (
	"context"
	c "onetime/internal/core/domain/common"
	e "onetime/internal/core/domain/errors"
	"onetime/internal/core/domain/logging"
	"onetime/internal/core/domain/token"
	"onetime/internal/core/domain/user"
)

// Service issues and completes account activation tokens. It is a thin
// wrapper around the token lifecycle, there is no extra step on
// completion.
type Service struct {
	log       logging.Logger
	lifecycle *token.Lifecycle
}

func New(log logging.Logger, lifecycle *token.Lifecycle) *Service {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if lifecycle == nil {
		panic(e.NewNilArgumentError("lifecycle"))
	}
	return &Service{log: log, lifecycle: lifecycle}
}

func (s *Service) Create(ctx context.Context, userID user.ID) (token.Token, error) {
	t, err := s.lifecycle.Create(ctx, userID)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not create activation token.",
			logging.Entry("userID", userID),
			logging.Entry("err", err),
		)
		return t, err
	}
	s.log.Info(
		ctx,
		"Activation token created.",
		logging.Entry("userID", userID),
		logging.Entry("tokenID", t.ID),
	)
	return t, nil
}

// Exists reports whether the user has a pending and unexpired activation
// token, optionally narrowed by an exact code.
func (s *Service) Exists(
	ctx context.Context,
	userID user.ID,
	code c.Optional[token.Code],
) (token.Token, bool, error) {
	return s.lifecycle.FindActive(ctx, userID, code)
}

func (s *Service) Complete(ctx context.Context, userID user.ID, code token.Code) (bool, error) {
	ok, err := s.lifecycle.Complete(ctx, userID, code)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not complete activation token.",
			logging.Entry("userID", userID),
			logging.Entry("err", err),
		)
		return false, err
	}
	if ok {
		s.log.Info(ctx, "Activation token completed.", logging.Entry("userID", userID))
	}
	return ok, nil
}

func (s *Service) Completed(ctx context.Context, userID user.ID) (token.Token, bool, error) {
	return s.lifecycle.FindCompleted(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID user.ID) (bool, error) {
	return s.lifecycle.Remove(ctx, userID)
}

func (s *Service) RemoveExpired(ctx context.Context) (int64, error) {
	count, err := s.lifecycle.SweepExpired(ctx)
	if err != nil {
		s.log.Error(ctx, "Could not remove expired activation tokens.", logging.Entry("err", err))
		return 0, err
	}
	s.log.Info(ctx, "Expired activation tokens removed.", logging.Entry("count", count))
	return count, nil
}
