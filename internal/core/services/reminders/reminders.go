package reminders

import (
	"context"
	c "onetime/internal/core/domain/common"
	e "onetime/internal/core/domain/errors"
	"onetime/internal/core/domain/logging"
	"onetime/internal/core/domain/token"
	"onetime/internal/core/domain/user"
)

// Service issues and completes password reset ("reminder") tokens.
// Completion additionally validates and updates the user's password
// through the user directory before the token is consumed.
type Service struct {
	log       logging.Logger
	lifecycle *token.Lifecycle
	users     user.Directory
}

func New(log logging.Logger, lifecycle *token.Lifecycle, users user.Directory) *Service {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if lifecycle == nil {
		panic(e.NewNilArgumentError("lifecycle"))
	}
	if users == nil {
		panic(e.NewNilArgumentError("users"))
	}
	return &Service{log: log, lifecycle: lifecycle, users: users}
}

func (s *Service) Create(ctx context.Context, userID user.ID) (token.Token, error) {
	t, err := s.lifecycle.Create(ctx, userID)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not create reminder token.",
			logging.Entry("userID", userID),
			logging.Entry("err", err),
		)
		return t, err
	}
	s.log.Info(
		ctx,
		"Reminder token created.",
		logging.Entry("userID", userID),
		logging.Entry("tokenID", t.ID),
	)
	return t, nil
}

func (s *Service) Exists(
	ctx context.Context,
	userID user.ID,
	code c.Optional[token.Code],
) (token.Token, bool, error) {
	return s.lifecycle.FindActive(ctx, userID, code)
}

// Complete sets the proposed password and consumes the matching pending
// token. The password update happens first: if the proposed password
// fails policy validation or the update errors, the token is left pending
// and the same code can be retried. If the token loses a completion race
// after the password was already updated, the update stands.
func (s *Service) Complete(
	ctx context.Context,
	userID user.ID,
	code token.Code,
	password user.RawPassword,
) (bool, error) {
	t, ok, err := s.lifecycle.FindActive(ctx, userID, c.NewOptional(code, true))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	valid, err := s.users.ValidForUpdate(ctx, userID, password)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not validate password for reminder completion.",
			logging.Entry("userID", userID),
			logging.Entry("err", err),
		)
		return false, err
	}
	if !valid {
		s.log.Info(
			ctx,
			"Proposed password is not valid, reminder token left pending.",
			logging.Entry("userID", userID),
		)
		return false, nil
	}

	if err := s.users.Update(ctx, userID, password); err != nil {
		s.log.Error(
			ctx,
			"Could not update password for reminder completion.",
			logging.Entry("userID", userID),
			logging.Entry("err", err),
		)
		return false, err
	}

	ok, err = s.lifecycle.Complete(ctx, userID, code)
	if err != nil {
		return false, err
	}
	if !ok {
		// Lost the completion race after the password was updated.
		// The update is not rolled back.
		s.log.Warning(
			ctx,
			"Password updated but reminder token was completed concurrently.",
			logging.Entry("userID", userID),
			logging.Entry("tokenID", t.ID),
		)
		return false, nil
	}
	s.log.Info(ctx, "Reminder token completed.", logging.Entry("userID", userID))
	return true, nil
}

func (s *Service) RemoveExpired(ctx context.Context) (int64, error) {
	count, err := s.lifecycle.SweepExpired(ctx)
	if err != nil {
		s.log.Error(ctx, "Could not remove expired reminder tokens.", logging.Entry("err", err))
		return 0, err
	}
	s.log.Info(ctx, "Expired reminder tokens removed.", logging.Entry("count", count))
	return count, nil
}
