package reminders

import (
	"context"
	c "onetime/internal/core/domain/common"
	"onetime/internal/core/domain/logging"
	"onetime/internal/core/domain/token"
	"onetime/internal/core/domain/user"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	USER_ID      = user.ID(42)
	CODE         = "YTY0ZDM3NmVhMzc2MjI0NWUyNTQ4NmMx"
	NEW_PASSWORD = "new-password"
	WINDOW       = 72 * time.Hour
)

type testSuite struct {
	suite.Suite
	now       time.Time
	logger    *logging.FakeLogger
	store     *token.FakeStore
	users     *user.FakeDirectory
	lifecycle *token.Lifecycle
	service   *Service
}

func (suite *testSuite) SetupTest() {
	suite.now = time.Date(2022, 6, 15, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return suite.now }
	suite.logger = logging.NewFakeLogger()
	suite.store = token.NewFakeStore(now)
	suite.users = user.NewFakeDirectory()
	suite.lifecycle = token.NewLifecycle(suite.store, token.NewFakeCodeGenerator(CODE), now, WINDOW)
	suite.service = New(suite.logger, suite.lifecycle, suite.users)
}

func TestReminderService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) TestCompleteUpdatesPasswordAndConsumesToken() {
	created, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	ok, err := s.service.Complete(
		context.Background(),
		USER_ID,
		token.Code(CODE),
		user.RawPassword(NEW_PASSWORD),
	)
	s.Nil(err)
	s.True(ok)

	password, updated := s.users.PasswordFor(USER_ID)
	s.True(updated)
	s.Equal(user.RawPassword(NEW_PASSWORD), password)

	t, found := s.store.GetByID(created.ID)
	s.True(found)
	s.True(t.Completed)
}

func (s *testSuite) TestCompleteUnknownCode() {
	_, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	ok, err := s.service.Complete(
		context.Background(),
		USER_ID,
		token.Code("invalid-code"),
		user.RawPassword(NEW_PASSWORD),
	)
	s.Nil(err)
	s.False(ok)

	_, updated := s.users.PasswordFor(USER_ID)
	s.False(updated)
}

func (s *testSuite) TestCompleteExpiredToken() {
	_, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	s.now = s.now.Add(WINDOW + time.Second)
	ok, err := s.service.Complete(
		context.Background(),
		USER_ID,
		token.Code(CODE),
		user.RawPassword(NEW_PASSWORD),
	)
	s.Nil(err)
	s.False(ok)

	_, updated := s.users.PasswordFor(USER_ID)
	s.False(updated)
}

func (s *testSuite) TestInvalidPasswordLeavesTokenPending() {
	created, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	s.users.InvalidUpdate = true
	ok, err := s.service.Complete(
		context.Background(),
		USER_ID,
		token.Code(CODE),
		user.RawPassword("weak"),
	)
	s.Nil(err)
	s.False(ok)

	t, found := s.store.GetByID(created.ID)
	s.True(found)
	s.False(t.Completed)
	_, updated := s.users.PasswordFor(USER_ID)
	s.False(updated)

	// The same code is still usable once a valid password is proposed.
	s.users.InvalidUpdate = false
	ok, err = s.service.Complete(
		context.Background(),
		USER_ID,
		token.Code(CODE),
		user.RawPassword(NEW_PASSWORD),
	)
	s.Nil(err)
	s.True(ok)
}

func (s *testSuite) TestDirectoryErrorLeavesTokenPending() {
	created, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	s.users.ReturnError = true
	_, err = s.service.Complete(
		context.Background(),
		USER_ID,
		token.Code(CODE),
		user.RawPassword(NEW_PASSWORD),
	)
	s.NotNil(err)

	t, found := s.store.GetByID(created.ID)
	s.True(found)
	s.False(t.Completed)
}

func (s *testSuite) TestLostCompletionRaceKeepsPasswordUpdate() {
	created, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	// The directory completes the token behind the service's back while
	// the password update is in flight.
	racing := &racingDirectory{inner: s.users, lifecycle: s.lifecycle}
	service := New(s.logger, s.lifecycle, racing)

	ok, err := service.Complete(
		context.Background(),
		USER_ID,
		token.Code(CODE),
		user.RawPassword(NEW_PASSWORD),
	)
	s.Nil(err)
	s.False(ok)

	// The password update is not rolled back.
	password, updated := s.users.PasswordFor(USER_ID)
	s.True(updated)
	s.Equal(user.RawPassword(NEW_PASSWORD), password)
	t, found := s.store.GetByID(created.ID)
	s.True(found)
	s.True(t.Completed)
	s.Equal(1, s.logger.LoggedCount(logging.WARNING))
}

func (s *testSuite) TestExists() {
	_, ok, err := s.service.Exists(context.Background(), USER_ID, c.Optional[token.Code]{})
	s.Nil(err)
	s.False(ok)

	_, err = s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	_, ok, err = s.service.Exists(context.Background(), USER_ID, c.NewOptional(token.Code(CODE), true))
	s.Nil(err)
	s.True(ok)
}

func (s *testSuite) TestRemoveExpired() {
	_, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	s.now = s.now.Add(WINDOW)
	count, err := s.service.RemoveExpired(context.Background())
	s.Nil(err)
	s.Equal(int64(1), count)
}

type racingDirectory struct {
	inner     *user.FakeDirectory
	lifecycle *token.Lifecycle
}

func (d *racingDirectory) ValidForUpdate(ctx context.Context, id user.ID, password user.RawPassword) (bool, error) {
	return d.inner.ValidForUpdate(ctx, id, password)
}

func (d *racingDirectory) Update(ctx context.Context, id user.ID, password user.RawPassword) error {
	if err := d.inner.Update(ctx, id, password); err != nil {
		return err
	}
	_, err := d.lifecycle.Complete(ctx, id, token.Code(CODE))
	return err
}
