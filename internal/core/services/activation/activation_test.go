package activation

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
	USER_ID = user.ID(42)
	CODE    = "ZjI4NWI5ZDU0OWY2NDE1OTk1MzZjNTg1"
	WINDOW  = 72 * time.Hour
)

type testSuite struct {
	suite.Suite
	now     time.Time
	logger  *logging.FakeLogger
	store   *token.FakeStore
	service *Service
}

func (suite *testSuite) SetupTest() {
	suite.now = time.Date(2022, 6, 15, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return suite.now }
	suite.logger = logging.NewFakeLogger()
	suite.store = token.NewFakeStore(now)
	suite.service = New(
		suite.logger,
		token.NewLifecycle(suite.store, token.NewFakeCodeGenerator(CODE), now, WINDOW),
	)
}

func TestActivationService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) TestCreateAndComplete() {
	created, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)
	s.Equal(token.Code(CODE), created.Code)

	_, ok, err := s.service.Exists(context.Background(), USER_ID, c.Optional[token.Code]{})
	s.Nil(err)
	s.True(ok)

	ok, err = s.service.Complete(context.Background(), USER_ID, token.Code(CODE))
	s.Nil(err)
	s.True(ok)

	completed, ok, err := s.service.Completed(context.Background(), USER_ID)
	s.Nil(err)
	s.True(ok)
	s.Equal(created.ID, completed.ID)

	_, ok, err = s.service.Exists(context.Background(), USER_ID, c.Optional[token.Code]{})
	s.Nil(err)
	s.False(ok)
}

func (s *testSuite) TestRemove() {
	ok, err := s.service.Remove(context.Background(), USER_ID)
	s.Nil(err)
	s.False(ok)

	_, err = s.service.Create(context.Background(), USER_ID)
	s.Nil(err)
	_, err = s.service.Complete(context.Background(), USER_ID, token.Code(CODE))
	s.Nil(err)

	ok, err = s.service.Remove(context.Background(), USER_ID)
	s.Nil(err)
	s.True(ok)

	_, ok, err = s.service.Completed(context.Background(), USER_ID)
	s.Nil(err)
	s.False(ok)
}

func (s *testSuite) TestRemoveExpired() {
	_, err := s.service.Create(context.Background(), USER_ID)
	s.Nil(err)

	s.now = s.now.Add(WINDOW)
	count, err := s.service.RemoveExpired(context.Background())
	s.Nil(err)
	s.Equal(int64(1), count)
	s.Equal(0, len(s.store.Tokens))
}

func (s *testSuite) TestStoreErrorIsLogged() {
	s.store.ReturnError = true

	_, err := s.service.Create(context.Background(), USER_ID)
	s.NotNil(err)
	_, err = s.service.Complete(context.Background(), USER_ID, token.Code(CODE))
	s.NotNil(err)
	_, err = s.service.RemoveExpired(context.Background())
	s.NotNil(err)

	s.Equal(3, s.logger.LoggedCount(logging.ERROR))
}
