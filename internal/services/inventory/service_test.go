package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/storage/memory"
	"github.com/hideseekgame/hideseekgame-go/internal/testutil"
)

const testSession = model.SessionCode("GAME01")

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New(memory.New(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestAddKey() {
	result, err := s.service.AddKey(s.ctx, testSession, 1, model.KeyID(1))
	s.Require().NoError(err)
	s.Equal(Added, result)

	has, err := s.service.HasKey(s.ctx, testSession, 1, model.KeyID(1))
	s.Require().NoError(err)
	s.True(has)
}

func (s *ServiceSuite) TestDuplicateAddIsNoOp() {
	_, _ = s.service.AddKey(s.ctx, testSession, 1, model.KeyID(1))

	result, err := s.service.AddKey(s.ctx, testSession, 1, model.KeyID(1))
	s.Require().NoError(err)
	s.Equal(AlreadyHeld, result)

	keys, err := s.service.Keys(s.ctx, testSession, 1)
	s.Require().NoError(err)
	s.Len(keys, 1)
}

func (s *ServiceSuite) TestRemoveKey() {
	_, _ = s.service.AddKey(s.ctx, testSession, 1, model.KeyID(1))

	result, err := s.service.RemoveKey(s.ctx, testSession, 1, model.KeyID(1))
	s.Require().NoError(err)
	s.Equal(Removed, result)

	has, _ := s.service.HasKey(s.ctx, testSession, 1, model.KeyID(1))
	s.False(has)
}

func (s *ServiceSuite) TestRemoveAbsentKeyIsNoOp() {
	result, err := s.service.RemoveKey(s.ctx, testSession, 1, model.KeyID(1))
	s.Require().NoError(err)
	s.Equal(NotHeld, result)
}

func (s *ServiceSuite) TestKeySetsIsolatedPerConnection() {
	_, _ = s.service.AddKey(s.ctx, testSession, 1, model.KeyID(1))
	_, _ = s.service.AddKey(s.ctx, testSession, 2, model.KeyID(2))

	keys1, _ := s.service.Keys(s.ctx, testSession, 1)
	keys2, _ := s.service.Keys(s.ctx, testSession, 2)

	s.Equal([]model.KeyID{1}, keys1)
	s.Equal([]model.KeyID{2}, keys2)
}

func (s *ServiceSuite) TestKeySetsIsolatedPerSession() {
	other := model.SessionCode("GAME02")
	_, _ = s.service.AddKey(s.ctx, testSession, 1, model.KeyID(1))

	has, err := s.service.HasKey(s.ctx, other, 1, model.KeyID(1))
	s.Require().NoError(err)
	s.False(has)
}
