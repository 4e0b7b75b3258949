//go:build integration

package auditlog_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"campus/internal/certificate/auditlog"
	"campus/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *auditlog.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = auditlog.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Flush(context.Background()))
}

func (s *RedisStoreSuite) TestAppendTrimsToLimit() {
	ctx := context.Background()
	for i := range 15 {
		s.Require().NoError(s.store.Append(ctx, auditlog.Attempt{ID: fmt.Sprint(i), CertificateID: "CERT-2024-AAAAAAAA"}, 10))
	}

	attempts, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(attempts, 10)
	s.Equal("5", attempts[0].ID)
	s.Equal("14", attempts[9].ID)
}

func (s *RedisStoreSuite) TestConcurrentAppendsRespectCap() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.store.Append(ctx, auditlog.Attempt{ID: fmt.Sprint(i)}, 25)
		}()
	}
	wg.Wait()

	attempts, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(attempts, 25)
}

func (s *RedisStoreSuite) TestLogOverRedis() {
	ctx := context.Background()
	log := auditlog.New(s.store)
	_, err := log.Record(ctx, "CERT-2024-AAAAAAAA", valid, auditlog.Client{IPAddress: "198.51.100.4", UserAgent: chromeLinux})
	s.Require().NoError(err)
	_, err = log.Record(ctx, "CERT-2024-AAAAAAAA", notFound, auditlog.Client{})
	s.Require().NoError(err)

	a, err := log.Analytics(ctx, "CERT-2024-AAAAAAAA")
	s.Require().NoError(err)
	s.Equal(2, a.Total)
	s.Equal(1, a.Successful)
	s.Equal("Chrome on Linux x86_64", a.First.Client)
}
