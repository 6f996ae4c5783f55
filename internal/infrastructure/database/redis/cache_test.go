package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ESG-Materiality/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.cache = NewRedisCache(NewClientWithRedis(db, logging.NewNopLogger()), logging.NewNopLogger(),
		WithPrefix("test:"), WithDefaultTTL(time.Minute))
}

func (s *CacheTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	val := cachedValue{Name: "matrix", Count: 3}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:k").SetVal(string(raw))

	var dest cachedValue
	s.Require().NoError(s.cache.Get(context.Background(), "k", &dest))
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k").RedisNil()

	var dest cachedValue
	err := s.cache.Get(context.Background(), "k", &dest)
	s.ErrorIs(err, ErrCacheMiss)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	s.mock.ExpectGet("test:k").SetVal("{not json")

	var dest cachedValue
	err := s.cache.Get(context.Background(), "k", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestGet_RedisError() {
	s.mock.ExpectGet("test:k").SetErr(errors.New("connection reset"))

	var dest cachedValue
	err := s.cache.Get(context.Background(), "k", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_UsesDefaultTTL() {
	raw, _ := json.Marshal(cachedValue{Name: "a"})
	s.mock.ExpectSet("test:k", raw, time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k", cachedValue{Name: "a"}, 0))
}

func (s *CacheTestSuite) TestSet_Unserializable() {
	err := s.cache.Set(context.Background(), "k", make(chan int), time.Second)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "a", "b"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestGetOrSet_LoadsOnMiss() {
	val := cachedValue{Name: "built", Count: 9}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:k").RedisNil()
	s.mock.ExpectSet("test:k", raw, 30*time.Second).SetVal("OK")

	calls := 0
	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k", &dest, 30*time.Second, func(context.Context) (interface{}, error) {
		calls++
		return val, nil
	})

	s.Require().NoError(err)
	s.Equal(1, calls)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	raw, _ := json.Marshal(cachedValue{Name: "cached"})
	s.mock.ExpectGet("test:k").SetVal(string(raw))

	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k", &dest, 0, func(context.Context) (interface{}, error) {
		s.Fail("loader must not run on a hit")
		return nil, nil
	})

	s.Require().NoError(err)
	s.Equal("cached", dest.Name)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	s.mock.ExpectGet("test:k").RedisNil()
	boom := pkgerrors.New(pkgerrors.ErrCodeInvalidAxisRange, "bad axis")

	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k", &dest, 0, func(context.Context) (interface{}, error) {
		return nil, boom
	})

	s.ErrorIs(err, boom)
}

func (s *CacheTestSuite) TestGetOrSet_SetFailureStillReturnsValue() {
	val := cachedValue{Name: "x"}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:k").RedisNil()
	s.mock.ExpectSet("test:k", raw, time.Minute).SetErr(errors.New("read only replica"))

	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k", &dest, 0, func(context.Context) (interface{}, error) {
		return val, nil
	})

	s.Require().NoError(err)
	s.Equal(val, dest)
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}
