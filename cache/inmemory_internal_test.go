package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryInternalSuite struct {
	suite.Suite
}

func TestInMemoryInternalSuite(t *testing.T) {
	suite.Run(t, new(InMemoryInternalSuite))
}

func (s *InMemoryInternalSuite) TestLazyExpiry() {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewInMemoryCache()
	mem.now = func() time.Time { return now }

	s.Require().NoError(mem.Set(ctx, "expire_key", []byte("value"), time.Minute))
	s.Require().NoError(mem.Set(ctx, "forever", []byte("value"), 0))

	_, found, err := mem.Get(ctx, "expire_key")
	s.NoError(err)
	s.True(found)

	now = now.Add(2 * time.Minute)
	_, found, err = mem.Get(ctx, "expire_key")
	s.NoError(err)
	s.False(found)

	_, stored := mem.items.Load("expire_key")
	s.False(stored)

	exists, err := mem.Exists(ctx, "forever")
	s.NoError(err)
	s.True(exists)
}
