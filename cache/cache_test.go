package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/resources/cache"
)

type CacheTestSuite struct {
	suite.Suite
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (s *CacheTestSuite) TestBasicOperations() {
	ctx := context.Background()
	rawCache := cache.NewInMemoryCache()
	defer rawCache.Close()

	tests := []struct {
		testName string
		key      string
		value    []byte
		ttl      time.Duration
	}{
		{"Simple value", "key1", []byte("value1"), 0},
		{"With TTL", "key2", []byte("value2"), 1 * time.Hour},
		{"Empty value", "key3", []byte{}, 0},
		{"Large value", "key4", make([]byte, 1024), 0},
	}

	for _, tt := range tests {
		s.Run(tt.testName, func() {
			err := rawCache.Set(ctx, tt.key, tt.value, tt.ttl)
			s.Require().NoError(err)

			value, found, err := rawCache.Get(ctx, tt.key)
			s.Require().NoError(err)
			s.True(found)
			s.Equal(tt.value, value)

			exists, err := rawCache.Exists(ctx, tt.key)
			s.Require().NoError(err)
			s.True(exists)

			err = rawCache.Delete(ctx, tt.key)
			s.Require().NoError(err)

			_, found, err = rawCache.Get(ctx, tt.key)
			s.Require().NoError(err)
			s.False(found)
		})
	}
}

func (s *CacheTestSuite) TestValuesAreCopied() {
	ctx := context.Background()
	rawCache := cache.NewInMemoryCache()
	defer rawCache.Close()

	value := []byte("OK")
	s.Require().NoError(rawCache.Set(ctx, "icon", value, 0))
	value[0] = 'X'

	got, found, err := rawCache.Get(ctx, "icon")
	s.Require().NoError(err)
	s.True(found)
	s.Equal([]byte("OK"), got)
	got[1] = 'X'

	again, _, err := rawCache.Get(ctx, "icon")
	s.Require().NoError(err)
	s.Equal([]byte("OK"), again)
}

func (s *CacheTestSuite) TestFlushAndClose() {
	ctx := context.Background()
	rawCache := cache.NewInMemoryCache()

	s.Require().NoError(rawCache.Set(ctx, "a", []byte("1"), 0))
	s.Require().NoError(rawCache.Set(ctx, "b", []byte("2"), 0))
	s.Require().NoError(rawCache.Flush(ctx))

	exists, err := rawCache.Exists(ctx, "a")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(rawCache.Close())
	s.Require().NoError(rawCache.Close())
	s.Require().ErrorIs(rawCache.Set(ctx, "a", nil, 0), cache.ErrClosed)
	_, _, err = rawCache.Get(ctx, "a")
	s.Require().ErrorIs(err, cache.ErrClosed)
}

type bundleEntry struct {
	Found   bool              `json:"found"`
	Entries map[string]string `json:"entries"`
}

func (s *CacheTestSuite) TestTypedCache() {
	ctx := context.Background()
	typed := cache.New[bundleEntry](cache.NewInMemoryCache(), "bundle")

	want := bundleEntry{Found: true, Entries: map[string]string{"title": "Hello »World«"}}
	s.Require().NoError(typed.Set(ctx, "app/strings/string_de", want, 0))

	got, found, err := typed.Get(ctx, "app/strings/string_de")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(want, got)

	_, found, err = typed.Get(ctx, "missing")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(typed.Delete(ctx, "app/strings/string_de"))
	_, found, err = typed.Get(ctx, "app/strings/string_de")
	s.Require().NoError(err)
	s.False(found)
}

func (s *CacheTestSuite) TestSharedRawCache() {
	ctx := context.Background()
	raw := cache.NewInMemoryCache()
	defer raw.Close()

	binaries := cache.New[[]byte](raw, "binary")
	labels := cache.New[string](raw, "label")
	png := []byte{0x89, 'P', 'N', 'G'}

	s.Require().NoError(binaries.Set(ctx, "icons/ok.png", png, 0))
	s.Require().NoError(labels.Set(ctx, "icons/ok.png", "Ok", 0))

	data, found, err := binaries.Get(ctx, "icons/ok.png")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(png, data)

	label, found, err := labels.Get(ctx, "icons/ok.png")
	s.Require().NoError(err)
	s.True(found)
	s.Equal("Ok", label)

	stored, found, err := raw.Get(ctx, "binary:icons/ok.png")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(png, stored)

	s.Require().NoError(labels.Flush(ctx))
	_, found, err = binaries.Get(ctx, "icons/ok.png")
	s.Require().NoError(err)
	s.False(found)
}

func (s *CacheTestSuite) TestDecodeError() {
	ctx := context.Background()
	raw := cache.NewInMemoryCache()
	s.Require().NoError(raw.Set(ctx, "bundle:broken", []byte("{not json"), 0))

	_, found, err := cache.New[bundleEntry](raw, "bundle").Get(ctx, "broken")
	s.Require().Error(err)
	s.False(found)
}
