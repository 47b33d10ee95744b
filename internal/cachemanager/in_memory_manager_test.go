package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type languageKey string

type compiledRules struct {
	Language string
	Patterns int
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[languageKey, compiledRules]("rules", DefaultExpiration, DefaultCleanupInterval)
	want := compiledRules{Language: "C", Patterns: 4}
	cache.Set(context.Background(), "C", want, NoExpiration)

	got, ok := cache.Get(context.Background(), "C")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("rules", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "Kotlin")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_WrongTypeIsMiss(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("rules", DefaultExpiration, DefaultCleanupInterval)
	cache.cache.Set("Python", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "Python")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("rules", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "Java", "x", 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "Java")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("rules", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "C", "c", NoExpiration)
	cache.Set(ctx, "C++", "cpp", NoExpiration)
	cache.Set(ctx, "Java", "java", NoExpiration)

	cache.Delete(ctx, "C", "C++")
	_, ok := cache.Get(ctx, "C")
	require.False(t, ok)
	require.Equal(t, 1, cache.Len())

	cache.Flush(ctx)
	require.Equal(t, 0, cache.Len())
}
