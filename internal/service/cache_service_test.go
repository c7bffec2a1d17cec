package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &memoryCacheRepo{}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]string
	hit, err := svc.Get(ctx, TranscriptKey("stu-1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, TranscriptKey("stu-1"), map[string]string{"overall": "PASS"}, 0))
	hit, err = svc.Get(ctx, TranscriptKey("stu-1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "PASS", out["overall"])

	require.NoError(t, svc.Invalidate(ctx, TranscriptKey("stu-1")))
	assert.Equal(t, []string{"transcript:stu-1"}, repo.deleted)

	assert.Equal(t, 1.0, counterValue(t, metrics, "cache_lookups_total", "hit"))
	assert.Equal(t, 1.0, counterValue(t, metrics, "cache_lookups_total", "miss"))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{setErr: errors.New("unreachable")}
	svc := NewCacheService(repo, nil, 0, nil, false)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(context.Background(), "k", "v", time.Second))

	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceSetError(t *testing.T) {
	repo := &memoryCacheRepo{setErr: errors.New("OOM command not allowed")}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	assert.Error(t, svc.Set(context.Background(), "k", "v", 0))
}
