package repository

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-transcript-api/internal/models"
	appErrors "github.com/noah-isme/sma-transcript-api/pkg/errors"
)

func newCacheRepoMock(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheRepository(client, "sma"), mr
}

func TestCacheRepositorySetGetDelete(t *testing.T) {
	repo, mr := newCacheRepoMock(t)
	ctx := context.Background()

	doc := models.FinalTranscriptResult{Student: "stu-1", OverallResult: models.ResultPass, BlockResults: models.BlockResults{{Block: "b1", BlockTotalMark: 72.2, BlockResult: models.ResultPass}}}
	require.NoError(t, repo.Set(ctx, "transcript:stu-1", doc, time.Minute))
	require.True(t, mr.Exists("sma:transcript:stu-1"))

	var cached models.FinalTranscriptResult
	require.NoError(t, repo.Get(ctx, "transcript:stu-1", &cached))
	require.Equal(t, doc.Student, cached.Student)
	require.Equal(t, 72.2, cached.BlockResults[0].BlockTotalMark)

	mr.FastForward(2 * time.Minute)
	require.ErrorIs(t, repo.Get(ctx, "transcript:stu-1", &cached), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "transcript:stu-2", doc, time.Minute))
	require.NoError(t, repo.Delete(ctx, "transcript:stu-2"))
	require.False(t, mr.Exists("sma:transcript:stu-2"))
}

func TestCacheRepositoryNilClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, "sma")
	var dest map[string]string
	require.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(context.Background(), "k", "v", time.Minute))
	require.NoError(t, repo.Delete(context.Background(), "k"))
}

func TestCacheRepositoryDropsUndecodableEntries(t *testing.T) {
	repo, mr := newCacheRepoMock(t)
	require.NoError(t, mr.Set("sma:transcript:stu-3", "not-json"))

	var cached models.FinalTranscriptResult
	require.ErrorIs(t, repo.Get(context.Background(), "transcript:stu-3", &cached), appErrors.ErrCacheMiss)
	require.False(t, mr.Exists("sma:transcript:stu-3"))
}
