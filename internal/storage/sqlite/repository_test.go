package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtreemtech/twitter-engagement-bot/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestPostRecordRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreatePostRecord(ctx, &models.PostRecord{
		Content: "hello world",
		TweetID: "t1",
		Outcome: models.OutcomeSuccess,
	}))
	require.NoError(t, repo.CreatePostRecord(ctx, &models.PostRecord{
		Content: "failed one",
		Outcome: models.OutcomeFailed,
		Error:   "boom",
	}))

	records, err := repo.ListPostRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first.
	assert.Equal(t, "failed one", records[0].Content)
	assert.Equal(t, models.OutcomeFailed, records[0].Outcome)
	assert.Equal(t, "t1", records[1].TweetID)
}

func TestEngagementRecordRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateEngagementRecord(ctx, &models.EngagementRecord{
			Keyword: "DeFi",
			TweetID: "t1",
			Outcome: models.OutcomeSuccess,
		}))
	}

	records, err := repo.ListEngagementRecords(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
