package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updoot/internal/models"
)

func TestUserLoaderBatchesAndDedupes(t *testing.T) {
	calls := 0
	var lastBatch []uint
	l := NewUserLoader(func(_ context.Context, ids []uint) ([]*models.User, error) {
		calls++
		lastBatch = ids
		users := make([]*models.User, 0, len(ids))
		for _, id := range ids {
			if id == 99 {
				continue // simulate a missing user
			}
			users = append(users, &models.User{ID: id})
		}
		return users, nil
	})

	ctx := context.Background()
	result, err := l.LoadMany(ctx, []uint{1, 2, 1, 2, 3, 99})
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "one fetch per batch")
	assert.Len(t, lastBatch, 4, "duplicates coalesced before fetching")
	assert.Len(t, result, 4)
	assert.NotContains(t, result, uint(99))

	// Everything is cached now; repeat loads hit the store zero times.
	u, err := l.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), u.ID)

	missing, err := l.Load(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing, "cached absence stays absent")

	assert.Equal(t, 1, calls)
}

func TestUserLoaderOnlyFetchesUncached(t *testing.T) {
	batches := [][]uint{}
	l := NewUserLoader(func(_ context.Context, ids []uint) ([]*models.User, error) {
		batches = append(batches, ids)
		users := make([]*models.User, len(ids))
		for i, id := range ids {
			users[i] = &models.User{ID: id}
		}
		return users, nil
	})

	ctx := context.Background()
	_, err := l.LoadMany(ctx, []uint{1, 2})
	require.NoError(t, err)
	_, err = l.LoadMany(ctx, []uint{2, 3})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Equal(t, []uint{3}, batches[1], "second batch only fetches the new key")
}

func TestVoteLoaderSingleViewerSingleFetch(t *testing.T) {
	calls := 0
	l := NewVoteLoader(func(_ context.Context, userID uint, postIDs []uint) ([]*models.Vote, error) {
		calls++
		votes := make([]*models.Vote, 0, len(postIDs))
		for _, postID := range postIDs {
			if postID%2 == 0 {
				continue // viewer only voted on odd posts
			}
			votes = append(votes, &models.Vote{UserID: userID, PostID: postID, Value: models.Upvote})
		}
		return votes, nil
	})

	ctx := context.Background()
	keys := []VoteKey{
		{PostID: 1, UserID: 7},
		{PostID: 2, UserID: 7},
		{PostID: 3, UserID: 7},
		{PostID: 3, UserID: 7}, // duplicate
	}
	result, err := l.LoadMany(ctx, keys)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "one viewer means one fetch")
	assert.Len(t, result, 2)
	assert.Contains(t, result, VoteKey{PostID: 1, UserID: 7})
	assert.NotContains(t, result, VoteKey{PostID: 2, UserID: 7})

	// Repeats are served from the cache, hits and misses alike.
	v, err := l.Load(ctx, VoteKey{PostID: 1, UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.Upvote, v.Value)

	none, err := l.Load(ctx, VoteKey{PostID: 2, UserID: 7})
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.Equal(t, 1, calls)
}
