package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"updoot/internal/models"
)

// The vote ledger is exercised against a real in-memory database rather than
// statement mocks: the interesting behavior is transitions and score math,
// not SQL text.
func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Vote{}))
	return db
}

var ledgerAuthorSeq atomic.Uint64

func createPostForVotes(t *testing.T, db *gorm.DB) *models.Post {
	t.Helper()
	n := ledgerAuthorSeq.Add(1)
	user := models.User{
		Username: fmt.Sprintf("author%d", n),
		Email:    fmt.Sprintf("author%d@example.com", n),
		Password: "pw",
	}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{Title: "t", Text: "b", CreatorID: user.ID}
	require.NoError(t, db.Create(&post).Error)
	return &post
}

func ledgerSum(t *testing.T, db *gorm.DB, postID uint) int {
	t.Helper()
	var sum int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("post_id = ?", postID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error)
	return int(sum)
}

func reloadScore(t *testing.T, db *gorm.DB, postID uint) int {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.Score
}

func TestVoteCast_InsertAndIdempotence(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	post := createPostForVotes(t, db)

	require.NoError(t, repo.Cast(ctx, 42, post.ID, models.Upvote))
	assert.Equal(t, 1, reloadScore(t, db, post.ID))

	// Re-casting the same direction any number of times changes nothing.
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Cast(ctx, 42, post.ID, models.Upvote))
	}
	assert.Equal(t, 1, reloadScore(t, db, post.ID))

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "one ledger row per (user, post) pair")
}

func TestVoteCast_FlipSwingsScoreByTwo(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	post := createPostForVotes(t, db)

	require.NoError(t, repo.Cast(ctx, 42, post.ID, models.Upvote))
	require.Equal(t, 1, reloadScore(t, db, post.ID))

	require.NoError(t, repo.Cast(ctx, 42, post.ID, models.Downvote))
	assert.Equal(t, -1, reloadScore(t, db, post.ID))

	vote, err := repo.GetForViewer(ctx, 42, post.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, models.Downvote, vote.Value)

	// Flip back.
	require.NoError(t, repo.Cast(ctx, 42, post.ID, models.Upvote))
	assert.Equal(t, 1, reloadScore(t, db, post.ID))
}

func TestVoteCast_ScoreMatchesLedger(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	post := createPostForVotes(t, db)

	// A busy sequence of votes, re-votes, and flips from several users.
	sequence := []struct {
		userID uint
		value  int
	}{
		{1, models.Upvote},
		{2, models.Upvote},
		{3, models.Downvote},
		{1, models.Upvote},   // no-op
		{2, models.Downvote}, // flip
		{4, models.Upvote},
		{3, models.Upvote}, // flip
		{4, models.Upvote}, // no-op
	}
	for _, step := range sequence {
		require.NoError(t, repo.Cast(ctx, step.userID, post.ID, step.value))
	}

	assert.Equal(t, ledgerSum(t, db, post.ID), reloadScore(t, db, post.ID),
		"score must equal the signed sum of vote rows")
	assert.Equal(t, 2, reloadScore(t, db, post.ID))
}

func TestVoteCast_StaleFlipIsRejected(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	post := createPostForVotes(t, db)

	require.NoError(t, repo.Cast(ctx, 42, post.ID, models.Upvote))

	// Two requests read the +1 row and race to flip it. Replay both writes:
	// the winner's transaction lands normally.
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := flipVote(tx, 42, post.ID, models.Upvote, models.Downvote); err != nil {
			return err
		}
		return adjustScore(tx, post.ID, 2*models.Downvote)
	}))

	// The loser still holds the stale +1 read; its guarded update matches
	// nothing and the transaction rolls back before touching the score.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := flipVote(tx, 42, post.ID, models.Upvote, models.Downvote); err != nil {
			return err
		}
		return adjustScore(tx, post.ID, 2*models.Downvote)
	})
	require.ErrorIs(t, err, ErrVoteConflict)

	assert.Equal(t, -1, reloadScore(t, db, post.ID), "only one flip may swing the score")
	assert.Equal(t, ledgerSum(t, db, post.ID), reloadScore(t, db, post.ID))

	// Re-running the whole read-decide-write sequence, as the retry loop
	// does, lands on the no-op path.
	require.NoError(t, repo.Cast(ctx, 42, post.ID, models.Downvote))
	assert.Equal(t, -1, reloadScore(t, db, post.ID))
}

func TestVoteCast_MissingPostRollsBack(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	err := repo.Cast(ctx, 42, 9999, models.Upvote)
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "the vote row must not survive the rollback")
}

func TestVoteListForViewer(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	first := createPostForVotes(t, db)
	second := createPostForVotes(t, db)
	third := createPostForVotes(t, db)

	require.NoError(t, repo.Cast(ctx, 42, first.ID, models.Upvote))
	require.NoError(t, repo.Cast(ctx, 42, third.ID, models.Downvote))
	require.NoError(t, repo.Cast(ctx, 7, second.ID, models.Upvote))

	votes, err := repo.ListForViewer(ctx, 42, []uint{first.ID, second.ID, third.ID})
	require.NoError(t, err)
	assert.Len(t, votes, 2, "only the viewer's own votes")

	none, err := repo.ListForViewer(ctx, 42, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDeleteOwnedRemovesLedgerRows(t *testing.T) {
	db := setupLedgerDB(t)
	voteRepo := NewVoteRepository(db)
	postRepo := NewPostRepository(db)
	ctx := context.Background()
	post := createPostForVotes(t, db)

	require.NoError(t, voteRepo.Cast(ctx, 1, post.ID, models.Upvote))
	require.NoError(t, voteRepo.Cast(ctx, 2, post.ID, models.Downvote))

	deleted, err := postRepo.DeleteOwned(ctx, post.ID, post.CreatorID)
	require.NoError(t, err)
	assert.True(t, deleted)

	count, err := voteRepo.CountForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count, "votes go with the post")

	// Voting on the removed post now fails the existence check in the ledger.
	err = voteRepo.Cast(ctx, 1, post.ID, models.Upvote)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
