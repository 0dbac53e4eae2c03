package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"updoot/internal/models"
	"updoot/internal/observability"
)

// VoteRepository defines the interface for vote ledger operations
type VoteRepository interface {
	// Cast applies a single vote transition for (userID, postID). The value
	// must already be normalized to +1 or -1. Re-casting the same value is a
	// no-op; casting the opposite value flips the vote and moves the post
	// score by twice the value. Returns ErrVoteConflict on a transient race.
	Cast(ctx context.Context, userID, postID uint, value int) error
	GetForViewer(ctx context.Context, userID, postID uint) (*models.Vote, error)
	ListForViewer(ctx context.Context, userID uint, postIDs []uint) ([]*models.Vote, error)
	CountForPost(ctx context.Context, postID uint) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Cast(ctx context.Context, userID, postID uint, value int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Value == value {
				observability.VoteTransitions.WithLabelValues("noop").Inc()
				return nil
			}
			if err := flipVote(tx, userID, postID, existing.Value, value); err != nil {
				return err
			}
			observability.VoteTransitions.WithLabelValues("flip").Inc()
			return adjustScore(tx, postID, 2*value)
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{UserID: userID, PostID: postID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				if isUniqueViolation(err) {
					// Another request inserted the pair first; caller re-reads.
					return ErrVoteConflict
				}
				return err
			}
			observability.VoteTransitions.WithLabelValues("insert").Inc()
			return adjustScore(tx, postID, value)
		default:
			return err
		}
	})
	if isSerializationFailure(err) {
		return ErrVoteConflict
	}
	return err
}

// flipVote swaps a vote to the opposite value, guarded by the value seen when
// the transaction read the row. Under read committed a concurrent flip can
// commit between our read and our write; the guard then matches zero rows and
// the caller re-runs the read-decide-write sequence instead of applying a
// second score swing.
func flipVote(tx *gorm.DB, userID, postID uint, from, to int) error {
	result := tx.Model(&models.Vote{}).
		Where("user_id = ? AND post_id = ? AND value = ?", userID, postID, from).
		Update("value", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVoteConflict
	}
	return nil
}

// adjustScore moves the denormalized post score by delta inside the same
// transaction as the ledger write, so the score and the vote rows can never
// drift apart.
func adjustScore(tx *gorm.DB, postID uint, delta int) error {
	result := tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("score", gorm.Expr("score + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Post vanished between the precondition check and the write.
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

func (r *voteRepository) GetForViewer(ctx context.Context, userID, postID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) ListForViewer(ctx context.Context, userID uint, postIDs []uint) ([]*models.Vote, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var votes []*models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepository) CountForPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}
