package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"updoot/internal/models"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// ListBefore returns up to limit posts newest-first, optionally restricted
	// to posts created strictly before the given instant. The second return
	// value reports whether older posts remain beyond the returned page.
	ListBefore(ctx context.Context, limit int, before *time.Time) ([]*models.Post, bool, error)
	UpdateOwned(ctx context.Context, id, creatorID uint, title, text string) (*models.Post, error)
	DeleteOwned(ctx context.Context, id, creatorID uint) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	// Stored timestamps carry the same millisecond precision as the feed
	// cursor, so a cursor taken from any post names its created_at exactly.
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.CreatedAt = post.CreatedAt.Truncate(time.Millisecond)
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListBefore(ctx context.Context, limit int, before *time.Time) ([]*models.Post, bool, error) {
	// Fetch one extra row past the page boundary so hasMore comes from the
	// same query. Ties on created_at break on id, keeping page walks stable.
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var posts []*models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, false, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}
	return posts, hasMore, nil
}

// UpdateOwned rewrites title and text of a post, but only when it belongs to
// creatorID. Returns (nil, nil) when no row matched, whether the post is
// missing or owned by someone else.
func (r *postRepository) UpdateOwned(ctx context.Context, id, creatorID uint, title, text string) (*models.Post, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Updates(map[string]interface{}{"title": title, "text": text})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// DeleteOwned removes a post and its votes in one transaction, but only when
// the post belongs to creatorID. Returns false when no row matched.
func (r *postRepository) DeleteOwned(ctx context.Context, id, creatorID uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND creator_id = ?", id, creatorID).Delete(&models.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Nothing matched; roll back so a foreign post keeps its votes.
			return gorm.ErrRecordNotFound
		}
		deleted = true
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return deleted, nil
}
