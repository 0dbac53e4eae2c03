// Package service contains the business logic between the HTTP handlers and
// the repositories.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"updoot/internal/cache"
	"updoot/internal/loader"
	"updoot/internal/models"
	"updoot/internal/observability"
	"updoot/internal/repository"
)

// Feed page bounds. A request may ask for fewer, never for more.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 50
)

// PostService handles post business logic
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	voteRepo repository.VoteRepository
}

// NewPostService creates a new post service
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, voteRepo repository.VoteRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo, voteRepo: voteRepo}
}

// ListPostsInput carries the feed query parameters. ViewerID is zero for
// anonymous requests.
type ListPostsInput struct {
	Limit    int
	Cursor   string
	ViewerID uint
}

// CreatePostInput for creating a new post
type CreatePostInput struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	CreatorID uint   `json:"-"`
}

// UpdatePostInput for updating an existing post
type UpdatePostInput struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	ID       uint   `json:"-"`
	EditorID uint   `json:"-"`
}

// ClampFeedLimit folds any requested page size into [1, MaxFeedLimit].
func ClampFeedLimit(limit int) int {
	if limit <= 0 {
		return 1
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// parseCursor turns a millisecond-epoch cursor string into a time filter.
// An absent or malformed cursor means "from the newest post".
func parseCursor(cursor string) *time.Time {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return nil
	}
	ms, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

// ListPosts returns one page of the feed, newest first. Each post carries its
// snippet, its creator, and (for a signed-in viewer) the viewer's vote status.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*models.FeedPage, error) {
	limit := ClampFeedLimit(in.Limit)
	before := parseCursor(in.Cursor)

	// The anonymous head of the feed is by far the hottest read, and the
	// only one whose annotation is viewer-independent.
	if in.ViewerID == 0 && before == nil {
		page := &models.FeedPage{}
		err := cache.Aside(ctx, cache.FeedHeadKey(limit), page, cache.FeedTTL, func() error {
			fresh, err := s.listPage(ctx, limit, nil, 0)
			if err != nil {
				return err
			}
			*page = *fresh
			return nil
		})
		if err != nil {
			return nil, err
		}
		return page, nil
	}

	return s.listPage(ctx, limit, before, in.ViewerID)
}

func (s *PostService) listPage(ctx context.Context, limit int, before *time.Time, viewerID uint) (*models.FeedPage, error) {
	start := time.Now()
	posts, hasMore, err := s.postRepo.ListBefore(ctx, limit, before)
	observability.ObserveFeedQuery(start)
	if err != nil {
		return nil, err
	}

	if err := s.annotate(ctx, posts, viewerID); err != nil {
		return nil, err
	}

	page := &models.FeedPage{Posts: posts, HasMore: hasMore}
	if page.Posts == nil {
		page.Posts = []*models.Post{}
	}
	if hasMore && len(posts) > 0 {
		last := posts[len(posts)-1]
		page.NextCursor = strconv.FormatInt(last.CreatedAt.UnixMilli(), 10)
	}
	return page, nil
}

// annotate fills the derived fields of a batch of posts: snippet, creator, and
// the viewer's vote status. Creators and votes are each resolved with a single
// batched lookup regardless of page size.
func (s *PostService) annotate(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}

	creatorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		p.TextSnippet = p.Snippet()
		creatorIDs = append(creatorIDs, p.CreatorID)
	}

	users := loader.NewUserLoader(s.userRepo.GetByIDs)
	creators, err := users.LoadMany(ctx, creatorIDs)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if creator, ok := creators[p.CreatorID]; ok {
			sanitized := creator.Sanitized(viewerID)
			p.Creator = &sanitized
		}
	}

	if viewerID == 0 {
		return nil
	}

	keys := make([]loader.VoteKey, 0, len(posts))
	for _, p := range posts {
		keys = append(keys, loader.VoteKey{PostID: p.ID, UserID: viewerID})
	}
	votes := loader.NewVoteLoader(s.voteRepo.ListForViewer)
	cast, err := votes.LoadMany(ctx, keys)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if v, ok := cast[loader.VoteKey{PostID: p.ID, UserID: viewerID}]; ok {
			value := v.Value
			p.VoteStatus = &value
		}
	}
	return nil
}

// GetPost returns a single post with its derived fields, or (nil, nil) when
// no post has that id. The anonymous rendering is viewer-independent, so it
// is the one worth caching; signed-in views are computed fresh.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	if viewerID != 0 {
		return s.fetchPost(ctx, id, viewerID)
	}

	cached := &models.Post{}
	if found, err := cache.GetJSON(ctx, cache.PostKey(id), cached); err == nil && found {
		return cached, nil
	}
	post, err := s.fetchPost(ctx, id, 0)
	if err != nil || post == nil {
		// A miss is not cached; a freshly created post must show up.
		return post, err
	}
	_ = cache.SetJSON(ctx, cache.PostKey(id), post, cache.PostTTL)
	return post, nil
}

func (s *PostService) fetchPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}
	if err := s.annotate(ctx, []*models.Post{post}, viewerID); err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePost creates a post owned by the signed-in user.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostInput(in.Title, in.Text); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     strings.TrimSpace(in.Title),
		Text:      in.Text,
		CreatorID: in.CreatorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	cache.InvalidateFeed(ctx)

	if err := s.annotate(ctx, []*models.Post{post}, in.CreatorID); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost rewrites a post's title and text. Only the creator's own posts
// are touched; anything else returns (nil, nil), indistinguishable from a
// missing post.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if err := validatePostInput(in.Title, in.Text); err != nil {
		return nil, err
	}

	post, err := s.postRepo.UpdateOwned(ctx, in.ID, in.EditorID, strings.TrimSpace(in.Title), in.Text)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}
	cache.Invalidate(ctx, cache.PostKey(in.ID))
	cache.InvalidateFeed(ctx)

	if err := s.annotate(ctx, []*models.Post{post}, in.EditorID); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post and its votes. Returns false when the post is
// missing or owned by someone else.
func (s *PostService) DeletePost(ctx context.Context, id, editorID uint) (bool, error) {
	deleted, err := s.postRepo.DeleteOwned(ctx, id, editorID)
	if err != nil {
		return false, err
	}
	if deleted {
		cache.Invalidate(ctx, cache.PostKey(id))
		cache.InvalidateFeed(ctx)
	}
	return deleted, nil
}

func validatePostInput(title, text string) error {
	var fields []models.FieldError
	if strings.TrimSpace(title) == "" {
		fields = append(fields, models.FieldError{Field: "title", Message: "title must not be empty"})
	}
	if strings.TrimSpace(text) == "" {
		fields = append(fields, models.FieldError{Field: "text", Message: "text must not be empty"})
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError(fields...)
	}
	return nil
}
