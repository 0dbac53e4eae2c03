package service

import (
	"context"
	"errors"

	"updoot/internal/cache"
	"updoot/internal/featureflags"
	"updoot/internal/models"
	"updoot/internal/observability"
	"updoot/internal/repository"
)

// voteRetryLimit bounds the re-runs of a vote transaction after a transient
// write conflict before giving up.
const voteRetryLimit = 3

// VoteService handles vote business logic
type VoteService struct {
	voteRepo repository.VoteRepository
	postRepo repository.PostRepository
	flags    *featureflags.Manager
}

// NewVoteService creates a new vote service
func NewVoteService(voteRepo repository.VoteRepository, postRepo repository.PostRepository, flags *featureflags.Manager) *VoteService {
	return &VoteService{voteRepo: voteRepo, postRepo: postRepo, flags: flags}
}

// Vote records userID's vote on postID. Every value collapses to an upvote
// except exactly -1; with the strict_votes flag on, anything other than 1 or
// -1 is rejected instead. Voting twice with the same direction is a no-op,
// reversing direction flips the vote. Transient write races are retried a
// bounded number of times.
func (s *VoteService) Vote(ctx context.Context, postID uint, value int, userID uint) error {
	if s.flags != nil && s.flags.Enabled(featureflags.StrictVotes, userID) {
		if value != models.Upvote && value != models.Downvote {
			return models.NewValidationError("value must be 1 or -1")
		}
	}
	norm := models.NormalizeVoteValue(value)

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return models.NewNotFoundError("Post", postID)
	}

	var lastErr error
	for attempt := 0; attempt < voteRetryLimit; attempt++ {
		if attempt > 0 {
			observability.VoteTransitions.WithLabelValues("retry").Inc()
		}
		lastErr = s.voteRepo.Cast(ctx, userID, postID, norm)
		if !errors.Is(lastErr, repository.ErrVoteConflict) {
			break
		}
	}
	if lastErr != nil {
		return lastErr
	}

	cache.Invalidate(ctx, cache.PostKey(postID))
	cache.InvalidateFeed(ctx)
	return nil
}

// VoteStatus returns the viewer's recorded vote value on a post, or nil when
// no vote exists.
func (s *VoteService) VoteStatus(ctx context.Context, userID, postID uint) (*int, error) {
	vote, err := s.voteRepo.GetForViewer(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if vote == nil {
		return nil, nil
	}
	value := vote.Value
	return &value, nil
}
