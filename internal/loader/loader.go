// Package loader provides request-scoped batch loaders that collapse the
// per-row lookups of a feed page (creators, the viewer's votes) into a single
// fetch per batch. A loader caches what it has fetched, so repeated keys
// within the same request never hit the store twice. Loaders must not outlive
// the request they were built for.
package loader

import (
	"context"

	"updoot/internal/models"
)

// VoteKey identifies one row of the vote ledger.
type VoteKey struct {
	PostID uint
	UserID uint
}

// UserFetchFunc loads users by id in one call.
type UserFetchFunc func(ctx context.Context, ids []uint) ([]*models.User, error)

// VoteFetchFunc loads one viewer's votes on a set of posts in one call.
type VoteFetchFunc func(ctx context.Context, userID uint, postIDs []uint) ([]*models.Vote, error)

// UserLoader batches and caches user lookups by id.
type UserLoader struct {
	fetch UserFetchFunc
	cache map[uint]*models.User
}

// NewUserLoader creates a loader for a single request.
func NewUserLoader(fetch UserFetchFunc) *UserLoader {
	return &UserLoader{fetch: fetch, cache: make(map[uint]*models.User)}
}

// Load returns the user for id, or nil when it does not exist.
func (l *UserLoader) Load(ctx context.Context, id uint) (*models.User, error) {
	users, err := l.LoadMany(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	return users[id], nil
}

// LoadMany returns the users for ids, issuing at most one fetch for the keys
// not already cached. Duplicate ids are coalesced. Missing users are simply
// absent from the result map.
func (l *UserLoader) LoadMany(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	var misses []uint
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := l.cache[id]; !ok {
			misses = append(misses, id)
		}
	}

	if len(misses) > 0 {
		users, err := l.fetch(ctx, misses)
		if err != nil {
			return nil, err
		}
		fetched := make(map[uint]*models.User, len(users))
		for _, u := range users {
			fetched[u.ID] = u
		}
		// Cache absences too, so a repeated miss does not refetch.
		for _, id := range misses {
			l.cache[id] = fetched[id]
		}
	}

	result := make(map[uint]*models.User, len(seen))
	for id := range seen {
		if u := l.cache[id]; u != nil {
			result[id] = u
		}
	}
	return result, nil
}

// VoteLoader batches and caches vote lookups by (post, user) pair.
type VoteLoader struct {
	fetch VoteFetchFunc
	cache map[VoteKey]*models.Vote
}

// NewVoteLoader creates a loader for a single request.
func NewVoteLoader(fetch VoteFetchFunc) *VoteLoader {
	return &VoteLoader{fetch: fetch, cache: make(map[VoteKey]*models.Vote)}
}

// Load returns the vote for one (post, user) pair, or nil when the viewer has
// not voted on the post.
func (l *VoteLoader) Load(ctx context.Context, key VoteKey) (*models.Vote, error) {
	votes, err := l.LoadMany(ctx, []VoteKey{key})
	if err != nil {
		return nil, err
	}
	return votes[key], nil
}

// LoadMany returns the votes for keys, issuing one fetch per distinct viewer
// among the uncached keys. A feed page carries a single viewer, so in
// practice that is one store call per request.
func (l *VoteLoader) LoadMany(ctx context.Context, keys []VoteKey) (map[VoteKey]*models.Vote, error) {
	missesByUser := make(map[uint][]uint)
	seen := make(map[VoteKey]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := l.cache[key]; !ok {
			missesByUser[key.UserID] = append(missesByUser[key.UserID], key.PostID)
		}
	}

	for userID, postIDs := range missesByUser {
		votes, err := l.fetch(ctx, userID, postIDs)
		if err != nil {
			return nil, err
		}
		fetched := make(map[VoteKey]*models.Vote, len(votes))
		for _, v := range votes {
			fetched[VoteKey{PostID: v.PostID, UserID: v.UserID}] = v
		}
		for _, postID := range postIDs {
			key := VoteKey{PostID: postID, UserID: userID}
			l.cache[key] = fetched[key]
		}
	}

	result := make(map[VoteKey]*models.Vote, len(seen))
	for key := range seen {
		if v := l.cache[key]; v != nil {
			result[key] = v
		}
	}
	return result, nil
}
