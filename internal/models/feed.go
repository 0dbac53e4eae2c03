package models

// FeedPage is one page of the post feed. NextCursor is the createdAt of the
// last returned post as a milliseconds-since-epoch string — the value a
// client feeds back to fetch the following page. Empty when HasMore is false.
type FeedPage struct {
	Posts      []*Post `json:"posts"`
	HasMore    bool    `json:"hasMore"`
	NextCursor string  `json:"nextCursor,omitempty"`
}
