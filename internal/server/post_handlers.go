package server

import (
	"updoot/internal/models"
	"updoot/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts. The feed is pages of posts, newest first,
// walked with an opaque cursor:
//
//	GET /api/posts?limit=20&cursor=1724630400000
//
// The response mirrors the page shape clients paginate with: the posts, a
// hasMore flag, and (when hasMore) the cursor for the next page.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	in := service.ListPostsInput{
		Limit:    c.QueryInt("limit", service.DefaultFeedLimit),
		Cursor:   c.Query("cursor"),
		ViewerID: s.optionalUserID(c),
	}

	page, err := s.postService.ListPosts(c.Context(), in)
	if err != nil {
		return models.RespondWithError(c, statusForAppError(err), err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id. A missing post is not an error: the
// body is JSON null, matching the nullable post lookup contract.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), id, s.optionalUserID(c))
	if err != nil {
		return models.RespondWithError(c, statusForAppError(err), err)
	}
	if post == nil {
		return c.JSON(nil)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	in.CreatorID = c.Locals("userID").(uint)

	post, err := s.postService.CreatePost(c.Context(), in)
	if err != nil {
		return models.RespondWithError(c, statusForAppError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id. Editing someone else's post is
// answered exactly like editing a missing one: JSON null.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var in service.UpdatePostInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	in.ID = id
	in.EditorID = c.Locals("userID").(uint)

	post, err := s.postService.UpdatePost(c.Context(), in)
	if err != nil {
		return models.RespondWithError(c, statusForAppError(err), err)
	}
	if post == nil {
		return c.JSON(nil)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id. The body is a bare boolean:
// false when the post is missing or owned by someone else.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	deleted, err := s.postService.DeletePost(c.Context(), id, c.Locals("userID").(uint))
	if err != nil {
		return models.RespondWithError(c, statusForAppError(err), err)
	}
	return c.JSON(deleted)
}

// Vote handles POST /api/posts/:id/vote with body {"value": n}. The body is
// a bare boolean true on success.
func (s *Server) Vote(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Value int `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := c.Locals("userID").(uint)
	if err := s.voteService.Vote(c.Context(), id, req.Value, userID); err != nil {
		return models.RespondWithError(c, statusForAppError(err), err)
	}
	return c.JSON(true)
}

// GetVoteStatus handles GET /api/posts/:id/vote, returning the caller's
// recorded vote value on the post, or null.
func (s *Server) GetVoteStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	userID := c.Locals("userID").(uint)
	status, err := s.voteService.VoteStatus(c.Context(), userID, id)
	if err != nil {
		return models.RespondWithError(c, statusForAppError(err), err)
	}
	return c.JSON(fiber.Map{"voteStatus": status})
}
