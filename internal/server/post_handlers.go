package server

import (
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts/create
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{text=string,img=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
		Img  string `json:"img"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		UserID: currentUserID(c),
		Text:   req.Text,
		Img:    req.Img,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete own post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.postService.Delete(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return message(c, msg)
}

// CommentOnPost handles POST /api/posts/comment/:id
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/comment/{id} [post]
func (s *Server) CommentOnPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Comment(c.UserContext(), currentUserID(c), postID, req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// LikeUnlikePost handles POST /api/posts/like/:id
// @Summary Toggle a like
// @Description Returns the post's like set after the toggle
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} integer
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/like/{id} [post]
func (s *Server) LikeUnlikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	likes, err := s.postService.LikeUnlike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if likes == nil {
		likes = []uint{}
	}
	return c.JSON(likes)
}

// GetAllPosts handles GET /api/posts/all
// @Summary Every post, newest first
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts/all [get]
func (s *Server) GetAllPosts(c *fiber.Ctx) error {
	posts, err := s.postService.All(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(postsOrEmpty(posts))
}

// GetFollowingPosts handles GET /api/posts/following
// @Summary Posts by followed accounts, newest first
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts/following [get]
func (s *Server) GetFollowingPosts(c *fiber.Ctx) error {
	posts, err := s.postService.Following(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(postsOrEmpty(posts))
}

// GetUserPosts handles GET /api/posts/user/:username
// @Summary Posts by one account, newest first
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/user/{username} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(postsOrEmpty(posts))
}

// GetLikedPosts handles GET /api/posts/likes/:id
// @Summary Posts an account liked
// @Tags posts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/likes/{id} [get]
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.LikedBy(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(postsOrEmpty(posts))
}
