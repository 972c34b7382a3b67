package server

import (
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:username
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// FollowUnfollowUser handles POST /api/users/follow/:id
// @Summary Toggle following an account
// @Tags users
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/follow/{id} [post]
func (s *Server) FollowUnfollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.userService.FollowUnfollow(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return message(c, msg)
}

// GetSuggestedUsers handles GET /api/users/suggested
// @Summary Accounts to follow
// @Description Up to four random accounts the caller does not follow yet
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users/suggested [get]
func (s *Server) GetSuggestedUsers(c *fiber.Ctx) error {
	users, err := s.userService.Suggested(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// UpdateUser handles POST /api/users/update
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{fullName=string,email=string,username=string,currentPassword=string,newPassword=string,bio=string,link=string,profileImg=string,coverImg=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/update [post]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var req struct {
		FullName        string `json:"fullName"`
		Email           string `json:"email"`
		Username        string `json:"username"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		Bio             string `json:"bio"`
		Link            string `json:"link"`
		ProfileImg      string `json:"profileImg"`
		CoverImg        string `json:"coverImg"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:          currentUserID(c),
		FullName:        req.FullName,
		Email:           req.Email,
		Username:        req.Username,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Bio:             req.Bio,
		Link:            req.Link,
		ProfileImg:      req.ProfileImg,
		CoverImg:        req.CoverImg,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
