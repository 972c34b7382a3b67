package server

import (
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List own notifications
// @Description Oldest first; the call marks them all read
// @Tags notifications
// @Produce json
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notificationService.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return c.JSON(list)
}

// DeleteNotifications handles DELETE /api/notifications
// @Summary Delete all own notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /notifications [delete]
func (s *Server) DeleteNotifications(c *fiber.Ctx) error {
	msg, err := s.notificationService.DeleteAll(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return message(c, msg)
}

// DeleteNotification handles DELETE /api/notifications/:id
// @Summary Delete one own notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id} [delete]
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.notificationService.DeleteOne(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return message(c, msg)
}
