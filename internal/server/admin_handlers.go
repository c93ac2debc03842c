package server

import (
	"shaasam/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsersForReview handles GET /api/admin/users?reviewStatus=&status=&limit=
// @Summary List humans for moderation
// @Tags admin
// @Produce json
// @Param reviewStatus query string false "pending, approved or rejected"
// @Param status query string false "active or suspended"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} object{data=[]models.Human}
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) ListUsersForReview(c *fiber.Ctx) error {
	users, err := s.reviews.List(c.UserContext(),
		c.Query("reviewStatus"),
		c.Query("status"),
		c.QueryInt("limit", service.DefaultReviewLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": users})
}

// ReviewUser handles POST /api/admin/users/:id/review
// @Summary Review a human
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Human ID"
// @Param request body object{reviewStatus=string,status=string,notes=string} true "Review"
// @Success 200 {object} object{data=models.Human}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id}/review [post]
func (s *Server) ReviewUser(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	var body struct {
		ReviewStatus string  `json:"reviewStatus"`
		Status       string  `json:"status"`
		Notes        *string `json:"notes"`
	}
	if err := parseBody(c, &body); err != nil {
		return nil
	}

	human, err := s.reviews.Review(requestContext(c), id, service.ReviewInput{
		ReviewStatus: body.ReviewStatus,
		Status:       body.Status,
		Notes:        body.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": human})
}
