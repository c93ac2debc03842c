package server

import (
	"shaasam/internal/middleware"
	"shaasam/internal/service"

	"github.com/gofiber/fiber/v2"
)

type profileBody struct {
	Alias        *string `json:"alias"`
	Email        string  `json:"email"`
	DisplayName  string  `json:"displayName"`
	Headline     string  `json:"headline"`
	Bio          string  `json:"bio"`
	Skills       any     `json:"skills"`
	HourlyRate   float64 `json:"hourlyRate"`
	Location     string  `json:"location"`
	Availability string  `json:"availability"`
}

// GetProfile handles GET /api/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	humanID := c.Locals(middleware.LocalHumanID).(string)

	profile, err := s.profiles.Get(c.UserContext(), humanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles POST /api/profile
// @Summary Update the signed-in profile
// @Description Skills are matched against the catalog and categories are derived from them. alias "" clears the alias.
// @Tags profile
// @Accept json
// @Produce json
// @Param request body profileBody true "Profile"
// @Success 200 {object} service.PrivateProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profile [post]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	humanID := c.Locals(middleware.LocalHumanID).(string)

	var body profileBody
	if err := parseBody(c, &body); err != nil {
		return nil
	}

	profile, err := s.profiles.Update(requestContext(c), humanID, service.ProfileUpdate{
		Alias:        body.Alias,
		Email:        body.Email,
		DisplayName:  body.DisplayName,
		Headline:     body.Headline,
		Bio:          body.Bio,
		Skills:       body.Skills,
		HourlyRate:   body.HourlyRate,
		Location:     body.Location,
		Availability: body.Availability,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// CheckAlias handles GET /api/alias?alias=
func (s *Server) CheckAlias(c *fiber.Ctx) error {
	raw := c.Query("alias")
	if raw == "" {
		raw = c.Query("value")
	}
	requesterID, _ := c.Locals(middleware.LocalHumanID).(string)

	result, err := s.profiles.CheckAlias(c.UserContext(), raw, requesterID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
