package server

import (
	"strings"

	"shaasam/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchHumans handles GET /api/humans
// @Summary Search the human directory
// @Description Eligible humans only. Text, skill or category filters rank by score.
// @Tags humans
// @Produce json
// @Param q query string false "Free text"
// @Param skill query []string false "Skill (repeat or comma separate)"
// @Param category query []string false "Category"
// @Param availability query string false "now, weekdays, weekends or nights"
// @Param minRate query number false "Minimum hourly rate"
// @Param maxRate query number false "Maximum hourly rate"
// @Param limit query int false "Page size (max 50)"
// @Param offset query int false "Offset"
// @Param sort query string false "recent or score"
// @Param includeScores query bool false "Attach scores"
// @Success 200 {object} service.SearchResult
// @Router /humans [get]
func (s *Server) SearchHumans(c *fiber.Ctx) error {
	result, err := s.matching.Search(c.UserContext(), service.SearchQuery{
		Q:             c.Query("q"),
		Skills:        queryList(c, "skill", "skills"),
		Categories:    queryList(c, "category", "categories"),
		Availability:  c.Query("availability"),
		MinRate:       queryFloat(c, "minRate"),
		MaxRate:       queryFloat(c, "maxRate"),
		Limit:         c.QueryInt("limit", service.DefaultSearchLimit),
		Offset:        c.QueryInt("offset", 0),
		Sort:          strings.ToLower(strings.TrimSpace(c.Query("sort"))),
		IncludeScores: queryBool(c, "includeScores"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetHuman handles GET /api/humans/:id
// @Summary Get a public human profile
// @Tags humans
// @Produce json
// @Param id path string true "Human ID"
// @Success 200 {object} models.PublicHuman
// @Failure 404 {object} models.ErrorResponse
// @Router /humans/{id} [get]
func (s *Server) GetHuman(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	human, err := s.matching.GetEligible(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(human)
}

// GetTaxonomy handles GET /api/taxonomy
func (s *Server) GetTaxonomy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"skills":     s.catalog.Skills,
		"categories": s.catalog.Categories,
		"locations":  s.catalog.Locations(),
	})
}
