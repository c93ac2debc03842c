package server

import (
	"shaasam/internal/middleware"
	"shaasam/internal/models"
	"shaasam/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createRequestBody struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Skills      []string         `json:"skills"`
	Categories  []string         `json:"categories"`
	Budget      *float64         `json:"budget"`
	CallbackURL string           `json:"callbackUrl"`
	Requester   models.Requester `json:"requester"`
}

// CreateRequest handles POST /api/requests
// @Summary Post a request
// @Description Agents post work for verified humans to claim
// @Tags requests
// @Accept json
// @Produce json
// @Param request body createRequestBody true "Request"
// @Success 201 {object} object{id=string,status=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /requests [post]
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	var body createRequestBody
	if err := parseBody(c, &body); err != nil {
		return nil
	}

	req, err := s.lifecycle.Create(requestContext(c), service.CreateRequestInput{
		Title:       body.Title,
		Description: body.Description,
		Skills:      body.Skills,
		Categories:  body.Categories,
		Budget:      body.Budget,
		CallbackURL: body.CallbackURL,
		Requester:   body.Requester,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     req.ID,
		"status": req.Status,
	})
}

// ListRequests handles GET /api/requests?status=&limit=
// @Summary List requests
// @Tags requests
// @Produce json
// @Param status query string false "open, accepted, in_progress or completed"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {object} object{data=[]models.Request,meta=object{count=int}}
// @Router /requests [get]
func (s *Server) ListRequests(c *fiber.Ctx) error {
	requests, err := s.lifecycle.List(c.UserContext(), c.Query("status"), c.QueryInt("limit", service.DefaultRequestLimit))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"data": requests,
		"meta": fiber.Map{"count": len(requests)},
	})
}

// GetRequest handles GET /api/requests/:id
// @Summary Get a request
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} models.Request
// @Failure 404 {object} models.ErrorResponse
// @Router /requests/{id} [get]
func (s *Server) GetRequest(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	req, err := s.lifecycle.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// ListHumanRequests handles GET /api/humans/requests
func (s *Server) ListHumanRequests(c *fiber.Ctx) error {
	humanID := c.Locals(middleware.LocalHumanID).(string)

	view, err := s.lifecycle.ListForHuman(c.UserContext(), humanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// ActOnRequest handles POST /api/humans/requests/:id
// @Summary Act on a request
// @Description accept, decline, start or complete a request as the signed-in human
// @Tags humans
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body object{action=string} true "Action"
// @Success 200 {object} service.ActionResult
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /humans/requests/{id} [post]
func (s *Server) ActOnRequest(c *fiber.Ctx) error {
	humanID := c.Locals(middleware.LocalHumanID).(string)
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	var body struct {
		Action string `json:"action"`
	}
	if err := parseBody(c, &body); err != nil {
		return nil
	}

	result, err := s.lifecycle.Act(requestContext(c), humanID, id, body.Action)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
