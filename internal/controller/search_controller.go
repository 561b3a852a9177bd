package controller

import (
	"memex-be/internal/dto"
	"memex-be/internal/pkg/serverutils"
	"memex-be/internal/service"
	"memex-be/pkg/search"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler)
	Search(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type searchController struct {
	service service.ISearchService
}

func NewSearchController(service service.ISearchService) ISearchController {
	return &searchController{service: service}
}

func (c *searchController) RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler) {
	r.Get("/health", c.Health)

	h := r.Group("", middlewares...)
	h.Get("/search", c.Search)
	h.Get("/regenerate", c.Regenerate)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	filter, err := search.ParseSearchType(req.T)
	if err != nil {
		return err
	}

	count := req.N
	if count <= 0 {
		count = search.DefaultResultCount
	}

	res, err := c.service.Search(ctx.UserContext(), req.Q, count, filter)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search", res))
}

func (c *searchController) Regenerate(ctx *fiber.Ctx) error {
	var req dto.RegenerateRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	filter, err := search.ParseSearchType(req.T)
	if err != nil {
		return err
	}

	rebuilt, err := c.service.Regenerate(ctx.UserContext(), filter)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success regenerate", dto.RegenerateResponse{
		Status:      "ok",
		Message:     "regeneration completed",
		Regenerated: rebuilt,
	}))
}

func (c *searchController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success health", dto.HealthResponse{
		Status:   "ok",
		Backends: c.service.Initialized(),
	}))
}
