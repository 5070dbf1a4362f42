package handler

import (
	"github.com/gofiber/fiber/v2"

	"doccatalog/internal/http/middleware"
	"doccatalog/internal/service"
)

// GetView returns the caller's view state.
//
// @Summary  Get view state
// @Tags     view
// @Produce  json
// @Success  200 {object} model.ViewState
// @Router   /view [get]
func GetView(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		v, err := svc.ViewState(c.UserContext(), owner)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(v)
	}
}

// UpdateView changes the fields present in the body.
//
// @Summary  Update view state
// @Tags     view
// @Accept   json
// @Produce  json
// @Param    view body service.ViewUpdate true "View fields to change"
// @Success  200 {object} model.ViewState
// @Failure  400 {object} errorPayload
// @Router   /view [patch]
func UpdateView(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		var upd service.ViewUpdate
		if err := c.BodyParser(&upd); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		v, err := svc.SetView(c.UserContext(), owner, upd)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(v)
	}
}

// ListCategories returns the category registry with per-category counts.
//
// @Summary  List categories
// @Tags     categories
// @Produce  json
// @Success  200 {object} model.Counts
// @Router   /categories [get]
func ListCategories(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		counts, err := svc.Counts(c.UserContext(), owner)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(counts)
	}
}

// Profile returns the caller's identity.
//
// @Summary  Current user
// @Tags     profile
// @Produce  json
// @Success  200 {object} model.Profile
// @Failure  401 {object} errorPayload
// @Router   /me [get]
func Profile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			return unauthorized(c)
		}
		return c.JSON(id.Profile())
	}
}
