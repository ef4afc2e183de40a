package handler

import (
	"github.com/gofiber/fiber/v2"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/geo"
	"country-atlas-service/internal/model"
	"country-atlas-service/internal/service"
)

type CountryHandler struct {
	countries service.CountryService
}

func NewCountryHandler(countries service.CountryService) *CountryHandler {
	return &CountryHandler{
		countries: countries,
	}
}

// List handles cursor paging over all countries
func (h *CountryHandler) List(c *fiber.Ctx) error {
	var q struct {
		First int    `query:"first"`
		After string `query:"after"`
	}
	if err := c.QueryParser(&q); err != nil {
		return apperr.InvalidArgument("invalid query: first must be an integer")
	}

	page, err := h.countries.List(c.UserContext(), q.First, q.After)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":          page.Countries,
		"has_next_page": page.HasNextPage,
		"end_cursor":    page.EndCursor,
		"total_count":   page.TotalCount,
	})
}

func (h *CountryHandler) Get(c *fiber.Ctx) error {
	country, err := h.countries.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": country,
	})
}

func (h *CountryHandler) nearby(c *fiber.Ctx) ([]model.NearbyCountry, error) {
	var q struct {
		Lat   *float64 `query:"lat"`
		Lng   *float64 `query:"lng"`
		Limit int      `query:"limit"`
	}
	if err := c.QueryParser(&q); err != nil {
		return nil, apperr.InvalidArgument("invalid query: %v", err)
	}
	if q.Lat == nil || q.Lng == nil {
		return nil, apperr.InvalidArgument("lat and lng are required")
	}

	return h.countries.FindNearby(c.UserContext(), *q.Lat, *q.Lng, q.Limit)
}

// Nearby handles countries ordered by distance from the lat/lng query point
func (h *CountryHandler) Nearby(c *fiber.Ctx) error {
	nearby, err := h.nearby(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": nearby,
	})
}

// NearbyGeoJSON serves the same result as a FeatureCollection
func (h *CountryHandler) NearbyGeoJSON(c *fiber.Ctx) error {
	nearby, err := h.nearby(c)
	if err != nil {
		return err
	}

	return c.JSON(geo.NearbyFeatureCollection(nearby), "application/geo+json")
}

func (h *CountryHandler) ByLanguage(c *fiber.Ctx) error {
	countries, err := h.countries.ByLanguage(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": countries,
	})
}

// Edit handles a partial update; absent fields keep their stored value
func (h *CountryHandler) Edit(c *fiber.Ctx) error {
	var patch model.CountryPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	updated, err := h.countries.Edit(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": updated,
	})
}

func (h *CountryHandler) Create(c *fiber.Ctx) error {
	var country model.Country
	if err := c.BodyParser(&country); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	created, err := h.countries.Create(c.UserContext(), country)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": created,
	})
}
