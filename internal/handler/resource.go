package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/reservation"
)

// ResourceHandler serves the resource directory and slot availability.
// Browsing is public; changes are admin-only and the routes enforce it.
type ResourceHandler struct {
	Engine *reservation.Engine
}

// NewResourceHandler panics when engine is nil.
func NewResourceHandler(engine *reservation.Engine) *ResourceHandler {
	if engine == nil {
		panic("nil engine passed to NewResourceHandler")
	}
	return &ResourceHandler{Engine: engine}
}

// ListSlots handles GET /v1/slots and returns the slot catalog in order.
func (h *ResourceHandler) ListSlots(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"slots": h.Engine.Catalog().AllSlots()})
}

// ListResources handles GET /v1/resources[?category=].
func (h *ResourceHandler) ListResources(c echo.Context) error {
	list, err := h.Engine.ListResources(c.Request().Context(), model.Category(c.QueryParam("category")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"resources": list})
}

// GetResource handles GET /v1/resources/:id.
func (h *ResourceHandler) GetResource(c echo.Context) error {
	res, err := h.Engine.GetResource(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, reservation.ErrResourceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Availability handles GET /v1/resources/:id/availability?date=YYYY-MM-DD
// and lists every catalog slot with its occupancy.
func (h *ResourceHandler) Availability(c echo.Context) error {
	date := c.QueryParam("date")
	list, err := h.Engine.ListAvailability(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		if errors.Is(err, reservation.ErrResourceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"resource_id": c.Param("id"), "date": date, "slots": list})
}

type createResourceRequest struct {
	ID          string   `json:"id" validate:"omitempty,max=64"`
	Name        string   `json:"name" validate:"required,max=255"`
	Category    string   `json:"category" validate:"required,oneof=library lab sports"`
	Capacity    int      `json:"capacity" validate:"required,gt=0"`
	Description string   `json:"description" validate:"max=2000"`
	Location    string   `json:"location" validate:"max=255"`
	Amenities   []string `json:"amenities" validate:"max=32,dive,max=64"`
	Status      string   `json:"status" validate:"omitempty,oneof=active maintenance inactive"`
}

// CreateResource handles POST /v1/admin/resources.  A missing id is
// generated.
func (h *ResourceHandler) CreateResource(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	var body createResourceRequest
	if err := bindAndValidate(c, &body); err != nil {
		return writeError(c, err)
	}
	res, err := h.Engine.CreateResource(c.Request().Context(), who, reservation.ResourceInput{
		ID:          body.ID,
		Name:        body.Name,
		Category:    model.Category(body.Category),
		Capacity:    body.Capacity,
		Description: body.Description,
		Location:    body.Location,
		Amenities:   body.Amenities,
		Status:      model.ResourceStatus(body.Status),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

type updateResourceRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=255"`
	Category    *string   `json:"category" validate:"omitempty,oneof=library lab sports"`
	Capacity    *int      `json:"capacity" validate:"omitempty,gt=0"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Location    *string   `json:"location" validate:"omitempty,max=255"`
	Amenities   *[]string `json:"amenities" validate:"omitempty,max=32,dive,max=64"`
	Status      *string   `json:"status" validate:"omitempty,oneof=active maintenance inactive"`
}

// UpdateResource handles PATCH /v1/admin/resources/:id.  Only the fields
// present in the body change.
func (h *ResourceHandler) UpdateResource(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	var body updateResourceRequest
	if err := bindAndValidate(c, &body); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	cur, err := h.Engine.GetResource(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, reservation.ErrResourceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return writeError(c, err)
	}
	in := reservation.ResourceInput{
		Name:        cur.Name,
		Category:    cur.Category,
		Capacity:    cur.Capacity,
		Description: cur.Description,
		Location:    cur.Location,
		Amenities:   cur.Amenities,
		Status:      cur.Status,
	}
	if body.Name != nil {
		in.Name = *body.Name
	}
	if body.Category != nil {
		in.Category = model.Category(*body.Category)
	}
	if body.Capacity != nil {
		in.Capacity = *body.Capacity
	}
	if body.Description != nil {
		in.Description = *body.Description
	}
	if body.Location != nil {
		in.Location = *body.Location
	}
	if body.Amenities != nil {
		in.Amenities = *body.Amenities
	}
	if body.Status != nil {
		in.Status = model.ResourceStatus(*body.Status)
	}
	res, err := h.Engine.UpdateResource(ctx, who, cur.ID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// DeleteResource handles DELETE /v1/admin/resources/:id.  A resource that
// has bookings is refused with 400; set it inactive instead.
func (h *ResourceHandler) DeleteResource(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	if err := h.Engine.DeleteResource(c.Request().Context(), who, c.Param("id")); err != nil {
		if errors.Is(err, reservation.ErrResourceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
