package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/reservation"
)

// BookingHandler exposes the reservation engine to authenticated users.
// JWT authentication and role checks run in middleware before any method
// here; the engine re-checks ownership and approver rights itself.
type BookingHandler struct {
	Engine *reservation.Engine
}

// NewBookingHandler panics when engine is nil.
func NewBookingHandler(engine *reservation.Engine) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine}
}

type createBookingRequest struct {
	ResourceID string  `json:"resource_id" validate:"required,max=64"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Slot       string  `json:"slot" validate:"required,max=64"`
	Reason     *string `json:"reason" validate:"omitempty,max=500"`
	Attendees  *int    `json:"attendees" validate:"omitempty,min=1"`
}

// Create handles POST /v1/bookings.  It answers 201 with the pending
// booking, 400 for bad input and 409 when the slot is already taken; on
// 409 the client should refresh availability rather than retry.
func (h *BookingHandler) Create(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	var body createBookingRequest
	if err := bindAndValidate(c, &body); err != nil {
		return writeError(c, err)
	}
	b, err := h.Engine.RequestBooking(c.Request().Context(), who, reservation.BookingRequest{
		ResourceID: body.ResourceID,
		Date:       body.Date,
		Slot:       body.Slot,
		Reason:     body.Reason,
		Attendees:  body.Attendees,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Mine handles GET /v1/bookings/mine: the caller's bookings split into
// upcoming (soonest first) and past (latest first).
func (h *BookingHandler) Mine(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	hist, err := h.Engine.BookingsFor(c.Request().Context(), who.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, hist)
}

// Get handles GET /v1/bookings/:id for the requester or an admin.
func (h *BookingHandler) Get(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.GetBooking(c.Request().Context(), who, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

type transitionRequest struct {
	Action string  `json:"action" validate:"required,oneof=approve confirm reject cancel"`
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// Transition handles PATCH /v1/bookings/:id with {"action": approve |
// reject | cancel, "reason"?}.  Approve and reject need the admin role;
// cancel is for the requester only.
func (h *BookingHandler) Transition(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body transitionRequest
	if err := bindAndValidate(c, &body); err != nil {
		return writeError(c, err)
	}
	b, err := h.Engine.Act(c.Request().Context(), who, id, body.Action, body.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CheckIn handles POST /v1/bookings/:id/check-in on the booking date.
func (h *BookingHandler) CheckIn(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Engine.CheckIn(c.Request().Context(), who, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// AdminList handles GET /v1/admin/bookings?status=pending, the approval
// queue.  Bookings come oldest request first.
func (h *BookingHandler) AdminList(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return unauthorized(c)
	}
	status := model.StatusPending
	if raw := c.QueryParam("status"); raw != "" {
		s, ok := model.ParseBookingStatus(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status", "field": "status"})
		}
		status = s
	}
	list, err := h.Engine.ListByStatus(c.Request().Context(), who, status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status, "bookings": list})
}
