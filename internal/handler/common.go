package handler // handler defines the HTTP handlers of the reservation API

import (
	"errors"   // errors.Is/As map engine error kinds onto HTTP statuses
	"net/http" // HTTP status codes
	"reflect"  // reflect reads json tags for validator field names
	"strconv"  // strconv parses numeric path parameters
	"strings"  // strings trims tag values

	"github.com/go-playground/validator/v10" // struct-tag validation of request bodies
	"github.com/labstack/echo/v4"            // echo defines request context types

	"github.com/iliyamo/resource-reservation/internal/middleware"  // identity extraction from JWT claims
	"github.com/iliyamo/resource-reservation/internal/model"       // identity type
	"github.com/iliyamo/resource-reservation/internal/reservation" // engine error kinds
)

// validate checks request DTOs.  Field names in its errors are the JSON
// names clients send.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate decodes the request body into dst and runs the struct
// tags.  Failures come back as *reservation.ValidationError so they share
// the engine's 400 response shape.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return &reservation.ValidationError{Message: "invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &reservation.ValidationError{Field: verrs[0].Field(), Message: describe(verrs[0])}
		}
		return &reservation.ValidationError{Message: "invalid request body"}
	}
	return nil
}

// describe turns one validator failure into a short client message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "datetime":
		return "must be YYYY-MM-DD"
	}
	return "is invalid"
}

// identity returns the authenticated caller placed in the context by the
// JWT middleware.
func identity(c echo.Context) (model.Identity, error) {
	return middleware.CurrentIdentity(c)
}

// pathID parses the :id path parameter as a positive booking id.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// writeError maps an engine error onto the API's JSON error responses:
// validation 400, forbidden 403, not found 404, conflict and invalid
// transition 409.  Anything else is logged and answered with 500.
func writeError(c echo.Context, err error) error {
	var (
		ve  *reservation.ValidationError
		ite *reservation.InvalidTransitionError
	)
	switch {
	case errors.As(err, &ve):
		body := echo.Map{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, reservation.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable, pick another", "detail": err.Error()})
	case errors.As(err, &ite):
		return c.JSON(http.StatusConflict, echo.Map{"error": ite.Error(), "from": ite.From, "to": ite.To})
	case errors.Is(err, reservation.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, reservation.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "detail": err.Error()})
	case errors.Is(err, reservation.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	c.Logger().Errorf("request %s %s failed: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// unauthorized is the response for a context without a usable identity.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
