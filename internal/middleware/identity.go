package middleware

// identity.go turns the claims JWTAuth placed in the Echo context into the
// model.Identity the reservation engine works with.

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// ErrNoIdentity is returned when the context carries no usable subject.
var ErrNoIdentity = errors.New("invalid user_id in context")

// CurrentIdentity returns the authenticated caller.  The subject claim may
// arrive as a JSON number or a decimal string.
func CurrentIdentity(c echo.Context) (model.Identity, error) {
	id, err := subject(c.Get(ctxUserID))
	if err != nil {
		return model.Identity{}, err
	}
	role, _ := c.Get(ctxRole).(string)
	return model.Identity{UserID: id, Role: model.Role(strings.ToLower(role))}, nil
}

func subject(v interface{}) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		if t > 0 {
			return uint64(t), nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		if t > 0 && t == float64(uint64(t)) {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, ErrNoIdentity
}

// userKey identifies the caller for rate limiting; "anon" when unknown.
func userKey(c echo.Context) string {
	if id, err := subject(c.Get(ctxUserID)); err == nil {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
