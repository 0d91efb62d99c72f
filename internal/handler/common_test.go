package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/reservation"
)

func newContext(method, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	l := log.New("test")
	l.SetLevel(log.OFF)
	e.Logger = l
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"validation", &reservation.ValidationError{Field: "slot", Message: "unknown slot"}, http.StatusBadRequest, `{"error":"unknown slot","field":"slot"}`},
		{"resource not found", reservation.ErrResourceNotFound, http.StatusBadRequest, `{"error":"resource not found","field":"resource_id"}`},
		{"conflict", fmt.Errorf("%w: taken", reservation.ErrConflict), http.StatusConflict, ""},
		{"transition", &reservation.InvalidTransitionError{From: model.StatusRejected, To: model.StatusApproved, Reason: "rejected is terminal"}, http.StatusConflict, ""},
		{"already checked in", reservation.ErrAlreadyCheckedIn, http.StatusConflict, ""},
		{"forbidden", fmt.Errorf("%w: not yours", reservation.ErrForbidden), http.StatusForbidden, ""},
		{"not found", reservation.ErrNotFound, http.StatusNotFound, `{"error":"booking not found"}`},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "")
			require.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			if tc.want != "" {
				assert.JSONEq(t, tc.want, rec.Body.String())
			}
		})
	}
}

func TestBindAndValidate(t *testing.T) {
	c, _ := newContext(http.MethodPost, `{"resource_id":"LIB-A","date":"2025-9-1","slot":"x"}`)
	var body createBookingRequest
	err := bindAndValidate(c, &body)
	var ve *reservation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "date", ve.Field)
	assert.Equal(t, "must be YYYY-MM-DD", ve.Message)

	c, _ = newContext(http.MethodPost, `{"name":"Court","category":"sports","capacity":0}`)
	var res createResourceRequest
	require.ErrorAs(t, bindAndValidate(c, &res), &ve)
	assert.Equal(t, "capacity", ve.Field)

	c, _ = newContext(http.MethodPost, `{"action":"approve","reason":"ok"}`)
	var tr transitionRequest
	require.NoError(t, bindAndValidate(c, &tr))
	assert.Equal(t, "approve", tr.Action)
	require.NotNil(t, tr.Reason)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	c, rec := newContext(http.MethodGet, "")
	require.NoError(t, Health(nil)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodGet, "")
	require.NoError(t, Health(pinger{})(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodGet, "")
	require.NoError(t, Health(pinger{err: errors.New("refused")})(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
