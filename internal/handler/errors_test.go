package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/presenca-app/presenca-api/internal/service"
)

func callWriteServiceError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/attendance", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if werr := writeServiceError(c, log, err); werr != nil {
		t.Fatalf("writeServiceError returned %v", werr)
	}
	return rec
}

func TestWriteServiceErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrTokenReuse, http.StatusUnauthorized},
		{service.ErrTokenExpired, http.StatusUnauthorized},
		{service.ErrAccessNotGranted, http.StatusForbidden},
		{service.ErrAccessExpired, http.StatusForbidden},
		{service.ErrNoActiveEvent, http.StatusBadRequest},
		{service.ErrEventRemoved, http.StatusBadRequest},
		{service.ErrEventInactive, http.StatusBadRequest},
		{service.ErrEventMisconfigured, http.StatusBadRequest},
		{service.ErrWindowNotOpen, http.StatusBadRequest},
		{service.ErrWindowClosed, http.StatusBadRequest},
		{service.ErrSummonsRequired, http.StatusBadRequest},
		{service.ErrCityRequired, http.StatusBadRequest},
		{service.ErrInvalidCity, http.StatusBadRequest},
		{service.ErrInvalidInstrument, http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := callWriteServiceError(t, c.err)
		assert.Equal(t, c.status, rec.Code, "status for %v", c.err)
		assert.Contains(t, rec.Body.String(), c.err.Error())
	}
}

func TestWriteServiceErrorKeepsWrappedMessage(t *testing.T) {
	err := fmt.Errorf("%w: opens at 2026-03-01T09:00:00Z", service.ErrWindowNotOpen)
	rec := callWriteServiceError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "opens at 2026-03-01T09:00:00Z")
}

func TestWriteServiceErrorSanitizesUnknown(t *testing.T) {
	rec := callWriteServiceError(t, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Error("internal detail leaked to the client")
	}
}
