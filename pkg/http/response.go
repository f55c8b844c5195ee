package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every JSON body the server writes.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func envelope(status int, data interface{}) Envelope {
	return Envelope{Status: status, Message: http.StatusText(status), Data: data}
}

// Encode renders a 200 envelope for storage, e.g. in a response cache.
func Encode(data interface{}) ([]byte, error) {
	return json.Marshal(envelope(http.StatusOK, data))
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, envelope(http.StatusOK, data))
}

// Blob writes a 200 envelope produced by Encode.
func Blob(c echo.Context, body []byte) error {
	return c.JSONBlob(http.StatusOK, body)
}

// Fail writes err's status and problems. Errors that are not an AppError
// become a 500 without detail.
func Fail(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internal("Something went wrong")
	}
	if appErr.RetryAfter > 0 {
		secs := int(math.Ceil(appErr.RetryAfter.Seconds()))
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
	}
	return c.JSON(appErr.Status, envelope(appErr.Status, appErr.Problems))
}
