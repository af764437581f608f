package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/cffkit/pkg/cff"
)

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(b)
	return err
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

// writeFailure reports a codec error with the status it maps to.
func writeFailure(c *echo.Context, err error) error {
	status, errType := statusOf(err)
	var param string
	if ce, ok := asCodecError(err); ok {
		param = ce.Field
	}
	return writeError(c, status, errType, err.Error(), param)
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return writeJSON(c, status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest("invalid JSON body: " + err.Error())
	}
	return out, nil
}

// textOf turns a decoded JSON scalar into the text form fields parse from.
func textOf(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "", newInvalidRequest("null is not a field value")
	}
	return "", newInvalidRequest(fmt.Sprintf("unsupported value %v", v))
}

// scalarOf converts a decoded JSON scalar to the value types fields accept.
func scalarOf(v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		if err != nil {
			return nil, newInvalidRequest(fmt.Sprintf("%s is not an integer", n))
		}
		return i, nil
	}
	switch v.(type) {
	case string, bool:
		return v, nil
	}
	return nil, newInvalidRequest(fmt.Sprintf("unsupported value %v", v))
}

func parseRowIndex(c *echo.Context) (int, error) {
	i, err := strconv.Atoi(c.Param("row"))
	if err != nil || i < 0 {
		return 0, newInvalidRequest(fmt.Sprintf("row %q is not a row index", c.Param("row")))
	}
	return i, nil
}

func asCodecError(err error) (*cff.Error, bool) {
	var ce *cff.Error
	ok := errors.As(err, &ce)
	return ce, ok
}

func newEditID() string {
	return "edit_" + uuid.NewString()
}
