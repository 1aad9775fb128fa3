package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/graphloader/internal/domain/kg"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromStore maps a graph-store failure to an API error. code names the failed
// operation and is kept unless the store was unreachable.
func FromStore(code string, err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var aggErr *kg.AggregationError
	switch {
	case errors.Is(err, kg.ErrStoreUnavailable):
		return New(http.StatusServiceUnavailable, "store_unavailable", err)
	case kg.IsCode(err, kg.CodeTimeout), errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, code, err)
	case errors.As(err, &aggErr):
		return New(http.StatusBadGateway, code, err)
	case kg.ReasonOf(err) != "":
		return New(http.StatusBadRequest, code, err)
	default:
		return New(http.StatusInternalServerError, code, err)
	}
}
