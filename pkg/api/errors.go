package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"goldval/pkg/models"
)

// ErrResponse is the uniform error payload.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest maps a bad input to a 400.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "invalid request",
		ErrorText:      err.Error(),
	}
}

// ErrInternal maps an engine failure to a 500.
func ErrInternal(err error) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "internal error",
		ErrorText:      err.Error(),
	}
}

// errRenderer maps engine errors onto status codes: unknown tickers are
// 404s, invalid parameters 400s, everything else 500s.
func errRenderer(err error) render.Renderer {
	if models.IsMissingData(err) {
		return &ErrResponse{
			HTTPStatusCode: http.StatusNotFound,
			StatusText:     "not found",
			ErrorText:      err.Error(),
		}
	}
	var invalid *models.InvalidParameterError
	if errors.As(err, &invalid) {
		return ErrInvalidRequest(err)
	}
	return ErrInternal(err)
}
