package handler

import (
	"errors"
	"net/http"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
)

var (
	ErrFailedToDecodeRequestBody = errors.New("failed to decode request body")
	ErrInvalidTileURI            = errors.New("invalid tile coordinates")
	InternalServerError          = errors.New("server encountered a problem and could not process your request")
)

// statusFor maps use case errors to HTTP status codes. Anything unknown is a
// server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tile.ErrUnknownLayer),
		errors.Is(err, tile.ErrUnrecognizedURL),
		errors.Is(err, tile.ErrInvalidBounds),
		errors.Is(err, usecase.ErrInvalidPrefetch):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrPrefetchTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
