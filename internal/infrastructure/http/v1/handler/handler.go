package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
)

type Handler struct {
	validate    *validator.Validate
	tileUseCase *usecase.TileUseCase
}

func NewHandler(validator *validator.Validate, uc *usecase.TileUseCase) *Handler {
	return &Handler{
		validate:    validator,
		tileUseCase: uc,
	}
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	c.JSON(code, response{
		Success: code < 400,
		Message: message,
		Data:    data,
	})
}

func (h *Handler) RespondWithError(c *gin.Context, code int, err error) {
	h.RespondWithJSON(c, code, err.Error(), nil)
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context, err error) {
	l := loggerFrom(c)

	l.Error("internal http_server error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user_agent", c.Request.UserAgent(),
		"ip", c.ClientIP(),
		"error", err,
	)

	h.RespondWithError(c, http.StatusInternalServerError, InternalServerError)
}

// RespondWithUseCaseError picks the status from err. Client errors carry the
// error text, server errors are logged and masked.
func (h *Handler) RespondWithUseCaseError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= 500 {
		h.RespondWithInternalServerError(c, err)
		return
	}
	h.RespondWithError(c, code, err)
}

func loggerFrom(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
