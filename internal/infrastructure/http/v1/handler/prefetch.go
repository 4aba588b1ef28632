package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1/dto"
)

func (h *Handler) Prefetch(c *gin.Context) {
	l := loggerFrom(c)

	var body dto.PrefetchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		l.Warn("failed to decode prefetch request", "error", err)
		h.RespondWithError(c, http.StatusBadRequest, ErrFailedToDecodeRequestBody)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err)
		return
	}

	req, err := body.ToUseCase()
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return
	}

	res, err := h.tileUseCase.PrefetchRegion(c.Request.Context(), req)
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", res)
}
