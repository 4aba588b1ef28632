package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Stats(c *gin.Context) {
	s, err := h.tileUseCase.Stats(c.Request.Context())
	if err != nil {
		h.RespondWithInternalServerError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", s)
}
