package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
)

func (h *Handler) Manifest(c *gin.Context) {
	var uri dto.LayerURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.validate.Struct(uri); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err)
		return
	}

	l, err := tile.ParseLayer(uri.Layer)
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return
	}

	m, err := h.tileUseCase.GetManifest(c.Request.Context(), l)
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", m)
}
