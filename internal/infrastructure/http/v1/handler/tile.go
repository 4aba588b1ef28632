package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
)

func (h *Handler) bindTile(c *gin.Context) (tile.Coordinate, bool) {
	l := loggerFrom(c)

	var uri dto.TileURI
	if err := c.ShouldBindUri(&uri); err != nil {
		l.Warn("invalid tile uri", "path", c.Request.URL.Path, "error", err)
		h.RespondWithError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidTileURI, err))
		return tile.Coordinate{}, false
	}
	if err := h.validate.Struct(uri); err != nil {
		l.Warn("invalid tile uri", "path", c.Request.URL.Path, "error", err)
		h.RespondWithError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidTileURI, err))
		return tile.Coordinate{}, false
	}

	coord, err := uri.Coordinate()
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return tile.Coordinate{}, false
	}

	return coord, true
}

// tileStatus is 200 for hits and downloads. A failed download keeps the
// result body and answers 502.
func tileStatus(resp usecase.TileResponse) (int, string) {
	if resp.Success {
		return http.StatusOK, ""
	}
	msg := "tile download failed"
	if resp.Error != nil {
		msg = *resp.Error
	}
	return http.StatusBadGateway, msg
}

func (h *Handler) DownloadTile(c *gin.Context) {
	coord, ok := h.bindTile(c)
	if !ok {
		return
	}

	resp := h.tileUseCase.DownloadTile(c.Request.Context(), coord)
	code, msg := tileStatus(resp)
	h.RespondWithJSON(c, code, msg, resp)
}

func (h *Handler) TileImage(c *gin.Context) {
	coord, ok := h.bindTile(c)
	if !ok {
		return
	}

	resp := h.tileUseCase.DownloadTile(c.Request.Context(), coord)
	if !resp.Success || resp.Path == nil {
		code, msg := tileStatus(resp)
		h.RespondWithJSON(c, code, msg, resp)
		return
	}

	if resp.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Header("Content-Type", "image/png")
	c.File(*resp.Path)
}

func (h *Handler) TileExists(c *gin.Context) {
	coord, ok := h.bindTile(c)
	if !ok {
		return
	}

	exists, err := h.tileUseCase.CheckTileExists(coord)
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", dto.ExistsResponse{Exists: exists})
}

func (h *Handler) TilePath(c *gin.Context) {
	coord, ok := h.bindTile(c)
	if !ok {
		return
	}

	path, err := h.tileUseCase.GetTilePath(coord)
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "", dto.PathResponse{Path: path})
}

func (h *Handler) DownloadTileByURL(c *gin.Context) {
	l := loggerFrom(c)

	var q dto.TileURLQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.validate.Struct(q); err != nil {
		l.Warn("invalid tile url query", "error", err)
		h.RespondWithError(c, http.StatusBadRequest, err)
		return
	}

	_, resp, err := h.tileUseCase.DownloadTileByURL(c.Request.Context(), q.URL)
	if err != nil {
		h.RespondWithUseCaseError(c, err)
		return
	}

	code, msg := tileStatus(resp)
	h.RespondWithJSON(c, code, msg, resp)
}
