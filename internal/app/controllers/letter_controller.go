package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/models/dto"
	"github.com/yigit/admissions/internal/app/services"
	"github.com/yigit/admissions/internal/middleware"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// LetterController exposes generated letters
type LetterController struct {
	documentService services.DocumentService
}

// NewLetterController creates a new LetterController
func NewLetterController(documentService services.DocumentService) *LetterController {
	return &LetterController{documentService: documentService}
}

// List handles GET /applications/:id/letters
func (c *LetterController) List(ctx *gin.Context) {
	letters, err := c.documentService.ListLetters(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	out := make([]dto.LetterResponse, 0, len(letters))
	for _, l := range letters {
		out = append(out, dto.FromLetter(l))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(out, ""))
}

// Ensure handles POST /applications/:id/letters/:type. It returns the existing
// letter or generates it, so callers can retry after a generation failure.
func (c *LetterController) Ensure(ctx *gin.Context) {
	letterType, ok := models.ParseLetterType(ctx.Param("type"))
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("unknown letter type %q", ctx.Param("type")))
		return
	}

	letter, err := c.documentService.EnsureLetter(ctx.Request.Context(), ctx.Param("id"), letterType)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromLetter(letter), ""))
}
