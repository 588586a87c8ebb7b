package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/admissions/internal/app/models/dto"
	"github.com/yigit/admissions/internal/middleware"
	"github.com/yigit/admissions/internal/pkg/tuition"
)

// TuitionController quotes tuition without creating anything
type TuitionController struct{}

// NewTuitionController creates a new TuitionController
func NewTuitionController() *TuitionController {
	return &TuitionController{}
}

// Quote handles GET /tuition/quote?degreeLevel=&field=&duration=
func (c *TuitionController) Quote(ctx *gin.Context) {
	quote, err := tuition.NewQuote(ctx.Query("degreeLevel"), ctx.Query("field"), ctx.Query("duration"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromQuote(quote), ""))
}
