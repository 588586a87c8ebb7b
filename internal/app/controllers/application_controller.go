package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appAuth "github.com/yigit/admissions/internal/app/auth"
	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/models/dto"
	"github.com/yigit/admissions/internal/app/services"
	"github.com/yigit/admissions/internal/middleware"
	"github.com/yigit/admissions/internal/pkg/apperrors"
	"github.com/yigit/admissions/internal/pkg/helpers"
)

// ApplicationController handles application submission, lookup and transitions
type ApplicationController struct {
	admissionService services.AdmissionService
	authzService     *appAuth.AuthorizationService
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(admissionService services.AdmissionService, authzService *appAuth.AuthorizationService) *ApplicationController {
	return &ApplicationController{admissionService: admissionService, authzService: authzService}
}

// Submit handles POST /applications
func (c *ApplicationController) Submit(ctx *gin.Context) {
	var req dto.SubmitApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.admissionService.Submit(ctx.Request.Context(), services.SubmitRequest{
		ApplicantEmail: req.ApplicantEmail,
		ApplicantName:  req.ApplicantName,
		CourseID:       req.CourseID,
		Actor:          middleware.Actor(ctx),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.FromApplication(app), "Application submitted"))
}

// GetByID handles GET /applications/:id
func (c *ApplicationController) GetByID(ctx *gin.Context) {
	app, err := c.admissionService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromApplication(app), ""))
}

// List handles GET /applications?status=&page=&size=
func (c *ApplicationController) List(ctx *gin.Context) {
	page, err := intQuery(ctx, "page")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	size, err := intQuery(ctx, "size")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := c.admissionService.List(ctx.Request.Context(), services.ListFilter{
		Status: models.ApplicationStatus(strings.ToUpper(ctx.Query("status"))),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      dto.FromApplications(result.Items),
		Pagination: helpers.NewPaginationInfo(result.Total, result.Page, result.Size),
	}, ""))
}

// Transition handles POST /applications/:id/transitions
func (c *ApplicationController) Transition(ctx *gin.Context) {
	var req dto.TransitionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	target := models.ApplicationStatus(strings.ToUpper(req.TargetStatus))
	if err := c.authzService.ValidateTransition(ctx.Request.Context(), middleware.Role(ctx), middleware.Actor(ctx), ctx.Param("id"), target); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	event, err := c.admissionService.Transition(ctx.Request.Context(), services.TransitionRequest{
		ApplicationID:  ctx.Param("id"),
		ExpectedStatus: models.ApplicationStatus(strings.ToUpper(req.ExpectedStatus)),
		TargetStatus:   target,
		Actor:          middleware.Actor(ctx),
		Payment:        req.ToPayment(),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromTransitionEvent(event), "Status changed"))
}

// intQuery reads an optional integer query parameter; absent means 0
func intQuery(ctx *gin.Context, name string) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("%s must be a whole number", name)
	}
	return v, nil
}
