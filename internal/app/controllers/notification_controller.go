package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/admissions/internal/app/models/dto"
	"github.com/yigit/admissions/internal/app/services"
	"github.com/yigit/admissions/internal/middleware"
)

// NotificationController lets staff repeat a failed applicant notification
type NotificationController struct {
	notificationService services.NotificationService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService) *NotificationController {
	return &NotificationController{notificationService: notificationService}
}

// Resend handles POST /applications/:id/notifications
func (c *NotificationController) Resend(ctx *gin.Context) {
	receipt, err := c.notificationService.ResendStatusNotification(ctx.Request.Context(), ctx.Param("id"), middleware.Actor(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(dto.NotificationResponse{MessageID: receipt.ID}, "Notification sent"))
}
