package routes

import (
	"github.com/gin-gonic/gin"

	appAuth "github.com/yigit/admissions/internal/app/auth"
	"github.com/yigit/admissions/internal/app/controllers"
	"github.com/yigit/admissions/internal/middleware"
	"github.com/yigit/admissions/internal/pkg/websocket"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Applications  *controllers.ApplicationController
	Letters       *controllers.LetterController
	Notifications *controllers.NotificationController
	Tuition       *controllers.TuitionController
	// Events serves the live transition feed; nil leaves it unmounted
	Events *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, actorMiddleware *middleware.ActorMiddleware, authz *appAuth.AuthorizationService) {
	v1 := router.Group("/api/v1")

	// --- Read-only routes ---
	v1.GET("/tuition/quote", c.Tuition.Quote)
	if c.Events != nil {
		v1.GET("/events/ws", c.Events.HandleConnection)
	}

	applications := v1.Group("/applications")
	{
		applications.GET("", c.Applications.List)
		applications.GET("/:id", c.Applications.GetByID)
		applications.GET("/:id/letters", c.Letters.List)
	}

	// --- Mutations name an actor ---
	mutations := applications.Group("")
	mutations.Use(actorMiddleware.RequireActor())
	{
		mutations.POST("", c.Applications.Submit)
		// role checks depend on the requested target status
		mutations.POST("/:id/transitions", c.Applications.Transition)
	}

	staff := mutations.Group("")
	staff.Use(actorMiddleware.RequireStaff(authz))
	{
		staff.POST("/:id/letters/:type", c.Letters.Ensure)
		staff.POST("/:id/notifications", c.Notifications.Resend)
	}
}
