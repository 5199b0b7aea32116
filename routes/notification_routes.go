package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/controllers"
	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/utils"
	"github.com/talentra/hrms_backend/websocket"
)

// RegisterNotificationRoutes sets up the notification feed and the
// WebSocket endpoint that delivers live pushes
func RegisterNotificationRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub) {
	notificationController := controllers.NewNotificationController(db)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	r.GET("/notifications", notificationController.GetNotifications)
	r.GET("/notifications/unread-count", notificationController.GetUnreadCount)
	r.PUT("/notifications/:id/read", notificationController.MarkAsRead)
	r.PUT("/notifications/read-all", notificationController.MarkAllAsRead)

	r.GET("/ws", func(c echo.Context) error {
		userID, err := utils.GetUserIDFromToken(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		return websocket.HandleWebSocket(c, hub, userID)
	})
}
