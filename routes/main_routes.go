package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/controllers"
	"github.com/talentra/hrms_backend/services"
	"github.com/talentra/hrms_backend/utils"
	"github.com/talentra/hrms_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route
// registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub, dispatcher *utils.Dispatcher, configService *services.ConfigService) {
	authController := controllers.NewAuthController(db)

	RegisterAuthRoutes(e, authController)
	RegisterUserRoutes(e, db)
	RegisterRequestRoutes(e, db, dispatcher, configService)
	RegisterAttendanceRoutes(e, db)
	RegisterNotificationRoutes(e, db, hub)
	RegisterAdminRoutes(e, db, dispatcher, configService)
}
