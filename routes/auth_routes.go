package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/talentra/hrms_backend/controllers"
	"github.com/talentra/hrms_backend/middleware"
)

// RegisterAuthRoutes sets up authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	auth := e.Group("/api/auth")
	auth.POST("/login", authController.Login)
	auth.GET("/validate-token", authController.ValidateToken)

	protected := e.Group("/api/auth")
	protected.Use(middleware.JWTMiddleware())
	protected.GET("/me", authController.Me)
}
