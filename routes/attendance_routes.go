package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/controllers"
	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
)

// RegisterAttendanceRoutes sets up the daily attendance routes
func RegisterAttendanceRoutes(e *echo.Echo, db *mongo.Database) {
	attendanceController := controllers.NewAttendanceController(db)

	r := e.Group("/api/attendance")
	r.Use(middleware.JWTMiddleware())

	r.POST("/clock-in", attendanceController.ClockIn)
	r.POST("/clock-out", attendanceController.ClockOut)
	r.GET("/today", attendanceController.GetToday)
	r.GET("/my-history", attendanceController.GetMyHistory)

	admin := e.Group("/api/admin/attendance")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireUserType(models.RoleAdmin))

	admin.GET("/users/:userId", attendanceController.GetUserHistory)
}
