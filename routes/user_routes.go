package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/controllers"
	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
)

// RegisterUserRoutes sets up employee directory and department routes
func RegisterUserRoutes(e *echo.Echo, db *mongo.Database) {
	userController := controllers.NewUserController(db)
	departmentController := controllers.NewDepartmentController(db)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	r.GET("/users/badge-qrcode", userController.GetBadgeQRCode)
	r.GET("/users/:id", userController.GetUser)
	r.GET("/departments", departmentController.ListDepartments)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireUserType(models.RoleAdmin))

	admin.GET("/users", userController.ListUsers)
	admin.POST("/users", userController.CreateUser)
	admin.PUT("/users/:id", userController.UpdateUser)
	admin.DELETE("/users/:id", userController.DeactivateUser)

	admin.POST("/departments", departmentController.CreateDepartment)
	admin.PUT("/departments/:id", departmentController.UpdateDepartment)
	admin.DELETE("/departments/:id", departmentController.DeleteDepartment)
}
