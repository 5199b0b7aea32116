package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/controllers"
	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/repositories"
	"github.com/talentra/hrms_backend/services"
	"github.com/talentra/hrms_backend/utils"
)

// RegisterRequestRoutes sets up the approval request lifecycle routes
func RegisterRequestRoutes(e *echo.Echo, db *mongo.Database, dispatcher *utils.Dispatcher, configService *services.ConfigService) {
	repo := repositories.NewRequestRepository(db)
	requestController := controllers.NewRequestController(db, repo, dispatcher, configService)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	r.POST("/requests", requestController.CreateRequest)
	r.GET("/requests/my", requestController.GetMyRequests)
	r.GET("/requests/pending-approvals", requestController.GetPendingApprovals)
	r.GET("/requests/:id", requestController.GetRequest)

	r.POST("/requests/:id/approve", requestController.ApproveRequest)
	r.POST("/requests/:id/reject", requestController.RejectRequest)
	r.POST("/requests/:id/request-changes", requestController.RequestChanges)
	r.POST("/requests/:id/resubmit", requestController.ResubmitRequest)
	r.POST("/requests/:id/cancel", requestController.CancelRequest)
}
