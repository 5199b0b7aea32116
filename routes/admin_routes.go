package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/controllers"
	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/repositories"
	"github.com/talentra/hrms_backend/services"
	"github.com/talentra/hrms_backend/utils"
)

// RegisterAdminRoutes sets up the admin-only surface: workflow templates,
// request overrides, audit trails and system configuration
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Database, dispatcher *utils.Dispatcher, configService *services.ConfigService) {
	repo := repositories.NewRequestRepository(db)
	workflowController := controllers.NewWorkflowController(db)
	adminRequestController := controllers.NewAdminRequestController(db, repo, dispatcher)
	configController := controllers.NewConfigController(configService)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireUserType(models.RoleAdmin))

	admin.GET("/workflows", workflowController.ListWorkflows)
	admin.POST("/workflows", workflowController.CreateWorkflow)
	admin.PUT("/workflows/:id", workflowController.UpdateWorkflow)
	admin.DELETE("/workflows/:id", workflowController.DeleteWorkflow)

	admin.POST("/requests/:id/force-approve", adminRequestController.ForceApprove)
	admin.POST("/requests/:id/force-reject", adminRequestController.ForceReject)
	admin.POST("/requests/:id/override", adminRequestController.OverrideDecision)
	admin.GET("/requests/:id/audit-trail", adminRequestController.GetAuditTrail)

	admin.GET("/config", configController.GetConfig)
	admin.PUT("/config", configController.UpdateConfig)
}
