package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/models"
)

// WorkflowController manages the approval workflow templates. Templates
// are configuration: changing one affects future requests only, never the
// chains already seeded onto existing requests.
type WorkflowController struct {
	DB *mongo.Database
}

// NewWorkflowController creates a new workflow controller
func NewWorkflowController(db *mongo.Database) *WorkflowController {
	return &WorkflowController{DB: db}
}

// ListWorkflows returns all workflow templates
func (wc *WorkflowController) ListWorkflows(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := wc.DB.Collection("workflows").Find(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve workflows",
		})
	}
	defer cursor.Close(ctx)

	var workflows []models.Workflow
	if err := cursor.All(ctx, &workflows); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode workflows",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Workflows retrieved successfully",
		Data:    workflows,
	})
}

// CreateWorkflow stores a new workflow template. Activating it deactivates
// any previous template for the same request type so the resolver always
// sees at most one active workflow per type.
func (wc *WorkflowController) CreateWorkflow(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var workflow models.Workflow
	if err := c.Bind(&workflow); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if !models.ValidRequestType(workflow.RequestType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown request type: " + workflow.RequestType,
		})
	}
	if err := validateWorkflowSteps(workflow.Steps); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	workflow.ID = primitive.NewObjectID()
	workflow.CreatedAt = time.Now()
	workflow.UpdatedAt = workflow.CreatedAt

	if workflow.IsActive {
		if err := wc.deactivateOthers(ctx, workflow.RequestType, primitive.NilObjectID); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to deactivate previous workflow",
			})
		}
	}

	if _, err := wc.DB.Collection("workflows").InsertOne(ctx, workflow); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create workflow",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Workflow created successfully",
		Data:    workflow,
	})
}

// UpdateWorkflow replaces a workflow template
func (wc *WorkflowController) UpdateWorkflow(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid workflow ID format",
		})
	}

	var workflow models.Workflow
	if err := c.Bind(&workflow); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validateWorkflowSteps(workflow.Steps); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	if workflow.IsActive {
		if err := wc.deactivateOthers(ctx, workflow.RequestType, objectID); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to deactivate previous workflow",
			})
		}
	}

	update := bson.M{"$set": bson.M{
		"name":        workflow.Name,
		"requestType": workflow.RequestType,
		"isActive":    workflow.IsActive,
		"steps":       workflow.Steps,
		"updatedAt":   time.Now(),
	}}

	result, err := wc.DB.Collection("workflows").UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update workflow",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Workflow not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Workflow updated successfully",
	})
}

// DeleteWorkflow removes a workflow template
func (wc *WorkflowController) DeleteWorkflow(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid workflow ID format",
		})
	}

	result, err := wc.DB.Collection("workflows").DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete workflow",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Workflow not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Workflow deleted successfully",
	})
}

func (wc *WorkflowController) deactivateOthers(ctx context.Context, requestType string, excludeID primitive.ObjectID) error {
	filter := bson.M{"requestType": requestType, "isActive": true}
	if excludeID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	_, err := wc.DB.Collection("workflows").UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isActive": false}})
	return err
}

// validateWorkflowSteps checks levels ascend from 1 and every step names a
// usable resolution strategy
func validateWorkflowSteps(steps []models.WorkflowStep) error {
	if len(steps) == 0 {
		return errors.New("a workflow needs at least one step")
	}
	lastLevel := 0
	for _, step := range steps {
		if step.Level < 1 || step.Level < lastLevel {
			return errors.New("step levels must be positive and ascending")
		}
		lastLevel = step.Level
		switch step.ApproverType {
		case models.ApproverDirectManager:
		case models.ApproverDepartmentHead:
			if step.DepartmentID == nil {
				return errors.New("department head steps need a departmentId")
			}
		case models.ApproverSpecificUser:
			if step.UserID == nil {
				return errors.New("specific user steps need a userId")
			}
		default:
			return errors.New("unknown approver type: " + step.ApproverType)
		}
		switch step.Role {
		case "", models.RoleApprover, models.RoleReviewer, models.RoleNotified:
		default:
			return errors.New("unknown step role: " + step.Role)
		}
	}
	return nil
}
