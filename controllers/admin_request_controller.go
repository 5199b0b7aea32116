package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/repositories"
	"github.com/talentra/hrms_backend/utils"
)

// AdminRequestController handles administrative overrides of the normal
// approval flow. Every override bypasses turn gating, requires a comment,
// and lands in the request's audit list.
type AdminRequestController struct {
	DB         *mongo.Database
	Repo       *repositories.RequestRepository
	Dispatcher *utils.Dispatcher
}

// NewAdminRequestController creates a new admin request controller
func NewAdminRequestController(db *mongo.Database, repo *repositories.RequestRepository, dispatcher *utils.Dispatcher) *AdminRequestController {
	return &AdminRequestController{DB: db, Repo: repo, Dispatcher: dispatcher}
}

// ForceApprove immediately approves the request regardless of turn order
func (ac *AdminRequestController) ForceApprove(c echo.Context) error {
	return ac.override(c, utils.OverrideForceApprove, "Request force-approved by an administrator")
}

// ForceReject immediately rejects the request regardless of turn order
func (ac *AdminRequestController) ForceReject(c echo.Context) error {
	return ac.override(c, utils.OverrideForceReject, "Request force-rejected by an administrator")
}

// OverrideDecision reopens an already finalized request for a fresh pass
func (ac *AdminRequestController) OverrideDecision(c echo.Context) error {
	return ac.override(c, utils.OverrideReopen, "A finalized decision on your request was reopened by an administrator")
}

func (ac *AdminRequestController) override(c echo.Context, action, submitterMessage string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := utils.GetCurrentUser(c, ac.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Failed to identify administrator",
		})
	}

	var input models.OverrideInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&input); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "An audit comment is required for every override",
		})
	}

	requestID := c.Param("id")
	objectID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID format",
		})
	}

	request, err := ac.Repo.FindByID(ctx, objectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Request not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load request",
		})
	}

	readVersion := request.Version
	if err := utils.ApplyOverride(request, admin.ID, admin.FullName, action, input.Comment, time.Now()); err != nil {
		switch err {
		case models.ErrMissingReason:
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "An audit comment is required for every override",
			})
		case models.ErrRequestNotPending:
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "This request cannot be overridden from its current state",
			})
		}
		log.Printf("Override failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to apply override",
		})
	}

	if err := ac.Repo.ReplaceWithVersion(ctx, request, readVersion); err != nil {
		if err == repositories.ErrStaleRequest {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "The request was updated by someone else; reload and try again",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update request",
		})
	}

	if err := ac.Dispatcher.NotifyUser(ctx, request.SubmitterID,
		fmt.Sprintf("Request %s updated by administration", request.RequestNumber),
		submitterMessage, "admin_override", map[string]interface{}{
			"requestId":     request.ID.Hex(),
			"requestNumber": request.RequestNumber,
			"status":        request.Status,
		}); err != nil {
		log.Printf("Failed to notify submitter of override: %v", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Override %s applied successfully", action),
		Data:    request,
	})
}

// GetAuditTrail returns the override history of a request
func (ac *AdminRequestController) GetAuditTrail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID format",
		})
	}

	var request models.Request
	err = ac.DB.Collection("requests").FindOne(ctx, bson.M{"_id": objectID}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Request not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load request",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Audit trail retrieved successfully",
		Data: map[string]interface{}{
			"requestNumber": request.RequestNumber,
			"status":        request.Status,
			"overrides":     request.Overrides,
		},
	})
}
