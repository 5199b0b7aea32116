package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/repositories"
	"github.com/talentra/hrms_backend/services"
	"github.com/talentra/hrms_backend/utils"
)

// RequestController handles the employee request lifecycle
type RequestController struct {
	DB         *mongo.Database
	Repo       *repositories.RequestRepository
	Dispatcher *utils.Dispatcher
	Config     *services.ConfigService
}

// NewRequestController creates a new request controller
func NewRequestController(db *mongo.Database, repo *repositories.RequestRepository, dispatcher *utils.Dispatcher, config *services.ConfigService) *RequestController {
	return &RequestController{DB: db, Repo: repo, Dispatcher: dispatcher, Config: config}
}

// CreateRequest submits a new request. The approval chain is resolved from
// the active workflow template at submission time and the SLA deadline is
// fixed here; neither changes for the life of the request.
func (rc *RequestController) CreateRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var input models.CreateRequestInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&input); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}
	if !models.ValidRequestType(input.Type) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown request type: " + input.Type,
		})
	}

	submitter, err := utils.GetCurrentUser(c, rc.DB)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Failed to identify submitter",
		})
	}

	flow, err := utils.ResolveApprovalFlow(ctx, rc.DB, input.Type, submitter)
	if err != nil {
		switch err {
		case models.ErrNoWorkflowConfigured:
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "No active workflow is configured for this request type",
			})
		case models.ErrUnresolvedApprover:
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "An approval step could not be resolved to a concrete approver",
			})
		}
		log.Printf("Failed to resolve approval flow: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve approval flow",
		})
	}

	cfg, err := rc.Config.Get(ctx)
	if err != nil {
		log.Printf("Failed to load system config, using defaults: %v", err)
		cfg = models.DefaultSystemConfig()
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	now := time.Now()
	request := models.Request{
		ID:            primitive.NewObjectID(),
		RequestNumber: newRequestNumber(now),
		Type:          input.Type,
		Subject:       input.Subject,
		Reason:        input.Reason,
		Priority:      priority,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Hours:         input.Hours,
		Attachments:   input.Attachments,
		SubmitterID:   submitter.ID,
		SubmitterName: submitter.FullName,
		Status:        models.StatusPending,
		ApprovalFlow:  flow,
		SLA: &models.SLAInfo{
			Deadline:      now.Add(time.Duration(cfg.SLA.DeadlineHours) * time.Hour),
			RemindersSent: []models.SLAReminder{},
		},
		SentAt:    now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := rc.Repo.Insert(ctx, &request); err != nil {
		log.Printf("Failed to insert request: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create request",
		})
	}

	rc.notifyGatedApprovers(ctx, &request, "A new request is awaiting your approval")
	rc.notifyObservers(ctx, &request)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Request created successfully",
		Data:    request,
	})
}

// GetMyRequests lists the caller's own requests, newest first
func (rc *RequestController) GetMyRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID",
		})
	}

	cursor, err := rc.DB.Collection("requests").Find(ctx, bson.M{
		"submitterId":            userID,
		"senderStatus.isDeleted": bson.M{"$ne": true},
	}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve requests",
		})
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Requests retrieved successfully",
		Data:    requests,
	})
}

// GetPendingApprovals lists open requests where it is the caller's turn
func (rc *RequestController) GetPendingApprovals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID",
		})
	}

	cursor, err := rc.DB.Collection("requests").Find(ctx, bson.M{
		"status": bson.M{"$in": []string{models.StatusPending, models.StatusManagerApproved}},
		"approvalFlow": bson.M{"$elemMatch": bson.M{
			"approverId": userID,
			"role":       models.RoleApprover,
			"status":     models.StepPending,
		}},
	}, options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve pending approvals",
		})
	}
	defer cursor.Close(ctx)

	var candidates []models.Request
	if err := cursor.All(ctx, &candidates); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode requests",
		})
	}

	// Keep only requests where the caller is actually gated to act
	actionable := make([]models.Request, 0, len(candidates))
	for i := range candidates {
		if utils.IsUserTurn(&candidates[i], userID) {
			actionable = append(actionable, candidates[i])
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending approvals retrieved successfully",
		Data:    actionable,
	})
}

// GetRequest retrieves one request. Visible to the submitter, anyone in the
// approval chain, and admins.
func (rc *RequestController) GetRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, httpErr := rc.loadRequest(ctx, c)
	if httpErr != nil {
		return httpErr
	}

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID",
		})
	}

	if !rc.canView(c, request, userID) {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not allowed to view this request",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Request retrieved successfully",
		Data:    request,
	})
}

// ApproveRequest records the caller's approval on their gated step
func (rc *RequestController) ApproveRequest(c echo.Context) error {
	return rc.mutateRequest(c, func(req *models.Request, userID primitive.ObjectID, input models.ActionInput, now time.Time) error {
		return utils.ApplyApprove(req, userID, input.Comment, now)
	}, rc.afterApprove)
}

// RejectRequest records the caller's rejection and finalizes the request
func (rc *RequestController) RejectRequest(c echo.Context) error {
	return rc.mutateRequest(c, func(req *models.Request, userID primitive.ObjectID, input models.ActionInput, now time.Time) error {
		reason := input.Reason
		if reason == "" {
			reason = input.Comment
		}
		return utils.ApplyReject(req, userID, reason, now)
	}, rc.afterReject)
}

// RequestChanges flags the request back to its submitter for edits
func (rc *RequestController) RequestChanges(c echo.Context) error {
	return rc.mutateRequest(c, func(req *models.Request, userID primitive.ObjectID, input models.ActionInput, now time.Time) error {
		return utils.ApplyRequestChanges(req, userID, input.Comment, now)
	}, rc.afterRequestChanges)
}

// ResubmitRequest returns an edited NeedsReview request to its approver
func (rc *RequestController) ResubmitRequest(c echo.Context) error {
	return rc.mutateRequest(c, func(req *models.Request, userID primitive.ObjectID, input models.ActionInput, now time.Time) error {
		return utils.ApplyResubmit(req, userID, now)
	}, func(ctx context.Context, req *models.Request) {
		rc.notifyGatedApprovers(ctx, req, "A revised request is awaiting your approval")
	})
}

// CancelRequest withdraws the caller's own request
func (rc *RequestController) CancelRequest(c echo.Context) error {
	return rc.mutateRequest(c, func(req *models.Request, userID primitive.ObjectID, input models.ActionInput, now time.Time) error {
		reason := input.Reason
		if reason == "" {
			reason = input.Comment
		}
		return utils.ApplyCancel(req, userID, reason, now)
	}, func(ctx context.Context, req *models.Request) {
		for _, step := range req.ApprovalFlow {
			if step.Status == models.StepPending && step.Role == models.RoleApprover {
				rc.notifyUser(ctx, step.ApproverID, "Request cancelled",
					fmt.Sprintf("Request %s was cancelled by %s", req.RequestNumber, req.SubmitterName), req)
			}
		}
	})
}

// mutateRequest is the shared read-mutate-commit path for every approval
// action. The pure mutation re-derives the turn predicate itself; the
// versioned write rejects a racing update so a stale client can never land
// an out-of-order decision.
func (rc *RequestController) mutateRequest(c echo.Context,
	mutate func(*models.Request, primitive.ObjectID, models.ActionInput, time.Time) error,
	after func(context.Context, *models.Request)) error {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID",
		})
	}

	var input models.ActionInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	request, httpErr := rc.loadRequest(ctx, c)
	if httpErr != nil {
		return httpErr
	}

	readVersion := request.Version
	if err := mutate(request, userID, input, time.Now()); err != nil {
		return rc.actionError(c, err)
	}

	if err := rc.Repo.ReplaceWithVersion(ctx, request, readVersion); err != nil {
		if err == repositories.ErrStaleRequest {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "The request was updated by someone else; reload and try again",
			})
		}
		log.Printf("Failed to commit request mutation: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update request",
		})
	}

	if after != nil {
		after(ctx, request)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Request updated successfully",
		Data:    request,
	})
}

func (rc *RequestController) afterApprove(ctx context.Context, req *models.Request) {
	switch req.Status {
	case models.StatusApproved:
		rc.notifyUser(ctx, req.SubmitterID, "Request approved",
			fmt.Sprintf("Your request %s has been fully approved", req.RequestNumber), req)
	case models.StatusManagerApproved:
		rc.notifyGatedApprovers(ctx, req, "A request is awaiting your approval")
	}
}

func (rc *RequestController) afterReject(ctx context.Context, req *models.Request) {
	reason := ""
	for _, step := range req.ApprovalFlow {
		if step.Status == models.StepRejected {
			reason = step.Comment
		}
	}
	rc.notifyUser(ctx, req.SubmitterID, "Request rejected",
		fmt.Sprintf("Your request %s was rejected: %s", req.RequestNumber, reason), req)
}

func (rc *RequestController) afterRequestChanges(ctx context.Context, req *models.Request) {
	comment := ""
	for _, step := range req.ApprovalFlow {
		if step.Status == models.StepNeedsReview {
			comment = step.Comment
		}
	}
	rc.notifyUser(ctx, req.SubmitterID, "Changes requested",
		fmt.Sprintf("Your request %s needs changes: %s", req.RequestNumber, comment), req)
}

// notifyGatedApprovers informs whoever is currently gated to act
func (rc *RequestController) notifyGatedApprovers(ctx context.Context, req *models.Request, title string) {
	for _, step := range utils.PendingApprovers(req) {
		rc.notifyUser(ctx, step.ApproverID, title,
			fmt.Sprintf("Request %s (%s) from %s is waiting for your decision", req.RequestNumber, req.Subject, req.SubmitterName), req)
		if step.ApproverEmail != "" {
			body := fmt.Sprintf("Request %s (%s) from %s is waiting for your decision in the HR portal.",
				req.RequestNumber, req.Subject, req.SubmitterName)
			if err := utils.SendEmail([]string{step.ApproverEmail}, title, body); err != nil {
				log.Printf("Failed to email approver %s: %v", step.ApproverEmail, err)
			}
		}
	}
}

// notifyObservers informs Notified-role entries once at submission
func (rc *RequestController) notifyObservers(ctx context.Context, req *models.Request) {
	for _, step := range req.ApprovalFlow {
		if step.Role == models.RoleNotified {
			rc.notifyUser(ctx, step.ApproverID, "New request submitted",
				fmt.Sprintf("Request %s (%s) was submitted by %s", req.RequestNumber, req.Subject, req.SubmitterName), req)
		}
	}
}

func (rc *RequestController) notifyUser(ctx context.Context, userID primitive.ObjectID, title, message string, req *models.Request) {
	if err := rc.Dispatcher.NotifyUser(ctx, userID, title, message, "request_update", map[string]interface{}{
		"requestId":     req.ID.Hex(),
		"requestNumber": req.RequestNumber,
		"status":        req.Status,
	}); err != nil {
		log.Printf("Failed to notify user %s about %s: %v", userID.Hex(), req.RequestNumber, err)
	}
}

// loadRequest fetches the request named in the path, mapping not-found
func (rc *RequestController) loadRequest(ctx context.Context, c echo.Context) (*models.Request, error) {
	requestID := c.Param("id")
	objectID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID format",
		})
	}

	request, err := rc.Repo.FindByID(ctx, objectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Request not found",
			})
		}
		return nil, c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load request",
		})
	}
	return request, nil
}

func (rc *RequestController) canView(c echo.Context, req *models.Request, userID primitive.ObjectID) bool {
	if req.SubmitterID == userID {
		return true
	}
	for _, step := range req.ApprovalFlow {
		if step.ApproverID == userID {
			return true
		}
	}
	return middleware.ExtractUserType(c) == models.RoleAdmin
}

// actionError maps domain errors onto HTTP responses
func (rc *RequestController) actionError(c echo.Context, err error) error {
	switch err {
	case models.ErrNotYourTurn:
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "It is not your turn to act on this request",
		})
	case models.ErrNotAuthorized:
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not authorized to perform this action",
		})
	case models.ErrRequestAlreadyFinalized:
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "This request has already been finalized",
		})
	case models.ErrRequestNotPending:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "This request is not in a state that allows the action",
		})
	case models.ErrMissingReason:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A non-empty reason or comment is required",
		})
	}
	log.Printf("Unexpected action error: %v", err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Failed to apply action",
	})
}

// newRequestNumber builds a human-readable identifier like REQ-2026-4F2A9C1B
func newRequestNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("REQ-%d-%s", now.Year(), suffix)
}
