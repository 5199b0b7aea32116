package utils

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/models"
)

// ResolveApprovalFlow translates the active workflow template for a request
// type plus the submitter's org data into the concrete ordered approval
// chain seeded onto a new request. Pure read: no documents are written.
func ResolveApprovalFlow(ctx context.Context, db *mongo.Database, requestType string, submitter *models.User) ([]models.ApprovalStep, error) {
	var workflow models.Workflow
	err := db.Collection("workflows").FindOne(ctx, bson.M{
		"requestType": requestType,
		"isActive":    true,
	}).Decode(&workflow)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNoWorkflowConfigured
		}
		return nil, fmt.Errorf("failed to load workflow for %s: %w", requestType, err)
	}

	flow := make([]models.ApprovalStep, 0, len(workflow.Steps))
	for _, step := range workflow.Steps {
		approver, err := resolveApprover(ctx, db, step, submitter)
		if err != nil {
			return nil, err
		}

		role := step.Role
		if role == "" {
			role = models.RoleApprover
		}

		flow = append(flow, models.ApprovalStep{
			Level:         step.Level,
			ApproverID:    approver.ID,
			ApproverName:  approver.FullName,
			ApproverEmail: approver.Email,
			Role:          role,
			Status:        models.StepPending,
		})
	}

	return flow, nil
}

// resolveApprover finds the concrete user for one template step
func resolveApprover(ctx context.Context, db *mongo.Database, step models.WorkflowStep, submitter *models.User) (*models.User, error) {
	users := db.Collection("users")

	switch step.ApproverType {
	case models.ApproverDirectManager:
		if submitter.ManagerID == nil {
			return nil, models.ErrUnresolvedApprover
		}
		var manager models.User
		if err := users.FindOne(ctx, bson.M{"_id": *submitter.ManagerID}).Decode(&manager); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, models.ErrUnresolvedApprover
			}
			return nil, fmt.Errorf("failed to load manager: %w", err)
		}
		return &manager, nil

	case models.ApproverDepartmentHead:
		if step.DepartmentID == nil {
			return nil, models.ErrUnresolvedApprover
		}
		var department models.Department
		if err := db.Collection("departments").FindOne(ctx, bson.M{"_id": *step.DepartmentID}).Decode(&department); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, models.ErrUnresolvedApprover
			}
			return nil, fmt.Errorf("failed to load department: %w", err)
		}
		if department.ManagerID == nil {
			return nil, models.ErrUnresolvedApprover
		}
		var head models.User
		if err := users.FindOne(ctx, bson.M{"_id": *department.ManagerID}).Decode(&head); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, models.ErrUnresolvedApprover
			}
			return nil, fmt.Errorf("failed to load department head: %w", err)
		}
		return &head, nil

	case models.ApproverSpecificUser:
		if step.UserID == nil {
			return nil, models.ErrUnresolvedApprover
		}
		var user models.User
		if err := users.FindOne(ctx, bson.M{"_id": *step.UserID}).Decode(&user); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, models.ErrUnresolvedApprover
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		return &user, nil
	}

	return nil, models.ErrUnresolvedApprover
}
