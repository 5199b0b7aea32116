package controllers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentra/hrms_backend/models"
)

func TestValidateWorkflowSteps(t *testing.T) {
	deptID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	tests := []struct {
		name    string
		steps   []models.WorkflowStep
		wantErr bool
	}{
		{
			name:    "empty workflow",
			steps:   nil,
			wantErr: true,
		},
		{
			name: "classic manager then admin chain",
			steps: []models.WorkflowStep{
				{Level: 1, ApproverType: models.ApproverDirectManager, Role: models.RoleApprover},
				{Level: 2, ApproverType: models.ApproverSpecificUser, UserID: &userID, Role: models.RoleApprover},
			},
			wantErr: false,
		},
		{
			name: "co-approvers share a level",
			steps: []models.WorkflowStep{
				{Level: 1, ApproverType: models.ApproverDirectManager, Role: models.RoleApprover},
				{Level: 1, ApproverType: models.ApproverDepartmentHead, DepartmentID: &deptID, Role: models.RoleApprover},
			},
			wantErr: false,
		},
		{
			name: "descending levels rejected",
			steps: []models.WorkflowStep{
				{Level: 2, ApproverType: models.ApproverDirectManager, Role: models.RoleApprover},
				{Level: 1, ApproverType: models.ApproverSpecificUser, UserID: &userID, Role: models.RoleApprover},
			},
			wantErr: true,
		},
		{
			name: "zero level rejected",
			steps: []models.WorkflowStep{
				{Level: 0, ApproverType: models.ApproverDirectManager, Role: models.RoleApprover},
			},
			wantErr: true,
		},
		{
			name: "department head without department",
			steps: []models.WorkflowStep{
				{Level: 1, ApproverType: models.ApproverDepartmentHead, Role: models.RoleApprover},
			},
			wantErr: true,
		},
		{
			name: "specific user without user",
			steps: []models.WorkflowStep{
				{Level: 1, ApproverType: models.ApproverSpecificUser, Role: models.RoleApprover},
			},
			wantErr: true,
		},
		{
			name: "unknown approver type",
			steps: []models.WorkflowStep{
				{Level: 1, ApproverType: "COIN_FLIP", Role: models.RoleApprover},
			},
			wantErr: true,
		},
		{
			name: "unknown role",
			steps: []models.WorkflowStep{
				{Level: 1, ApproverType: models.ApproverDirectManager, Role: "Observer"},
			},
			wantErr: true,
		},
		{
			name: "reviewer and notified roles allowed",
			steps: []models.WorkflowStep{
				{Level: 1, ApproverType: models.ApproverDirectManager, Role: models.RoleApprover},
				{Level: 1, ApproverType: models.ApproverSpecificUser, UserID: &userID, Role: models.RoleReviewer},
				{Level: 2, ApproverType: models.ApproverSpecificUser, UserID: &userID, Role: models.RoleNotified},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWorkflowSteps(tt.steps)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateWorkflowSteps() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
