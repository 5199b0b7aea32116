package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Approver resolution strategies for a workflow step
const (
	ApproverDirectManager  = "DIRECT_MANAGER"
	ApproverDepartmentHead = "SPECIFIC_DEPARTMENT_HEAD"
	ApproverSpecificUser   = "SPECIFIC_USER"
)

// WorkflowStep is one template step. How the concrete approver is found
// depends on ApproverType: the submitter's own manager, the head of a
// named department, or a fixed user.
type WorkflowStep struct {
	Level        int                 `json:"level" bson:"level"`
	ApproverType string              `json:"approverType" bson:"approverType"`
	DepartmentID *primitive.ObjectID `json:"departmentId,omitempty" bson:"departmentId,omitempty"`
	UserID       *primitive.ObjectID `json:"userId,omitempty" bson:"userId,omitempty"`
	Role         string              `json:"role" bson:"role"`
}

// Workflow maps a request type to an ordered template of approval steps.
// It is used only to seed a new request's approvalFlow and is never
// mutated by approvals.
type Workflow struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	RequestType string             `json:"requestType" bson:"requestType"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	Steps       []WorkflowStep     `json:"steps" bson:"steps"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
