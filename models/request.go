package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request types
const (
	RequestTypeLeave        = "Leave"
	RequestTypeOvertime     = "Overtime"
	RequestTypeRemoteWork   = "RemoteWork"
	RequestTypeResignation  = "Resignation"
	RequestTypeBusinessTrip = "BusinessTrip"
	RequestTypeEquipment    = "Equipment"
	RequestTypeITSupport    = "ITSupport"
	RequestTypeHRDocument   = "HRDocument"
	RequestTypeExpense      = "Expense"
	RequestTypeOther        = "Other"
)

// Overall request statuses
const (
	StatusPending         = "Pending"
	StatusNeedsReview     = "NeedsReview"
	StatusManagerApproved = "Manager_Approved"
	StatusApproved        = "Approved"
	StatusRejected        = "Rejected"
	StatusCancelled       = "Cancelled"
	StatusCompleted       = "Completed"
)

// Per-step statuses
const (
	StepPending     = "Pending"
	StepApproved    = "Approved"
	StepRejected    = "Rejected"
	StepNeedsReview = "NeedsReview"
)

// Approval step roles. Only "Approver" entries gate progression.
const (
	RoleApprover = "Approver"
	RoleReviewer = "Reviewer"
	RoleNotified = "Notified"
)

// Request priorities
const (
	PriorityLow    = "Low"
	PriorityNormal = "Normal"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

// Domain errors surfaced to handlers
var (
	ErrNotYourTurn             = errors.New("not your turn to act on this request")
	ErrRequestNotPending       = errors.New("request is not in an actionable state")
	ErrRequestAlreadyFinalized = errors.New("request has already been finalized")
	ErrMissingReason           = errors.New("a reason is required for this action")
	ErrNoWorkflowConfigured    = errors.New("no active workflow configured for this request type")
	ErrUnresolvedApprover      = errors.New("workflow step cannot be resolved to a concrete approver")
	ErrNotAuthorized           = errors.New("you are not authorized to perform this action")
)

// Attachment is a file attached to a request
type Attachment struct {
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
	Size int64  `json:"size" bson:"size"`
	Type string `json:"type" bson:"type"`
}

// ApprovalStep is one entry in a request's ordered approval chain.
// A numeric level groups possibly-parallel approvers.
type ApprovalStep struct {
	Level         int                `json:"level" bson:"level"`
	ApproverID    primitive.ObjectID `json:"approverId" bson:"approverId"`
	ApproverName  string             `json:"approverName" bson:"approverName"`
	ApproverEmail string             `json:"approverEmail" bson:"approverEmail"`
	Role          string             `json:"role" bson:"role"`
	Status        string             `json:"status" bson:"status"`
	Comment       string             `json:"comment,omitempty" bson:"comment,omitempty"`
	ApprovedAt    *time.Time         `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	IsRead        bool               `json:"isRead" bson:"isRead"`
}

// SenderStatus holds submitter-local flags. It never affects the
// approver-visible status of the request.
type SenderStatus struct {
	IsDraft      bool       `json:"isDraft" bson:"isDraft"`
	IsStarred    bool       `json:"isStarred" bson:"isStarred"`
	IsDeleted    bool       `json:"isDeleted" bson:"isDeleted"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	CancelReason string     `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`
}

// SLAReminder records a reminder that has already been sent, keyed by type
// so each reminder fires at most once per request.
type SLAReminder struct {
	Type       string    `json:"type" bson:"type"` // "24h", "36h", "overdue"
	SentAt     time.Time `json:"sentAt" bson:"sentAt"`
	Recipients []string  `json:"recipients" bson:"recipients"`
}

// SLAInfo tracks the deadline and escalation state of a request
type SLAInfo struct {
	Deadline         time.Time           `json:"deadline" bson:"deadline"`
	IsOverdue        bool                `json:"isOverdue" bson:"isOverdue"`
	OverdueHours     int                 `json:"overdueHours" bson:"overdueHours"`
	RemindersSent    []SLAReminder       `json:"remindersSent" bson:"remindersSent"`
	EscalatedTo      *primitive.ObjectID `json:"escalatedTo,omitempty" bson:"escalatedTo,omitempty"`
	EscalatedAt      *time.Time          `json:"escalatedAt,omitempty" bson:"escalatedAt,omitempty"`
	EscalationReason string              `json:"escalationReason,omitempty" bson:"escalationReason,omitempty"`
}

// OverrideEntry is one administrative override, kept in an audit list
// distinct from the normal approvalFlow entries.
type OverrideEntry struct {
	AdminID        primitive.ObjectID `json:"adminId" bson:"adminId"`
	AdminName      string             `json:"adminName" bson:"adminName"`
	Action         string             `json:"action" bson:"action"` // "force-approve", "force-reject", "reopen"
	Comment        string             `json:"comment" bson:"comment"`
	PreviousStatus string             `json:"previousStatus" bson:"previousStatus"`
	OverriddenAt   time.Time          `json:"overriddenAt" bson:"overriddenAt"`
}

// Request represents a single employee request moving through its
// approval chain.
type Request struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	RequestNumber string             `json:"requestNumber" bson:"requestNumber"`
	Type          string             `json:"type" bson:"type"`
	Subject       string             `json:"subject" bson:"subject"`
	Reason        string             `json:"reason" bson:"reason"`
	Priority      string             `json:"priority" bson:"priority"`
	StartDate     *time.Time         `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate       *time.Time         `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Hours         float64            `json:"hours,omitempty" bson:"hours,omitempty"`
	Attachments   []Attachment       `json:"attachments,omitempty" bson:"attachments,omitempty"`
	SubmitterID   primitive.ObjectID `json:"submitterId" bson:"submitterId"`
	SubmitterName string             `json:"submitterName" bson:"submitterName"`
	Status        string             `json:"status" bson:"status"`
	ApprovalFlow  []ApprovalStep     `json:"approvalFlow" bson:"approvalFlow"`
	SenderStatus  SenderStatus       `json:"senderStatus" bson:"senderStatus"`
	SLA           *SLAInfo           `json:"sla,omitempty" bson:"sla,omitempty"`
	Overrides     []OverrideEntry    `json:"overrides,omitempty" bson:"overrides,omitempty"`
	Version       int64              `json:"version" bson:"version"`
	SentAt        time.Time          `json:"sentAt" bson:"sentAt"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IsFinalized reports whether the request is in a terminal status
func (r *Request) IsFinalized() bool {
	switch r.Status {
	case StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ValidRequestType reports whether t is one of the known request types
func ValidRequestType(t string) bool {
	switch t {
	case RequestTypeLeave, RequestTypeOvertime, RequestTypeRemoteWork,
		RequestTypeResignation, RequestTypeBusinessTrip, RequestTypeEquipment,
		RequestTypeITSupport, RequestTypeHRDocument, RequestTypeExpense,
		RequestTypeOther:
		return true
	}
	return false
}

// CreateRequestInput is the request body for submitting a new request
type CreateRequestInput struct {
	Type        string       `json:"type" validate:"required"`
	Subject     string       `json:"subject" validate:"required"`
	Reason      string       `json:"reason"`
	Priority    string       `json:"priority"`
	StartDate   *time.Time   `json:"startDate"`
	EndDate     *time.Time   `json:"endDate"`
	Hours       float64      `json:"hours"`
	Attachments []Attachment `json:"attachments"`
}

// ActionInput is the request body for approve/reject/request-changes/cancel
type ActionInput struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

// OverrideInput is the request body for administrative override actions
type OverrideInput struct {
	Comment string `json:"comment" validate:"required"`
}
