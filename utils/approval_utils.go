package utils

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentra/hrms_backend/models"
)

// Override actions recorded in the audit list
const (
	OverrideForceApprove = "force-approve"
	OverrideForceReject  = "force-reject"
	OverrideReopen       = "reopen"
)

// Turn order is computed from the per-step statuses rather than stored in a
// separate pointer field, so the flow array is the single source of truth.
// Chains are short (typically no more than 5 levels) so the scan is cheap.

// levelCleared reports whether every Approver-role step at exactly the given
// level is Approved. Reviewer and Notified entries never gate progression.
func levelCleared(flow []models.ApprovalStep, level int) bool {
	for _, step := range flow {
		if step.Level == level && step.Role == models.RoleApprover && step.Status != models.StepApproved {
			return false
		}
	}
	return true
}

// lowerLevelsCleared reports whether every Approver-role step at a level
// strictly below the given one is Approved.
func lowerLevelsCleared(flow []models.ApprovalStep, level int) bool {
	for _, step := range flow {
		if step.Level < level && step.Role == models.RoleApprover && step.Status != models.StepApproved {
			return false
		}
	}
	return true
}

// CurrentActionableLevel returns the level whose Approver steps are gated to
// act now, or 0 when no level is actionable. At most one level can satisfy
// the predicate at a time.
func CurrentActionableLevel(flow []models.ApprovalStep) int {
	for _, step := range flow {
		if step.Role != models.RoleApprover || step.Status != models.StepPending {
			continue
		}
		if lowerLevelsCleared(flow, step.Level) {
			return step.Level
		}
	}
	return 0
}

// IsUserTurn reports whether userID holds a Pending Approver-role step whose
// lower Approver levels are all Approved. This predicate is re-derived
// server-side on every action; client state is never trusted.
func IsUserTurn(req *models.Request, userID primitive.ObjectID) bool {
	if req.IsFinalized() {
		return false
	}
	for _, step := range req.ApprovalFlow {
		if step.ApproverID != userID || step.Role != models.RoleApprover {
			continue
		}
		if step.Status == models.StepPending && lowerLevelsCleared(req.ApprovalFlow, step.Level) {
			return true
		}
	}
	return false
}

// PendingApprovers returns the steps that are actionable right now. Multiple
// entries mean co-approvers sharing the current level.
func PendingApprovers(req *models.Request) []models.ApprovalStep {
	level := CurrentActionableLevel(req.ApprovalFlow)
	if level == 0 {
		return nil
	}
	var steps []models.ApprovalStep
	for _, step := range req.ApprovalFlow {
		if step.Level == level && step.Role == models.RoleApprover && step.Status == models.StepPending {
			steps = append(steps, step)
		}
	}
	return steps
}

// remainingApproverLevels reports whether any Approver-role step above the
// given level is not yet Approved.
func remainingApproverLevels(flow []models.ApprovalStep, level int) bool {
	for _, step := range flow {
		if step.Level > level && step.Role == models.RoleApprover && step.Status != models.StepApproved {
			return true
		}
	}
	return false
}

// actingStepIndex finds the user's Pending Approver step, if any
func actingStepIndex(req *models.Request, userID primitive.ObjectID) int {
	for i, step := range req.ApprovalFlow {
		if step.ApproverID == userID && step.Role == models.RoleApprover && step.Status == models.StepPending {
			return i
		}
	}
	return -1
}

func checkActionable(req *models.Request) error {
	if req.IsFinalized() {
		return models.ErrRequestAlreadyFinalized
	}
	if req.Status != models.StatusPending && req.Status != models.StatusManagerApproved {
		return models.ErrRequestNotPending
	}
	return nil
}

// ApplyApprove marks the acting user's step Approved. When the level clears
// and higher Approver levels remain the request moves to Manager_Approved;
// when it clears the last Approver level the request becomes Approved.
func ApplyApprove(req *models.Request, userID primitive.ObjectID, comment string, now time.Time) error {
	if err := checkActionable(req); err != nil {
		return err
	}
	if !IsUserTurn(req, userID) {
		return models.ErrNotYourTurn
	}

	idx := actingStepIndex(req, userID)
	if idx < 0 {
		return models.ErrNotYourTurn
	}

	req.ApprovalFlow[idx].Status = models.StepApproved
	req.ApprovalFlow[idx].Comment = comment
	req.ApprovalFlow[idx].ApprovedAt = &now
	req.ApprovalFlow[idx].IsRead = true

	level := req.ApprovalFlow[idx].Level
	if !levelCleared(req.ApprovalFlow, level) {
		// Co-approvers at this level still pending; overall status unchanged
		req.UpdatedAt = now
		return nil
	}

	if remainingApproverLevels(req.ApprovalFlow, level) {
		req.Status = models.StatusManagerApproved
	} else {
		req.Status = models.StatusApproved
	}
	req.UpdatedAt = now
	return nil
}

// ApplyReject marks the acting step Rejected and finalizes the request.
// A non-empty reason is mandatory.
func ApplyReject(req *models.Request, userID primitive.ObjectID, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return models.ErrMissingReason
	}
	if err := checkActionable(req); err != nil {
		return err
	}
	if !IsUserTurn(req, userID) {
		return models.ErrNotYourTurn
	}

	idx := actingStepIndex(req, userID)
	if idx < 0 {
		return models.ErrNotYourTurn
	}

	req.ApprovalFlow[idx].Status = models.StepRejected
	req.ApprovalFlow[idx].Comment = reason
	req.ApprovalFlow[idx].ApprovedAt = &now
	req.ApprovalFlow[idx].IsRead = true
	req.Status = models.StatusRejected
	req.UpdatedAt = now
	return nil
}

// ApplyRequestChanges flags the request back to the submitter without
// advancing or rewinding any other step.
func ApplyRequestChanges(req *models.Request, userID primitive.ObjectID, comment string, now time.Time) error {
	if strings.TrimSpace(comment) == "" {
		return models.ErrMissingReason
	}
	if err := checkActionable(req); err != nil {
		return err
	}
	if !IsUserTurn(req, userID) {
		return models.ErrNotYourTurn
	}

	idx := actingStepIndex(req, userID)
	if idx < 0 {
		return models.ErrNotYourTurn
	}

	req.ApprovalFlow[idx].Status = models.StepNeedsReview
	req.ApprovalFlow[idx].Comment = comment
	req.ApprovalFlow[idx].IsRead = true
	req.Status = models.StatusNeedsReview
	req.UpdatedAt = now
	return nil
}

// ApplyResubmit returns a NeedsReview request to the flow. Only the step
// that raised NeedsReview is reset to Pending; already-approved lower
// levels are left untouched and are not re-validated.
func ApplyResubmit(req *models.Request, submitterID primitive.ObjectID, now time.Time) error {
	if req.SubmitterID != submitterID {
		return models.ErrNotAuthorized
	}
	if req.IsFinalized() {
		return models.ErrRequestAlreadyFinalized
	}
	if req.Status != models.StatusNeedsReview {
		return models.ErrRequestNotPending
	}

	for i := range req.ApprovalFlow {
		if req.ApprovalFlow[i].Status == models.StepNeedsReview {
			req.ApprovalFlow[i].Status = models.StepPending
			req.ApprovalFlow[i].ApprovedAt = nil
			req.ApprovalFlow[i].IsRead = false
		}
	}
	req.Status = models.StatusPending
	req.UpdatedAt = now
	return nil
}

// ApplyCancel withdraws the request. Only the submitter may cancel, and
// only while the request is Pending or Manager_Approved.
func ApplyCancel(req *models.Request, submitterID primitive.ObjectID, reason string, now time.Time) error {
	if req.SubmitterID != submitterID {
		return models.ErrNotAuthorized
	}
	if req.IsFinalized() {
		return models.ErrRequestAlreadyFinalized
	}
	if req.Status != models.StatusPending && req.Status != models.StatusManagerApproved {
		return models.ErrRequestNotPending
	}

	req.SenderStatus.CancelledAt = &now
	req.SenderStatus.CancelReason = reason
	req.Status = models.StatusCancelled
	req.UpdatedAt = now
	return nil
}

// ApplyOverride bypasses turn gating entirely. It may force a live request
// to a decision or correct an already finalized one, and always appends an
// audit entry carrying the mandatory comment. Cancelled requests belong to
// the submitter and cannot be overridden.
func ApplyOverride(req *models.Request, adminID primitive.ObjectID, adminName, action, comment string, now time.Time) error {
	if strings.TrimSpace(comment) == "" {
		return models.ErrMissingReason
	}
	if req.Status == models.StatusCancelled {
		return models.ErrRequestNotPending
	}

	entry := models.OverrideEntry{
		AdminID:        adminID,
		AdminName:      adminName,
		Action:         action,
		Comment:        comment,
		PreviousStatus: req.Status,
		OverriddenAt:   now,
	}

	switch action {
	case OverrideForceApprove:
		req.Status = models.StatusApproved
	case OverrideForceReject:
		req.Status = models.StatusRejected
	case OverrideReopen:
		if req.Status != models.StatusApproved && req.Status != models.StatusRejected {
			return models.ErrRequestNotPending
		}
		req.Status = models.StatusPending
	default:
		return models.ErrRequestNotPending
	}

	req.Overrides = append(req.Overrides, entry)
	req.UpdatedAt = now
	return nil
}
