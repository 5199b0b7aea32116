package utils

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentra/hrms_backend/models"
)

var (
	submitter = primitive.NewObjectID()
	manager   = primitive.NewObjectID()
	director  = primitive.NewObjectID()
	coworker  = primitive.NewObjectID()
	reviewer  = primitive.NewObjectID()
)

func step(level int, approver primitive.ObjectID, role, status string) models.ApprovalStep {
	return models.ApprovalStep{
		Level:      level,
		ApproverID: approver,
		Role:       role,
		Status:     status,
	}
}

// twoLevelRequest builds the common Manager then Admin chain
func twoLevelRequest() *models.Request {
	return &models.Request{
		ID:          primitive.NewObjectID(),
		SubmitterID: submitter,
		Status:      models.StatusPending,
		ApprovalFlow: []models.ApprovalStep{
			step(1, manager, models.RoleApprover, models.StepPending),
			step(2, director, models.RoleApprover, models.StepPending),
		},
	}
}

func TestIsUserTurn(t *testing.T) {
	tests := []struct {
		name   string
		req    *models.Request
		userID primitive.ObjectID
		want   bool
	}{
		{
			name:   "first level approver has the turn",
			req:    twoLevelRequest(),
			userID: manager,
			want:   true,
		},
		{
			name:   "second level approver must wait",
			req:    twoLevelRequest(),
			userID: director,
			want:   false,
		},
		{
			name: "second level unlocked after first clears",
			req: &models.Request{
				SubmitterID: submitter,
				Status:      models.StatusManagerApproved,
				ApprovalFlow: []models.ApprovalStep{
					step(1, manager, models.RoleApprover, models.StepApproved),
					step(2, director, models.RoleApprover, models.StepPending),
				},
			},
			userID: director,
			want:   true,
		},
		{
			name: "reviewer never has a gating turn",
			req: &models.Request{
				SubmitterID: submitter,
				Status:      models.StatusPending,
				ApprovalFlow: []models.ApprovalStep{
					step(1, reviewer, models.RoleReviewer, models.StepPending),
					step(1, manager, models.RoleApprover, models.StepPending),
				},
			},
			userID: reviewer,
			want:   false,
		},
		{
			name: "finalized request has no turns",
			req: &models.Request{
				SubmitterID: submitter,
				Status:      models.StatusRejected,
				ApprovalFlow: []models.ApprovalStep{
					step(1, manager, models.RoleApprover, models.StepPending),
				},
			},
			userID: manager,
			want:   false,
		},
		{
			name:   "stranger is never on turn",
			req:    twoLevelRequest(),
			userID: coworker,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserTurn(tt.req, tt.userID); got != tt.want {
				t.Errorf("IsUserTurn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyApproveTwoLevelFlow(t *testing.T) {
	now := time.Now()
	req := twoLevelRequest()

	// Director cannot jump the queue
	if err := ApplyApprove(req, director, "", now); err != models.ErrNotYourTurn {
		t.Fatalf("out-of-turn approve: got %v, want ErrNotYourTurn", err)
	}

	// Manager approves: intermediate status, director unlocked
	if err := ApplyApprove(req, manager, "ok", now); err != nil {
		t.Fatalf("manager approve failed: %v", err)
	}
	if req.Status != models.StatusManagerApproved {
		t.Errorf("after level 1: status = %q, want %q", req.Status, models.StatusManagerApproved)
	}
	if req.ApprovalFlow[0].Status != models.StepApproved {
		t.Errorf("manager step status = %q, want Approved", req.ApprovalFlow[0].Status)
	}
	if req.ApprovalFlow[0].ApprovedAt == nil {
		t.Error("manager step should carry an approval timestamp")
	}
	if !IsUserTurn(req, director) {
		t.Error("director should be on turn after level 1 clears")
	}

	// Director approves: final
	if err := ApplyApprove(req, director, "", now); err != nil {
		t.Fatalf("director approve failed: %v", err)
	}
	if req.Status != models.StatusApproved {
		t.Errorf("final status = %q, want %q", req.Status, models.StatusApproved)
	}

	// Nothing further is actionable
	if err := ApplyApprove(req, director, "", now); err != models.ErrRequestAlreadyFinalized {
		t.Errorf("approve after finalization: got %v, want ErrRequestAlreadyFinalized", err)
	}
}

func TestApplyApproveCoApprovers(t *testing.T) {
	now := time.Now()
	req := &models.Request{
		SubmitterID: submitter,
		Status:      models.StatusPending,
		ApprovalFlow: []models.ApprovalStep{
			step(1, manager, models.RoleApprover, models.StepPending),
			step(1, coworker, models.RoleApprover, models.StepPending),
			step(2, director, models.RoleApprover, models.StepPending),
		},
	}

	if err := ApplyApprove(req, manager, "", now); err != nil {
		t.Fatalf("first co-approver failed: %v", err)
	}
	// Level not cleared yet: overall status unchanged, director still locked
	if req.Status != models.StatusPending {
		t.Errorf("status after half of level 1 = %q, want Pending", req.Status)
	}
	if IsUserTurn(req, director) {
		t.Error("director should stay locked until all level-1 approvers clear")
	}
	if !IsUserTurn(req, coworker) {
		t.Error("remaining co-approver should still be on turn")
	}

	if err := ApplyApprove(req, coworker, "", now); err != nil {
		t.Fatalf("second co-approver failed: %v", err)
	}
	if req.Status != models.StatusManagerApproved {
		t.Errorf("status after level 1 cleared = %q, want Manager_Approved", req.Status)
	}
	if !IsUserTurn(req, director) {
		t.Error("director should unlock once both co-approvers approve")
	}
}

func TestApplyReject(t *testing.T) {
	now := time.Now()

	req := twoLevelRequest()
	if err := ApplyReject(req, manager, "  ", now); err != models.ErrMissingReason {
		t.Fatalf("blank reason: got %v, want ErrMissingReason", err)
	}
	if req.Status != models.StatusPending {
		t.Errorf("failed reject must not change status, got %q", req.Status)
	}

	if err := ApplyReject(req, manager, "dates clash with the release", now); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if req.Status != models.StatusRejected {
		t.Errorf("status = %q, want Rejected", req.Status)
	}
	if req.ApprovalFlow[0].Comment != "dates clash with the release" {
		t.Errorf("step comment = %q", req.ApprovalFlow[0].Comment)
	}

	// Terminal: resubmit is not a way back from rejection
	if err := ApplyResubmit(req, submitter, now); err != models.ErrRequestAlreadyFinalized {
		t.Errorf("resubmit after reject: got %v, want ErrRequestAlreadyFinalized", err)
	}
}

func TestRequestChangesAndResubmit(t *testing.T) {
	now := time.Now()
	req := &models.Request{
		SubmitterID: submitter,
		Status:      models.StatusManagerApproved,
		ApprovalFlow: []models.ApprovalStep{
			step(1, manager, models.RoleApprover, models.StepApproved),
			step(2, director, models.RoleApprover, models.StepPending),
		},
	}

	if err := ApplyRequestChanges(req, director, "attach the expense receipts", now); err != nil {
		t.Fatalf("request changes failed: %v", err)
	}
	if req.Status != models.StatusNeedsReview {
		t.Errorf("status = %q, want NeedsReview", req.Status)
	}
	if IsUserTurn(req, director) {
		t.Error("no one should be on turn while the submitter revises")
	}

	// Only the submitter may resubmit
	if err := ApplyResubmit(req, director, now); err != models.ErrNotAuthorized {
		t.Errorf("non-submitter resubmit: got %v, want ErrNotAuthorized", err)
	}

	if err := ApplyResubmit(req, submitter, now); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if req.Status != models.StatusPending {
		t.Errorf("status after resubmit = %q, want Pending", req.Status)
	}
	// The approved level-1 step survives; only the NeedsReview step resets
	if req.ApprovalFlow[0].Status != models.StepApproved {
		t.Errorf("level-1 step = %q, want Approved to survive resubmit", req.ApprovalFlow[0].Status)
	}
	if req.ApprovalFlow[1].Status != models.StepPending {
		t.Errorf("level-2 step = %q, want Pending after resubmit", req.ApprovalFlow[1].Status)
	}
	if !IsUserTurn(req, director) {
		t.Error("director should be back on turn after resubmit")
	}
}

func TestApplyCancel(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		status  string
		caller  primitive.ObjectID
		wantErr error
	}{
		{"submitter cancels pending", models.StatusPending, submitter, nil},
		{"submitter cancels mid-flow", models.StatusManagerApproved, submitter, nil},
		{"approver cannot cancel", models.StatusPending, manager, models.ErrNotAuthorized},
		{"cannot cancel needs-review", models.StatusNeedsReview, submitter, models.ErrRequestNotPending},
		{"cannot cancel approved", models.StatusApproved, submitter, models.ErrRequestAlreadyFinalized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := twoLevelRequest()
			req.Status = tt.status

			err := ApplyCancel(req, tt.caller, "plans changed", now)
			if err != tt.wantErr {
				t.Fatalf("ApplyCancel() = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if req.Status != models.StatusCancelled {
					t.Errorf("status = %q, want Cancelled", req.Status)
				}
				if req.SenderStatus.CancelledAt == nil {
					t.Error("cancellation timestamp missing")
				}
			}
		})
	}
}

func TestApplyOverride(t *testing.T) {
	now := time.Now()
	admin := primitive.NewObjectID()

	t.Run("force approve skips pending levels", func(t *testing.T) {
		req := twoLevelRequest()
		if err := ApplyOverride(req, admin, "HR Admin", OverrideForceApprove, "policy exception", now); err != nil {
			t.Fatalf("override failed: %v", err)
		}
		if req.Status != models.StatusApproved {
			t.Errorf("status = %q, want Approved", req.Status)
		}
		if len(req.Overrides) != 1 {
			t.Fatalf("override audit entries = %d, want 1", len(req.Overrides))
		}
		entry := req.Overrides[0]
		if entry.PreviousStatus != models.StatusPending || entry.Action != OverrideForceApprove {
			t.Errorf("audit entry = %+v", entry)
		}
	})

	t.Run("comment is mandatory", func(t *testing.T) {
		req := twoLevelRequest()
		if err := ApplyOverride(req, admin, "HR Admin", OverrideForceReject, "", now); err != models.ErrMissingReason {
			t.Errorf("got %v, want ErrMissingReason", err)
		}
	})

	t.Run("cancelled requests cannot be overridden", func(t *testing.T) {
		req := twoLevelRequest()
		req.Status = models.StatusCancelled
		if err := ApplyOverride(req, admin, "HR Admin", OverrideForceApprove, "x", now); err != models.ErrRequestNotPending {
			t.Errorf("got %v, want ErrRequestNotPending", err)
		}
	})

	t.Run("reopen only applies to decided requests", func(t *testing.T) {
		req := twoLevelRequest()
		req.Status = models.StatusRejected
		if err := ApplyOverride(req, admin, "HR Admin", OverrideReopen, "appeal accepted", now); err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		if req.Status != models.StatusPending {
			t.Errorf("status = %q, want Pending", req.Status)
		}

		fresh := twoLevelRequest()
		if err := ApplyOverride(fresh, admin, "HR Admin", OverrideReopen, "x", now); err != models.ErrRequestNotPending {
			t.Errorf("reopen of pending request: got %v, want ErrRequestNotPending", err)
		}
	})

	t.Run("consecutive overrides accumulate audit entries", func(t *testing.T) {
		req := twoLevelRequest()
		if err := ApplyOverride(req, admin, "HR Admin", OverrideForceReject, "duplicate request", now); err != nil {
			t.Fatalf("first override failed: %v", err)
		}
		if err := ApplyOverride(req, admin, "HR Admin", OverrideReopen, "not a duplicate after all", now.Add(time.Hour)); err != nil {
			t.Fatalf("second override failed: %v", err)
		}
		if len(req.Overrides) != 2 {
			t.Fatalf("audit entries = %d, want 2", len(req.Overrides))
		}
		if req.Overrides[1].PreviousStatus != models.StatusRejected {
			t.Errorf("second entry previousStatus = %q, want Rejected", req.Overrides[1].PreviousStatus)
		}
	})
}

func TestPendingApprovers(t *testing.T) {
	req := &models.Request{
		SubmitterID: submitter,
		Status:      models.StatusPending,
		ApprovalFlow: []models.ApprovalStep{
			step(1, manager, models.RoleApprover, models.StepPending),
			step(1, coworker, models.RoleApprover, models.StepPending),
			step(1, reviewer, models.RoleReviewer, models.StepPending),
			step(2, director, models.RoleApprover, models.StepPending),
		},
	}

	got := PendingApprovers(req)
	if len(got) != 2 {
		t.Fatalf("pending approvers = %d, want 2 co-approvers", len(got))
	}
	for _, s := range got {
		if s.Level != 1 || s.Role != models.RoleApprover {
			t.Errorf("unexpected pending step %+v", s)
		}
	}

	req.ApprovalFlow[0].Status = models.StepApproved
	req.ApprovalFlow[1].Status = models.StepApproved
	got = PendingApprovers(req)
	if len(got) != 1 || got[0].ApproverID != director {
		t.Fatalf("after level 1 cleared, pending = %+v, want director only", got)
	}
}

func TestCurrentActionableLevel(t *testing.T) {
	flow := []models.ApprovalStep{
		step(1, manager, models.RoleApprover, models.StepApproved),
		step(2, director, models.RoleApprover, models.StepPending),
		step(3, coworker, models.RoleApprover, models.StepPending),
	}
	if got := CurrentActionableLevel(flow); got != 2 {
		t.Errorf("CurrentActionableLevel() = %d, want 2", got)
	}

	done := []models.ApprovalStep{
		step(1, manager, models.RoleApprover, models.StepApproved),
	}
	if got := CurrentActionableLevel(done); got != 0 {
		t.Errorf("all approved: CurrentActionableLevel() = %d, want 0", got)
	}
}
