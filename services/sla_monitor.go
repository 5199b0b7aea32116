package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/repositories"
	"github.com/talentra/hrms_backend/utils"
)

// OverdueReminderTag marks the final reminder sent just before escalation
const OverdueReminderTag = "overdue"

// SLAMonitor periodically sweeps open requests, sends elapsed-time
// reminders to whoever is gated to act, tracks overdue hours, and escalates
// long-overdue requests to the pending approver's own manager.
type SLAMonitor struct {
	db         *mongo.Database
	repo       *repositories.RequestRepository
	dispatcher *utils.Dispatcher
	config     *ConfigService
	clock      Clock
}

// NewSLAMonitor creates the monitor
func NewSLAMonitor(db *mongo.Database, repo *repositories.RequestRepository, dispatcher *utils.Dispatcher, config *ConfigService, clock Clock) *SLAMonitor {
	if clock == nil {
		clock = RealClock{}
	}
	return &SLAMonitor{
		db:         db,
		repo:       repo,
		dispatcher: dispatcher,
		config:     config,
		clock:      clock,
	}
}

// Sweep runs one pass over all open requests carrying an SLA deadline.
// Each request is processed in isolation: a failure on one is logged and
// never aborts the rest of the batch.
func (m *SLAMonitor) Sweep(ctx context.Context) {
	cfg, err := m.config.Get(ctx)
	if err != nil {
		log.Printf("SLA sweep: failed to load config: %v", err)
		return
	}

	requests, err := m.repo.FindOpenWithSLA(ctx)
	if err != nil {
		log.Printf("SLA sweep: failed to load open requests: %v", err)
		return
	}

	now := m.clock.Now()
	for i := range requests {
		req := requests[i]
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("SLA sweep: panic processing request %s: %v", req.RequestNumber, r)
				}
			}()
			if err := m.processRequest(ctx, &req, cfg.SLA, now); err != nil {
				log.Printf("SLA sweep: request %s: %v", req.RequestNumber, err)
			}
		}()
	}
}

// processRequest applies due reminders, the overdue refresh, and escalation
// to one request, then commits through the versioned repository. A stale
// write means another actor got there first; the next sweep retries.
func (m *SLAMonitor) processRequest(ctx context.Context, req *models.Request, cfg models.SLAConfig, now time.Time) error {
	readVersion := req.Version
	changed := false

	for _, tag := range DueReminders(req, cfg, now) {
		recipients := m.sendReminder(req, tag)
		req.SLA.RemindersSent = append(req.SLA.RemindersSent, models.SLAReminder{
			Type:       tag,
			SentAt:     now,
			Recipients: recipients,
		})
		changed = true
	}

	if RefreshOverdue(req, now) {
		changed = true
	}

	if ShouldEscalate(req, cfg) {
		if !HasReminder(req.SLA, OverdueReminderTag) {
			recipients := m.sendReminder(req, OverdueReminderTag)
			req.SLA.RemindersSent = append(req.SLA.RemindersSent, models.SLAReminder{
				Type:       OverdueReminderTag,
				SentAt:     now,
				Recipients: recipients,
			})
		}
		if err := m.escalate(ctx, req, now); err != nil {
			return fmt.Errorf("escalation failed: %w", err)
		}
		changed = true
	}

	if !changed {
		return nil
	}

	if err := m.repo.ReplaceWithVersion(ctx, req, readVersion); err != nil {
		if err == repositories.ErrStaleRequest {
			log.Printf("SLA sweep: request %s changed concurrently, retrying next sweep", req.RequestNumber)
			return nil
		}
		return err
	}
	return nil
}

// sendReminder emails every currently pending approver and returns the
// recipient list for the reminder record. Email failures are logged; the
// reminder is still recorded and the mail retried on no schedule.
func (m *SLAMonitor) sendReminder(req *models.Request, tag string) []string {
	var recipients []string
	for _, step := range utils.PendingApprovers(req) {
		if step.ApproverEmail != "" {
			recipients = append(recipients, step.ApproverEmail)
		}
	}

	subject := fmt.Sprintf("Reminder: request %s is awaiting your approval", req.RequestNumber)
	body := fmt.Sprintf("Request %s (%s) from %s has been waiting for your decision.\nDeadline: %s\n\nPlease approve or reject it in the HR portal.",
		req.RequestNumber, req.Subject, req.SubmitterName, req.SLA.Deadline.Format(time.RFC1123))
	if tag == OverdueReminderTag {
		subject = fmt.Sprintf("OVERDUE: request %s has breached its approval deadline", req.RequestNumber)
	}

	if err := utils.SendEmail(recipients, subject, body); err != nil {
		log.Printf("Failed to send %s reminder for %s: %v", tag, req.RequestNumber, err)
	}
	return recipients
}

// escalate redirects responsibility to the pending approver's manager, or
// to any admin when the approver has none. Recorded once per request.
func (m *SLAMonitor) escalate(ctx context.Context, req *models.Request, now time.Time) error {
	pending := utils.PendingApprovers(req)
	if len(pending) == 0 {
		return nil
	}

	target, err := m.escalationTarget(ctx, pending[0].ApproverID)
	if err != nil {
		return err
	}

	reason := fmt.Sprintf("Request overdue by %d hours without a decision from %s", req.SLA.OverdueHours, pending[0].ApproverName)
	req.SLA.EscalatedTo = &target.ID
	req.SLA.EscalatedAt = &now
	req.SLA.EscalationReason = reason

	title := fmt.Sprintf("Escalated: request %s needs attention", req.RequestNumber)
	message := fmt.Sprintf("%s. Please follow up with the pending approver or decide the request yourself.", reason)
	if err := m.dispatcher.NotifyUser(ctx, target.ID, title, message, "sla_escalation", map[string]interface{}{
		"requestId":     req.ID.Hex(),
		"requestNumber": req.RequestNumber,
	}); err != nil {
		log.Printf("Failed to notify escalation target for %s: %v", req.RequestNumber, err)
	}
	if target.Email != "" {
		if err := utils.SendEmail([]string{target.Email}, title, message); err != nil {
			log.Printf("Failed to email escalation target for %s: %v", req.RequestNumber, err)
		}
	}
	return nil
}

// escalationTarget resolves the pending approver's manager, falling back
// to any admin user.
func (m *SLAMonitor) escalationTarget(ctx context.Context, approverID primitive.ObjectID) (*models.User, error) {
	users := m.db.Collection("users")

	var approver models.User
	if err := users.FindOne(ctx, bson.M{"_id": approverID}).Decode(&approver); err != nil && err != mongo.ErrNoDocuments {
		return nil, err
	}

	if approver.ManagerID != nil {
		var manager models.User
		if err := users.FindOne(ctx, bson.M{"_id": *approver.ManagerID}).Decode(&manager); err == nil {
			return &manager, nil
		}
	}

	var admin models.User
	if err := users.FindOne(ctx, bson.M{"role": models.RoleAdmin, "status": models.UserActive}).Decode(&admin); err != nil {
		return nil, fmt.Errorf("no escalation target available: %w", err)
	}
	return &admin, nil
}

// ReminderTag names a reminder by its elapsed-hour threshold, e.g. "24h"
func ReminderTag(hours int) string {
	return fmt.Sprintf("%dh", hours)
}

// HasReminder reports whether a reminder of the given type was already sent
func HasReminder(sla *models.SLAInfo, tag string) bool {
	for _, r := range sla.RemindersSent {
		if r.Type == tag {
			return true
		}
	}
	return false
}

// DueReminders returns the reminder tags that should fire now. A reminder
// fires only inside its one-hour window past the threshold and at most
// once per request, so a sweep running twice in the same window is a no-op.
func DueReminders(req *models.Request, cfg models.SLAConfig, now time.Time) []string {
	if req.SLA == nil {
		return nil
	}

	elapsed := now.Sub(req.SentAt)
	var due []string
	for _, hours := range []int{cfg.Reminder1Hours, cfg.Reminder2Hours} {
		if hours <= 0 {
			continue
		}
		threshold := time.Duration(hours) * time.Hour
		if elapsed >= threshold && elapsed < threshold+time.Hour && !HasReminder(req.SLA, ReminderTag(hours)) {
			due = append(due, ReminderTag(hours))
		}
	}
	return due
}

// RefreshOverdue updates the overdue flag and whole-hour count. Returns
// true when anything changed.
func RefreshOverdue(req *models.Request, now time.Time) bool {
	if req.SLA == nil || !now.After(req.SLA.Deadline) {
		return false
	}

	overdueHours := int(now.Sub(req.SLA.Deadline) / time.Hour)
	if req.SLA.IsOverdue && req.SLA.OverdueHours == overdueHours {
		return false
	}
	req.SLA.IsOverdue = true
	req.SLA.OverdueHours = overdueHours
	return true
}

// ShouldEscalate reports whether the request has been overdue long enough
// to escalate and has not been escalated before.
func ShouldEscalate(req *models.Request, cfg models.SLAConfig) bool {
	if req.SLA == nil || req.SLA.EscalatedTo != nil {
		return false
	}
	return req.SLA.IsOverdue && req.SLA.OverdueHours >= cfg.EscalateAfterOverdueHours
}
