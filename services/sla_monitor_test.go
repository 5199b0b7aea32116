package services

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentra/hrms_backend/models"
)

func slaConfig() models.SLAConfig {
	return models.SLAConfig{
		DeadlineHours:             48,
		Reminder1Hours:            24,
		Reminder2Hours:            36,
		EscalateAfterOverdueHours: 48,
	}
}

func openRequest(sentAt time.Time) *models.Request {
	return &models.Request{
		ID:            primitive.NewObjectID(),
		RequestNumber: "REQ-2026-TEST0001",
		Status:        models.StatusPending,
		SentAt:        sentAt,
		SLA: &models.SLAInfo{
			Deadline: sentAt.Add(48 * time.Hour),
		},
	}
}

func TestDueReminders(t *testing.T) {
	sentAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cfg := slaConfig()

	tests := []struct {
		name    string
		elapsed time.Duration
		already []string
		want    []string
	}{
		{"too early", 23 * time.Hour, nil, nil},
		{"start of first window", 24 * time.Hour, nil, []string{"24h"}},
		{"inside first window", 24*time.Hour + 30*time.Minute, nil, []string{"24h"}},
		{"first window closed", 25 * time.Hour, nil, nil},
		{"second window", 36*time.Hour + 10*time.Minute, []string{"24h"}, []string{"36h"}},
		{"already sent", 24*time.Hour + 30*time.Minute, []string{"24h"}, nil},
		{"both missed windows stay silent", 40 * time.Hour, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := openRequest(sentAt)
			for _, tag := range tt.already {
				req.SLA.RemindersSent = append(req.SLA.RemindersSent, models.SLAReminder{Type: tag, SentAt: sentAt})
			}

			got := DueReminders(req, cfg, sentAt.Add(tt.elapsed))
			if len(got) != len(tt.want) {
				t.Fatalf("DueReminders() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("DueReminders()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDueRemindersIdempotentAcrossSweeps(t *testing.T) {
	sentAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cfg := slaConfig()
	req := openRequest(sentAt)

	now := sentAt.Add(24*time.Hour + 5*time.Minute)
	first := DueReminders(req, cfg, now)
	if len(first) != 1 || first[0] != "24h" {
		t.Fatalf("first sweep = %v, want [24h]", first)
	}
	// Record it the way the sweep does
	req.SLA.RemindersSent = append(req.SLA.RemindersSent, models.SLAReminder{Type: "24h", SentAt: now})

	// Second sweep in the same window sends nothing
	second := DueReminders(req, cfg, now.Add(20*time.Minute))
	if len(second) != 0 {
		t.Fatalf("second sweep = %v, want none", second)
	}
}

func TestRefreshOverdue(t *testing.T) {
	sentAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	req := openRequest(sentAt)
	deadline := req.SLA.Deadline

	if RefreshOverdue(req, deadline.Add(-time.Minute)) {
		t.Error("not past deadline yet, should not change")
	}
	if req.SLA.IsOverdue {
		t.Error("IsOverdue set before the deadline passed")
	}

	if !RefreshOverdue(req, deadline.Add(90*time.Minute)) {
		t.Error("first refresh past deadline should report a change")
	}
	if !req.SLA.IsOverdue || req.SLA.OverdueHours != 1 {
		t.Errorf("overdue state = (%v, %d), want (true, 1)", req.SLA.IsOverdue, req.SLA.OverdueHours)
	}

	// Same whole hour: no change
	if RefreshOverdue(req, deadline.Add(100*time.Minute)) {
		t.Error("same overdue hour should not report a change")
	}

	if !RefreshOverdue(req, deadline.Add(49*time.Hour)) {
		t.Error("new overdue hour should report a change")
	}
	if req.SLA.OverdueHours != 49 {
		t.Errorf("OverdueHours = %d, want 49", req.SLA.OverdueHours)
	}
}

func TestShouldEscalate(t *testing.T) {
	cfg := slaConfig()
	sentAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	req := openRequest(sentAt)
	if ShouldEscalate(req, cfg) {
		t.Error("on-time request must not escalate")
	}

	req.SLA.IsOverdue = true
	req.SLA.OverdueHours = 47
	if ShouldEscalate(req, cfg) {
		t.Error("below the overdue threshold, must not escalate")
	}

	req.SLA.OverdueHours = 48
	if !ShouldEscalate(req, cfg) {
		t.Error("at the threshold, should escalate")
	}

	// Escalation happens at most once
	target := primitive.NewObjectID()
	req.SLA.EscalatedTo = &target
	req.SLA.OverdueHours = 90
	if ShouldEscalate(req, cfg) {
		t.Error("already escalated, must not escalate again")
	}
}

func TestReminderTagAndHasReminder(t *testing.T) {
	if got := ReminderTag(24); got != "24h" {
		t.Errorf("ReminderTag(24) = %q, want 24h", got)
	}

	sla := &models.SLAInfo{
		RemindersSent: []models.SLAReminder{
			{Type: "24h"},
			{Type: OverdueReminderTag},
		},
	}
	if !HasReminder(sla, "24h") {
		t.Error("HasReminder should find 24h")
	}
	if !HasReminder(sla, OverdueReminderTag) {
		t.Error("HasReminder should find the overdue tag")
	}
	if HasReminder(sla, "36h") {
		t.Error("HasReminder found a tag that was never sent")
	}
}
