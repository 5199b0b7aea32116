package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/websocket"
)

// Dispatcher persists notification documents and pushes best-effort events
// to connected clients. Persistence is the only delivery guarantee.
type Dispatcher struct {
	DB  *mongo.Database
	Hub *websocket.Hub
}

// NewDispatcher creates a notification dispatcher
func NewDispatcher(db *mongo.Database, hub *websocket.Hub) *Dispatcher {
	return &Dispatcher{DB: db, Hub: hub}
}

// NotifyUser creates a notification for a single user
func (d *Dispatcher) NotifyUser(ctx context.Context, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		Target:    models.TargetUser,
		UserID:    &userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := d.DB.Collection("notifications").InsertOne(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	d.push(userID, title, message, notifType, data)
	return nil
}

// NotifyUsers creates one notification per user in the list
func (d *Dispatcher) NotifyUsers(ctx context.Context, userIDs []primitive.ObjectID, title, message, notifType string, data interface{}) error {
	var lastErr error
	for _, userID := range userIDs {
		if err := d.NotifyUser(ctx, userID, title, message, notifType, data); err != nil {
			log.Printf("Failed to notify user %s: %v", userID.Hex(), err)
			lastErr = err
		}
	}
	return lastErr
}

// NotifyDepartment creates a single broadcast document serving every member
// of the department. Read state is tracked per user in readBy.
func (d *Dispatcher) NotifyDepartment(ctx context.Context, departmentID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	notification := models.Notification{
		ID:           primitive.NewObjectID(),
		Target:       models.TargetDepartment,
		DepartmentID: &departmentID,
		Title:        title,
		Message:      message,
		Type:         notifType,
		Data:         data,
		ReadBy:       []primitive.ObjectID{},
		CreatedAt:    time.Now(),
	}

	_, err := d.DB.Collection("notifications").InsertOne(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to save department notification: %w", err)
	}

	if d.Hub != nil {
		d.Hub.Broadcast(websocket.Event{
			Type:    websocket.EventNotification,
			Title:   title,
			Message: message,
			Data:    data,
		})
	}
	return nil
}

// NotifyAll creates a single broadcast document for every user
func (d *Dispatcher) NotifyAll(ctx context.Context, title, message, notifType string, data interface{}) error {
	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		Target:    models.TargetAll,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		ReadBy:    []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}

	_, err := d.DB.Collection("notifications").InsertOne(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to save broadcast notification: %w", err)
	}

	if d.Hub != nil {
		d.Hub.Broadcast(websocket.Event{
			Type:    websocket.EventNotification,
			Title:   title,
			Message: message,
			Data:    data,
		})
	}
	return nil
}

// push sends a best-effort websocket event to one user
func (d *Dispatcher) push(userID primitive.ObjectID, title, message, notifType string, data interface{}) {
	if d.Hub == nil {
		return
	}
	if err := d.Hub.SendToUser(userID, websocket.Event{
		Type:    websocket.EventNotification,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"notificationType": notifType,
			"payload":          data,
		},
		UserID: userID.Hex(),
	}); err == nil {
		return
	}
	// Disconnected users read the persisted notification on next load
}

// SendEmail sends a plain-text email through the configured SMTP relay.
// Failures are returned so callers can decide whether to retry on the
// next sweep; delivery is never load-bearing.
func SendEmail(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	if smtpHost == "" {
		return fmt.Errorf("SMTP_HOST is not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
