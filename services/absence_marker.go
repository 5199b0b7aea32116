package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/utils"
)

// AbsenceMarker is the daily job that creates Absent attendance records for
// every active employee who has no record for the day. Re-running on the
// same day is safe: users who already have a record are skipped.
type AbsenceMarker struct {
	db         *mongo.Database
	dispatcher *utils.Dispatcher
	config     *ConfigService
	clock      Clock
}

// NewAbsenceMarker creates the marker
func NewAbsenceMarker(db *mongo.Database, dispatcher *utils.Dispatcher, config *ConfigService, clock Clock) *AbsenceMarker {
	if clock == nil {
		clock = RealClock{}
	}
	return &AbsenceMarker{
		db:         db,
		dispatcher: dispatcher,
		config:     config,
		clock:      clock,
	}
}

// Run executes one marking pass for today
func (a *AbsenceMarker) Run(ctx context.Context) {
	cfg, err := a.config.Get(ctx)
	if err != nil {
		log.Printf("Absence marker: failed to load config: %v", err)
		return
	}
	if !cfg.AutoAbsence.Enabled {
		log.Println("Absence marker: disabled by configuration, skipping")
		return
	}

	loc, err := time.LoadLocation(cfg.AutoAbsence.Timezone)
	if err != nil {
		log.Printf("Absence marker: invalid timezone %q, using UTC", cfg.AutoAbsence.Timezone)
		loc = time.UTC
	}
	today := a.clock.Now().In(loc).Format("2006-01-02")

	users, err := a.loadActiveUsers(ctx)
	if err != nil {
		log.Printf("Absence marker: failed to load users: %v", err)
		return
	}

	recorded, err := a.loadRecordedUserIDs(ctx, today)
	if err != nil {
		log.Printf("Absence marker: failed to load attendance for %s: %v", today, err)
		return
	}

	missing := MissingAttendance(users, recorded)
	if len(missing) == 0 {
		log.Printf("Absence marker: all active employees accounted for on %s", today)
		return
	}

	var markedNames []string
	now := a.clock.Now()
	for _, user := range missing {
		if err := a.markAbsent(ctx, user, today, now); err != nil {
			log.Printf("Absence marker: failed to mark %s absent: %v", user.Email, err)
			continue
		}
		markedNames = append(markedNames, user.FullName)

		if err := a.dispatcher.NotifyUser(ctx, user.ID,
			"Marked absent",
			fmt.Sprintf("You have been marked absent for %s because no clock-in was recorded. Contact HR if this is a mistake.", today),
			"auto_absence", map[string]interface{}{"date": today},
		); err != nil {
			log.Printf("Absence marker: failed to notify %s: %v", user.Email, err)
		}
	}

	if len(markedNames) > 0 {
		a.notifyAdmins(ctx, today, markedNames)
	}
	log.Printf("Absence marker: marked %d employees absent for %s", len(markedNames), today)
}

// markAbsent inserts the Absent record for one user. The unique
// (userId, date) index rejects duplicates if a clock-in raced us.
func (a *AbsenceMarker) markAbsent(ctx context.Context, user models.User, date string, now time.Time) error {
	record := models.Attendance{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		Date:      date,
		Status:    models.AttendanceAbsent,
		Note:      "Automatically marked: no clock-in recorded",
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := a.db.Collection("attendance").InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (a *AbsenceMarker) loadActiveUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := a.db.Collection("users").Find(ctx, bson.M{
		"status": models.UserActive,
		"role":   bson.M{"$in": []string{models.RoleEmployee, models.RoleManager}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (a *AbsenceMarker) loadRecordedUserIDs(ctx context.Context, date string) (map[primitive.ObjectID]bool, error) {
	cursor, err := a.db.Collection("attendance").Find(ctx, bson.M{"date": date})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recorded := make(map[primitive.ObjectID]bool)
	var records []models.Attendance
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	for _, r := range records {
		recorded[r.UserID] = true
	}
	return recorded, nil
}

// notifyAdmins sends one aggregate notification listing everyone marked
func (a *AbsenceMarker) notifyAdmins(ctx context.Context, date string, names []string) {
	cursor, err := a.db.Collection("users").Find(ctx, bson.M{
		"role":   models.RoleAdmin,
		"status": models.UserActive,
	})
	if err != nil {
		log.Printf("Absence marker: failed to load admins: %v", err)
		return
	}
	defer cursor.Close(ctx)

	var admins []models.User
	if err := cursor.All(ctx, &admins); err != nil {
		log.Printf("Absence marker: failed to decode admins: %v", err)
		return
	}

	adminIDs := make([]primitive.ObjectID, 0, len(admins))
	for _, admin := range admins {
		adminIDs = append(adminIDs, admin.ID)
	}

	title := fmt.Sprintf("Auto-absence report for %s", date)
	message := fmt.Sprintf("%d employees were marked absent: %s", len(names), strings.Join(names, ", "))
	if err := a.dispatcher.NotifyUsers(ctx, adminIDs, title, message, "auto_absence_report", map[string]interface{}{
		"date":      date,
		"employees": names,
	}); err != nil {
		log.Printf("Absence marker: failed to notify admins: %v", err)
	}
}

// MissingAttendance returns the users with no attendance record today
func MissingAttendance(users []models.User, recorded map[primitive.ObjectID]bool) []models.User {
	var missing []models.User
	for _, user := range users {
		if !recorded[user.ID] {
			missing = append(missing, user)
		}
	}
	return missing
}
