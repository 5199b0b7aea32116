package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance statuses
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLeave   = "Leave"
	AttendanceRemote  = "Remote"
)

// Clock-in methods
const (
	MethodManual = "manual"
	MethodFace   = "face"
	MethodBadge  = "badge"
)

// Attendance is one attendance record per user per day.
// Date is the local calendar day in "2006-01-02" form.
type Attendance struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"userId" bson:"userId"`
	Date         string             `json:"date" bson:"date"`
	Status       string             `json:"status" bson:"status"`
	ClockIn      *time.Time         `json:"clockIn,omitempty" bson:"clockIn,omitempty"`
	ClockOut     *time.Time         `json:"clockOut,omitempty" bson:"clockOut,omitempty"`
	Method       string             `json:"method,omitempty" bson:"method,omitempty"`
	CheckInPhoto string             `json:"checkInPhoto,omitempty" bson:"checkInPhoto,omitempty"`
	Note         string             `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
