package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification target shapes
const (
	TargetUser       = "user"
	TargetDepartment = "department"
	TargetAll        = "all"
)

// Notification model. Individual notifications track read state in IsRead;
// broadcast/department notifications serve many recipients from a single
// document and track read state per user in ReadBy.
type Notification struct {
	ID           primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Target       string               `json:"target" bson:"target"`
	UserID       *primitive.ObjectID  `json:"userId,omitempty" bson:"userId,omitempty"`
	DepartmentID *primitive.ObjectID  `json:"departmentId,omitempty" bson:"departmentId,omitempty"`
	Title        string               `json:"title" bson:"title"`
	Message      string               `json:"message" bson:"message"`
	Type         string               `json:"type" bson:"type"`
	Data         interface{}          `json:"data,omitempty" bson:"data,omitempty"`
	IsRead       bool                 `json:"isRead" bson:"isRead"`
	ReadBy       []primitive.ObjectID `json:"readBy,omitempty" bson:"readBy,omitempty"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
}
