package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department model. ManagerID is the department head used by the
// SPECIFIC_DEPARTMENT_HEAD workflow resolution strategy.
type Department struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string              `json:"name" bson:"name"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	ManagerID   *primitive.ObjectID `json:"managerId,omitempty" bson:"managerId,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// DepartmentRequest is the request body for creating/updating a department
type DepartmentRequest struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description"`
	ManagerID   *primitive.ObjectID `json:"managerId"`
}
