package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// User account statuses
const (
	UserActive   = "Active"
	UserInactive = "Inactive"
)

// User model: one employee, manager, or admin account
type User struct {
	ID           primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string              `json:"email" bson:"email"`
	Password     string              `json:"password,omitempty" bson:"password"`
	FullName     string              `json:"fullName" bson:"fullName"`
	Role         string              `json:"role" bson:"role"`
	Status       string              `json:"status" bson:"status"`
	Position     string              `json:"position,omitempty" bson:"position,omitempty"`
	Phone        string              `json:"phone,omitempty" bson:"phone,omitempty"`
	DepartmentID *primitive.ObjectID `json:"departmentId,omitempty" bson:"departmentId,omitempty"`
	ManagerID    *primitive.ObjectID `json:"managerId,omitempty" bson:"managerId,omitempty"`
	ProfilePic   string              `json:"profilePic,omitempty" bson:"profilePic,omitempty"`
	HiredAt      *time.Time          `json:"hiredAt,omitempty" bson:"hiredAt,omitempty"`
	LastLoginAt  *time.Time          `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued tokens and the authenticated user
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// CreateUserRequest is the admin request body for creating an employee
type CreateUserRequest struct {
	Email        string              `json:"email" validate:"required,email"`
	Password     string              `json:"password" validate:"required,min=8"`
	FullName     string              `json:"fullName" validate:"required"`
	Role         string              `json:"role"`
	Position     string              `json:"position"`
	Phone        string              `json:"phone"`
	DepartmentID *primitive.ObjectID `json:"departmentId"`
	ManagerID    *primitive.ObjectID `json:"managerId"`
}

// UpdateUserRequest is the admin request body for updating an employee
type UpdateUserRequest struct {
	FullName     string              `json:"fullName,omitempty"`
	Role         string              `json:"role,omitempty"`
	Status       string              `json:"status,omitempty"`
	Position     string              `json:"position,omitempty"`
	Phone        string              `json:"phone,omitempty"`
	DepartmentID *primitive.ObjectID `json:"departmentId,omitempty"`
	ManagerID    *primitive.ObjectID `json:"managerId,omitempty"`
}
