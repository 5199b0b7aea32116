package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/models"
)

// DepartmentController handles department management
type DepartmentController struct {
	DB *mongo.Database
}

// NewDepartmentController creates a new department controller
func NewDepartmentController(db *mongo.Database) *DepartmentController {
	return &DepartmentController{DB: db}
}

// ListDepartments returns all departments
func (dc *DepartmentController) ListDepartments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := dc.DB.Collection("departments").Find(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve departments",
		})
	}
	defer cursor.Close(ctx)

	var departments []models.Department
	if err := cursor.All(ctx, &departments); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode departments",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Departments retrieved successfully",
		Data:    departments,
	})
}

// CreateDepartment creates a new department. Admin only.
func (dc *DepartmentController) CreateDepartment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.DepartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	if req.ManagerID != nil {
		if err := dc.checkManagerExists(ctx, *req.ManagerID); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
	}

	now := time.Now()
	department := models.Department{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := dc.DB.Collection("departments").InsertOne(ctx, department); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create department",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Department created successfully",
		Data:    department,
	})
}

// UpdateDepartment updates a department, including assigning its head.
// Admin only.
func (dc *DepartmentController) UpdateDepartment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid department ID format",
		})
	}

	var req models.DepartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		update["name"] = req.Name
	}
	if req.Description != "" {
		update["description"] = req.Description
	}
	if req.ManagerID != nil {
		if err := dc.checkManagerExists(ctx, *req.ManagerID); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		update["managerId"] = req.ManagerID
	}

	result, err := dc.DB.Collection("departments").UpdateOne(ctx,
		bson.M{"_id": objectID}, bson.M{"$set": update})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update department",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Department not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Department updated successfully",
	})
}

// DeleteDepartment removes a department that has no members. Admin only.
func (dc *DepartmentController) DeleteDepartment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid department ID format",
		})
	}

	memberCount, err := dc.DB.Collection("users").CountDocuments(ctx, bson.M{"departmentId": objectID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check department members",
		})
	}
	if memberCount > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Department still has members assigned to it",
		})
	}

	result, err := dc.DB.Collection("departments").DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete department",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Department not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Department deleted successfully",
	})
}

func (dc *DepartmentController) checkManagerExists(ctx context.Context, managerID primitive.ObjectID) error {
	count, err := dc.DB.Collection("users").CountDocuments(ctx,
		bson.M{"_id": managerID, "status": models.UserActive})
	if err != nil {
		return err
	}
	if count == 0 {
		return errors.New("department head must be an existing active user")
	}
	return nil
}
