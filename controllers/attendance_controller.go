package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/utils"
)

// AttendanceController handles daily clock-in/clock-out. One attendance
// document per user per calendar day, guaranteed by the unique
// (userId, date) index.
type AttendanceController struct {
	DB *mongo.Database
}

// NewAttendanceController creates a new attendance controller
func NewAttendanceController(db *mongo.Database) *AttendanceController {
	return &AttendanceController{DB: db}
}

// ClockIn records today's clock-in for the caller. Accepts an optional
// multipart "photo" field when the method is face, and an optional
// "method" form field (manual, face, badge).
func (ac *AttendanceController) ClockIn(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	method := c.FormValue("method")
	if method == "" {
		method = models.MethodManual
	}
	switch method {
	case models.MethodManual, models.MethodFace, models.MethodBadge:
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown clock-in method: " + method,
		})
	}

	photoPath := ""
	if file, err := c.FormFile("photo"); err == nil && file != nil {
		photoPath, err = utils.SaveCheckInPhoto(file)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Failed to save check-in photo: " + err.Error(),
			})
		}
	}

	now := time.Now()
	today := now.Format("2006-01-02")

	attendance := models.Attendance{
		ID:           primitive.NewObjectID(),
		UserID:       objectID,
		Date:         today,
		Status:       models.AttendancePresent,
		ClockIn:      &now,
		Method:       method,
		CheckInPhoto: photoPath,
		Note:         c.FormValue("note"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := ac.DB.Collection("attendance").InsertOne(ctx, attendance); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Already clocked in today",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to record clock-in",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Clocked in successfully",
		Data:    attendance,
	})
}

// ClockOut stamps the clock-out time on today's record
func (ac *AttendanceController) ClockOut(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	now := time.Now()
	today := now.Format("2006-01-02")

	result, err := ac.DB.Collection("attendance").UpdateOne(ctx,
		bson.M{"userId": objectID, "date": today, "clockIn": bson.M{"$ne": nil}},
		bson.M{"$set": bson.M{"clockOut": now, "updatedAt": now}})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to record clock-out",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No clock-in found for today",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Clocked out successfully",
	})
}

// GetToday returns the caller's attendance record for the current day
func (ac *AttendanceController) GetToday(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	today := time.Now().Format("2006-01-02")

	var attendance models.Attendance
	err = ac.DB.Collection("attendance").FindOne(ctx,
		bson.M{"userId": objectID, "date": today}).Decode(&attendance)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No attendance record for today",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve attendance",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Attendance retrieved successfully",
		Data:    attendance,
	})
}

// GetMyHistory returns the caller's attendance records, newest first,
// optionally bounded by from/to date query parameters (2006-01-02).
func (ac *AttendanceController) GetMyHistory(c echo.Context) error {
	objectID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	return ac.listHistory(c, bson.M{"userId": objectID})
}

// GetUserHistory returns one user's attendance records. Admin only.
func (ac *AttendanceController) GetUserHistory(c echo.Context) error {
	if middleware.ExtractUserType(c) != models.RoleAdmin {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Admin access required",
		})
	}
	objectID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}
	return ac.listHistory(c, bson.M{"userId": objectID})
}

func (ac *AttendanceController) listHistory(c echo.Context, filter bson.M) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dateRange := bson.M{}
	if from := c.QueryParam("from"); from != "" {
		if _, err := time.Parse("2006-01-02", from); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid from date, expected YYYY-MM-DD",
			})
		}
		dateRange["$gte"] = from
	}
	if to := c.QueryParam("to"); to != "" {
		if _, err := time.Parse("2006-01-02", to); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid to date, expected YYYY-MM-DD",
			})
		}
		dateRange["$lte"] = to
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.M{"date": -1}).SetLimit(100)
	cursor, err := ac.DB.Collection("attendance").Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve attendance history",
		})
	}
	defer cursor.Close(ctx)

	var records []models.Attendance
	if err := cursor.All(ctx, &records); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode attendance history",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Attendance history retrieved successfully",
		Data:    records,
	})
}
