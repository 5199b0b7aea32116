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

	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/utils"
)

// NotificationController serves the in-app notification feed. A user's
// feed merges notifications addressed to them directly, to their
// department, and broadcasts to everyone.
type NotificationController struct {
	DB *mongo.Database
}

// NewNotificationController creates a new notification controller
func NewNotificationController(db *mongo.Database) *NotificationController {
	return &NotificationController{DB: db}
}

func (nc *NotificationController) callerID(c echo.Context) (primitive.ObjectID, error) {
	return utils.GetUserIDFromToken(c)
}

// feedFilter matches every notification visible to the given user
func (nc *NotificationController) feedFilter(ctx context.Context, userID primitive.ObjectID) (bson.M, error) {
	targets := []bson.M{
		{"target": models.TargetUser, "userId": userID},
		{"target": models.TargetAll},
	}

	var user models.User
	err := nc.DB.Collection("users").FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"departmentId": 1})).Decode(&user)
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, err
	}
	if user.DepartmentID != nil {
		targets = append(targets, bson.M{
			"target":       models.TargetDepartment,
			"departmentId": user.DepartmentID,
		})
	}

	return bson.M{"$or": targets}, nil
}

// GetNotifications returns the caller's feed, newest first. Read state is
// normalized into each document's isRead before returning: a broadcast is
// read when the caller appears in readBy.
func (nc *NotificationController) GetNotifications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := nc.callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	filter, err := nc.feedFilter(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve notification feed",
		})
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(100)
	cursor, err := nc.DB.Collection("notifications").Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve notifications",
		})
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode notifications",
		})
	}

	for i := range notifications {
		if notifications[i].Target != models.TargetUser {
			notifications[i].IsRead = containsID(notifications[i].ReadBy, userID)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications retrieved successfully",
		Data:    notifications,
	})
}

// GetUnreadCount returns how many notifications in the feed the caller
// has not read yet
func (nc *NotificationController) GetUnreadCount(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := nc.callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	filter, err := nc.feedFilter(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve notification feed",
		})
	}

	unread := bson.M{"$and": []bson.M{
		filter,
		{"$or": []bson.M{
			{"target": models.TargetUser, "isRead": false},
			{"target": bson.M{"$ne": models.TargetUser}, "readBy": bson.M{"$ne": userID}},
		}},
	}}

	count, err := nc.DB.Collection("notifications").CountDocuments(ctx, unread)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count notifications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Unread count retrieved successfully",
		Data:    map[string]int64{"unread": count},
	})
}

// MarkAsRead marks one notification read for the caller. Direct
// notifications flip isRead; broadcasts add the caller to readBy, so one
// reader never affects another.
func (nc *NotificationController) MarkAsRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := nc.callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	notifID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID format",
		})
	}

	var notification models.Notification
	err = nc.DB.Collection("notifications").FindOne(ctx, bson.M{"_id": notifID}).Decode(&notification)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Notification not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve notification",
		})
	}

	var update bson.M
	switch notification.Target {
	case models.TargetUser:
		if notification.UserID == nil || *notification.UserID != userID {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "This notification is not addressed to you",
			})
		}
		update = bson.M{"$set": bson.M{"isRead": true}}
	default:
		update = bson.M{"$addToSet": bson.M{"readBy": userID}}
	}

	if _, err := nc.DB.Collection("notifications").UpdateOne(ctx, bson.M{"_id": notifID}, update); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark notification as read",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
	})
}

// MarkAllAsRead marks the caller's entire feed as read
func (nc *NotificationController) MarkAllAsRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := nc.callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	filter, err := nc.feedFilter(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve notification feed",
		})
	}

	direct := bson.M{"$and": []bson.M{filter, {"target": models.TargetUser}}}
	if _, err := nc.DB.Collection("notifications").UpdateMany(ctx, direct,
		bson.M{"$set": bson.M{"isRead": true}}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark notifications as read",
		})
	}

	broadcast := bson.M{"$and": []bson.M{filter, {"target": bson.M{"$ne": models.TargetUser}}}}
	if _, err := nc.DB.Collection("notifications").UpdateMany(ctx, broadcast,
		bson.M{"$addToSet": bson.M{"readBy": userID}}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark notifications as read",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "All notifications marked as read",
	})
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
