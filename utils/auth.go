package utils

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
)

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a bcrypt hash against a plaintext candidate
func CheckPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GetUserIDFromToken returns the authenticated user's ObjectID from claims
func GetUserIDFromToken(c echo.Context) (primitive.ObjectID, error) {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return primitive.NilObjectID, errors.New("no token claims found")
	}
	return primitive.ObjectIDFromHex(claims.UserID)
}

// GetCurrentUser loads the authenticated user's document
func GetCurrentUser(c echo.Context, db *mongo.Database) (*models.User, error) {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ValidateTokenResponse represents the response for token validation
type ValidateTokenResponse struct {
	Valid   bool         `json:"valid"`
	User    *models.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ValidateToken validates a JWT token and returns user information if valid
func ValidateToken(tokenString string, db *mongo.Database) (*ValidateTokenResponse, error) {
	if tokenString == "" {
		return &ValidateTokenResponse{Valid: false, Message: "No token provided"}, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, &middleware.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(middleware.GetJWTSecret()), nil
	})
	if err != nil {
		return &ValidateTokenResponse{Valid: false, Message: "Invalid token: " + err.Error()}, nil
	}

	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok || !token.Valid {
		return &ValidateTokenResponse{Valid: false, Message: "Token is not valid"}, nil
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return &ValidateTokenResponse{Valid: false, Message: "Invalid user ID in token"}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return &ValidateTokenResponse{Valid: false, Message: "User not found"}, nil
	}
	if user.Status != models.UserActive {
		return &ValidateTokenResponse{Valid: false, Message: "User account is inactive"}, nil
	}

	user.Password = ""
	return &ValidateTokenResponse{Valid: true, User: &user}, nil
}
