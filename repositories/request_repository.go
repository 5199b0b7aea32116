package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentra/hrms_backend/models"
)

// ErrStaleRequest means the document changed between read and write.
// Callers should reload and re-derive the turn predicate.
var ErrStaleRequest = errors.New("request was modified concurrently")

type RequestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{
		collection: db.Collection("requests"),
	}
}

// FindByID loads one request
func (r *RequestRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Insert stores a new request with its version counter at 1
func (r *RequestRepository) Insert(ctx context.Context, req *models.Request) error {
	req.Version = 1
	_, err := r.collection.InsertOne(ctx, req)
	return err
}

// ReplaceWithVersion commits a full mutation of the request using a
// compare-and-swap on the version counter. The write only lands if the
// stored version still matches the one the caller read; otherwise the
// caller raced another writer and gets ErrStaleRequest.
func (r *RequestRepository) ReplaceWithVersion(ctx context.Context, req *models.Request, readVersion int64) error {
	req.Version = readVersion + 1

	result, err := r.collection.ReplaceOne(ctx, bson.M{
		"_id":     req.ID,
		"version": readVersion,
	}, req)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrStaleRequest
	}
	return nil
}

// FindOpenWithSLA returns all non-terminal requests that carry an SLA
// deadline, for the periodic sweep.
func (r *RequestRepository) FindOpenWithSLA(ctx context.Context) ([]models.Request, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"status": bson.M{"$in": []string{
			models.StatusPending,
			models.StatusManagerApproved,
			models.StatusNeedsReview,
		}},
		"sla": bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
