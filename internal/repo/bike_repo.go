package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/velomarket/rental-api/internal/domain"
)

// DeleteBike removes one listing and returns the deleted document, or
// nil if the listing was already gone.
func (s *Store) DeleteBike(ctx context.Context, id primitive.ObjectID) (*domain.Bike, error) {
	res := s.colBikes.FindOneAndDelete(ctx, bson.M{"_id": id})
	var b domain.Bike
	if err := res.Decode(&b); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
