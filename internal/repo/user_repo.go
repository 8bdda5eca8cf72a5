package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velomarket/rental-api/internal/domain"
	"github.com/velomarket/rental-api/internal/security"
)

// CreateUser hashes the plaintext password and inserts the record.
// Hashing lives here, not in the handler, so no caller can ever persist
// a plaintext credential (the schema-hook role in the old stack).
func (s *Store) CreateUser(ctx context.Context, u *domain.User, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	res, err := s.colUsers.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	cur, err := s.colUsers.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.User{}
	for cur.Next(ctx) {
		var u domain.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, cur.Err()
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser writes the full record back, mongoose save() style. Last
// writer wins; concurrent review appends on the same user can lose an
// update, which matches the behavior this API has always had.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	_, err := s.colUsers.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	return err
}

// SetUserFields applies a partial $set and returns the updated record,
// or nil when no such user exists. An empty patch has nothing to merge
// and the server rejects an empty $set, so it reads the record back
// unchanged instead.
func (s *Store) SetUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error) {
	if len(fields) == 0 {
		return s.FindUserByID(ctx, id)
	}
	res := s.colUsers.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u domain.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes the record and returns it, or nil if it was
// already gone.
func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	res := s.colUsers.FindOneAndDelete(ctx, bson.M{"_id": id})
	var u domain.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
