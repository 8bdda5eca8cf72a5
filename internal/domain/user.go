package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoRatingYet is the rating of a user nobody has reviewed.
const NoRatingYet = -1

type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Email        string               `bson:"email"         json:"email"`
	PasswordHash string               `bson:"password"      json:"-"`
	Name         string               `bson:"name"          json:"name"`
	Location     string               `bson:"location"      json:"location"`
	Rating       float64              `bson:"rating"        json:"rating"`
	Reviews      []string             `bson:"reviews"       json:"reviews"`
	RentedTo     int                  `bson:"rentedTo"      json:"rentedTo"`
	Bikes        []primitive.ObjectID `bson:"bikes"         json:"bikes"`
	ImageID      string               `bson:"image_id,omitempty"  json:"image_id,omitempty"`
	ImageURL     string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// Review is the payload a rating comes in as; only the text is stored
// on the user, the rating folds into the running average.
type Review struct {
	Rating float64 `json:"rating"`
	Review string  `json:"review"`
}

// NextRating folds a new review rating into the running average.
// reviewCount is the number of reviews before the new one is appended.
// While the count is zero the stored rating is the NoRatingYet sentinel
// and must not contribute to the mean.
func NextRating(oldRating float64, reviewCount int, newRating float64) float64 {
	if reviewCount == 0 {
		return newRating
	}
	return (oldRating*float64(reviewCount) + newRating) / float64(reviewCount+1)
}
