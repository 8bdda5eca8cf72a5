package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bike is a rental listing. The listing routes live in their own service
// module; the account API only ever deletes bikes when their owner goes,
// so the full document is decoded just to echo it back in that response.
type Bike struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner    primitive.ObjectID `bson:"owner,omitempty"    json:"owner,omitempty"`
	Name     string             `bson:"name,omitempty"     json:"name,omitempty"`
	Model    string             `bson:"model,omitempty"    json:"model,omitempty"`
	Price    float64            `bson:"price,omitempty"    json:"price,omitempty"`
	Location string             `bson:"location,omitempty" json:"location,omitempty"`
	ImageURL string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
}
