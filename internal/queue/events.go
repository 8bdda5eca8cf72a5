package queue

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Routing keys on the users.events topic exchange.
const (
	Exchange       = "users.events"
	KeyRegistered  = "user.registered"
	KeyLoggedIn    = "user.loggedin"
	KeyUserDeleted = "user.deleted"
)

type UserRegistered struct {
	UserID primitive.ObjectID `json:"user_id"`
	Email  string             `json:"email"`
	Name   string             `json:"name"`
}

type UserLoggedIn struct {
	UserID primitive.ObjectID `json:"user_id"`
	Email  string             `json:"email"`
}

type UserDeleted struct {
	UserID       primitive.ObjectID `json:"user_id"`
	Email        string             `json:"email"`
	BikesDeleted int                `json:"bikes_deleted"`
}
