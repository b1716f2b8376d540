package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestSlot is a scheduled, capacity-bounded test sitting users register for.
//
// RegisteredCount mirrors len(RegisteredUserIDs); both are maintained in a
// single conditional update so the counter can never drift from the set.
type TestSlot struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TestDate    time.Time          `bson:"test_date" json:"testDate"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	RegistrationLimit int                  `bson:"registration_limit" json:"registrationLimit"`
	RegisteredCount   int                  `bson:"registered_count" json:"registeredCount"`
	RegisteredUserIDs []primitive.ObjectID `bson:"registered_user_ids" json:"-"`

	IsActive  bool               `bson:"is_active" json:"isActive"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsFull reports whether the slot has reached its registration limit.
func (s *TestSlot) IsFull() bool {
	return s.RegisteredCount >= s.RegistrationLimit
}

// CanRegister reports whether the slot accepts new registrations.
// It must be recomputed on every read; admin edits to the limit or the
// active flag can flip it between requests.
func (s *TestSlot) CanRegister() bool {
	return s.IsActive && !s.IsFull()
}
