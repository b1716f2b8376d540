package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types accepted by the API.
const (
	EventTypeWorkshop = "workshop"
	EventTypeSeminar  = "seminar"
	EventTypeTraining = "training"
	EventTypeOther    = "other"
)

// IsValidEventType reports whether t is one of the accepted event types.
func IsValidEventType(t string) bool {
	switch t {
	case EventTypeWorkshop, EventTypeSeminar, EventTypeTraining, EventTypeOther:
		return true
	}
	return false
}

// Event is a capacity-bounded event (workshop, seminar, training, ...).
type Event struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	TitleCI string             `bson:"title_ci" json:"-"` // lowercase, diacritics-stripped

	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	EventDate   time.Time `bson:"event_date" json:"eventDate"`
	EventType   string    `bson:"event_type" json:"eventType"`

	RegistrationLimit int                  `bson:"registration_limit" json:"registrationLimit"`
	RegisteredCount   int                  `bson:"registered_count" json:"registeredCount"`
	RegisteredUserIDs []primitive.ObjectID `bson:"registered_user_ids" json:"-"`

	IsActive  bool               `bson:"is_active" json:"isActive"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsFull reports whether the event has reached its registration limit.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.RegistrationLimit
}

// CanRegister reports whether the event accepts new registrations.
func (e *Event) CanRegister() bool {
	return e.IsActive && !e.IsFull()
}
