package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotOption is one selectable slot inside a SlotPreference. Each option
// has its own capacity; fullness is evaluated per option.
type SlotOption struct {
	Label             string               `bson:"label" json:"label"`
	MaxCount          int                  `bson:"max_count" json:"maxCount"`
	CurrentCount      int                  `bson:"current_count" json:"currentCount"`
	RegisteredUserIDs []primitive.ObjectID `bson:"registered_user_ids" json:"-"`
}

// IsFull reports whether the option has reached its limit.
func (o *SlotOption) IsFull() bool {
	return o.CurrentCount >= o.MaxCount
}

// SlotPreference is a prompt with multiple independently capacity-bounded
// options. A user may occupy at most one option across the whole document;
// uniqueness is enforced preference-wide, not per option.
type SlotPreference struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question string             `bson:"question" json:"question"`
	Slots    []SlotOption       `bson:"slots" json:"slots"`

	IsActive  bool               `bson:"is_active" json:"isActive"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsSlotFull reports whether the option at index i exists and is full.
func (p *SlotPreference) IsSlotFull(i int) bool {
	if i < 0 || i >= len(p.Slots) {
		return false
	}
	return p.Slots[i].IsFull()
}

// HasRegistered reports whether userID occupies any option in the preference.
func (p *SlotPreference) HasRegistered(userID primitive.ObjectID) bool {
	for i := range p.Slots {
		for _, id := range p.Slots[i].RegisteredUserIDs {
			if id == userID {
				return true
			}
		}
	}
	return false
}
