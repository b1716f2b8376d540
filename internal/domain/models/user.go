package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Response targets recorded in a user's response ledger.
const (
	TargetSurveyQuestion = "survey_question"
	TargetSlotPreference = "slot_preference"
)

// ResponseEntry is one entry in a user's response ledger: a denormalized
// record of what the user answered or selected, keyed by
// (TargetID, TargetKind). At most one entry exists per key; re-answering
// replaces the entry in place.
//
// The resource-side response list stays authoritative; the ledger is an
// eventually-reconciled shadow used for cheap per-user reads.
type ResponseEntry struct {
	TargetID    primitive.ObjectID `bson:"target_id" json:"targetId"`
	TargetKind  string             `bson:"target_kind" json:"targetKind"`
	Answer      string             `bson:"answer" json:"answer"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submittedAt"`
}

// User represents admins and registrants.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	StudentID    string             `bson:"student_id,omitempty" json:"studentId,omitempty"`

	// Test slots the user is registered for (ids only; resolved on read).
	RegisteredSlotIDs []primitive.ObjectID `bson:"registered_slot_ids" json:"-"`

	// Response ledger for survey questions and slot preferences.
	Responses []ResponseEntry `bson:"responses" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
