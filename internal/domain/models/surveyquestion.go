package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Survey question types. Text questions accept any non-empty answer;
// yes/no and consent questions accept only yes/no (or y/n) in any casing
// and store the canonical "Yes"/"No" token.
const (
	QuestionTypeText    = "text"
	QuestionTypeYesNo   = "yesno"
	QuestionTypeConsent = "consent"
)

// IsValidQuestionType reports whether t is one of the accepted question types.
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionTypeText, QuestionTypeYesNo, QuestionTypeConsent:
		return true
	}
	return false
}

// SurveyResponse is a single user's answer embedded on a SurveyQuestion.
type SurveyResponse struct {
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	Answer      string             `bson:"answer" json:"answer"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submittedAt"`
}

// SurveyQuestion is a capacity-bounded question. The response list is the
// authoritative record of who answered; CurrentResponses mirrors its length.
type SurveyQuestion struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question     string             `bson:"question" json:"question"`
	QuestionType string             `bson:"question_type" json:"questionType"`

	MaxResponses     int              `bson:"max_responses" json:"maxResponses"`
	CurrentResponses int              `bson:"current_responses" json:"currentResponses"`
	Responses        []SurveyResponse `bson:"responses" json:"-"`

	IsActive  bool               `bson:"is_active" json:"isActive"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsFull reports whether the question has reached its response limit.
func (q *SurveyQuestion) IsFull() bool {
	return q.CurrentResponses >= q.MaxResponses
}

// CanRespond reports whether the question accepts new responses.
func (q *SurveyQuestion) CanRespond() bool {
	return q.IsActive && !q.IsFull()
}

// HasResponded reports whether userID already has a response on the question.
func (q *SurveyQuestion) HasResponded(userID primitive.ObjectID) bool {
	for i := range q.Responses {
		if q.Responses[i].UserID == userID {
			return true
		}
	}
	return false
}
