package realtime

import "go.mongodb.org/mongo-driver/bson/primitive"

// Event names broadcast by the API. Admin create/update/delete events carry
// the full document; registration updates carry only the id and updated
// counts clients need to refresh capacity displays.
const (
	TestSlotCreated    = "test-slot-created"
	TestSlotUpdated    = "test-slot-updated"
	TestSlotDeleted    = "test-slot-deleted"
	RegistrationUpdate = "registration-update"

	EventCreated            = "event-created"
	EventUpdated            = "event-updated"
	EventDeleted            = "event-deleted"
	EventRegistrationUpdate = "event-registration-update"

	SlotPreferenceCreated = "slot-preference-created"
	SlotPreferenceUpdated = "slot-preference-updated"
	SlotPreferenceDeleted = "slot-preference-deleted"
	SlotPreferenceUpdate  = "slot-preference-update"

	SurveyQuestionCreated = "survey-question-created"
	SurveyQuestionUpdated = "survey-question-updated"
	SurveyQuestionDeleted = "survey-question-deleted"
	SurveyResponseUpdate  = "survey-response-update"
)

// DeletedPayload identifies a removed document.
type DeletedPayload struct {
	ID string `json:"id"`
}

// SlotRegistrationPayload is the delta for a test-slot admission.
type SlotRegistrationPayload struct {
	SlotID          primitive.ObjectID `json:"slotId"`
	RegisteredCount int                `json:"registeredCount"`
	IsFull          bool               `json:"isFull"`
}

// EventRegistrationPayload is the delta for an event admission.
type EventRegistrationPayload struct {
	EventID         primitive.ObjectID `json:"eventId"`
	RegisteredCount int                `json:"registeredCount"`
	IsFull          bool               `json:"isFull"`
}

// SlotPreferencePayload is the delta for a slot-preference admission.
type SlotPreferencePayload struct {
	SlotPreferenceID primitive.ObjectID `json:"slotPreferenceId"`
	SlotIndex        int                `json:"slotIndex"`
	CurrentCount     int                `json:"currentCount"`
	MaxCount         int                `json:"maxCount"`
}

// SurveyResponsePayload is the delta for a survey response.
type SurveyResponsePayload struct {
	SurveyQuestionID primitive.ObjectID `json:"surveyQuestionId"`
	CurrentResponses int                `json:"currentResponses"`
	IsFull           bool               `json:"isFull"`
}
