// Package registration implements the capacity-gated admission transaction
// shared by all four registrable resource kinds: check the target's fill
// state, atomically admit or reject the user, keep the derived counter
// consistent with membership, mirror the admission onto the user record,
// and broadcast one change event per committed admission.
package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/slotdesk/slotdesk/internal/app/realtime"
	eventstore "github.com/slotdesk/slotdesk/internal/app/store/events"
	slotprefstore "github.com/slotdesk/slotdesk/internal/app/store/slotprefs"
	slotstore "github.com/slotdesk/slotdesk/internal/app/store/slots"
	surveystore "github.com/slotdesk/slotdesk/internal/app/store/surveys"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxAttempts bounds the classify-and-retry loop. A conditional update can
// lose a race, get re-read as admittable, and lose again; after this many
// rounds the attempt is reported as a storage failure.
const maxAttempts = 3

// Service runs admissions against the four resource stores. All admission
// preconditions are enforced inside a single conditional document update
// per attempt, so concurrent attempts at the last open seat cannot both
// commit.
type Service struct {
	slots   *slotstore.Store
	events  *eventstore.Store
	prefs   *slotprefstore.Store
	surveys *surveystore.Store
	users   *userstore.Store
	hub     *realtime.Hub
	log     *zap.Logger
}

// NewService wires the admission service to its stores, the realtime hub,
// and a logger.
func NewService(slots *slotstore.Store, events *eventstore.Store, prefs *slotprefstore.Store, surveys *surveystore.Store, users *userstore.Store, hub *realtime.Hub, logger *zap.Logger) *Service {
	return &Service{
		slots:   slots,
		events:  events,
		prefs:   prefs,
		surveys: surveys,
		users:   users,
		hub:     hub,
		log:     logger,
	}
}

// RegisterTestSlot admits userID into the test slot. On success the
// updated slot is returned, the slot id is added to the user's registered
// set, and one registration-update event is published.
func (s *Service) RegisterTestSlot(ctx context.Context, slotID, userID primitive.ObjectID) (models.TestSlot, error) {
	var slot models.TestSlot
	for attempt := 0; ; attempt++ {
		var err error
		slot, err = s.slots.Register(ctx, slotID, userID)
		if err == nil {
			break
		}
		if !errors.Is(err, slotstore.ErrNoMatch) {
			return models.TestSlot{}, fmt.Errorf("register test slot: %w", err)
		}

		// The conditional update matched nothing; re-read to find out why,
		// in precondition order.
		cur, getErr := s.slots.GetByID(ctx, slotID)
		if errors.Is(getErr, mongo.ErrNoDocuments) {
			return models.TestSlot{}, ErrNotFound
		}
		if getErr != nil {
			return models.TestSlot{}, fmt.Errorf("classify slot rejection: %w", getErr)
		}
		if rejErr := classify(cur.IsActive, cur.IsFull(), containsID(cur.RegisteredUserIDs, userID)); rejErr != nil {
			return models.TestSlot{}, rejErr
		}
		// The re-read shows an admittable document: the update lost a race
		// that has since resolved. Retry within bounds.
		if attempt+1 >= maxAttempts {
			return models.TestSlot{}, fmt.Errorf("register test slot: conditional update kept missing after %d attempts", maxAttempts)
		}
	}

	// Resource-side write committed; the user-side write is best-effort.
	// A failure here is a recoverable inconsistency, not a failed
	// registration.
	if err := s.users.AddRegisteredSlot(ctx, userID, slot.ID); err != nil {
		s.log.Warn("registered slot not mirrored onto user record",
			zap.String("slot_id", slot.ID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
	}

	s.hub.Publish(realtime.Event{
		Name: realtime.RegistrationUpdate,
		Payload: realtime.SlotRegistrationPayload{
			SlotID:          slot.ID,
			RegisteredCount: slot.RegisteredCount,
			IsFull:          slot.IsFull(),
		},
	})
	return slot, nil
}

// RegisterEvent admits userID into the event.
func (s *Service) RegisterEvent(ctx context.Context, eventID, userID primitive.ObjectID) (models.Event, error) {
	var ev models.Event
	for attempt := 0; ; attempt++ {
		var err error
		ev, err = s.events.Register(ctx, eventID, userID)
		if err == nil {
			break
		}
		if !errors.Is(err, eventstore.ErrNoMatch) {
			return models.Event{}, fmt.Errorf("register event: %w", err)
		}

		cur, getErr := s.events.GetByID(ctx, eventID)
		if errors.Is(getErr, mongo.ErrNoDocuments) {
			return models.Event{}, ErrNotFound
		}
		if getErr != nil {
			return models.Event{}, fmt.Errorf("classify event rejection: %w", getErr)
		}
		if rejErr := classify(cur.IsActive, cur.IsFull(), containsID(cur.RegisteredUserIDs, userID)); rejErr != nil {
			return models.Event{}, rejErr
		}
		if attempt+1 >= maxAttempts {
			return models.Event{}, fmt.Errorf("register event: conditional update kept missing after %d attempts", maxAttempts)
		}
	}

	s.hub.Publish(realtime.Event{
		Name: realtime.EventRegistrationUpdate,
		Payload: realtime.EventRegistrationPayload{
			EventID:         ev.ID,
			RegisteredCount: ev.RegisteredCount,
			IsFull:          ev.IsFull(),
		},
	})
	return ev, nil
}

// RegisterSlotPreference admits userID into one option of the preference.
// Uniqueness is preference-wide: a user holding any option is rejected for
// every option, including re-selection attempts. The chosen option's label
// is recorded in the user's response ledger.
func (s *Service) RegisterSlotPreference(ctx context.Context, prefID, userID primitive.ObjectID, slotIndex int) (models.SlotPreference, error) {
	if slotIndex < 0 {
		return models.SlotPreference{}, fmt.Errorf("%w: invalid slot selected", ErrInvalidInput)
	}

	var pref models.SlotPreference
	for attempt := 0; ; attempt++ {
		// Bounds-check the option index against the current document before
		// attempting the conditional update, so a bad index reports invalid
		// input rather than a capacity miss.
		cur, getErr := s.prefs.GetByID(ctx, prefID)
		if errors.Is(getErr, mongo.ErrNoDocuments) {
			return models.SlotPreference{}, ErrNotFound
		}
		if getErr != nil {
			return models.SlotPreference{}, fmt.Errorf("load slot preference: %w", getErr)
		}
		if !cur.IsActive {
			return models.SlotPreference{}, ErrInactive
		}
		if slotIndex >= len(cur.Slots) {
			return models.SlotPreference{}, fmt.Errorf("%w: invalid slot selected", ErrInvalidInput)
		}
		if cur.IsSlotFull(slotIndex) {
			return models.SlotPreference{}, fmt.Errorf("%w: %q is full", ErrCapacityExceeded, cur.Slots[slotIndex].Label)
		}
		if cur.HasRegistered(userID) {
			return models.SlotPreference{}, ErrAlreadyRegistered
		}

		var err error
		pref, err = s.prefs.Register(ctx, prefID, userID, slotIndex)
		if err == nil {
			break
		}
		if !errors.Is(err, slotprefstore.ErrNoMatch) {
			return models.SlotPreference{}, fmt.Errorf("register slot preference: %w", err)
		}
		// The document changed between the read and the conditional update;
		// loop to re-classify against fresh state.
		if attempt+1 >= maxAttempts {
			return models.SlotPreference{}, fmt.Errorf("register slot preference: conditional update kept missing after %d attempts", maxAttempts)
		}
	}

	opt := pref.Slots[slotIndex]
	if err := s.users.UpsertResponse(ctx, userID, models.ResponseEntry{
		TargetID:   pref.ID,
		TargetKind: models.TargetSlotPreference,
		Answer:     opt.Label,
	}); err != nil {
		s.log.Warn("slot preference selection not mirrored onto user ledger",
			zap.String("preference_id", pref.ID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
	}

	s.hub.Publish(realtime.Event{
		Name: realtime.SlotPreferenceUpdate,
		Payload: realtime.SlotPreferencePayload{
			SlotPreferenceID: pref.ID,
			SlotIndex:        slotIndex,
			CurrentCount:     opt.CurrentCount,
			MaxCount:         opt.MaxCount,
		},
	})
	return pref, nil
}

// RespondSurveyQuestion records userID's answer to the question. The
// answer is validated and canonicalized for the question type before any
// mutation. A second answer from the same user is rejected at the
// resource; the ledger upsert (which would replace in place) is only
// reached on first answers.
//
// The normalized answer actually stored is returned alongside the updated
// question.
func (s *Service) RespondSurveyQuestion(ctx context.Context, questionID, userID primitive.ObjectID, answer string) (models.SurveyQuestion, string, error) {
	// Answer validation needs the question type, so the first read happens
	// before normalization.
	q, err := s.surveys.GetByID(ctx, questionID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SurveyQuestion{}, "", ErrNotFound
	}
	if err != nil {
		return models.SurveyQuestion{}, "", fmt.Errorf("load survey question: %w", err)
	}
	if !q.IsActive {
		return models.SurveyQuestion{}, "", ErrInactive
	}

	normalized, err := NormalizeAnswer(q.QuestionType, answer)
	if err != nil {
		return models.SurveyQuestion{}, "", err
	}

	for attempt := 0; ; attempt++ {
		q, err = s.surveys.Respond(ctx, questionID, userID, normalized)
		if err == nil {
			break
		}
		if !errors.Is(err, surveystore.ErrNoMatch) {
			return models.SurveyQuestion{}, "", fmt.Errorf("record survey response: %w", err)
		}

		cur, getErr := s.surveys.GetByID(ctx, questionID)
		if errors.Is(getErr, mongo.ErrNoDocuments) {
			return models.SurveyQuestion{}, "", ErrNotFound
		}
		if getErr != nil {
			return models.SurveyQuestion{}, "", fmt.Errorf("classify survey rejection: %w", getErr)
		}
		if rejErr := classify(cur.IsActive, cur.IsFull(), cur.HasResponded(userID)); rejErr != nil {
			return models.SurveyQuestion{}, "", rejErr
		}
		if attempt+1 >= maxAttempts {
			return models.SurveyQuestion{}, "", fmt.Errorf("record survey response: conditional update kept missing after %d attempts", maxAttempts)
		}
	}

	if err := s.users.UpsertResponse(ctx, userID, models.ResponseEntry{
		TargetID:   q.ID,
		TargetKind: models.TargetSurveyQuestion,
		Answer:     normalized,
	}); err != nil {
		s.log.Warn("survey answer not mirrored onto user ledger",
			zap.String("question_id", q.ID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
	}

	s.hub.Publish(realtime.Event{
		Name: realtime.SurveyResponseUpdate,
		Payload: realtime.SurveyResponsePayload{
			SurveyQuestionID: q.ID,
			CurrentResponses: q.CurrentResponses,
			IsFull:           q.IsFull(),
		},
	})
	return q, normalized, nil
}

// classify maps a re-read document's state to the rejection for a failed
// conditional update, in precondition order: inactive before full before
// duplicate. A nil return means the document looks admittable and the
// update should be retried.
func classify(active, full, member bool) error {
	switch {
	case !active:
		return ErrInactive
	case full:
		return ErrCapacityExceeded
	case member:
		return ErrAlreadyRegistered
	default:
		return nil
	}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
