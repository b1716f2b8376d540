package registration

import (
	"fmt"
	"strings"

	"github.com/slotdesk/slotdesk/internal/domain/models"
)

// Canonical answer tokens stored for yes/no and consent questions.
const (
	AnswerYes = "Yes"
	AnswerNo  = "No"
)

// NormalizeAnswer validates and canonicalizes a survey answer for the
// given question type.
//
// Text questions accept any non-empty answer, trimmed. Yes/no and consent
// questions accept yes/no/y/n in any casing and store the canonical
// "Yes"/"No" token; anything else is rejected as invalid input.
func NormalizeAnswer(questionType, answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: answer is required", ErrInvalidInput)
	}

	switch questionType {
	case models.QuestionTypeYesNo, models.QuestionTypeConsent:
		switch strings.ToLower(answer) {
		case "yes", "y":
			return AnswerYes, nil
		case "no", "n":
			return AnswerNo, nil
		default:
			return "", fmt.Errorf("%w: please answer with Yes or No", ErrInvalidInput)
		}
	default:
		return answer, nil
	}
}
