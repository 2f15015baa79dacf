package imagen

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/dreambig/dreambig-sg/internal/llm"
	"github.com/dreambig/dreambig-sg/internal/prompts"
	"github.com/dreambig/dreambig-sg/internal/security"
	"github.com/dreambig/dreambig-sg/internal/types"
)

// SubjectDescriber is the vision model: it answers an instruction about an image.
type SubjectDescriber interface {
	DescribeImage(ctx context.Context, instruction string, image []byte, format string) (string, error)
}

// Subject is what the vision step learned about the person in the photo.
type Subject struct {
	Description string
	Age         types.AgeBracket
	// FromVision is false when the fixed description was substituted.
	FromVision bool
	// Err is the vision failure, if any. It never fails the request.
	Err error
}

type visionAnswer struct {
	Description string `json:"description"`
	AgeBracket  string `json:"ageBracket"`
}

// describeSubject runs the vision step. Any failure, including a missing
// describer, yields the fixed description with an unknown age.
func (s *Service) describeSubject(ctx context.Context, photo *security.Photo, sel selection) Subject {
	fallback := Subject{
		Description: prompts.FallbackDescription(sel.Career, sel.Location, sel.Activity),
		Age:         types.AgeUnknown,
	}

	if s.describer == nil {
		log.Printf("[vision] no vision model configured, using the generic description")
		return fallback
	}

	instruction := prompts.VisionInstruction(sel.Career, sel.Location, sel.Activity)
	answer, err := s.describer.DescribeImage(ctx, instruction, photo.Data, photo.Format())
	if err != nil {
		log.Printf("[vision] photo analysis failed, using the generic description: %v", err)
		fallback.Err = err
		return fallback
	}

	description, age := parseVisionAnswer(answer)
	if description == "" {
		log.Printf("[vision] photo analysis returned no description, using the generic description")
		return fallback
	}

	return Subject{Description: description, Age: age, FromVision: true}
}

// parseVisionAnswer reads the structured {"description", "ageBracket"}
// answer, or the first element when the model wraps it in an array. Prose
// answers are used as the description and the age is guessed from their
// wording. JSON that does not parse yields no description.
func parseVisionAnswer(answer string) (string, types.AgeBracket) {
	cleaned := llm.CleanJSONBlock(answer)

	var parsed visionAnswer
	switch {
	case strings.HasPrefix(cleaned, "["):
		var list []visionAnswer
		if err := json.Unmarshal([]byte(cleaned), &list); err != nil || len(list) == 0 {
			return "", types.AgeUnknown
		}
		parsed = list[0]
	case strings.HasPrefix(cleaned, "{"):
		if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
			return "", types.AgeUnknown
		}
	default:
		description := security.Sanitize(answer)
		return description, prompts.ClassifyAge(description)
	}

	description := security.Sanitize(parsed.Description)
	if description == "" {
		return "", types.AgeUnknown
	}
	age := types.AgeBracket(strings.ToLower(strings.TrimSpace(parsed.AgeBracket)))
	if !age.Valid() {
		age = prompts.ClassifyAge(description)
	}
	return description, age
}
