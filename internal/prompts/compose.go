package prompts

import (
	"regexp"
	"strings"

	"github.com/dreambig/dreambig-sg/internal/catalog"
	"github.com/dreambig/dreambig-sg/internal/types"
)

const templateFile = "imagen.json"

// Defaults used when the request leaves a selection empty.
const (
	DefaultCareer   = "superhero"
	DefaultActivity = "saving the day"
)

// Input is everything the composer needs for one poster.
type Input struct {
	Career             string
	Location           string
	Activity           string
	SubjectDescription string
	Age                types.AgeBracket
}

// Compose builds the image-model prompt for the given variant. It does no
// I/O: the same input and variant always give the same string. Unknown
// location tags use the generic Singapore setting and an unknown variant is
// composed as detailed.
func Compose(in Input, variant types.ModelVariant) string {
	key := "detailed"
	if variant == types.VariantFaceMatch {
		key = "face_match"
	}

	data := templateData(in.Career, in.Location, in.Activity)
	data["AgeFraming"] = AgeFraming(in.Age, data["Career"])

	subject := strings.TrimSpace(in.SubjectDescription)
	if subject == "" {
		subject = FallbackDescription(in.Career, in.Location, in.Activity)
	}
	data["SubjectDescription"] = subject

	return Format(MustGet(templateFile, key), data)
}

// VisionInstruction is the instruction sent with the photo to the vision model.
func VisionInstruction(career, location, activity string) string {
	return Format(MustGet(templateFile, "vision_analysis"), templateData(career, location, activity))
}

// FallbackDescription is the fixed subject description used when the vision
// step is skipped or fails.
func FallbackDescription(career, location, activity string) string {
	return Format(MustGet(templateFile, "fallback_description"), templateData(career, location, activity))
}

// AgeFraming returns the sentence describing how old the hero should look.
func AgeFraming(age types.AgeBracket, career string) string {
	if !age.Valid() {
		age = types.AgeUnknown
	}
	return Format(MustGet(templateFile, "age_"+string(age)), map[string]string{"Career": career})
}

// Place is the setting phrase for a location tag, e.g. "Merlion Park, Singapore".
func Place(location string) string {
	loc, _ := catalog.LookupLocation(location)
	if strings.Contains(loc.Name, "Singapore") {
		return loc.Name
	}
	return loc.Name + ", Singapore"
}

func templateData(career, location, activity string) map[string]string {
	career = strings.TrimSpace(career)
	if career == "" {
		career = DefaultCareer
	}
	activity = strings.TrimSpace(activity)
	if activity == "" {
		activity = DefaultActivity
	}
	loc, _ := catalog.LookupLocation(location)

	return map[string]string{
		"Career":              catalog.CareerDisplayName(career),
		"Activity":            activity,
		"Place":               Place(location),
		"LocationName":        loc.Name,
		"LocationDescription": loc.Description,
		"Landmarks":           loc.Landmarks,
	}
}

var (
	teenWords  = regexp.MustCompile(`(?i)\b(teen|teenager|teenage|adolescent|high school)\b`)
	childWords = regexp.MustCompile(`(?i)\b(child|children|kid|kids|boy|girl|toddler|young child|little)\b`)
	adultWords = regexp.MustCompile(`(?i)\b(adult|man|woman|grown[- ]up|middle[- ]aged|elderly|senior)\b`)
)

// ClassifyAge guesses an age bracket from free-text vision output. It is
// only used when the vision model answers in prose instead of JSON.
func ClassifyAge(text string) types.AgeBracket {
	switch {
	case teenWords.MatchString(text):
		return types.AgeTeen
	case childWords.MatchString(text):
		return types.AgeChild
	case adultWords.MatchString(text):
		return types.AgeAdult
	default:
		return types.AgeUnknown
	}
}
