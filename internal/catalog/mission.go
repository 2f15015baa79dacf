package catalog

import (
	"fmt"

	"github.com/dreambig/dreambig-sg/internal/types"
)

// MissionOption is one choice in a mission builder slot.
type MissionOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

// MissionOptions groups the three mission builder slots.
type MissionOptions struct {
	Actions []MissionOption `json:"actions"`
	Who     []MissionOption `json:"who"`
	Powers  []MissionOption `json:"powers"`
}

var (
	actionOptions = []MissionOption{
		{"rescue", "Rescue", "🛟"},
		{"build", "Build", "🧱"},
		{"invent", "Invent", "💡"},
		{"explore", "Explore", "🧭"},
		{"teach", "Teach", "📘"},
		{"heal", "Heal", "🫀"},
		{"protect", "Protect", "🛡️"},
		{"perform", "Perform", "🎭"},
	}
	whoOptions = []MissionOption{
		{"people", "People", "🧑‍🤝‍🧑"},
		{"animals", "Animals", "🐾"},
		{"nature", "Nature", "🌳"},
		{"robots", "Robots", "🤖"},
		{"space", "Space", "🔭"},
		{"community", "Community", "🏘️"},
		{"city", "City", "🏙️"},
	}
	powerOptions = []MissionOption{
		{"super-speed", "Super Speed", "⚡"},
		{"kindness", "Kindness", "💖"},
		{"teamwork", "Teamwork", "🤝"},
		{"gadgets", "Gadgets", "🔧"},
		{"science", "Science", "🔬"},
		{"creativity", "Creativity", "🎨"},
	}
)

// Missions returns the mission builder options.
func Missions() MissionOptions {
	return MissionOptions{
		Actions: append([]MissionOption(nil), actionOptions...),
		Who:     append([]MissionOption(nil), whoOptions...),
		Powers:  append([]MissionOption(nil), powerOptions...),
	}
}

// UnknownOptionError is returned when a mission slot holds an id that is
// not in the catalog.
type UnknownOptionError struct {
	Slot string
	ID   string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown mission %s: %q", e.Slot, e.ID)
}

// BuildMission turns a mission selection into the activity sentence
// "I will <Action> my <Who> with <Power>."
func BuildMission(sel types.MissionSelection) (string, error) {
	if err := sel.Validate(); err != nil {
		return "", fmt.Errorf("invalid mission: %w", err)
	}

	action, ok := findOption(actionOptions, sel.Action)
	if !ok {
		return "", &UnknownOptionError{Slot: "action", ID: sel.Action}
	}
	who, ok := findOption(whoOptions, sel.Who)
	if !ok {
		return "", &UnknownOptionError{Slot: "who", ID: sel.Who}
	}
	power, ok := findOption(powerOptions, sel.Power)
	if !ok {
		return "", &UnknownOptionError{Slot: "power", ID: sel.Power}
	}

	return fmt.Sprintf("I will %s my %s with %s.", action.Label, who.Label, power.Label), nil
}

func findOption(options []MissionOption, id string) (MissionOption, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return MissionOption{}, false
}
