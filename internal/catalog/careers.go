package catalog

import (
	"sort"
	"strings"
)

// DefaultCareerEmoji is drawn for careers outside the catalog.
const DefaultCareerEmoji = "🦸"

// Career categories.
const (
	CategoryHealthcare    = "Healthcare"
	CategoryEducation     = "Education"
	CategoryTechnology    = "Technology"
	CategorySafety        = "Safety & Security"
	CategoryTransport     = "Transportation"
	CategoryCreative      = "Creative Arts"
	CategoryFood          = "Food & Hospitality"
	CategoryBusiness      = "Business & Finance"
	CategoryScience       = "Science & Research"
	CategorySports        = "Sports & Fitness"
	CategoryEntertainment = "Entertainment"
	CategoryService       = "Service Industry"
	CategoryEnvironment   = "Environment"
	CategoryLegal         = "Legal & Government"
	CategoryEngineering   = "Engineering & Construction"
)

// Career is a selectable dream job.
type Career struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Emoji    string `json:"emoji"`
	Category string `json:"category"`
}

var careers = []Career{
	{"doctor", "Doctor", "🧑‍⚕️", CategoryHealthcare},
	{"nurse", "Nurse", "👩‍⚕️", CategoryHealthcare},
	{"paramedic", "Paramedic", "🚑", CategoryHealthcare},
	{"dentist", "Dentist", "🦷", CategoryHealthcare},
	{"veterinarian", "Veterinarian", "🐾", CategoryHealthcare},
	{"pharmacist", "Pharmacist", "💊", CategoryHealthcare},

	{"teacher", "Teacher", "👩‍🏫", CategoryEducation},
	{"professor", "Professor", "👨‍🎓", CategoryEducation},
	{"librarian", "Librarian", "📚", CategoryEducation},
	{"tutor", "Private Tutor", "📝", CategoryEducation},

	{"programmer", "Programmer", "🧑‍💻", CategoryTechnology},
	{"software-engineer", "Software Engineer", "👨‍💻", CategoryTechnology},
	{"data-scientist", "Data Scientist", "📊", CategoryTechnology},
	{"game-developer", "Game Developer", "🎮", CategoryTechnology},
	{"ai-engineer", "AI Engineer", "🤖", CategoryTechnology},
	{"web-designer", "Web Designer", "💻", CategoryTechnology},

	{"firefighter", "Firefighter", "🧑‍🚒", CategorySafety},
	{"police-officer", "Police Officer", "👮‍♀️", CategorySafety},
	{"security-guard", "Security Guard", "🛡️", CategorySafety},
	{"lifeguard", "Lifeguard", "🏊‍♀️", CategorySafety},

	{"pilot", "Pilot", "🧑‍✈️", CategoryTransport},
	{"bus-driver", "Bus Driver", "🚌", CategoryTransport},
	{"mrt-captain", "MRT Captain", "🚊", CategoryTransport},
	{"taxi-driver", "Taxi Driver", "🚕", CategoryTransport},
	{"ship-captain", "Ship Captain", "🚢", CategoryTransport},
	{"flight-attendant", "Flight Attendant", "✈️", CategoryTransport},

	{"artist", "Artist", "🎨", CategoryCreative},
	{"musician", "Musician", "🎵", CategoryCreative},
	{"designer", "Designer", "🖌️", CategoryCreative},
	{"photographer", "Photographer", "📸", CategoryCreative},
	{"animator", "Animator", "🎬", CategoryCreative},
	{"writer", "Writer", "✍️", CategoryCreative},

	{"chef", "Chef", "🍳", CategoryFood},
	{"baker", "Baker", "🧁", CategoryFood},
	{"food-scientist", "Food Scientist", "🔬", CategoryFood},
	{"hotel-manager", "Hotel Manager", "🏨", CategoryFood},

	{"scientist", "Scientist", "🧑‍🔬", CategoryScience},
	{"marine-biologist", "Marine Biologist", "🐠", CategoryScience},
	{"astronomer", "Astronomer", "🔭", CategoryScience},
	{"archaeologist", "Archaeologist", "🏺", CategoryScience},

	{"engineer", "Engineer", "🧑‍🔧", CategoryEngineering},
	{"architect", "Architect", "🏗️", CategoryEngineering},
	{"construction-worker", "Construction Worker", "👷‍♀️", CategoryEngineering},
	{"mechanic", "Mechanic", "🔧", CategoryEngineering},

	{"banker", "Banker", "🏦", CategoryBusiness},
	{"accountant", "Accountant", "🧮", CategoryBusiness},
	{"entrepreneur", "Business Owner", "💼", CategoryBusiness},
	{"salesperson", "Sales Person", "🛍️", CategoryBusiness},

	{"athlete", "Professional Athlete", "🏃‍♀️", CategorySports},
	{"coach", "Sports Coach", "🏆", CategorySports},
	{"gym-trainer", "Fitness Trainer", "💪", CategorySports},

	{"actor", "Actor/Actress", "🎭", CategoryEntertainment},
	{"singer", "Singer", "🎤", CategoryEntertainment},
	{"magician", "Magician", "🎪", CategoryEntertainment},
	{"youtuber", "Content Creator", "📹", CategoryEntertainment},

	{"cleaner", "Cleaner", "🧹", CategoryService},
	{"hairdresser", "Hairdresser", "💇‍♀️", CategoryService},
	{"delivery-person", "Delivery Person", "📦", CategoryService},

	{"farmer", "Farmer", "🌱", CategoryEnvironment},
	{"gardener", "Gardener", "🌿", CategoryEnvironment},
	{"environmental-scientist", "Environmental Scientist", "🌍", CategoryEnvironment},

	{"lawyer", "Lawyer", "⚖️", CategoryLegal},
	{"judge", "Judge", "👨‍⚖️", CategoryLegal},
	{"politician", "Government Official", "🏛️", CategoryLegal},
}

var careerIndex = func() map[string]int {
	idx := make(map[string]int, len(careers))
	for i, c := range careers {
		idx[c.Value] = i
	}
	return idx
}()

// Careers returns the full career catalog.
func Careers() []Career {
	out := make([]Career, len(careers))
	copy(out, careers)
	return out
}

// LookupCareer returns the catalog entry for tag.
func LookupCareer(tag string) (Career, bool) {
	if i, ok := careerIndex[strings.TrimSpace(tag)]; ok {
		return careers[i], true
	}
	return Career{}, false
}

// CareerDisplayName returns the catalog label for tag. Free-text careers
// are title-cased ("volcano-whisperer" becomes "Volcano Whisperer").
func CareerDisplayName(tag string) string {
	if c, ok := LookupCareer(tag); ok {
		return c.Label
	}
	return titleCase(tag)
}

// CareerEmoji returns the emoji for tag, or DefaultCareerEmoji.
func CareerEmoji(tag string) string {
	if c, ok := LookupCareer(tag); ok {
		return c.Emoji
	}
	return DefaultCareerEmoji
}

// SearchCareers filters the catalog to careers whose label and category
// contain every whitespace-separated term of query. Careers whose label
// contains the whole query sort first; ties sort by label.
func SearchCareers(query string) []Career {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Careers()
	}
	terms := strings.Fields(query)

	var matches []Career
	for _, c := range careers {
		text := strings.ToLower(c.Label + " " + c.Category)
		if containsAll(text, terms) {
			matches = append(matches, c)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		iExact := strings.Contains(strings.ToLower(matches[i].Label), query)
		jExact := strings.Contains(strings.ToLower(matches[j].Label), query)
		if iExact != jExact {
			return iExact
		}
		return matches[i].Label < matches[j].Label
	})
	return matches
}

func containsAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
