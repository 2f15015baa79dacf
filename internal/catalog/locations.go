// Package catalog holds the static selection data for poster requests:
// Singapore locations with their landmarks, the career list and the
// mission builder options.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenericLocation is the tag every unknown location resolves to.
const GenericLocation = "random-place"

// Location is a poster setting.
type Location struct {
	Value               string   `json:"value"`
	Label               string   `json:"label"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Landmarks           string   `json:"landmarks"`
	Emoji               string   `json:"emoji"`
	SuggestedActivities []string `json:"suggestedActivities"`
}

var locations = []Location{
	{
		Value:       "gardens-by-the-bay",
		Label:       "Gardens by the Bay",
		Name:        "Gardens by the Bay",
		Description: "Singapore's futuristic botanical wonderland",
		Landmarks:   "Supertree Grove with towering tree-like structures, Cloud Forest dome, Flower Dome conservatory",
		Emoji:       "🌸",
		SuggestedActivities: []string{
			"soaring like Superman above the Supertrees",
			"using plant powers to make flowers bloom instantly",
			"creating rainbow bridges between the domes",
			"flying through the Cloud Forest like a nature hero",
			"growing giant protective vines around the gardens",
		},
	},
	{
		Value:       "marina-bay-sands",
		Label:       "Marina Bay Sands",
		Name:        "Marina Bay Sands",
		Description: "Singapore's iconic luxury resort and casino",
		Landmarks:   "three connected towers with infinity pool on top, unique boat-shaped SkyPark, Marina Bay waterfront",
		Emoji:       "🏙️",
		SuggestedActivities: []string{
			"leaping between the three towers like Spider-Man",
			"creating water tornadoes from the infinity pool",
			"shooting laser beams that light up the city skyline",
			"surfing on energy waves across Marina Bay",
			"building bridges of light connecting the towers",
		},
	},
	{
		Value:       "jewel-changi",
		Label:       "Jewel Changi Airport",
		Name:        "Jewel Changi Airport",
		Description: "World-class airport entertainment complex",
		Landmarks:   "Rain Vortex indoor waterfall, lush indoor forest, glass dome architecture",
		Emoji:       "💎",
		SuggestedActivities: []string{
			"controlling the Rain Vortex with water powers",
			"flying through the forest dome like a jungle hero",
			"creating portals for instant travel around the world",
			"using crystal powers to make the dome sparkle",
			"guiding planes safely with superhero beacon powers",
		},
	},
	{
		Value:       "universal-studio",
		Label:       "Universal Studios Singapore",
		Name:        "Universal Studios Singapore",
		Description: "Beach paradise and theme parks on Sentosa",
		Landmarks:   "Universal Studios globe, roller coaster tracks, Sentosa beaches, cable car over the harbour",
		Emoji:       "🏖️",
		SuggestedActivities: []string{
			"surfing on giant waves with ocean superpowers",
			"building sandcastles that come to life and protect the beach",
			"racing underwater like Aquaman to save sea creatures",
			"creating fun roller coasters with imagination powers",
			"controlling the sun to create perfect beach weather",
		},
	},
	{
		Value:       "sentosa-island",
		Label:       "Sentosa Island",
		Name:        "Sentosa Island",
		Description: "Singapore's premier resort island",
		Landmarks:   "pristine beaches, Universal Studios theme park, cable car system, Merlion statue",
		Emoji:       "🏝️",
		SuggestedActivities: []string{
			"riding the cable car to spot trouble from above",
			"guarding the beaches with wave powers",
		},
	},
	{
		Value:       "botanic-gardens",
		Label:       "Singapore Botanic Gardens",
		Name:        "Singapore Botanic Gardens",
		Description: "UNESCO World Heritage botanical garden",
		Landmarks:   "National Orchid Garden, Swan Lake, heritage trees, tropical rainforest",
		Emoji:       "🌿",
		SuggestedActivities: []string{
			"talking to ancient trees to learn their wisdom",
			"creating healing potions from magical orchids",
			"flying like a butterfly hero through the garden paths",
			"growing a maze of protective plants around Singapore",
			"using nature powers to clean the air and water",
		},
	},
	{
		Value:       "singapore-flyer",
		Label:       "Singapore Flyer",
		Name:        "Singapore Flyer",
		Description: "Giant observation wheel with panoramic city views",
		Landmarks:   "giant ferris wheel, Marina Bay skyline, Singapore River, cityscape views",
		Emoji:       "🎡",
		SuggestedActivities: []string{
			"spinning the wheel super fast to generate clean energy",
			"jumping from capsule to capsule high in the sky",
			"using telescope vision to spot trouble across Singapore",
			"creating wind powers while flying around the wheel",
			"building sky bridges connecting to other tall buildings",
		},
	},
	{
		Value:       "merlion-park",
		Label:       "Merlion Park",
		Name:        "Merlion Park",
		Description: "Home to Singapore's iconic national symbol",
		Landmarks:   "Merlion statue spouting water, Marina Bay backdrop, Singapore skyline, waterfront promenade",
		Emoji:       "🦁",
		SuggestedActivities: []string{
			"commanding water like the mighty Merlion",
			"creating protective water shields around Singapore",
			"surfing on the Merlion's water spray across the bay",
			"talking to the lion spirit for ancient wisdom",
			"shooting healing water that helps plants and people",
		},
	},
	{
		Value:       "national-gallery",
		Label:       "National Gallery & Museums",
		Name:        "National Gallery Singapore",
		Description: "Premier visual arts institution",
		Landmarks:   "neoclassical architecture, Supreme Court and City Hall buildings, cultural district",
		Emoji:       "🏛️",
		SuggestedActivities: []string{
			"bringing paintings to life with magical art powers",
			"creating 3D sculptures that protect the city",
			"painting portals that transport people to safety",
			"using color powers to brighten everyone's day",
			"making murals that tell stories of Singapore's heroes",
		},
	},
	{
		Value:       "singapore-zoo",
		Label:       "Singapore Zoo",
		Name:        "Singapore Zoo",
		Description: "Famous open-concept zoo with wildlife habitats",
		Landmarks:   "open-concept rainforest enclosures, orangutans in the treetops, Upper Seletar Reservoir",
		Emoji:       "🦁",
		SuggestedActivities: []string{
			"talking to animals and guiding them like allies",
			"summoning protective jungle vines to keep visitors safe",
			"racing alongside cheetahs with super speed",
			"healing injured animals with magical powers",
			"soaring above enclosures to watch over the zoo",
		},
	},
	{
		Value:       "bird-paradise",
		Label:       "Singapore Bird Paradise",
		Name:        "Singapore Bird Paradise",
		Description: "Home to colorful birds and giant aviaries",
		Landmarks:   "giant walk-in aviaries, flocks of colorful parrots and flamingos, lush tropical canopy",
		Emoji:       "🦜",
		SuggestedActivities: []string{
			"flying with rainbow wings alongside exotic birds",
			"creating shimmering feather shields in the sky",
			"singing with magical bird calls that calm the city",
			"guiding flocks to form protective patterns above Singapore",
			"summoning a giant phoenix made of light",
		},
	},
	{
		Value:       "art-science-museum",
		Label:       "Art Science Museum",
		Name:        "ArtScience Museum",
		Description: "Contemporary art and creative exhibitions",
		Landmarks:   "lotus-shaped museum building, Marina Bay waterfront, glowing digital art installations",
		Emoji:       "🎨",
		SuggestedActivities: []string{
			"bringing paintings and sculptures to life to defend the city",
			"painting glowing murals that inspire happiness",
			"drawing magical doors that open into safe worlds",
			"splattering colors that turn into shields and weapons of light",
			"using brush strokes to reshape the environment creatively",
		},
	},
	{
		Value:       GenericLocation,
		Label:       "Any Random Place",
		Name:        "Singapore",
		Description: "vibrant multicultural city-state",
		Landmarks:   "modern skyline, tropical architecture, urban gardens, cultural landmarks",
		Emoji:       "🎲",
		SuggestedActivities: []string{
			"flying across Singapore's skyline with rainbow trails",
			"creating magic portals between different neighborhoods",
			"using time powers to explore Singapore's history",
			"building invisible bridges connecting all of Singapore",
			"spreading joy and laughter with happiness superpowers",
		},
	},
}

var locationIndex = func() map[string]int {
	idx := make(map[string]int, len(locations))
	for i, loc := range locations {
		idx[loc.Value] = i
	}
	return idx
}()

// Locations returns every location in display order.
func Locations() []Location {
	out := make([]Location, len(locations))
	copy(out, locations)
	return out
}

// LookupLocation returns the location for tag. Unknown or empty tags
// resolve to the generic Singapore entry; ok reports whether tag was known.
func LookupLocation(tag string) (loc Location, ok bool) {
	if i, found := locationIndex[strings.TrimSpace(tag)]; found {
		return locations[i], true
	}
	return locations[locationIndex[GenericLocation]], false
}

// LocationDisplayName returns the label for tag, or the tag title-cased
// when it is not in the catalog.
func LocationDisplayName(tag string) string {
	if loc, ok := LookupLocation(tag); ok {
		return loc.Label
	}
	return titleCase(tag)
}

func titleCase(tag string) string {
	words := strings.Fields(strings.ReplaceAll(tag, "-", " "))
	return cases.Title(language.English).String(strings.Join(words, " "))
}
