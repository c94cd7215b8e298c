package parser

import "strings"

// Rule maps title keywords to a label. Rules are evaluated in order and the
// first match wins, so more specific keywords must come first.
type Rule struct {
	Keywords []string
	Label    string
}

const (
	DefaultCategory = "Documentaries"
	DefaultSeries   = "NASA Originals"
	DefaultIcon     = "📺"
)

// CategoryRules bucket a show title into a content category.
var CategoryRules = []Rule{
	{Keywords: []string{"webb", "telescope"}, Label: "James Webb"},
	{Keywords: []string{"mars", "rover"}, Label: "Mars"},
	{Keywords: []string{"astronaut", "crew"}, Label: "Astronauts"},
	{Keywords: []string{"launch", "rocket"}, Label: "Launches"},
	{Keywords: []string{"earth", "climate"}, Label: "Earth & Climate"},
	{Keywords: []string{"asteroid", "planetary"}, Label: "Asteroids"},
	{Keywords: []string{"artemis", "moon"}, Label: "Artemis"},
	{Keywords: []string{"documentary", "story"}, Label: "Documentaries"},
	{Keywords: []string{"technology", "engineering"}, Label: "Technology"},
}

// SeriesRules infer series membership when no explicit series link exists.
var SeriesRules = []Rule{
	{Keywords: []string{"far out"}, Label: "Far Out"},
	{Keywords: []string{"other worlds"}, Label: "Other Worlds"},
	{Keywords: []string{"down to earth"}, Label: "Down to Earth"},
	{Keywords: []string{"elements"}, Label: "Elements of Webb"},
	{Keywords: []string{"why with"}, Label: "Why with Nye"},
	{Keywords: []string{"explorers"}, Label: "NASA Explorers"},
}

// IconRules pick an emoji label for a series name.
var IconRules = []Rule{
	{Keywords: []string{"far out"}, Label: "🔬"},
	{Keywords: []string{"other worlds"}, Label: "🪐"},
	{Keywords: []string{"down to earth"}, Label: "🌎"},
	{Keywords: []string{"webb", "elements"}, Label: "🔭"},
	{Keywords: []string{"explorers"}, Label: "👨‍🚀"},
	{Keywords: []string{"why"}, Label: "🧪"},
	{Keywords: []string{"alien earth"}, Label: "🌍"},
	{Keywords: []string{"space out"}, Label: "🚀"},
}

// Match returns the label of the first rule whose keyword occurs in the
// title (case-insensitive substring), or fallback when none matches.
func Match(title string, rules []Rule, fallback string) string {
	lower := strings.ToLower(title)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Label
			}
		}
	}

	return fallback
}
