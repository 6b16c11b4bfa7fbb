package prompts

import (
	"strings"
	"time"
)

const NoPreference = "No preference"

var budgetGuidance = map[string]string{
	"Budget":     "Focus on hostels, public transport, local eateries, and free attractions",
	"Mid-range":  "Balance of comfort and value with 3-star hotels, mix of dining options",
	"Luxury":     "Premium accommodations, fine dining, private transfers, and exclusive experiences",
	NoPreference: "I'll provide options across all budget ranges",
}

var styleTips = map[string]string{
	"Adventure":  "outdoor activities, hiking, extreme sports, and off-the-beaten-path destinations",
	"Relaxation": "spas, beaches, quiet retreats, and slow travel experiences",
	"Culture":    "museums, historical sites, local traditions, and cultural immersion",
	"Business":   "efficiency, connectivity, meeting facilities, and professional amenities",
	"Family":     "kid-friendly activities, safety, educational experiences, and convenience",
	"Solo":       "safety considerations, social opportunities, and personal growth experiences",
}

var climateSuggestions = map[string]string{
	"Tropical":  "warm beaches, rainforests, and consistent temperatures year-round",
	"Temperate": "moderate seasons, comfortable walking weather, and varied landscapes",
	"Cold":      "winter sports, northern lights, cozy accommodations, and cold-weather activities",
	"Desert":    "dry climates, unique landscapes, and considerations for extreme temperatures",
}

// Selector options offered for each preference.
var (
	BudgetOptions  = []string{"Budget", "Mid-range", "Luxury", NoPreference}
	StyleOptions   = []string{"Adventure", "Relaxation", "Culture", "Business", "Family", "Solo"}
	ClimateOptions = []string{"Tropical", "Temperate", "Cold", "Desert", NoPreference}
)

// Season maps a month to its northern-hemisphere season name.
func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

func BudgetGuidance(budget string) string {
	if g, ok := budgetGuidance[budget]; ok {
		return g
	}
	return "I'll tailor suggestions to your needs"
}

func StyleGuidance(styles []string) string {
	tips := make([]string, 0, len(styles))
	for _, s := range styles {
		if t, ok := styleTips[s]; ok {
			tips = append(tips, t)
		} else {
			tips = append(tips, strings.ToLower(s))
		}
	}
	return "prioritize " + strings.Join(tips, ", ")
}

func ClimateSuggestion(climate string) string {
	s, ok := climateSuggestions[climate]
	if !ok {
		s = strings.ToLower(climate)
	}
	return "seek destinations with " + s + " characteristics"
}
