package prompts

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yootravel/internal/models"
)

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

func firstIndex(n int) int { return 0 }

func TestSeasonAllMonths(t *testing.T) {
	want := map[time.Month]string{
		time.January: "winter", time.February: "winter", time.March: "spring",
		time.April: "spring", time.May: "spring", time.June: "summer",
		time.July: "summer", time.August: "summer", time.September: "autumn",
		time.October: "autumn", time.November: "autumn", time.December: "winter",
	}
	for m := time.January; m <= time.December; m++ {
		t.Run(m.String(), func(t *testing.T) {
			assert.Equal(t, want[m], Season(m))
		})
	}
}

func TestAssembleWindowAndFilter(t *testing.T) {
	a := NewAssembler(WithClock(fixedClock(2026, time.July, 4)))

	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "u1"},
		{Role: models.RoleAssistant, Content: "a1"},
		{Role: models.RoleUser, Content: "u2"},
		{Role: "tool", Content: "t"},
		{Role: models.RoleAssistant, Content: "a2"},
		{Role: models.RoleUser, Content: "u3"},
	}
	msgs := a.Assemble(nil, history, "where next?")

	require.Len(t, msgs, 5)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	// window is [u2, tool, a2, u3]; tool is dropped and not backfilled with a1
	assert.Equal(t, []models.ChatMessage{
		{Role: models.RoleUser, Content: "u2"},
		{Role: models.RoleAssistant, Content: "a2"},
		{Role: models.RoleUser, Content: "u3"},
	}, msgs[1:4])
	assert.Equal(t, models.ChatMessage{Role: models.RoleUser, Content: "where next?"}, msgs[4])
}

func TestAssembleShapeForAnyHistoryLength(t *testing.T) {
	a := NewAssembler()
	for n := 0; n <= 9; n++ {
		var history []models.ChatMessage
		for i := 0; i < n; i++ {
			role := models.RoleUser
			if i%2 == 1 {
				role = models.RoleAssistant
			}
			history = append(history, models.ChatMessage{Role: role, Content: fmt.Sprint(i)})
		}
		msgs := a.Assemble(nil, history, "q")
		assert.Equal(t, models.RoleSystem, msgs[0].Role)
		assert.LessOrEqual(t, len(msgs)-2, HistoryWindow)
		assert.Equal(t, min(n, HistoryWindow), len(msgs)-2)
		assert.Equal(t, "q", msgs[len(msgs)-1].Content)
		if n > 0 {
			assert.Equal(t, fmt.Sprint(n-1), msgs[len(msgs)-2].Content)
		}
	}
}

func TestAssembleDoesNotTrimLongMessages(t *testing.T) {
	long := strings.Repeat("x", 20000)
	msgs := NewAssembler().Assemble(nil, []models.ChatMessage{{Role: models.RoleUser, Content: long}}, long)
	assert.Equal(t, long, msgs[1].Content)
	assert.Equal(t, long, msgs[2].Content)
}

func TestSystemPromptWithPreferences(t *testing.T) {
	a := NewAssembler(WithClock(fixedClock(2026, time.January, 15)))
	prompt := a.SystemPrompt(&models.Preferences{
		BudgetRange:      "Luxury",
		TravelStyle:      []string{"Culture", "Foodie"},
		PreferredClimate: "Cold",
	})

	assert.Contains(t, prompt, "Today's date is 2026-01-15 and we're in winter season.")
	assert.Contains(t, prompt, "USER PREFERENCES:\n")
	assert.Contains(t, prompt, "• Budget Level: Luxury - Premium accommodations, fine dining, private transfers, and exclusive experiences\n")
	assert.Contains(t, prompt, "• Travel Style: Culture, Foodie - prioritize museums, historical sites, local traditions, and cultural immersion, foodie\n")
	assert.Contains(t, prompt, "• Climate Preference: Cold - seek destinations with winter sports, northern lights, cozy accommodations, and cold-weather activities characteristics\n")
	assert.True(t, strings.HasSuffix(prompt, "memorable travel experiences!"))
}

func TestSystemPromptDegradesUnknownValues(t *testing.T) {
	a := NewAssembler(WithClock(fixedClock(2026, time.October, 1)))
	prompt := a.SystemPrompt(&models.Preferences{BudgetRange: "Shoestring", PreferredClimate: NoPreference})

	assert.Contains(t, prompt, "autumn season")
	assert.Contains(t, prompt, "• Budget Level: Shoestring - I'll tailor suggestions to your needs\n")
	assert.NotContains(t, prompt, "Climate Preference")

	assert.Equal(t, "seek destinations with arctic characteristics", ClimateSuggestion("Arctic"))
	assert.NotContains(t, a.SystemPrompt(nil), "USER PREFERENCES")
}

func TestWelcomeMessage(t *testing.T) {
	a := NewAssembler(WithRand(firstIndex))

	plain := a.WelcomeMessage(nil)
	assert.True(t, strings.HasPrefix(plain, "Welcome to your personal Travel Assistant!"))
	assert.True(t, strings.HasSuffix(plain, "\n\n💡 Tip: Book flights 6-8 weeks in advance for the best domestic deals!"))
	assert.NotContains(t, plain, "I notice you prefer")

	personal := a.WelcomeMessage(&models.Preferences{BudgetRange: "Budget", TravelStyle: []string{"Adventure", "Culture"}, PreferredClimate: "Tropical"})
	assert.Contains(t, personal, "🎯 I notice you prefer budget travel, adventure and culture experiences, tropical destinations.")
}

func TestFormatPreferencesFallback(t *testing.T) {
	assert.Equal(t, "personalized travel experiences", FormatPreferences(&models.Preferences{PreferredClimate: NoPreference}))
}

func TestStartersPersonalisedAndBounded(t *testing.T) {
	// always pick the last remaining element so personalised ones come first
	last := func(n int) int { return n - 1 }
	a := NewAssembler(WithRand(last))

	got := a.Starters(&models.Preferences{BudgetRange: "Budget", TravelStyle: []string{"Adventure", "Culture"}})
	require.Len(t, got, 6)
	assert.Equal(t, "Show me how to travel on a tight budget", got[0])

	got = a.Starters(&models.Preferences{TravelStyle: []string{"Adventure"}})
	assert.Equal(t, "Find me the best adventure destinations", got[0])
	got = a.Starters(&models.Preferences{TravelStyle: []string{"Culture"}})
	assert.Equal(t, "Recommend cultural experiences and festivals", got[0])

	seen := map[string]bool{}
	for _, s := range NewAssembler().Starters(nil) {
		assert.False(t, seen[s], "duplicate starter %q", s)
		seen[s] = true
	}
	assert.Len(t, seen, 6)
}

func TestQuickActionsAndChecklist(t *testing.T) {
	a := NewAssembler()
	require.Len(t, a.QuickActions(), 4)

	q, ok := a.QuickAction("find_flights")
	require.True(t, ok)
	assert.Equal(t, "Help me find flight options. What information do you need from me?", q.Prompt)

	_, ok = a.QuickAction("rent_car")
	assert.False(t, ok)

	assert.Contains(t, a.Checklist(), "TRAVEL CHECKLIST")
}

func TestParseCatalogRejectsIncomplete(t *testing.T) {
	_, err := parseCatalog([]byte("quick_tips: [a]"))
	assert.Error(t, err)
	_, err = parseCatalog([]byte(":\n  - ["))
	assert.Error(t, err)
}
