// Package prompts builds the message list sent to the completion endpoint
// and the canned copy shown around the chat.
package prompts

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/yoockh/yootravel/internal/models"
)

// HistoryWindow is the number of trailing transcript entries considered
// for each prompt.
const HistoryWindow = 4

const maxStarters = 6

type Assembler struct {
	now  func() time.Time
	intn func(n int) int
	cat  *Catalog
}

type Option func(*Assembler)

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithRand replaces the random source used for greetings, tips and starters.
func WithRand(intn func(n int) int) Option {
	return func(a *Assembler) { a.intn = intn }
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{now: time.Now, intn: rand.IntN, cat: defaultCatalog}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assemble returns the system message, the last HistoryWindow entries of
// history restricted to user/assistant roles, and the new user message.
// The window is cut before filtering, so a dropped role is not backfilled.
func (a *Assembler) Assemble(prefs *models.Preferences, history []models.ChatMessage, newMessage string) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, HistoryWindow+2)
	out = append(out, models.ChatMessage{Role: models.RoleSystem, Content: a.SystemPrompt(prefs)})

	recent := history
	if len(recent) > HistoryWindow {
		recent = recent[len(recent)-HistoryWindow:]
	}
	for _, m := range recent {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			out = append(out, models.ChatMessage{Role: m.Role, Content: m.Content})
		}
	}

	return append(out, models.ChatMessage{Role: models.RoleUser, Content: newMessage})
}

func (a *Assembler) SystemPrompt(prefs *models.Preferences) string {
	now := a.now()
	intro := strings.NewReplacer(
		"{date}", now.Format("2006-01-02"),
		"{season}", Season(now.Month()),
	).Replace(strings.TrimRight(a.cat.SystemPrompt.Intro, "\n"))

	var sb strings.Builder
	sb.WriteString(intro)
	sb.WriteString("\n\n")

	if !prefs.IsEmpty() {
		sb.WriteString("USER PREFERENCES:\n")
		if prefs.BudgetRange != "" {
			sb.WriteString("• Budget Level: " + prefs.BudgetRange + " - " + BudgetGuidance(prefs.BudgetRange) + "\n")
		}
		if len(prefs.TravelStyle) > 0 {
			sb.WriteString("• Travel Style: " + strings.Join(prefs.TravelStyle, ", ") + " - " + StyleGuidance(prefs.TravelStyle) + "\n")
		}
		if c := prefs.PreferredClimate; c != "" && c != NoPreference {
			sb.WriteString("• Climate Preference: " + c + " - " + ClimateSuggestion(c) + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.TrimRight(a.cat.SystemPrompt.Guidelines, "\n"))
	return sb.String()
}

// WelcomeMessage is a random greeting, a sentence echoing the user's
// preferences when any are set, and a random travel tip.
func (a *Assembler) WelcomeMessage(prefs *models.Preferences) string {
	msg := a.pick(a.cat.WelcomeMessages)
	if !prefs.IsEmpty() {
		msg += "\n\n🎯 I notice you prefer " + FormatPreferences(prefs) + ". I'll keep that in mind for our conversation!"
	}
	return msg + "\n\n" + a.pick(a.cat.QuickTips)
}

// FormatPreferences renders preferences as a short phrase,
// ex: "budget travel, adventure and culture experiences, tropical destinations".
func FormatPreferences(prefs *models.Preferences) string {
	var parts []string
	if prefs != nil {
		if prefs.BudgetRange != "" {
			parts = append(parts, strings.ToLower(prefs.BudgetRange)+" travel")
		}
		if len(prefs.TravelStyle) > 0 {
			parts = append(parts, strings.ToLower(strings.Join(prefs.TravelStyle, " and "))+" experiences")
		}
		if c := prefs.PreferredClimate; c != "" && c != NoPreference {
			parts = append(parts, strings.ToLower(c)+" destinations")
		}
	}
	if len(parts) == 0 {
		return "personalized travel experiences"
	}
	return strings.Join(parts, ", ")
}

// Starters returns up to six suggestions sampled without replacement,
// including personalised ones for adventure, culture and budget travellers.
func (a *Assembler) Starters(prefs *models.Preferences) []string {
	pool := append([]string(nil), a.cat.Starters.Base...)
	if prefs != nil {
		for _, s := range prefs.TravelStyle {
			switch s {
			case "Adventure":
				pool = append(pool, a.cat.Starters.Adventure)
			case "Culture":
				pool = append(pool, a.cat.Starters.Culture)
			}
		}
		if prefs.BudgetRange == "Budget" {
			pool = append(pool, a.cat.Starters.Budget)
		}
	}

	// partial Fisher-Yates
	n := min(maxStarters, len(pool))
	for i := 0; i < n; i++ {
		j := i + a.intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func (a *Assembler) Checklist() string {
	return a.cat.Checklist
}

func (a *Assembler) QuickActions() []QuickAction {
	return append([]QuickAction(nil), a.cat.QuickActions...)
}

// QuickAction looks up a canned prompt by id.
func (a *Assembler) QuickAction(id string) (QuickAction, bool) {
	for _, q := range a.cat.QuickActions {
		if q.ID == id {
			return q, true
		}
	}
	return QuickAction{}, false
}

func (a *Assembler) pick(items []string) string {
	return items[a.intn(len(items))]
}
