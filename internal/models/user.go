package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is keyed by a hash of the email address, so a returning visitor gets
// the same row back from the email alone.
type User struct {
	UserID      string         `gorm:"column:user_id;type:varchar(255);primaryKey" json:"user_id"`
	Email       *string        `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email,omitempty"`
	Preferences datatypes.JSON `gorm:"column:preferences" json:"preferences"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
	LastActive  time.Time      `gorm:"column:last_active" json:"last_active"`

	Conversations []Conversation        `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Sessions      []ConversationSession `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages      []ConversationMessage `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Visits        []UserSession         `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// Preferences is always written as a complete snapshot.
type Preferences struct {
	BudgetRange      string     `json:"budget_range,omitempty"`
	TravelStyle      []string   `json:"travel_style,omitempty"`
	PreferredClimate string     `json:"preferred_climate,omitempty"`
	LastUpdated      *time.Time `json:"last_updated,omitempty"`
}

// IsEmpty reports whether no choice has been made yet.
func (p *Preferences) IsEmpty() bool {
	return p == nil || (p.BudgetRange == "" && len(p.TravelStyle) == 0 && p.PreferredClimate == "")
}

// SameChoices compares the selections, ignoring LastUpdated.
func (p *Preferences) SameChoices(o *Preferences) bool {
	if p == nil || o == nil {
		return p.IsEmpty() && o.IsEmpty()
	}
	if p.BudgetRange != o.BudgetRange || p.PreferredClimate != o.PreferredClimate {
		return false
	}
	if len(p.TravelStyle) != len(o.TravelStyle) {
		return false
	}
	for i := range p.TravelStyle {
		if p.TravelStyle[i] != o.TravelStyle[i] {
			return false
		}
	}
	return true
}

// Count is the number of choices the user has made. LastUpdated is
// bookkeeping and does not count.
func (p *Preferences) Count() int {
	if p == nil {
		return 0
	}
	n := 0
	if p.BudgetRange != "" {
		n++
	}
	if len(p.TravelStyle) > 0 {
		n++
	}
	if p.PreferredClimate != "" {
		n++
	}
	return n
}
