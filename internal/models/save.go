package models

import (
	"strings"
	"time"
)

// maxBattleNumber is where the battle counter wraps back to 1; saves
// predate 32-bit counters and older clients store the number in 16
// bits.
const maxBattleNumber = 65535

// Character is the sheet-facing slice of a save: the chosen origin and
// the classes the character currently holds.
type Character struct {
	Origin  string   `json:"origin,omitempty"`
	Classes []string `json:"classes,omitempty"`
}

// HoldsClass reports whether the character already holds the class.
func (c *Character) HoldsClass(name string) bool {
	for _, held := range c.Classes {
		if held == name {
			return true
		}
	}
	return false
}

// AddClass records a newly acquired class; acquiring a class twice is
// a no-op.
func (c *Character) AddClass(name string) {
	if c.HoldsClass(name) {
		return
	}
	c.Classes = append(c.Classes, name)
}

// Save is one campaign save slot. Battle and round numbers are
// persisted verbatim for the companion UI; in-battle turn accounting
// lives client-side.
type Save struct {
	ID            string    `json:"id"`
	CampaignName  string    `json:"campaign_name"`
	BattleNumber  int       `json:"battle_number"`
	RoundNumber   int       `json:"round_number"`
	Character     Character `json:"character"`
	UsedSpecials  []string  `json:"used_specials,omitempty"`
	BattlePower   int       `json:"battle_power"`
	BattleDefense int       `json:"battle_defense"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewSave creates a fresh save for a campaign, positioned at the first
// battle and round.
func NewSave(campaignName string) *Save {
	return &Save{
		CampaignName: strings.TrimSpace(campaignName),
		BattleNumber: 1,
		RoundNumber:  1,
	}
}

// NextBattle advances the battle counter, wrapping past the 16-bit cap
// back to 1, and resets the per-battle power modifier.
func (s *Save) NextBattle() {
	s.BattleNumber++
	if s.BattleNumber > maxBattleNumber {
		s.BattleNumber = 1
	}
	s.BattlePower = 0
}

// UseSpecial marks a special action as spent until the next refresh.
func (s *Save) UseSpecial(name string) {
	if !s.SpecialUsed(name) {
		s.UsedSpecials = append(s.UsedSpecials, name)
	}
}

// RefreshSpecials makes every special action usable again.
func (s *Save) RefreshSpecials() {
	s.UsedSpecials = nil
}

// SpecialUsed reports whether the named special action has been spent.
// Specials are identified by name only.
func (s *Save) SpecialUsed(name string) bool {
	for _, used := range s.UsedSpecials {
		if used == name {
			return true
		}
	}
	return false
}
