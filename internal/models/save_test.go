package models

import "testing"

func TestNewSave(t *testing.T) {
	save := NewSave("  First Campaign  ")
	if save.CampaignName != "First Campaign" {
		t.Errorf("campaign name = %q, want trimmed", save.CampaignName)
	}
	if save.BattleNumber != 1 || save.RoundNumber != 1 {
		t.Errorf("new save at battle %d round %d, want 1/1", save.BattleNumber, save.RoundNumber)
	}
}

func TestNextBattle(t *testing.T) {
	save := NewSave("campaign")
	save.BattlePower = 5

	save.NextBattle()
	if save.BattleNumber != 2 {
		t.Errorf("battle number = %d, want 2", save.BattleNumber)
	}
	if save.BattlePower != 0 {
		t.Error("battle power must reset on a new battle")
	}
}

func TestNextBattleWraps(t *testing.T) {
	save := NewSave("campaign")
	save.BattleNumber = maxBattleNumber

	save.NextBattle()
	if save.BattleNumber != 1 {
		t.Errorf("battle number = %d, want wrap to 1", save.BattleNumber)
	}
}

func TestSpecials(t *testing.T) {
	save := NewSave("campaign")

	save.UseSpecial("Avalanche")
	save.UseSpecial("Avalanche")
	save.UseSpecial("Judgement")

	if len(save.UsedSpecials) != 2 {
		t.Errorf("used specials = %v, want deduplicated pair", save.UsedSpecials)
	}
	if !save.SpecialUsed("Avalanche") || save.SpecialUsed("Heartseeker") {
		t.Error("SpecialUsed tracking wrong")
	}

	save.RefreshSpecials()
	if len(save.UsedSpecials) != 0 || save.SpecialUsed("Avalanche") {
		t.Error("RefreshSpecials must clear all spent specials")
	}
}

func TestCharacterClasses(t *testing.T) {
	var ch Character

	ch.AddClass("Knight")
	ch.AddClass("Knight")
	ch.AddClass("Paladin")

	if len(ch.Classes) != 2 {
		t.Errorf("classes = %v, want deduplicated pair", ch.Classes)
	}
	if !ch.HoldsClass("Knight") || ch.HoldsClass("Mage") {
		t.Error("HoldsClass tracking wrong")
	}
}
