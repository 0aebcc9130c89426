package model

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestPackDefinition_CloneIsIndependent(t *testing.T) {
	original := &PackDefinition{
		Key:     "dmu",
		Name:    "Dominaria United",
		SetCode: "dmu",
		Price:   4,
		Slots: []SlotDefinition{
			{Count: 10, Pool: "common"},
			{Count: 1, Pool: "rare", Odds: []OddsEntry{{Rarity: Rare, Weight: 7}, {Rarity: Mythic, Weight: 1}}},
			{Count: 1, Pool: PoolLand, Foil: boolPtr(false)},
		},
	}

	clone := original.Clone()
	clone.Slots[0].Count = 99
	clone.Slots[1].Odds[0].Weight = 0
	*clone.Slots[2].Foil = true
	clone.Slots = append(clone.Slots, SlotDefinition{Count: 1})

	if original.Slots[0].Count != 10 {
		t.Errorf("slot count leaked through clone: %d", original.Slots[0].Count)
	}
	if original.Slots[1].Odds[0].Weight != 7 {
		t.Errorf("odds leaked through clone: %v", original.Slots[1].Odds[0].Weight)
	}
	if *original.Slots[2].Foil {
		t.Error("foil flag leaked through clone")
	}
	if len(original.Slots) != 3 {
		t.Errorf("slot list leaked through clone: %d slots", len(original.Slots))
	}
}

func TestPackDefinition_NominalSize(t *testing.T) {
	p := &PackDefinition{Slots: []SlotDefinition{{Count: 7}, {Count: 3}, {Count: 1}}}
	if got := p.NominalSize(); got != 11 {
		t.Errorf("NominalSize() = %d, want 11", got)
	}
}

func TestInventory_CountNeverNegative(t *testing.T) {
	inv := Inventory{"dmu": 2, "bro": -3}

	if inv.Count("dmu") != 2 {
		t.Errorf("Count(dmu) = %d, want 2", inv.Count("dmu"))
	}
	if inv.Count("bro") != 0 {
		t.Errorf("Count(bro) = %d, want 0", inv.Count("bro"))
	}
	if inv.Count("missing") != 0 {
		t.Errorf("Count(missing) = %d, want 0", inv.Count("missing"))
	}
	if inv.Total() != 2 {
		t.Errorf("Total() = %d, want 2", inv.Total())
	}
}
