package model

import (
	"encoding/json"
	"testing"
)

func TestNormalizeRarity(t *testing.T) {
	tests := []struct {
		input    string
		expected Rarity
	}{
		{"common", Common},
		{"uncommon", Uncommon},
		{"rare", Rare},
		{"mythic", Mythic},
		{"mythic rare", Mythic},
		{"Mythic Rare", Mythic},
		{"  RARE ", Rare},

		// Unrecognized values fall back to common
		{"special", Common},
		{"bonus", Common},
		{"", Common},
		{"legendary", Common},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeRarity(tt.input); got != tt.expected {
				t.Errorf("NormalizeRarity(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseRarity(t *testing.T) {
	if r, ok := ParseRarity("Mythic"); !ok || r != Mythic {
		t.Errorf("ParseRarity(Mythic) = %q, %v", r, ok)
	}
	if _, ok := ParseRarity("land"); ok {
		t.Error("land should not parse as a rarity")
	}
	if _, ok := ParseRarity("mythic rare"); ok {
		t.Error("ParseRarity only accepts exact tags")
	}
}

func TestCard_IsValid(t *testing.T) {
	tests := []struct {
		name string
		card *Card
		want bool
	}{
		{"nil", nil, false},
		{"missing name", &Card{Image: "https://img"}, false},
		{"missing image", &Card{Name: "Forest"}, false},
		{"valid", &Card{Name: "Forest", Image: "https://img"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCard_JSONOmitsFacesForSingleFaced(t *testing.T) {
	card := Card{InstanceID: "a", Name: "Forest", Image: "https://img", Rarity: Common}

	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := raw["card_faces"]; ok {
		t.Error("card_faces should be omitted for single-faced cards")
	}
	if raw["price"] != float64(0) {
		t.Errorf("price should serialize as 0, got %v", raw["price"])
	}
}

func TestCard_JSONRoundTripFaces(t *testing.T) {
	card := Card{
		InstanceID: "a",
		Name:       "Delver of Secrets",
		Image:      "https://front",
		CardFaces:  &[2]string{"https://front", "https://back"},
	}

	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Card
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.IsDoubleFaced() {
		t.Fatal("expected double-faced card after round trip")
	}
	if decoded.CardFaces[1] != "https://back" {
		t.Errorf("back face mismatch: got %q", decoded.CardFaces[1])
	}
}
