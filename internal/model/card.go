package model

// Card is one physical pull stored in the collection.
// Schema changes require a version bump; see internal/version/version.go.
type Card struct {
	InstanceID      string     `json:"instance_id"`
	OriginalID      string     `json:"original_id"`
	Name            string     `json:"name"`
	Rarity          Rarity     `json:"rarity"`
	Type            string     `json:"type"`
	Set             string     `json:"set"`
	SetCode         string     `json:"set_code"`
	CollectorNumber string     `json:"collector_number"`
	Image           string     `json:"image"`
	CardFaces       *[2]string `json:"card_faces,omitempty"` // [front, back], nil for single-faced cards
	Price           float64    `json:"price"`
	Foil            bool       `json:"foil"`

	// ObtainedAtMillis is stamped when the card is committed to the collection.
	ObtainedAtMillis int64 `json:"date_obtained"`
}

// IsValid reports whether the card carries the fields the UI cannot render without.
func (c *Card) IsValid() bool {
	return c != nil && c.Name != "" && c.Image != ""
}

// IsDoubleFaced returns true if the card has a separate back face image.
func (c *Card) IsDoubleFaced() bool {
	return c.CardFaces != nil
}
