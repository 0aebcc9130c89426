package scryfall

// Card is the subset of a Scryfall card object the booster engine reads.
// Everything else in the payload is ignored.
type Card struct {
	Object          string     `json:"object"`
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TypeLine        string     `json:"type_line"`
	Rarity          string     `json:"rarity"`
	Set             string     `json:"set"`
	SetName         string     `json:"set_name"`
	CollectorNumber string     `json:"collector_number"`
	ImageURIs       *ImageURIs `json:"image_uris,omitempty"`
	CardFaces       []Face     `json:"card_faces,omitempty"`
	Prices          Prices     `json:"prices"`

	// Foil and Nonfoil describe which finishes exist for this print. They say
	// nothing about whether a particular pull is foil.
	Foil    bool `json:"foil"`
	Nonfoil bool `json:"nonfoil"`
}

// Face is one side of a multi-faced card.
type Face struct {
	Name      string     `json:"name"`
	TypeLine  string     `json:"type_line"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs holds the image variants Scryfall serves for a card or face.
type ImageURIs struct {
	Small  string `json:"small,omitempty"`
	Normal string `json:"normal,omitempty"`
	Large  string `json:"large,omitempty"`
	PNG    string `json:"png,omitempty"`
}

// Best returns the preferred available image URL, or "".
func (u *ImageURIs) Best() string {
	if u == nil {
		return ""
	}
	for _, s := range []string{u.Normal, u.Large, u.Small, u.PNG} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Prices holds market prices as decimal strings; any of them may be null.
type Prices struct {
	USD     *string `json:"usd"`
	USDFoil *string `json:"usd_foil"`
}

// list is a page of search results.
type list struct {
	Object     string `json:"object"`
	TotalCards int    `json:"total_cards"`
	HasMore    bool   `json:"has_more"`
	NextPage   string `json:"next_page,omitempty"`
	Data       []Card `json:"data"`
}

// errorObject is the payload Scryfall returns instead of a card on failure.
type errorObject struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}
