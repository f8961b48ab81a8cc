package model

import "time"

// Setup is a user-authored post referencing a base avatar and the items applied to it.
type Setup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Author    string    `json:"author"`
	Avatar    *ItemKey  `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Shapekey is a named blend shape value set by the setup author.
type Shapekey struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SetupItemRef associates a setup with an item. It lives and dies with its setup.
type SetupItemRef struct {
	SetupID     string     `json:"-"`
	Position    int        `json:"position"`
	Key         ItemKey    `json:"item"`
	Category    *Category  `json:"category,omitempty"`
	Note        string     `json:"note,omitempty"`
	Unsupported bool       `json:"unsupported"`
	Shapekeys   []Shapekey `json:"shapekeys,omitempty"`

	// Item is the stored record the reference points at (nil if never cached).
	Item *Item `json:"-"`
}

// SetupItem is an item as shown inside a setup: canonical item data merged
// with the author's per-reference fields.
type SetupItem struct {
	Item
	CategoryOverride *Category  `json:"category_override,omitempty"`
	Note             string     `json:"note,omitempty"`
	Unsupported      bool       `json:"unsupported"`
	Shapekeys        []Shapekey `json:"shapekeys,omitempty"`
}
