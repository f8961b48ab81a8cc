package model

import "time"

// Shop is the seller or organization that publishes items. For GitHub it is
// synthesized from the repository owner.
type Shop struct {
	ID        string    `json:"id"`
	Platform  Platform  `json:"platform"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url,omitempty"`
	Verified  bool      `json:"verified"`
	UpdatedAt time.Time `json:"updated_at"`
}
