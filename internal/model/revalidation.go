package model

import "time"

// Revalidation outcomes.
const (
	OutcomeIngested    = "ingested"
	OutcomeRefreshed   = "refreshed"
	OutcomeUnavailable = "unavailable"
	OutcomeDisallowed  = "disallowed"
	OutcomeError       = "error"
)

// Revalidation records one adapter attempt for an item.
type Revalidation struct {
	ID          int64         `json:"id"`
	Platform    Platform      `json:"platform"`
	ItemID      string        `json:"item_id"`
	Outcome     string        `json:"outcome"`
	Detail      string        `json:"detail,omitempty"`
	Duration    time.Duration `json:"duration"`
	AttemptedAt time.Time     `json:"attempted_at"`
}
