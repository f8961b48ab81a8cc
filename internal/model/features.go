package model

// FeatureSnapshot is the read-only configuration consumed by one engine call.
// The surrounding application refreshes it; the engine never mutates it.
type FeatureSnapshot struct {
	ForceRefresh       bool                `json:"force_refresh" yaml:"force_refresh"`
	AllowedCategoryIDs []int               `json:"allowed_category_ids" yaml:"allowed_category_ids"`
	CategoryOverrides  map[string]Category `json:"category_overrides" yaml:"category_overrides"`
}

// CategoryAllowed reports whether a platform category id passes the allow-list.
// An empty allow-list allows everything.
func (s FeatureSnapshot) CategoryAllowed(id int) bool {
	if len(s.AllowedCategoryIDs) == 0 {
		return true
	}
	for _, allowed := range s.AllowedCategoryIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// WithForceRefresh returns a copy of s with ForceRefresh set.
func (s FeatureSnapshot) WithForceRefresh() FeatureSnapshot {
	s.ForceRefresh = true
	return s
}
