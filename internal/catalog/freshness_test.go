package catalog

import (
	"testing"
	"time"

	"github.com/erazemk/setupcatalog/internal/model"
)

func TestAssess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	tests := []struct {
		name     string
		age      time.Duration
		outdated bool
		force    bool
		want     Freshness
	}{
		{"young record", time.Hour, false, false, Fresh},
		{"just under ttl", ttl - time.Millisecond, false, false, Fresh},
		{"exactly ttl", ttl, false, false, Stale},
		{"older than ttl", 25 * time.Hour, false, false, Stale},
		{"outdated young record", time.Hour, true, false, Stale},
		{"forced young record", time.Hour, false, true, Stale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(now.Add(-tt.age), tt.outdated, ttl, tt.force, now)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPolicyTTL(t *testing.T) {
	p := DefaultPolicy()
	if got := p.TTL(model.PlatformBooth); got != 24*time.Hour {
		t.Errorf("expected booth ttl 24h, got %s", got)
	}
	if got := p.TTL(model.PlatformGitHub); got != time.Hour {
		t.Errorf("expected github ttl 1h, got %s", got)
	}
	if got := p.TTL("gumroad"); got != 0 {
		t.Errorf("expected zero ttl for unknown platform, got %s", got)
	}
}
