package catalog

import (
	"time"

	"github.com/erazemk/setupcatalog/internal/model"
)

// Freshness is the verdict on a cached record.
type Freshness int

const (
	Stale Freshness = iota
	Fresh
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}

// Assess decides whether a cached record can be served without asking the
// platform. A record is fresh only when no refresh is forced, it is not
// flagged outdated and it is younger than ttl.
func Assess(updatedAt time.Time, outdated bool, ttl time.Duration, force bool, now time.Time) Freshness {
	if force || outdated {
		return Stale
	}
	if now.Sub(updatedAt) < ttl {
		return Fresh
	}
	return Stale
}

// Default TTLs per platform.
const (
	DefaultBoothTTL  = 24 * time.Hour
	DefaultGitHubTTL = time.Hour
)

// Policy holds the per-platform TTLs.
type Policy struct {
	BoothTTL  time.Duration
	GitHubTTL time.Duration
}

// DefaultPolicy returns the default TTLs.
func DefaultPolicy() Policy {
	return Policy{BoothTTL: DefaultBoothTTL, GitHubTTL: DefaultGitHubTTL}
}

// TTL returns the maximum age of a record from platform p. Unknown platforms
// get a zero TTL, which makes every record stale.
func (p Policy) TTL(platform model.Platform) time.Duration {
	switch platform {
	case model.PlatformBooth:
		return p.BoothTTL
	case model.PlatformGitHub:
		return p.GitHubTTL
	}
	return 0
}
