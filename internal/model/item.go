package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Platform identifies the external source an item is published on.
type Platform string

// Platforms.
const (
	PlatformBooth  Platform = "booth"
	PlatformGitHub Platform = "github"
)

// Platforms lists every supported platform.
var Platforms = []Platform{PlatformBooth, PlatformGitHub}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformBooth, PlatformGitHub:
		return true
	}
	return false
}

var (
	boothIDPattern  = regexp.MustCompile(`^[0-9]{1,12}$`)
	githubIDPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})/[A-Za-z0-9._-]{1,100}$`)
)

// ValidateItemID checks that id has the shape the platform uses for item ids.
func ValidateItemID(p Platform, id string) error {
	switch p {
	case PlatformBooth:
		if !boothIDPattern.MatchString(id) {
			return fmt.Errorf("booth item id must be numeric, got %q", id)
		}
	case PlatformGitHub:
		if !githubIDPattern.MatchString(id) {
			return fmt.Errorf("github item id must be owner/repo, got %q", id)
		}
	default:
		return fmt.Errorf("unknown platform %q", p)
	}
	return nil
}

// NormalizeItemID returns the canonical form of id. GitHub owner and
// repository names are case-insensitive and are stored lower-cased. With no
// platform, an owner/repo shaped id is treated as GitHub; BOOTH ids are digits.
func NormalizeItemID(p Platform, id string) string {
	id = strings.TrimSpace(id)
	if p == PlatformGitHub || (p == "" && strings.Contains(id, "/")) {
		return strings.ToLower(id)
	}
	return id
}

// NormalizeKey canonicalizes a platform:id override key.
func NormalizeKey(key string) string {
	p, id, ok := strings.Cut(key, ":")
	if !ok {
		return key
	}
	return p + ":" + NormalizeItemID(Platform(p), id)
}

// Category is the internal item taxonomy.
type Category string

// Categories.
const (
	CategoryAvatar    Category = "avatar"
	CategoryClothing  Category = "clothing"
	CategoryAccessory Category = "accessory"
	CategoryHair      Category = "hair"
	CategoryShader    Category = "shader"
	CategoryTexture   Category = "texture"
	CategoryGimmick   Category = "gimmick"
	CategoryAnimation Category = "animation"
	CategoryTool      Category = "tool"
	CategoryWorld     Category = "world"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAvatar, CategoryClothing, CategoryAccessory, CategoryHair, CategoryShader,
	CategoryTexture, CategoryGimmick, CategoryAnimation, CategoryTool, CategoryWorld,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategorySource records which rule produced an item's category.
type CategorySource string

// Category sources, strongest first.
const (
	SourceOverride CategorySource = "override"
	SourceTaxonomy CategorySource = "taxonomy"
	SourceAI       CategorySource = "ai"
	SourceDefault  CategorySource = "default"
)

// Deterministic reports whether the source is a fixed table rather than a
// guess.
func (s CategorySource) Deterministic() bool {
	return s == SourceOverride || s == SourceTaxonomy
}

// PriceFree is the normalized price of items that can be downloaded for free.
const PriceFree = "FREE"

// Item is the cached, normalized copy of an external listing or repository.
type Item struct {
	ID          string    `json:"id"`
	Platform    Platform  `json:"platform"`
	Category    Category  `json:"category"`
	Name        string    `json:"name"`
	NiceName    string    `json:"nice_name,omitempty"`
	Description string    `json:"-"`
	ImageURL    string    `json:"image_url,omitempty"`
	Price       *string   `json:"price,omitempty"`
	Likes       int       `json:"likes"`
	NSFW        bool      `json:"nsfw"`
	Version     string    `json:"version,omitempty"`
	Authors     []string  `json:"authors,omitempty"`
	Outdated    bool      `json:"outdated"`
	ShopID      string    `json:"shop_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// CategorySource is where Category came from.
	CategorySource CategorySource `json:"category_source"`

	// Joined fields (not always populated).
	Shop *Shop `json:"shop,omitempty"`
}

// Key returns the platform-qualified key of the item.
func (i *Item) Key() ItemKey {
	return ItemKey{Platform: i.Platform, ID: i.ID}
}

// ItemKey identifies an item across platforms.
type ItemKey struct {
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
}

// String formats the key as platform:id, the form used by override tables.
func (k ItemKey) String() string {
	return string(k.Platform) + ":" + k.ID
}
