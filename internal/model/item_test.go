package model

import "testing"

func TestValidateItemID(t *testing.T) {
	tests := []struct {
		platform Platform
		id       string
		wantErr  bool
	}{
		{PlatformBooth, "42", false},
		{PlatformBooth, "1234567", false},
		{PlatformBooth, "", true},
		{PlatformBooth, "12a", true},
		{PlatformBooth, "../42", true},
		{PlatformGitHub, "lilxyzw/lilToon", false},
		{PlatformGitHub, "owner/repo.name", false},
		{PlatformGitHub, "lilToon", true},
		{PlatformGitHub, "owner/repo/extra", true},
		{PlatformGitHub, "-owner/repo", true},
		{"gumroad", "42", true},
	}

	for _, tt := range tests {
		err := ValidateItemID(tt.platform, tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateItemID(%q, %q) error = %v, wantErr %v", tt.platform, tt.id, err, tt.wantErr)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("expected %q to be valid", c)
		}
	}
	if Category("weapon").Valid() {
		t.Error("expected unknown category to be invalid")
	}
}

func TestCategoryAllowed(t *testing.T) {
	open := FeatureSnapshot{}
	if !open.CategoryAllowed(208) {
		t.Error("expected empty allow-list to allow everything")
	}

	restricted := FeatureSnapshot{AllowedCategoryIDs: []int{208, 209}}
	if !restricted.CategoryAllowed(209) {
		t.Error("expected 209 to be allowed")
	}
	if restricted.CategoryAllowed(35) {
		t.Error("expected 35 to be rejected")
	}
}

func TestItemKeyString(t *testing.T) {
	k := ItemKey{Platform: PlatformGitHub, ID: "lilxyzw/lilToon"}
	if got := k.String(); got != "github:lilxyzw/lilToon" {
		t.Errorf("expected 'github:lilxyzw/lilToon', got %q", got)
	}
}

func TestNormalizeItemID(t *testing.T) {
	tests := []struct {
		platform Platform
		id       string
		want     string
	}{
		{PlatformGitHub, "lilxyzw/lilToon", "lilxyzw/liltoon"},
		{PlatformGitHub, " Octo/Repo ", "octo/repo"},
		{"", "Octo/Repo", "octo/repo"},
		{PlatformBooth, " 42 ", "42"},
		{"", "42", "42"},
	}

	for _, tt := range tests {
		if got := NormalizeItemID(tt.platform, tt.id); got != tt.want {
			t.Errorf("NormalizeItemID(%q, %q) = %q, want %q", tt.platform, tt.id, got, tt.want)
		}
	}
}

func TestCategorySourceDeterministic(t *testing.T) {
	for _, s := range []CategorySource{SourceOverride, SourceTaxonomy} {
		if !s.Deterministic() {
			t.Errorf("expected %s to be deterministic", s)
		}
	}
	for _, s := range []CategorySource{SourceAI, SourceDefault, ""} {
		if s.Deterministic() {
			t.Errorf("expected %q not to be deterministic", s)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"github:Octo/Repo": "github:octo/repo",
		"booth:42":         "booth:42",
		"no-separator":     "no-separator",
	}
	for in, want := range tests {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
