package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleAuthor, true},
		{RoleAdmin, RoleReader, true},
		{RoleAuthor, RoleAdmin, false},
		{RoleAuthor, RoleAuthor, true},
		{RoleAuthor, RoleReader, true},
		{RoleReader, RoleAdmin, false},
		{RoleReader, RoleAuthor, false},
		{RoleReader, RoleReader, true},
		// Unknown roles fail-closed.
		{"unknown", RoleReader, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleReader, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidateSecret(t *testing.T) {
	tests := []struct {
		secret  string
		wantErr bool
	}{
		{"", true},
		{"short", true},
		{"123456789012345", true},
		{"1234567890123456", false},
		{"a-long-enough-client-secret", false},
	}

	for _, tt := range tests {
		err := ValidateSecret(tt.secret)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSecret(%q) error = %v, wantErr %v", tt.secret, err, tt.wantErr)
		}
	}
}
