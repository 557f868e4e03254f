package scorer

import (
	"testing"

	"resumelens/internal/config"
	"resumelens/internal/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.ScoringConfig
		wantName    string
		expectError bool
	}{
		{
			name:     "default provider is rules",
			cfg:      config.ScoringConfig{},
			wantName: "rules",
		},
		{
			name:     "explicit rules provider",
			cfg:      config.ScoringConfig{Provider: "rules"},
			wantName: "rules",
		},
		{
			name:        "unknown provider",
			cfg:         config.ScoringConfig{Provider: "oracle"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, nil)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.TypeOf(err) != errors.ErrorTypeConfig {
					t.Errorf("error type = %s, want config", errors.TypeOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", s.Name(), tt.wantName)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-20, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{140, 100},
	}
	for _, tt := range tests {
		if got := clampScore(tt.in); got != tt.want {
			t.Errorf("clampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
