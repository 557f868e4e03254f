package common

import (
	"strings"
	"testing"

	"resumelens/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		wantErr          bool
	}{
		{"json is supported", "json", supported, false},
		{"markdown is supported", "markdown", supported, false},
		{"xml is not supported", "xml", supported, true},
		{"format matching is case sensitive", "JSON", supported, true},
		{"empty format is rejected", "", supported, true},
		{"empty supported list allows anything", "xml", nil, false},
		{"single-entry list rejects others", "text", []string{"json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.TypeOf(err) != errors.ErrorTypeValidation {
				t.Errorf("error type = %s, want validation", errors.TypeOf(err))
			}
			if !strings.Contains(err.Error(), tt.format) {
				t.Errorf("error %q does not name the rejected format %q", err.Error(), tt.format)
			}
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
