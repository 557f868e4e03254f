package common

import (
	"fmt"
	"slices"
	"strings"

	"resumelens/internal/errors"
)

// ValidateOutputFormat checks a requested output format against the
// configured list. An empty list disables the restriction.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format %q (supported: %s)",
			format, strings.Join(supportedFormats, ", ")), nil)
}

// GetSupportedFormats returns the configured output formats.
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
