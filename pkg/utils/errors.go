// Package utils provides small helpers used by the client's
// configuration loader (pkg/config): error wrapping and cached
// environment lookups.
package utils

import "fmt"

// Wrap adds context to an error message. It returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
