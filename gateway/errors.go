// gateway/errors.go
package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded tags video failures caused by exhausted API quota.
	ErrQuotaExceeded = errors.New("QUOTA_EXCEEDED")
	// ErrAPIKeyNotFound tags video failures caused by an invalid or missing key.
	ErrAPIKeyNotFound = errors.New("API_KEY_NOT_FOUND")
	// ErrEmptyResult means the service answered without usable content.
	ErrEmptyResult = errors.New("empty result")
	// ErrMissingCredential is returned by Generators when no key was supplied.
	ErrMissingCredential = errors.New("credential required")
)

// tagVideoError classifies a video failure by its text.
func tagVideoError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case strings.Contains(msg, "Requested entity was not found."):
		return fmt.Errorf("%w: %w", ErrAPIKeyNotFound, err)
	}
	return err
}
