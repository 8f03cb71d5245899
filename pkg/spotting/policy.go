package spotting

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrRejected marks an aircraft dropped from the current cycle.
var ErrRejected = errors.New("aircraft rejected")

// MinCallsignLength is the shortest callsign treated as a real flight.
const MinCallsignLength = 3

// NormalizeCallsign returns the dedup key for a raw callsign.
func NormalizeCallsign(raw string) string {
	return strings.TrimSpace(raw)
}

// AcceptCallsign reports whether a normalized callsign looks like a flight
// number: at least MinCallsignLength characters with one or more digits.
func AcceptCallsign(key string) bool {
	return checkCallsign(key) == nil
}

func checkCallsign(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty callsign", ErrRejected)
	}
	if len(key) < MinCallsignLength {
		return fmt.Errorf("%w: callsign %q too short", ErrRejected, key)
	}
	if !strings.ContainsFunc(key, unicode.IsDigit) {
		return fmt.Errorf("%w: callsign %q has no digit", ErrRejected, key)
	}
	return nil
}
