package calendar

import (
	"time"

	"github.com/rs/zerolog/log"
)

// IsValidTimezone reports whether name is a loadable IANA zone.
func IsValidTimezone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// ResolveLocation loads name, falling back to UTC when it is not a valid zone.
func ResolveLocation(name string) *time.Location {
	if !IsValidTimezone(name) {
		if name != "" {
			log.Debug().Str("timezone", name).Msg("Invalid timezone, falling back to UTC")
		}
		return time.UTC
	}
	loc, _ := time.LoadLocation(name)
	return loc
}
