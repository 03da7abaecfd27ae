// Package models defines the narrative entity graph produced by the
// generation pipeline: the universe, its factions, characters, locations,
// and the season/episode/scene planning layers built on top of them.
package models

import (
	"fmt"
	"regexp"
)

// MaxIDLength is the maximum length of any entity id slug.
const MaxIDLength = 64

// idPattern is the canonical slug shape shared by every id kind.
var idPattern = regexp.MustCompile(`^[a-z0-9]+([._-][a-z0-9]+)*$`)

// AxisID identifies a value spectrum defined by the universe.
type AxisID string

// CharID identifies a character in the roster.
type CharID string

// FactionID identifies a faction.
type FactionID string

// LocID identifies a location.
type LocID string

// ValidSlug reports whether s is a well-formed id slug.
func ValidSlug(s string) bool {
	return len(s) > 0 && len(s) <= MaxIDLength && idPattern.MatchString(s)
}

// Valid reports whether the axis id is a well-formed slug.
func (id AxisID) Valid() bool { return ValidSlug(string(id)) }

// Valid reports whether the character id is a well-formed slug.
func (id CharID) Valid() bool { return ValidSlug(string(id)) }

// Valid reports whether the faction id is a well-formed slug.
func (id FactionID) Valid() bool { return ValidSlug(string(id)) }

// Valid reports whether the location id is a well-formed slug.
func (id LocID) Valid() bool { return ValidSlug(string(id)) }

// CheckSlug returns an error describing why s is not a valid slug, or nil.
func CheckSlug(s string) error {
	if s == "" {
		return fmt.Errorf("id is empty")
	}
	if len(s) > MaxIDLength {
		return fmt.Errorf("id %q exceeds %d characters", s, MaxIDLength)
	}
	if !idPattern.MatchString(s) {
		return fmt.Errorf("id %q is not a lowercase slug", s)
	}
	return nil
}
