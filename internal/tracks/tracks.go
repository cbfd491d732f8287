package tracks

import (
	"errors"
	"fmt"
	"strings"
)

// The complete Mario Kart World track catalog. Order matters for
// autocomplete when no query has been typed yet
var catalog = []string{
	"Mario Bros. Circuit",
	"Crown City",
	"Whistlestop Summit",
	"DK Spaceport",
	"Desert Hills",
	"Shy Guy Bazaar",
	"Wario Stadium",
	"Airship Fortress",
	"DK Pass",
	"Starview Peak",
	"Sky-High Sundae",
	"Wario Shipyard",
	"Koopa Troopa Beach",
	"Faraway Oasis",
	"Peach Stadium",
	"Peach Beach",
	"Salty Salty Speedway",
	"Dino Dino Jungle",
	"Great ? Block Ruins",
	"Cheep Cheep Falls",
	"Dandelion Depths",
	"Boo Cinema",
	"Dry Bones Burnout",
	"Moo Moo Meadows",
	"Choco Mountain",
	"Toad's Factory",
	"Bowser's Castle",
	"Acorn Heights",
	"Mario Circuit",
	"Rainbow Road",
}

// ErrUnknownTrack means the given name is not in the catalog
var ErrUnknownTrack = errors.New("not a valid Mario Kart World track")

// All returns a copy of the full track list
func All() []string {
	result := make([]string, len(catalog))
	copy(result, catalog)
	return result
}

// Valid reports whether the given name is a catalog track
func Valid(name string) bool {
	for _, track := range catalog {
		if track == name {
			return true
		}
	}
	return false
}

// Validate trims the input and checks it against the catalog
func Validate(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: track name is empty", ErrUnknownTrack)
	}
	if !Valid(name) {
		return "", fmt.Errorf("'%s' is %w", name, ErrUnknownTrack)
	}
	return name, nil
}

// Search returns tracks matching the query for autocomplete purposes.
// Exact matches come first, then prefix matches, then substring matches
func Search(query string, limit int) []string {

	if limit <= 0 || limit > len(catalog) {
		limit = len(catalog)
	}
	if strings.TrimSpace(query) == "" {
		return All()[:limit]
	}

	lower := strings.ToLower(strings.TrimSpace(query))
	matches := []string{}
	seen := map[string]bool{}

	add := func(track string) {
		if !seen[track] && len(matches) < limit {
			matches = append(matches, track)
			seen[track] = true
		}
	}

	for _, track := range catalog {
		if strings.ToLower(track) == lower {
			add(track)
		}
	}
	for _, track := range catalog {
		if strings.HasPrefix(strings.ToLower(track), lower) {
			add(track)
		}
	}
	for _, track := range catalog {
		if strings.Contains(strings.ToLower(track), lower) {
			add(track)
		}
	}
	return matches
}
