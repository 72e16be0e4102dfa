package tags

import (
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// Match splits a tag into its kind and positional values. Every higher-level
// entity in this codebase is a fold over these pairs.
func Match(tag nostr.Tag) (string, []string) {
	if len(tag) == 0 {
		return "", nil
	}
	return tag[0], tag[1:]
}

func MatchTitle(tag nostr.Tag) (string, bool) {
	if tag.Key() == "title" && len(tag) > 1 {
		return tag[1], true
	}
	return "", false
}

func MatchSummary(tag nostr.Tag) (string, bool) {
	if tag.Key() == "summary" && len(tag) > 1 {
		return tag[1], true
	}
	return "", false
}

func MatchGeohash(tag nostr.Tag) (string, bool) {
	if tag.Key() == "g" && len(tag) > 1 && tag[1] != "" {
		return tag[1], true
	}
	return "", false
}

// MatchLocation matches a location tag carrying address, region and country
// as one atomic unit.
func MatchLocation(tag nostr.Tag) (address, region, country string, ok bool) {
	if tag.Key() != "location" || len(tag) < 4 {
		return "", "", "", false
	}
	return tag[1], tag[2], tag[3], true
}

// MatchCoordinate matches a generic label tag `l <value> <axis>` where the
// axis is dd.lat or dd.lon. The raw value string is returned so callers can
// compare decimal precision before parsing.
func MatchCoordinate(tag nostr.Tag) (axis, raw string, ok bool) {
	if tag.Key() != "l" || len(tag) < 3 {
		return "", "", false
	}
	axis = tag[2]
	if axis != "dd.lat" && axis != "dd.lon" {
		return "", "", false
	}
	if _, err := strconv.ParseFloat(tag[1], 64); err != nil {
		return "", "", false
	}
	return axis, tag[1], true
}

func MatchRelays(tag nostr.Tag) ([]string, bool) {
	if tag.Key() != "relays" || len(tag) < 2 {
		return nil, false
	}
	return tag[1:], true
}

// DecimalPrecision is the digit count after the decimal point, the measure
// used to decide whether a new coordinate replaces the held one.
func DecimalPrecision(s string) int {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
