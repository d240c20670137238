package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe = regexp.MustCompile(`-(\d+)\s*$`)
	floorRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:F|层)?\s*$`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// ParsedRoom holds the structured data parsed from a room's display name.
type ParsedRoom struct {
	Block  string
	Floor  int
	Number int
}

// ParseRoomName extracts block, floor and room number from a raw room name
// such as "A栋3-12", "Block B 2-07" or "B-304".
func ParseRoomName(raw string) (ParsedRoom, error) {
	// '#' separates parts, so treat it as whitespace instead of dropping it
	s := strings.ReplaceAll(strings.TrimSpace(raw), "#", " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))

	// 1) optional trailing "-number"
	number := 0
	if loc := numberRe.FindStringSubmatchIndex(s); loc != nil {
		if n, err := strconv.Atoi(s[loc[2]:loc[3]]); err == nil {
			number = n
			s = strings.TrimSpace(s[:loc[0]])
		}
	}

	// 2) floor from the tail of what is left
	floor := 0
	block := s
	if loc := floorRe.FindStringSubmatchIndex(s); loc != nil {
		if n, err := strconv.Atoi(s[loc[2]:loc[3]]); err == nil {
			floor = n
			block = strings.TrimSpace(s[:loc[0]])
		}
	}

	// 3) "B-304" style: the floor is the hundreds of the room number
	if floor == 0 && number >= 100 {
		floor = number / 100
	}

	block = strings.TrimSpace(strings.TrimSuffix(block, "栋"))

	if floor == 0 {
		return ParsedRoom{}, fmt.Errorf("unable to parse floor from room name: %q", raw)
	}
	return ParsedRoom{Block: block, Floor: floor, Number: number}, nil
}
