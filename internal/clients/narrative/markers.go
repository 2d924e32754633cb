package narrative

import (
	"regexp"
	"strconv"
	"strings"
)

// DeltaKind identifies which state change a marker requests
type DeltaKind string

const (
	DeltaItemGained     DeltaKind = "item_gained"
	DeltaItemLost       DeltaKind = "item_lost"
	DeltaQuestAdded     DeltaKind = "quest_added"
	DeltaQuestCompleted DeltaKind = "quest_completed"
	DeltaQuestFailed    DeltaKind = "quest_failed"
	DeltaXP             DeltaKind = "xp"
	DeltaHP             DeltaKind = "hp"
)

// Delta is one parsed state-change marker
type Delta struct {
	Kind DeltaKind
	// Name is the item name or quest title
	Name string
	// Quantity applies to item deltas, always at least 1
	Quantity int
	// Description applies to quest_added deltas
	Description string
	// XP applies to xp deltas
	XP int
	// HP applies to hp deltas, negative for damage
	HP int
}

var (
	markerRegex   = regexp.MustCompile(`\[\[([A-Z_]+):\s*([^\[\]]*?)\s*\]\]`)
	strayBrackets = regexp.MustCompile(`\[\[[^\[\]]*\]\]`)
	quantityRegex = regexp.MustCompile(`^(.*?)(?:\s+x(\d+))?$`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
	spaceRuns     = regexp.MustCompile(`[ \t]{2,}`)
)

// ParseMarkers extracts state-change markers from backend text and returns
// the cleaned narrative plus the parsed deltas. Markers with an unknown
// verb or a payload that does not parse are stripped and ignored, as is
// any other double-bracketed token; the player never sees raw markers.
func ParseMarkers(raw string) (string, []Delta) {
	var deltas []Delta
	for _, match := range markerRegex.FindAllStringSubmatch(raw, -1) {
		if delta, ok := parseMarker(match[1], match[2]); ok {
			deltas = append(deltas, delta)
		}
	}

	clean := markerRegex.ReplaceAllString(raw, "")
	clean = strayBrackets.ReplaceAllString(clean, "")
	clean = spaceRuns.ReplaceAllString(clean, " ")
	clean = blankRuns.ReplaceAllString(clean, "\n\n")
	lines := strings.Split(clean, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), deltas
}

func parseMarker(verb, payload string) (Delta, bool) {
	switch verb {
	case "ITEM_GAINED", "ITEM_LOST":
		name, quantity := parseItemPayload(payload)
		if name == "" {
			return Delta{}, false
		}
		kind := DeltaItemGained
		if verb == "ITEM_LOST" {
			kind = DeltaItemLost
		}
		return Delta{Kind: kind, Name: name, Quantity: quantity}, true
	case "QUEST_ADDED":
		title, description := payload, ""
		if i := strings.Index(payload, "|"); i >= 0 {
			title = strings.TrimSpace(payload[:i])
			description = strings.TrimSpace(payload[i+1:])
		}
		if title == "" {
			return Delta{}, false
		}
		return Delta{Kind: DeltaQuestAdded, Name: title, Description: description}, true
	case "QUEST_COMPLETED", "QUEST_FAILED":
		if payload == "" {
			return Delta{}, false
		}
		kind := DeltaQuestCompleted
		if verb == "QUEST_FAILED" {
			kind = DeltaQuestFailed
		}
		return Delta{Kind: kind, Name: payload}, true
	case "XP":
		amount, err := strconv.Atoi(payload)
		if err != nil || amount <= 0 {
			return Delta{}, false
		}
		return Delta{Kind: DeltaXP, XP: amount}, true
	case "HP":
		amount, err := strconv.Atoi(payload)
		if err != nil || amount == 0 {
			return Delta{}, false
		}
		return Delta{Kind: DeltaHP, HP: amount}, true
	default:
		return Delta{}, false
	}
}

// parseItemPayload splits "name xN" into its parts. A missing or
// malformed quantity defaults to 1.
func parseItemPayload(payload string) (string, int) {
	match := quantityRegex.FindStringSubmatch(payload)
	name := strings.TrimSpace(match[1])
	quantity := 1
	if match[2] != "" {
		if n, err := strconv.Atoi(match[2]); err == nil && n > 0 {
			quantity = n
		}
	}
	return name, quantity
}
