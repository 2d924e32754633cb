package narrative_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmforge/dm-api/internal/clients/narrative"
)

func TestParseMarkers_Items(t *testing.T) {
	raw := "You pry the chest open. [[ITEM_GAINED: Silver Key]] Inside, coins glitter. [[ITEM_GAINED: Gold Coin x12]]"

	clean, deltas := narrative.ParseMarkers(raw)

	assert.Equal(t, "You pry the chest open. Inside, coins glitter.", clean)
	require.Len(t, deltas, 2)
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaItemGained, Name: "Silver Key", Quantity: 1}, deltas[0])
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaItemGained, Name: "Gold Coin", Quantity: 12}, deltas[1])
}

func TestParseMarkers_ItemLost(t *testing.T) {
	_, deltas := narrative.ParseMarkers("The rope snaps. [[ITEM_LOST: Rope x1]]")

	require.Len(t, deltas, 1)
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaItemLost, Name: "Rope", Quantity: 1}, deltas[0])
}

func TestParseMarkers_Quests(t *testing.T) {
	raw := "The elder nods. [[QUEST_ADDED: Find the amulet | Recover it from the barrow]]\n" +
		"Later that night. [[QUEST_COMPLETED: Escort the merchant]] [[QUEST_FAILED: Guard the gate]]"

	clean, deltas := narrative.ParseMarkers(raw)

	assert.NotContains(t, clean, "[[")
	require.Len(t, deltas, 3)
	assert.Equal(t, narrative.Delta{
		Kind:        narrative.DeltaQuestAdded,
		Name:        "Find the amulet",
		Description: "Recover it from the barrow",
	}, deltas[0])
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaQuestCompleted, Name: "Escort the merchant"}, deltas[1])
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaQuestFailed, Name: "Guard the gate"}, deltas[2])
}

func TestParseMarkers_QuestAddedWithoutDescription(t *testing.T) {
	_, deltas := narrative.ParseMarkers("[[QUEST_ADDED: Slay the wyrm]] The hunt begins.")

	require.Len(t, deltas, 1)
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaQuestAdded, Name: "Slay the wyrm"}, deltas[0])
}

func TestParseMarkers_XP(t *testing.T) {
	clean, deltas := narrative.ParseMarkers("The bandits flee. [[XP: 150]]")

	assert.Equal(t, "The bandits flee.", clean)
	require.Len(t, deltas, 1)
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaXP, XP: 150}, deltas[0])
}

func TestParseMarkers_HitPoints(t *testing.T) {
	clean, deltas := narrative.ParseMarkers("The blade bites deep. [[HP: -4]] You bind the wound. [[HP: +2]]")

	assert.Equal(t, "The blade bites deep. You bind the wound.", clean)
	require.Len(t, deltas, 2)
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaHP, HP: -4}, deltas[0])
	assert.Equal(t, narrative.Delta{Kind: narrative.DeltaHP, HP: 2}, deltas[1])
}

func TestParseMarkers_UnknownAndMalformedAreStripped(t *testing.T) {
	raw := "Strange events. [[WEATHER: storm]] [[XP: lots]] [[QUEST_ADDED: ]] [[ITEM_GAINED: ]] [[HP: 0]] [[HP: much]]"

	clean, deltas := narrative.ParseMarkers(raw)

	assert.Equal(t, "Strange events.", clean)
	assert.Empty(t, deltas)
}

func TestParseMarkers_StrayBracketTokensAreStripped(t *testing.T) {
	raw := "A storm rolls in. [[WEATHER]] The wind [[whisper: faint]] carries voices."

	clean, deltas := narrative.ParseMarkers(raw)

	assert.Equal(t, "A storm rolls in. The wind carries voices.", clean)
	assert.Empty(t, deltas)
}

func TestParseMarkers_NoMarkers(t *testing.T) {
	clean, deltas := narrative.ParseMarkers("Just a quiet evening at the inn.")

	assert.Equal(t, "Just a quiet evening at the inn.", clean)
	assert.Empty(t, deltas)
}

func TestParseMarkers_MarkerOnOwnLine(t *testing.T) {
	raw := "You climb the ridge.\n\n[[XP: 25]]\n\nThe valley opens below."

	clean, deltas := narrative.ParseMarkers(raw)

	assert.Equal(t, "You climb the ridge.\n\nThe valley opens below.", clean)
	require.Len(t, deltas, 1)
	assert.Equal(t, 25, deltas[0].XP)
}
