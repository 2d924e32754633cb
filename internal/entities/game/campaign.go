package game

// HistoryEntry is a single turn of the narrative log
type HistoryEntry struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// CampaignState is the single source of narrative continuity for a player.
// History is append-only; it is never reordered. Context assembly may read
// a truncated tail, but the persisted log only grows.
type CampaignState struct {
	Genre   string         `json:"genre"`
	Summary string         `json:"summary"`
	History []HistoryEntry `json:"history"`
}

// Append adds an entry to the end of the narrative log
func (c *CampaignState) Append(role Role, text string, timestamp int64) {
	c.History = append(c.History, HistoryEntry{
		Role:      role,
		Text:      text,
		Timestamp: timestamp,
	})
}

// Tail returns the most recent n history entries in chronological order.
// It returns the backing slice's tail, not a copy.
func (c *CampaignState) Tail(n int) []HistoryEntry {
	if n <= 0 || len(c.History) == 0 {
		return nil
	}
	if n >= len(c.History) {
		return c.History
	}
	return c.History[len(c.History)-n:]
}
