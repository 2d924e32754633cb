package game

import "strings"

// Quest is a single entry in the player's quest log
type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Status      QuestStatus `json:"status"`
	Description string      `json:"description,omitempty"`
}

// QuestLog is the player's set of quests, kept in insertion order
type QuestLog []Quest

// Find returns the index of the quest whose title matches (case-insensitive),
// or -1 when absent.
func (q QuestLog) Find(title string) int {
	for i := range q {
		if strings.EqualFold(q[i].Title, title) {
			return i
		}
	}
	return -1
}

// Add appends a new active quest. Adding a duplicate title reactivates the
// existing quest instead of creating a second entry.
func (q QuestLog) Add(quest Quest) QuestLog {
	if quest.Status == "" {
		quest.Status = QuestActive
	}
	if i := q.Find(quest.Title); i >= 0 {
		q[i].Status = QuestActive
		if quest.Description != "" {
			q[i].Description = quest.Description
		}
		return q
	}
	return append(q, quest)
}

// SetStatus moves the named quest to the given status. Completed and
// failed quests only move again through explicit reactivation (status
// back to active). It reports whether anything changed.
func (q QuestLog) SetStatus(title string, status QuestStatus) bool {
	i := q.Find(title)
	if i < 0 {
		return false
	}
	if q[i].Status == status {
		return false
	}
	// Terminal statuses stay put unless the new status is an explicit
	// reactivation.
	if q[i].Status != QuestActive && status != QuestActive {
		return false
	}
	q[i].Status = status
	return true
}

// Active returns the quests still in progress, preserving order
func (q QuestLog) Active() []Quest {
	var active []Quest
	for _, quest := range q {
		if quest.Status == QuestActive {
			active = append(active, quest)
		}
	}
	return active
}
