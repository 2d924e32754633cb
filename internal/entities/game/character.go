package game

// Character sheet rules lifted from the tabletop source material:
// modifiers are floor((score-10)/2), proficiency scales every four levels,
// and leveling is driven by fixed XP thresholds.

const (
	baseHitPoints     = 10
	hitPointsPerLevel = 3
)

// XPThresholds maps level-1 index to the XP required for that level.
// Index 0 is level 1 (0 XP), index 1 is level 2 (300 XP), and so on.
var XPThresholds = []int{0, 300, 900, 2700, 6500, 14000, 23000, 34000, 48000, 64000}

// AbilityScore is a single named ability. The sheet keeps abilities as an
// ordered slice so the sheet renders (and round-trips) in canonical order.
type AbilityScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Modifier returns the ability modifier for the score
func (a AbilityScore) Modifier() int {
	// Integer division floors toward zero, so shift before dividing to
	// get the tabletop floor behavior for scores below 10.
	if a.Score < 10 {
		return -((10 - a.Score + 1) / 2)
	}
	return (a.Score - 10) / 2
}

// CharacterSheet is the finalized character for a player. It is created by
// the character-creation flow and immutable afterwards except through
// explicit level/XP events.
type CharacterSheet struct {
	Race         string         `json:"race"`
	Class        string         `json:"class"`
	Abilities    []AbilityScore `json:"abilities"`
	Motivation   string         `json:"motivation"`
	Level        int            `json:"level"`
	XP           int            `json:"xp"`
	HitPoints    int            `json:"hit_points"`
	MaxHitPoints int            `json:"max_hit_points"`
}

// NewCharacterSheet derives a level-1 sheet from creation choices.
// Hit points derive from the CON modifier.
func NewCharacterSheet(race, class string, scores []int, motivation string) *CharacterSheet {
	abilities := make([]AbilityScore, len(AbilityNames))
	for i, name := range AbilityNames {
		score := 10
		if i < len(scores) {
			score = scores[i]
		}
		abilities[i] = AbilityScore{Name: name, Score: score}
	}

	sheet := &CharacterSheet{
		Race:       race,
		Class:      class,
		Abilities:  abilities,
		Motivation: motivation,
		Level:      1,
	}
	sheet.MaxHitPoints = baseHitPoints + sheet.AbilityModifier("CON")
	if sheet.MaxHitPoints < 1 {
		sheet.MaxHitPoints = 1
	}
	sheet.HitPoints = sheet.MaxHitPoints
	return sheet
}

// Ability returns the named ability score, defaulting to 10 when absent
func (c *CharacterSheet) Ability(name string) AbilityScore {
	for _, a := range c.Abilities {
		if a.Name == name {
			return a
		}
	}
	return AbilityScore{Name: name, Score: 10}
}

// AbilityModifier returns the modifier for the named ability
func (c *CharacterSheet) AbilityModifier(name string) int {
	return c.Ability(name).Modifier()
}

// ProficiencyBonus returns the proficiency bonus for the sheet's level:
// +2 at levels 1-4, +3 at 5-8, and so on.
func (c *CharacterSheet) ProficiencyBonus() int {
	level := c.Level
	if level < 1 {
		level = 1
	}
	return 2 + (level-1)/4
}

// AwardXP adds XP (never dropping below zero) and applies any level-ups.
// It returns the number of levels gained.
func (c *CharacterSheet) AwardXP(amount int) int {
	c.XP += amount
	if c.XP < 0 {
		c.XP = 0
	}

	newLevel := 1
	for i, threshold := range XPThresholds {
		if c.XP >= threshold {
			newLevel = i + 1
		}
	}

	gained := newLevel - c.Level
	if gained <= 0 {
		return 0
	}

	c.Level = newLevel
	c.MaxHitPoints += gained * hitPointsPerLevel
	c.HitPoints += gained * hitPointsPerLevel
	if c.HitPoints > c.MaxHitPoints {
		c.HitPoints = c.MaxHitPoints
	}
	return gained
}

// ApplyDamage reduces hit points, clamping at zero
func (c *CharacterSheet) ApplyDamage(amount int) {
	c.HitPoints -= amount
	if c.HitPoints < 0 {
		c.HitPoints = 0
	}
}

// Heal restores hit points up to the maximum
func (c *CharacterSheet) Heal(amount int) {
	c.HitPoints += amount
	if c.HitPoints > c.MaxHitPoints {
		c.HitPoints = c.MaxHitPoints
	}
}
