package main

// Achievement definitions
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

var Achievements = []AchievementDef{
	{"first_blood", "First Blood", "Destroy your first invader"},
	{"exterminator", "Exterminator", "Destroy 1000 invaders"},
	{"ufo_hunter", "UFO Hunter", "Shoot down 10 UFOs"},
	{"wave_breaker", "Wave Breaker", "Clear a formation"},
	{"untouchable", "Untouchable", "Clear a formation without being hit"},
	{"sharpshooter", "Sharpshooter", "Score 1000 points in a single run"},
	{"veteran", "Veteran", "Reach level 10"},
	{"elite", "Elite", "Reach level 25"},
	{"survivor", "Survivor", "Play for 1 hour total"},
}

// CheckAchievements unlocks whatever the pilot's totals and the run just
// finished qualify for. Returns the newly unlocked achievements.
func CheckAchievements(db *DB, playerID int64, run RunStats) []AchievementDef {
	if db == nil {
		return nil
	}

	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	var unlocked []AchievementDef

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_blood":
			return stats.Invaders >= 1
		case "exterminator":
			return stats.Invaders >= 1000
		case "ufo_hunter":
			return stats.UFOs >= 10
		case "wave_breaker":
			return stats.WavesCleared >= 1
		case "untouchable":
			return run.Cleared && run.HitsTaken == 0
		case "sharpshooter":
			return run.Score >= 1000
		case "veteran":
			return stats.Level >= 10
		case "elite":
			return stats.Level >= 25
		case "survivor":
			return stats.Playtime >= 3600
		}
		return false
	}

	for _, def := range Achievements {
		if check(def.ID) {
			if newlyUnlocked, err := db.UnlockAchievement(playerID, def.ID); err == nil && newlyUnlocked {
				unlocked = append(unlocked, def)
			}
		}
	}

	return unlocked
}
