package hypixel

// Cumulative XP required for each skill level. Index = level.
var skillXPRequirements = []float64{
	0, 50, 175, 375, 675, 1175, 1925, 2925, 4425, 6425,
	9925, 14925, 22425, 32425, 47425, 67425, 97425, 147425,
	222425, 322425, 522425, 822425, 1222425, 1722425, 2322425,
	3022425, 3822425, 4722425, 5722425, 6822425, 8022425, 9322425,
	10722425, 12222425, 13822425, 15522425, 17322425, 19222425,
	21222425, 23322425, 25522425, 27822425, 30222425, 32722425,
	35322425, 38072425, 40972425, 44072425, 47472425, 51172425,
	55172425, 59472425, 64072425, 68972425, 74172425, 79672425,
	85472425, 91572425, 97972425, 104672425, 111672425,
}

var skillNames = []string{
	"farming", "mining", "combat", "foraging", "fishing",
	"enchanting", "alchemy", "taming", "carpentry", "runecrafting", "social",
}

// Cosmetic skills excluded from the skill average.
var excludedFromAverage = map[string]bool{
	"carpentry":    true,
	"runecrafting": true,
	"social":       true,
}

// SkillLevel is one skill's computed level and progress to the next.
type SkillLevel struct {
	Level    int     `json:"level"`
	XP       float64 `json:"xp"`
	Progress float64 `json:"progress"`
}

// SkillAnalysis summarizes a member's skills.
type SkillAnalysis struct {
	Skills          map[string]SkillLevel `json:"skills"`
	SkillAverage    float64               `json:"skill_average"`
	TotalSkillLevel int                   `json:"total_skill_level"`
}

// SlayerAnalysis summarizes a member's slayer progress.
type SlayerAnalysis struct {
	Bosses  map[string]float64 `json:"bosses"`
	TotalXP float64            `json:"total_xp"`
}

// maxSkillLevel returns the level cap for a skill.
func maxSkillLevel(skill string) int {
	if skill == "runecrafting" || skill == "social" {
		return 25
	}
	return 60
}

// CalculateSkillLevel converts cumulative XP to a level and percent progress
// toward the next level.
func CalculateSkillLevel(xp float64, skill string) (int, float64) {
	levelCap := maxSkillLevel(skill)

	level := 0
	for i, required := range skillXPRequirements {
		if i >= levelCap {
			break
		}
		if xp >= required {
			level = i
		} else {
			break
		}
	}

	if level >= levelCap || level+1 >= len(skillXPRequirements) {
		return level, 100.0
	}

	current := skillXPRequirements[level]
	next := skillXPRequirements[level+1]
	return level, (xp - current) / (next - current) * 100
}

// AnalyzeSkills computes per-skill levels and the skill average for a member.
func AnalyzeSkills(member *Member) SkillAnalysis {
	analysis := SkillAnalysis{Skills: make(map[string]SkillLevel)}
	if member == nil {
		return analysis
	}

	counted := 0
	for _, skill := range skillNames {
		xp := member.SkillXP[skill]
		level, progress := CalculateSkillLevel(xp, skill)

		analysis.Skills[skill] = SkillLevel{Level: level, XP: xp, Progress: progress}

		if !excludedFromAverage[skill] {
			analysis.TotalSkillLevel += level
			counted++
		}
	}

	if counted > 0 {
		analysis.SkillAverage = float64(analysis.TotalSkillLevel) / float64(counted)
	}
	return analysis
}

// AnalyzeSlayers totals a member's slayer boss XP.
func AnalyzeSlayers(member *Member) SlayerAnalysis {
	analysis := SlayerAnalysis{Bosses: make(map[string]float64)}
	if member == nil {
		return analysis
	}

	for boss, data := range member.Slayer.SlayerBosses {
		analysis.Bosses[boss] = data.XP
		analysis.TotalXP += data.XP
	}
	return analysis
}
