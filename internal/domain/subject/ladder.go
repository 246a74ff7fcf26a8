package subject

import (
	"fmt"
	"strings"
)

// RankOption pairs a ladder tier code with its display label.
type RankOption struct {
	Code  string
	Label string
}

// Divisions per tiered league, strongest division is 1.
const divisionsPerTier = 4

// tiers in ascending competitive strength. Master and Predator have no
// divisions.
var tieredLeagues = []string{"bronze", "silver", "gold", "platinum", "diamond"}

var romanNumerals = map[int]string{1: "I", 2: "II", 3: "III", 4: "IV"}

// Ladder returns the closed set of 22 tiers, ordered weakest to strongest:
// 5 tiered leagues x 4 divisions, then master and predator.
func Ladder() []RankOption {
	out := make([]RankOption, 0, len(tieredLeagues)*divisionsPerTier+2)
	for _, tier := range tieredLeagues {
		for div := divisionsPerTier; div >= 1; div-- {
			out = append(out, RankOption{
				Code:  fmt.Sprintf("%s-%d", tier, div),
				Label: fmt.Sprintf("%s %s", titleCase(tier), romanNumerals[div]),
			})
		}
	}
	out = append(out,
		RankOption{Code: "master", Label: "Master"},
		RankOption{Code: "predator", Label: "Predator"},
	)
	return out
}

// RankLabel returns the display label for a ladder code, falling back to
// the code itself for anything outside the known set.
func RankLabel(code string) string {
	for _, opt := range Ladder() {
		if opt.Code == code {
			return opt.Label
		}
	}
	return code
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
