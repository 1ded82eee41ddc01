package models

import (
	"sort"
	"strings"
	"time"
)

// FitnessLevel represents the user's self-reported skill level
type FitnessLevel string

const (
	FitnessLevelBeginner     FitnessLevel = "beginner"
	FitnessLevelIntermediate FitnessLevel = "intermediate"
	FitnessLevelAdvanced     FitnessLevel = "advanced"
)

// Goal represents the user's primary training goal
type Goal string

const (
	GoalWeightLoss Goal = "weight_loss"
	GoalMuscleGain Goal = "muscle_gain"
	GoalEndurance  Goal = "endurance"
)

// Gender as captured during onboarding
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// FitnessLevels lists every level in display order
var FitnessLevels = []FitnessLevel{FitnessLevelBeginner, FitnessLevelIntermediate, FitnessLevelAdvanced}

// Goals lists every goal in display order
var Goals = []Goal{GoalWeightLoss, GoalMuscleGain, GoalEndurance}

// Valid reports whether l is a known level
func (l FitnessLevel) Valid() bool {
	switch l {
	case FitnessLevelBeginner, FitnessLevelIntermediate, FitnessLevelAdvanced:
		return true
	default:
		return false
	}
}

// Valid reports whether g is a known goal
func (g Goal) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalMuscleGain, GoalEndurance:
		return true
	default:
		return false
	}
}

// Valid reports whether g is a known gender
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// UserProfile is the single user's profile. It is created once by onboarding
// and only ever replaced wholesale.
type UserProfile struct {
	Name         string       `json:"name" validate:"required"`
	Age          int          `json:"age" validate:"gt=0,lt=150"`
	Weight       float64      `json:"weight" validate:"gt=0"`
	Height       float64      `json:"height" validate:"gt=0"`
	Gender       Gender       `json:"gender" validate:"omitempty,gender"`
	FitnessLevel FitnessLevel `json:"fitnessLevel" validate:"fitness_level"`
	Goal         Goal         `json:"goal" validate:"fitness_goal"`
	Equipment    []string     `json:"equipment"`
	JoinDate     time.Time    `json:"joinDate"`
}

// Clone returns a deep copy of the profile
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Equipment = append([]string(nil), p.Equipment...)
	return &c
}

// ProfileDraft is the onboarding form. Name, age, weight and height gate
// acceptance the same way the onboarding "Continue" button does.
type ProfileDraft struct {
	Name         string       `json:"name" validate:"required"`
	Age          int          `json:"age" validate:"required,gt=0,lt=150"`
	Weight       float64      `json:"weight" validate:"required,gt=0"`
	Height       float64      `json:"height" validate:"required,gt=0"`
	Gender       Gender       `json:"gender" validate:"omitempty,gender"`
	FitnessLevel FitnessLevel `json:"fitnessLevel" validate:"omitempty,fitness_level"`
	Goal         Goal         `json:"goal" validate:"omitempty,fitness_goal"`
	Equipment    []string     `json:"equipment"`
}

// ToProfile applies onboarding defaults and stamps the join date
func (d ProfileDraft) ToProfile(joinDate time.Time) *UserProfile {
	p := &UserProfile{
		Name:         strings.TrimSpace(d.Name),
		Age:          d.Age,
		Weight:       d.Weight,
		Height:       d.Height,
		Gender:       d.Gender,
		FitnessLevel: d.FitnessLevel,
		Goal:         d.Goal,
		Equipment:    NormalizeEquipment(d.Equipment),
		JoinDate:     joinDate,
	}
	if p.Gender == "" {
		p.Gender = GenderMale
	}
	if p.FitnessLevel == "" {
		p.FitnessLevel = FitnessLevelBeginner
	}
	if p.Goal == "" {
		p.Goal = GoalWeightLoss
	}
	return p
}

// NormalizeEquipment trims, de-duplicates and sorts an equipment list so it
// behaves as a set.
func NormalizeEquipment(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// HumanizeLabel turns an enum value like "weight_loss" into "Weight Loss"
func HumanizeLabel(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
