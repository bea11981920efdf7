package base

import (
	"fmt"
	"sort"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// AttributePotential is the reveal key for a prospect's potential grade.
const AttributePotential = "potential"

// Default league configuration shared by both sports.
const (
	DefaultPicksPerRound       = 24
	DefaultTotalRounds         = 7
	DefaultPotentialCost       = 10
	DefaultAttributeCost       = 4
	DefaultKeyAttributeCost    = 6
	DefaultStartingScoutPoints = 200
)

// RoundTime assigns a pick clock allotment to every round from FromRound on.
type RoundTime struct {
	FromRound int `yaml:"from_round" json:"from_round"`
	Seconds   int `yaml:"seconds" json:"seconds"`
}

// DefaultRoundTimes is round 1 = 300s, rounds 2-4 = 180s, rounds 5+ = 120s.
func DefaultRoundTimes() []RoundTime {
	return []RoundTime{
		{FromRound: 1, Seconds: 300},
		{FromRound: 2, Seconds: 180},
		{FromRound: 5, Seconds: 120},
	}
}

// LeaguePolicy parameterizes the draft engine for one sport/league.
type LeaguePolicy struct {
	Key                 string
	Name                string
	PicksPerRound       int
	TotalRounds         int
	RoundTimes          []RoundTime
	PotentialCost       int
	DefaultCost         int
	KeyAttributeCost    int
	StartingScoutPoints int

	// Attributes are ordered; index i maps to the ShowAttribute(i+1) flag.
	Attributes    []string
	KeyAttributes []string
	Positions     []string
}

// SecondsForRound returns the clock allotment for round. Rounds past the
// table use the last bucket; rounds before the first use the first.
func (p LeaguePolicy) SecondsForRound(round int) int {
	times := p.RoundTimes
	if len(times) == 0 {
		times = DefaultRoundTimes()
	}
	sorted := make([]RoundTime, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FromRound < sorted[j].FromRound })

	secs := sorted[0].Seconds
	for _, rt := range sorted {
		if round >= rt.FromRound {
			secs = rt.Seconds
		}
	}
	return secs
}

// TotalPicks returns the size of a full ledger.
func (p LeaguePolicy) TotalPicks() int {
	return p.PicksPerRound * p.TotalRounds
}

// AttributeSlot returns the reveal slot for name: 0 for potential, 1..8 for attributes.
func (p LeaguePolicy) AttributeSlot(name string) (int, bool) {
	if name == AttributePotential {
		return models.SlotPotential, true
	}
	for i, attr := range p.Attributes {
		if attr == name {
			return i + 1, true
		}
	}
	return 0, false
}

// AttributeCost returns the scouting point price to reveal name.
func (p LeaguePolicy) AttributeCost(name string) (int, bool) {
	if name == AttributePotential {
		return p.PotentialCost, true
	}
	if _, ok := p.AttributeSlot(name); !ok {
		return 0, false
	}
	for _, key := range p.KeyAttributes {
		if key == name {
			return p.KeyAttributeCost, true
		}
	}
	return p.DefaultCost, true
}

// HasPosition reports whether pos is a valid position for this sport.
func (p LeaguePolicy) HasPosition(pos string) bool {
	for _, candidate := range p.Positions {
		if candidate == pos {
			return true
		}
	}
	return false
}

// Validate checks the policy is internally consistent.
func (p LeaguePolicy) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("policy key is required")
	}
	if p.PicksPerRound <= 0 {
		return fmt.Errorf("picks_per_round must be greater than 0")
	}
	if p.TotalRounds <= 0 {
		return fmt.Errorf("total_rounds must be greater than 0")
	}
	if len(p.Attributes) > models.MaxRevealSlots {
		return fmt.Errorf("at most %d revealable attributes are supported, got %d", models.MaxRevealSlots, len(p.Attributes))
	}
	seen := make(map[string]bool, len(p.Attributes))
	for _, attr := range p.Attributes {
		if attr == AttributePotential {
			return fmt.Errorf("attribute name %q is reserved", AttributePotential)
		}
		if seen[attr] {
			return fmt.Errorf("duplicate attribute %q", attr)
		}
		seen[attr] = true
	}
	for _, key := range p.KeyAttributes {
		if !seen[key] {
			return fmt.Errorf("key attribute %q is not in the attribute list", key)
		}
	}
	for _, rt := range p.RoundTimes {
		if rt.FromRound <= 0 || rt.Seconds <= 0 {
			return fmt.Errorf("invalid round time %+v", rt)
		}
	}
	return nil
}

// PolicyOverrides carries YAML-configurable policy values. Zero values keep the default.
type PolicyOverrides struct {
	PicksPerRound       int         `yaml:"picks_per_round"`
	TotalRounds         int         `yaml:"total_rounds"`
	RoundTimes          []RoundTime `yaml:"round_times"`
	PotentialCost       int         `yaml:"potential_cost"`
	AttributeCost       int         `yaml:"attribute_cost"`
	KeyAttributeCost    int         `yaml:"key_attribute_cost"`
	StartingScoutPoints int         `yaml:"starting_scout_points"`
	KeyAttributes       []string    `yaml:"key_attributes"`
}

// Apply returns p with the non-zero overrides applied.
func (o PolicyOverrides) Apply(p LeaguePolicy) LeaguePolicy {
	if o.PicksPerRound > 0 {
		p.PicksPerRound = o.PicksPerRound
	}
	if o.TotalRounds > 0 {
		p.TotalRounds = o.TotalRounds
	}
	if len(o.RoundTimes) > 0 {
		p.RoundTimes = o.RoundTimes
	}
	if o.PotentialCost > 0 {
		p.PotentialCost = o.PotentialCost
	}
	if o.AttributeCost > 0 {
		p.DefaultCost = o.AttributeCost
	}
	if o.KeyAttributeCost > 0 {
		p.KeyAttributeCost = o.KeyAttributeCost
	}
	if o.StartingScoutPoints > 0 {
		p.StartingScoutPoints = o.StartingScoutPoints
	}
	if o.KeyAttributes != nil {
		p.KeyAttributes = o.KeyAttributes
	}
	return p
}

// NewDefaultPolicy returns a policy with the shared league defaults filled in.
func NewDefaultPolicy(key, name string, attributes, keyAttributes, positions []string) LeaguePolicy {
	return LeaguePolicy{
		Key:                 key,
		Name:                name,
		PicksPerRound:       DefaultPicksPerRound,
		TotalRounds:         DefaultTotalRounds,
		RoundTimes:          DefaultRoundTimes(),
		PotentialCost:       DefaultPotentialCost,
		DefaultCost:         DefaultAttributeCost,
		KeyAttributeCost:    DefaultKeyAttributeCost,
		StartingScoutPoints: DefaultStartingScoutPoints,
		Attributes:          attributes,
		KeyAttributes:       keyAttributes,
		Positions:           positions,
	}
}
