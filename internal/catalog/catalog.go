// Package catalog holds the static table of analysis modules and the tier
// each one is gated behind.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Tier is the paid sprint level.
type Tier string

const (
	TierDiscovery   Tier = "discovery"
	TierFeasibility Tier = "feasibility"
	TierValidation  Tier = "validation"
)

// Tiers lists the valid tiers, lowest first.
var Tiers = []Tier{TierDiscovery, TierFeasibility, TierValidation}

// ErrInvalidTier is matched by every InvalidTierError.
var ErrInvalidTier = errors.New("invalid tier")

// InvalidTierError reports a tier value outside the enum.
type InvalidTierError struct {
	Tier string
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("invalid tier %q (use discovery, feasibility or validation)", e.Tier)
}

func (e *InvalidTierError) Unwrap() error { return ErrInvalidTier }

// ParseTier normalizes user input into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.Rank() < 0 {
		return "", &InvalidTierError{Tier: s}
	}
	return t, nil
}

// Rank orders tiers; -1 for unknown values.
func (t Tier) Rank() int {
	switch t {
	case TierDiscovery:
		return 0
	case TierFeasibility:
		return 1
	case TierValidation:
		return 2
	default:
		return -1
	}
}

// Price is the sprint price in cents.
func (t Tier) Price() int64 {
	switch t {
	case TierDiscovery:
		return 500000
	case TierFeasibility:
		return 1500000
	case TierValidation:
		return 3500000
	default:
		return 0
	}
}

// Valid reports whether t is one of the three tiers.
func (t Tier) Valid() bool { return t.Rank() >= 0 }

// Entry is one catalog row for a sprint.
type Entry struct {
	ModuleType ModuleType `json:"moduleType"`
	IsLocked   bool       `json:"isLocked"`
}

// group order is the order modules are listed in.
var groups = []struct {
	tier    Tier
	modules []ModuleType
}{
	{TierDiscovery, []ModuleType{
		InitialIntake,
		AssumptionTracker,
		MarketSizingAnalysis,
		CompetitiveIntelligence,
		RiskAssessment,
		CustomerVoiceSimulation,
	}},
	{TierFeasibility, []ModuleType{
		LightCustomerFeedback,
		BusinessModelSimulation,
		ChannelRecommendations,
		SWOTAnalysis,
	}},
	{TierValidation, []ModuleType{
		FullInterviewSuite,
		MultiChannelTesting,
		EnhancedMarketIntelligence,
		MarketDeepDive,
		StrategicRoadmap,
	}},
}

// For returns the modules a sprint of the given tier carries: every group up
// to and including the tier, plus partnership_viability when requested.
func For(tier Tier, partnership bool) ([]Entry, error) {
	if !tier.Valid() {
		return nil, &InvalidTierError{Tier: string(tier)}
	}
	var out []Entry
	for _, g := range groups {
		if g.tier.Rank() > tier.Rank() {
			break
		}
		for _, m := range g.modules {
			out = append(out, Entry{ModuleType: m, IsLocked: !Unlocked(m, tier)})
		}
	}
	if partnership {
		out = append(out, Entry{ModuleType: PartnershipViability, IsLocked: false})
	}
	return out, nil
}

// Unlocked applies the module's gate to a tier.
func Unlocked(m ModuleType, tier Tier) bool {
	if m == PartnershipViability {
		return true
	}
	min := m.MinTier()
	if !min.Valid() || !tier.Valid() {
		return false
	}
	return tier.Rank() >= min.Rank()
}

// Types returns just the module identifiers of a catalog listing.
func Types(entries []Entry) []ModuleType {
	out := make([]ModuleType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ModuleType)
	}
	return out
}
