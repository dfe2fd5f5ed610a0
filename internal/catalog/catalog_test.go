package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForCumulativeGroups(t *testing.T) {
	discovery := []ModuleType{
		InitialIntake, AssumptionTracker, MarketSizingAnalysis,
		CompetitiveIntelligence, RiskAssessment, CustomerVoiceSimulation,
	}
	feasibility := append(append([]ModuleType{}, discovery...),
		LightCustomerFeedback, BusinessModelSimulation, ChannelRecommendations, SWOTAnalysis)
	validation := append(append([]ModuleType{}, feasibility...),
		FullInterviewSuite, MultiChannelTesting, EnhancedMarketIntelligence, MarketDeepDive, StrategicRoadmap)

	cases := []struct {
		tier Tier
		want []ModuleType
	}{
		{TierDiscovery, discovery},
		{TierFeasibility, feasibility},
		{TierValidation, validation},
	}
	for _, tc := range cases {
		t.Run(string(tc.tier), func(t *testing.T) {
			entries, err := For(tc.tier, false)
			require.NoError(t, err)
			require.NotEmpty(t, entries)
			assert.Equal(t, tc.want, Types(entries))
			for _, e := range entries {
				assert.False(t, e.IsLocked, "%s should be unlocked for %s", e.ModuleType, tc.tier)
			}
		})
	}
}

func TestForPartnershipAppendsUnlockedModule(t *testing.T) {
	for _, tier := range Tiers {
		entries, err := For(tier, true)
		require.NoError(t, err)
		last := entries[len(entries)-1]
		assert.Equal(t, PartnershipViability, last.ModuleType)
		assert.False(t, last.IsLocked)
	}

	entries, err := For(TierDiscovery, true)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestForInvalidTier(t *testing.T) {
	_, err := For(Tier("platinum"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTier))

	var tierErr *InvalidTierError
	require.True(t, errors.As(err, &tierErr))
	assert.Equal(t, "platinum", tierErr.Tier)
}

func TestForReturnsFreshSlice(t *testing.T) {
	a, err := For(TierDiscovery, false)
	require.NoError(t, err)
	a[0].ModuleType = "mutated"
	a[0].IsLocked = true

	b, err := For(TierDiscovery, false)
	require.NoError(t, err)
	assert.Equal(t, InitialIntake, b[0].ModuleType)
	assert.False(t, b[0].IsLocked)
}

func TestUnlockedRules(t *testing.T) {
	assert.True(t, Unlocked(RiskAssessment, TierDiscovery))
	assert.False(t, Unlocked(SWOTAnalysis, TierDiscovery))
	assert.True(t, Unlocked(SWOTAnalysis, TierFeasibility))
	assert.True(t, Unlocked(SWOTAnalysis, TierValidation))
	assert.False(t, Unlocked(StrategicRoadmap, TierFeasibility))
	assert.True(t, Unlocked(StrategicRoadmap, TierValidation))
	assert.True(t, Unlocked(PartnershipViability, TierDiscovery))
	assert.False(t, Unlocked(ModuleType("nope"), TierValidation))
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("  Feasibility ")
	require.NoError(t, err)
	assert.Equal(t, TierFeasibility, tier)

	_, err = ParseTier("")
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestTierPrice(t *testing.T) {
	assert.Equal(t, int64(500000), TierDiscovery.Price())
	assert.Equal(t, int64(1500000), TierFeasibility.Price())
	assert.Equal(t, int64(3500000), TierValidation.Price())
}

func TestParseModuleType(t *testing.T) {
	m, err := ParseModuleType("RISK_ASSESSMENT")
	require.NoError(t, err)
	assert.Equal(t, RiskAssessment, m)

	_, err = ParseModuleType("horoscope")
	assert.ErrorIs(t, err, ErrInvalidModuleType)
}

func TestAllModulesHaveTierAndTitle(t *testing.T) {
	all := All()
	assert.Len(t, all, 16)
	seen := map[ModuleType]bool{}
	for _, m := range all {
		assert.False(t, seen[m], "duplicate %s", m)
		seen[m] = true
		assert.True(t, m.MinTier().Valid(), "%s has no tier", m)
		assert.NotEqual(t, string(m), m.Title(), "%s has no title", m)
	}
	assert.Equal(t, "conditional", PartnershipViability.Group())
	assert.Equal(t, FormatText, CompetitiveIntelligence.Format())
	assert.Equal(t, FormatJSON, RiskAssessment.Format())
}
