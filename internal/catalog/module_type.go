package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ModuleType identifies one analysis module.
type ModuleType string

const (
	InitialIntake           ModuleType = "initial_intake"
	AssumptionTracker       ModuleType = "assumption_tracker"
	MarketSizingAnalysis    ModuleType = "market_sizing_analysis"
	CompetitiveIntelligence ModuleType = "competitive_intelligence"
	RiskAssessment          ModuleType = "risk_assessment"
	CustomerVoiceSimulation ModuleType = "customer_voice_simulation"

	LightCustomerFeedback   ModuleType = "light_customer_feedback"
	BusinessModelSimulation ModuleType = "business_model_simulation"
	ChannelRecommendations  ModuleType = "channel_recommendations"
	SWOTAnalysis            ModuleType = "swot_analysis"

	FullInterviewSuite         ModuleType = "full_interview_suite"
	MultiChannelTesting        ModuleType = "multi_channel_testing"
	EnhancedMarketIntelligence ModuleType = "enhanced_market_intelligence"
	MarketDeepDive             ModuleType = "market_deep_dive"
	StrategicRoadmap           ModuleType = "strategic_roadmap"

	PartnershipViability ModuleType = "partnership_viability"
)

// Format is the shape of a module's generated content.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// All returns every module type in catalog order.
func All() []ModuleType {
	var out []ModuleType
	for _, g := range groups {
		out = append(out, g.modules...)
	}
	return append(out, PartnershipViability)
}

// ErrInvalidModuleType is returned for identifiers outside the catalog.
var ErrInvalidModuleType = errors.New("unknown module type")

// ParseModuleType rejects identifiers that are not in the catalog.
func ParseModuleType(s string) (ModuleType, error) {
	m := ModuleType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidModuleType, s)
}

// MinTier is the lowest tier that unlocks m. The conditional partnership
// module reports the discovery tier.
func (m ModuleType) MinTier() Tier {
	switch m {
	case InitialIntake, AssumptionTracker, MarketSizingAnalysis, CompetitiveIntelligence,
		RiskAssessment, CustomerVoiceSimulation, PartnershipViability:
		return TierDiscovery
	case LightCustomerFeedback, BusinessModelSimulation, ChannelRecommendations, SWOTAnalysis:
		return TierFeasibility
	case FullInterviewSuite, MultiChannelTesting, EnhancedMarketIntelligence, MarketDeepDive, StrategicRoadmap:
		return TierValidation
	default:
		return ""
	}
}

// Group is the catalog group label used by the UI.
func (m ModuleType) Group() string {
	if m == PartnershipViability {
		return "conditional"
	}
	return string(m.MinTier())
}

// Title is the human label shown in reports.
func (m ModuleType) Title() string {
	switch m {
	case InitialIntake:
		return "Initial Intake Summary"
	case AssumptionTracker:
		return "Assumption Tracker"
	case MarketSizingAnalysis:
		return "Market Sizing Analysis"
	case CompetitiveIntelligence:
		return "Competitive Intelligence"
	case RiskAssessment:
		return "Risk Assessment"
	case CustomerVoiceSimulation:
		return "Customer Voice Simulation"
	case LightCustomerFeedback:
		return "Light Customer Feedback"
	case BusinessModelSimulation:
		return "Business Model Simulation"
	case ChannelRecommendations:
		return "Channel Recommendations"
	case SWOTAnalysis:
		return "SWOT Analysis"
	case FullInterviewSuite:
		return "Full Interview Suite"
	case MultiChannelTesting:
		return "Multi-Channel Testing"
	case EnhancedMarketIntelligence:
		return "Enhanced Market Intelligence"
	case MarketDeepDive:
		return "Market Deep Dive"
	case StrategicRoadmap:
		return "Strategic Roadmap"
	case PartnershipViability:
		return "Partnership Viability"
	default:
		return string(m)
	}
}

// Format reports whether the generator should ask for JSON or prose.
// Competitive intelligence and the deep-dive reports are long-form text.
func (m ModuleType) Format() Format {
	switch m {
	case CompetitiveIntelligence, EnhancedMarketIntelligence, MarketDeepDive:
		return FormatText
	default:
		return FormatJSON
	}
}
