package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

const (
	systemJSON = "You are a startup validation analyst. You must output valid JSON only. Never include markdown code fences."
	systemText = "You are a startup validation analyst. Write a structured plain-text report with headed sections. Never include markdown code fences."
)

// System returns the system instruction for a module's output format.
func System(mt catalog.ModuleType) string {
	if mt.Format() == catalog.FormatText {
		return systemText
	}
	return systemJSON
}

// Prompt builds the user prompt for a module. Every module type has a case;
// unknown types fail.
func Prompt(mt catalog.ModuleType, in models.IntakeData) (string, error) {
	var task string
	switch mt {
	case catalog.InitialIntake:
		task = `Summarize the venture. Return {"summary": string, "strengths": [string], "gaps": [string], "recommendedFocus": string}.`
	case catalog.AssumptionTracker:
		task = `List the riskiest assumptions. Return {"assumptions": [{"assumption": string, "category": string, "riskLevel": "High"|"Medium"|"Low", "validationMethod": string}]}.`
	case catalog.MarketSizingAnalysis:
		task = `Estimate the market. Return {"tam": string, "sam": string, "som": string, "methodology": string, "keyDrivers": [string]}.`
	case catalog.CompetitiveIntelligence:
		task = "Write a competitive intelligence report covering direct competitors, indirect alternatives, positioning gaps and a recommended differentiation strategy."
	case catalog.RiskAssessment:
		task = `Assess the venture's risks. Return {"overallRisk": "High"|"Medium"|"Low", "risks": [{"area": string, "description": string, "likelihood": string, "mitigation": string}]}.`
	case catalog.CustomerVoiceSimulation:
		task = `Simulate 50 target customers reacting to the offer. Return {"responseDistribution": {"positive": number, "neutral": number, "negative": number}, "keyInsights": [string], "topObjections": [string], "quotes": [string]}.`
	case catalog.LightCustomerFeedback:
		task = `Draft a lightweight customer feedback plan. Return {"questions": [string], "targetRespondents": number, "channels": [string], "successCriteria": [string]}.`
	case catalog.BusinessModelSimulation:
		task = `Simulate unit economics for 24 months. Return {"pricing": string, "cac": number, "ltv": number, "breakEvenMonth": number, "scenarios": [{"name": string, "revenue": number, "margin": number}]}.`
	case catalog.ChannelRecommendations:
		task = `Recommend acquisition channels. Return {"channels": [{"name": string, "fit": "High"|"Medium"|"Low", "estimatedCac": string, "firstExperiment": string}]}.`
	case catalog.SWOTAnalysis:
		task = `Produce a SWOT analysis. Return {"strengths": [string], "weaknesses": [string], "opportunities": [string], "threats": [string]}.`
	case catalog.FullInterviewSuite:
		task = `Design a customer interview suite. Return {"segments": [string], "scripts": [{"segment": string, "questions": [string]}], "synthesisPlan": string}.`
	case catalog.MultiChannelTesting:
		task = `Design parallel channel tests. Return {"tests": [{"channel": string, "hypothesis": string, "budget": string, "metric": string, "threshold": string}]}.`
	case catalog.EnhancedMarketIntelligence:
		task = "Write an enhanced market intelligence report covering trends, regulation, buyer behaviour and timing risks for this venture."
	case catalog.MarketDeepDive:
		task = "Write a market deep dive covering segment-by-segment sizing, adoption curves, pricing benchmarks and entry strategy."
	case catalog.StrategicRoadmap:
		task = `Lay out a 12 month roadmap. Return {"phases": [{"name": string, "months": string, "goals": [string], "milestones": [string]}], "goNoGo": string}.`
	case catalog.PartnershipViability:
		task = `Evaluate the proposed partnership. Return {"viability": "High"|"Medium"|"Low", "synergies": [string], "risks": [string], "dealStructure": string, "nextSteps": [string]}.`
	default:
		return "", fmt.Errorf("no prompt for module type %q", mt)
	}
	return brief(in) + "\n\nTask: " + task, nil
}

// brief renders the intake as a compact venture description.
func brief(in models.IntakeData) string {
	var b strings.Builder
	b.WriteString("Venture brief:\n")
	field := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, v)
		}
	}
	field("Business model", in.BusinessModel)
	field("Product type", in.ProductType)
	field("Stage", in.Stage)
	field("Industry", in.Industry)
	field("Target customer", in.TargetCustomer)
	field("Problem", in.ProblemStatement)
	field("Solution", in.Solution)
	field("Competitors", joinList(in.Competitors))
	field("Assumptions", joinList(in.Assumptions))
	field("Validation goals", joinList(in.ValidationGoals))
	if in.IsPartnershipEvaluation {
		field("Partner", in.PartnerName)
		field("Partnership goals", in.PartnershipGoals)
	}
	return strings.TrimRight(b.String(), "\n")
}

// joinList flattens a JSON list column; lists of objects are passed through
// as JSON.
func joinList(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		return strings.Join(items, "; ")
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
