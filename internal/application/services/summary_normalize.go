package services

import (
	"encoding/json"
	"strings"

	"github.com/mindreel/backend/internal/domain/entities"
)

// normalizeSummary converts a raw model reply into a StructuredSummary. The
// schema profile is selected by the resolved profile key: keys whose version
// tail starts with "v2" use the grouped v2 schema, everything else the flat v1
// schema. A reply that cannot be parsed yields a degraded summary carrying the
// verbatim text and a parse error, never nil.
func normalizeSummary(profileKey, rawText string) *entities.StructuredSummary {
	raw, err := extractJSON(rawText)
	if err != nil {
		return &entities.StructuredSummary{
			RawText:    rawText,
			ParseError: err.Error(),
		}
	}

	if isV2Profile(profileKey) {
		return normalizeSummaryV2(raw, rawText)
	}
	return normalizeSummaryV1(raw, rawText)
}

func isV2Profile(profileKey string) bool {
	tail := profileKey
	if idx := strings.LastIndex(profileKey, "/"); idx >= 0 {
		tail = profileKey[idx+1:]
	}
	return strings.HasPrefix(tail, "v2")
}

func normalizeSummaryV1(raw json.RawMessage, rawText string) *entities.StructuredSummary {
	var parsed struct {
		OneLiner  string   `json:"one_liner"`
		KeyPoints []string `json:"key_points"`
		Summary   string   `json:"summary"`
		Facts     []string `json:"facts"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &entities.StructuredSummary{RawText: rawText, ParseError: err.Error()}
	}

	return &entities.StructuredSummary{
		OneLiner:  parsed.OneLiner,
		KeyPoints: parsed.KeyPoints,
		Summary:   parsed.Summary,
		Facts:     parsed.Facts,
	}
}

func normalizeSummaryV2(raw json.RawMessage, rawText string) *entities.StructuredSummary {
	var parsed struct {
		CorePrinciples       []string `json:"core_principles"`
		ActionableGuidelines []string `json:"actionable_guidelines"`
		CognitiveWarnings    []string `json:"cognitive_warnings"`
		CaseStudies          []string `json:"case_studies"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &entities.StructuredSummary{RawText: rawText, ParseError: err.Error()}
	}

	result := &entities.StructuredSummary{
		CorePrinciples:       parsed.CorePrinciples,
		ActionableGuidelines: parsed.ActionableGuidelines,
		CognitiveWarnings:    parsed.CognitiveWarnings,
		CaseStudies:          parsed.CaseStudies,
	}

	// one_liner falls through the groups in priority order
	switch {
	case len(parsed.CorePrinciples) > 0:
		result.OneLiner = parsed.CorePrinciples[0]
	case len(parsed.ActionableGuidelines) > 0:
		result.OneLiner = parsed.ActionableGuidelines[0]
	case len(parsed.CognitiveWarnings) > 0:
		result.OneLiner = parsed.CognitiveWarnings[0]
	}

	result.Summary = synthesizeV2Summary(parsed.CorePrinciples, parsed.ActionableGuidelines, parsed.CognitiveWarnings, parsed.CaseStudies)
	return result
}

func synthesizeV2Summary(principles, guidelines, warnings, cases []string) string {
	var sections []string
	if len(principles) > 0 {
		sections = append(sections, "核心原则："+strings.Join(principles, "；"))
	}
	if len(guidelines) > 0 {
		sections = append(sections, "行动建议："+strings.Join(guidelines, "；"))
	}
	if len(warnings) > 0 {
		sections = append(sections, "认知警示："+strings.Join(warnings, "；"))
	}
	if len(cases) > 0 {
		sections = append(sections, "案例："+strings.Join(cases, "；"))
	}
	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "。") + "。"
}
