package model

// ToolRiskAssessment is the oracle's per-tool security report.
type ToolRiskAssessment struct {
	ToolName                    string    `json:"tool_name"`
	RiskSummary                 string    `json:"risk_summary"`
	SuspiciousLanguagePatterns  []string  `json:"suspicious_language_patterns"`
	RiskLevel                   RiskLevel `json:"risk_level"`
	MitigationSuggestions       []string  `json:"mitigation_suggestions"`
}

// AttackPath is a single-server attack path exploiting tool interactions.
type AttackPath struct {
	Description   string   `json:"description"`
	InvolvedTools []string `json:"involved_tools"`
	Severity      Severity `json:"severity"`
	Steps         []string `json:"steps"`
	Mitigation    string   `json:"mitigation"`
}

// PredictedPrecedence records which tool a model would likely prefer
// when declared functions overlap.
type PredictedPrecedence struct {
	Tools            []string `json:"tools"`
	LikelySelection  string   `json:"likely_selection"`
	Reason           string   `json:"reason"`
	ConflictingTools []string `json:"conflicting_tools"`
}

// OverlappingFunctionality flags redundant tool functionality and the
// precedence conflicts it creates.
type OverlappingFunctionality struct {
	Description         string                `json:"description"`
	PredictedPrecedence []PredictedPrecedence `json:"predicted_precedence"`
}

// IssueCategory groups tools affected by one class of declaration issue.
type IssueCategory struct {
	Description   string   `json:"description"`
	AffectedTools []string `json:"affected_tools"`
}

// Recommendations holds actionable mitigation suggestions.
type Recommendations struct {
	Suggestions []string `json:"suggestions"`
}

// StructuredAnalysis is the per-server sibling of CompositionAnalysis:
// a full security assessment of one server's tool declarations.
type StructuredAnalysis struct {
	ToolAssessments               []ToolRiskAssessment     `json:"tool_assessments"`
	OverallRiskScore              RiskLevel                `json:"overall_risk_score"`
	RiskEvaluationSummary         string                   `json:"risk_evaluation_summary"`
	AttackPaths                   []AttackPath             `json:"attack_paths"`
	OverlappingFunctionality      OverlappingFunctionality `json:"overlapping_functionality"`
	InfluencingLanguage           IssueCategory            `json:"influencing_or_persuasive_language"`
	CraftedOrInformalTone         IssueCategory            `json:"crafted_or_informal_tone"`
	AttentionSeekingWording       IssueCategory            `json:"attention_seeking_wording"`
	InconsistencyInToneOrStructure IssueCategory           `json:"inconsistency_in_tone_or_structure"`
	CapabilityDeltaExpansionRisk  IssueCategory            `json:"agentic_capability_tool_delta_expansion_risk"`
	Recommendations               Recommendations          `json:"recommendations"`
	Action                        Action                   `json:"action"`
}
