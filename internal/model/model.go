// Package model defines the typed schema shared by the collector, the
// composition request builder, the oracle boundary, and the result store.
// Aggregates are constructed once per analysis run and are immutable
// after validation.
package model

import "encoding/json"

// ToolDeclaration is one callable capability exposed by an MCP server,
// tagged with the server it was collected from. Declarations are never
// persisted standalone — they are only embedded in analysis requests.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`

	// Collection provenance. Stripped before the declaration is shown
	// to the oracle (the oracle sees only name/description/inputSchema).
	ServerOrigin      string `json:"server_origin"`
	SourceURL         string `json:"source_url,omitempty"`
	SourceFile        string `json:"source_file,omitempty"`
	OriginalRiskLevel string `json:"original_risk_level,omitempty"`
}

// RiskLevel is a three-step confidence/risk scale.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Severity extends RiskLevel with Critical for composition findings.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Action is the recommended disposition for a tool set.
type Action string

const (
	ActionAllow                Action = "ALLOW"
	ActionBlock                Action = "BLOCK"
	ActionAllowWithConstraints Action = "ALLOW_WITH_CONSTRAINTS"
)

// CapabilityClassNames is the closed vocabulary of coarse capability
// classes a tool may be assigned.
var CapabilityClassNames = []string{
	"ReadFiles", "WriteFiles", "Execute", "NetworkEgress", "NetworkIngress",
	"InstallSoftware", "DatabaseAccess", "Messaging", "Authentication",
	"FinancialTransaction", "CloudInfra", "BrowserAutomation", "Scheduling",
	"CodeGeneration", "PackageManagement", "DNSManagement", "CICD",
	"Surveillance", "DataExfiltration", "SupplyChainModification",
}

// CapabilityClass tags a tool with one class from the closed vocabulary
// and the oracle's confidence in the assignment.
type CapabilityClass struct {
	ClassName  string    `json:"class_name"`
	Confidence RiskLevel `json:"confidence"`
}

// ToolCapabilityVector maps a single tool to its capability classes.
type ToolCapabilityVector struct {
	ToolName          string            `json:"tool_name"`
	ServerOrigin      string            `json:"server_origin"`
	CapabilityClasses []CapabilityClass `json:"capability_classes"`
}

// CompositionSurplus is a single Σ_ij: an emergent capability that
// exists only when two or more tools are composed, and that no per-tool
// or per-server review would detect.
type CompositionSurplus struct {
	ID                    string   `json:"id"`
	ToolA                 string   `json:"tool_a"`
	ToolAServer           string   `json:"tool_a_server"`
	ToolB                 string   `json:"tool_b"`
	ToolBServer           string   `json:"tool_b_server"`
	AdditionalTools       []string `json:"additional_tools"`
	EmergentCapability    string   `json:"emergent_capability"`
	EmergentCapabilityClass string `json:"emergent_capability_class"`
	Severity              Severity `json:"severity"`
	Reasoning             string   `json:"reasoning"`
	IsCrossServer         bool     `json:"is_cross_server"`
	EnvironmentConditions string   `json:"environment_conditions"`
	ExistingGovernanceGap string   `json:"existing_governance_gap"`
}

// CrossServer reports whether the surplus' constituent tools span at
// least two distinct server origins. This is the ground truth for the
// IsCrossServer field — the stored flag must never disagree with it.
func (s *CompositionSurplus) CrossServer() bool {
	return s.ToolAServer != "" && s.ToolBServer != "" && s.ToolAServer != s.ToolBServer
}

// CompositionAttackChain is a multi-step narrative realizing one or more
// composition surpluses into a concrete unauthorized outcome.
type CompositionAttackChain struct {
	ChainID                 string   `json:"chain_id"`
	Name                    string   `json:"name"`
	CompositionSurplusesUsed []string `json:"composition_surpluses_used"`
	Steps                   []string `json:"steps"`
	FinalCapability         string   `json:"final_capability"`
	Severity                Severity `json:"severity"`
	HumanApprovalBypass     string   `json:"human_approval_bypass"`
	Mitigation              string   `json:"mitigation"`
}

// CompositionAnalysis is the full cross-server composition risk verdict:
// capability vectors, surpluses (Σ_ij), attack chains, governance blind
// spots, and recommended constraints.
type CompositionAnalysis struct {
	ServersAnalyzed       []string                 `json:"servers_analyzed"`
	TotalTools            int                      `json:"total_tools"`
	PairwiseCombinations  int                      `json:"pairwise_combinations"`
	ToolCapabilityVectors []ToolCapabilityVector   `json:"tool_capability_vectors"`
	CompositionSurpluses  []CompositionSurplus     `json:"composition_surpluses"`
	AttackChains          []CompositionAttackChain `json:"attack_chains"`
	CrossServerRiskSummary string                  `json:"cross_server_risk_summary"`
	CompositionRiskScore  Severity                 `json:"composition_risk_score"`
	GovernanceBlindSpots  []string                 `json:"governance_blind_spots"`
	Recommendations       []string                 `json:"recommendations"`
	Action                Action                   `json:"action"`
	Constraints           []string                 `json:"constraints"`
}
