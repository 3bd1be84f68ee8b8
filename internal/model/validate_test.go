package model

import (
	"errors"
	"testing"
)

// validAnalysis returns a minimal CompositionAnalysis that passes Validate.
func validAnalysis() CompositionAnalysis {
	return CompositionAnalysis{
		ServersAnalyzed:      []string{"filesystem", "fetch"},
		TotalTools:           7,
		PairwiseCombinations: 21,
		CompositionSurpluses: []CompositionSurplus{
			{
				ID:          "S1",
				ToolA:       "read_file",
				ToolAServer: "filesystem",
				ToolB:       "http_post",
				ToolBServer: "fetch",
				EmergentCapability:      "autonomous exfiltration of local files",
				EmergentCapabilityClass: "DataExfiltration",
				Severity:                SeverityCritical,
				IsCrossServer:           true,
				EnvironmentConditions:   "unrestricted network egress",
				ExistingGovernanceGap:   "per-server review sees each tool as benign",
			},
		},
		AttackChains: []CompositionAttackChain{
			{
				ChainID:                  "C1",
				Name:                     "read-then-post",
				CompositionSurplusesUsed: []string{"S1"},
				Steps:                    []string{"read ~/.ssh/id_rsa", "POST to attacker endpoint"},
				FinalCapability:          "credential theft",
				Severity:                 SeverityCritical,
			},
		},
		CompositionRiskScore: SeverityHigh,
		Action:               ActionAllowWithConstraints,
		Constraints:          []string{"read_file and http_post must not be co-authorized"},
	}
}

func TestValidate_OK(t *testing.T) {
	a := validAnalysis()
	if err := a.Validate(); err != nil {
		t.Fatalf("expected valid analysis, got %v", err)
	}
}

func TestValidate_PairwiseMismatch(t *testing.T) {
	a := validAnalysis()
	a.PairwiseCombinations = 20
	err := a.Validate()
	if !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("expected ErrInvalidAnalysis, got %v", err)
	}
}

func TestValidate_CrossServerMustBeComputed(t *testing.T) {
	a := validAnalysis()

	// Same-origin constituents claiming cross-server.
	a.CompositionSurpluses[0].ToolBServer = "filesystem"
	if err := a.Validate(); !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("expected rejection of asserted is_cross_server, got %v", err)
	}

	// Flag recomputation fixes the disagreement.
	a.NormalizeCrossServer()
	if a.CompositionSurpluses[0].IsCrossServer {
		t.Fatal("expected is_cross_server=false after normalization for same-origin constituents")
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("expected valid after normalization, got %v", err)
	}
}

func TestValidate_ConstraintsRule(t *testing.T) {
	a := validAnalysis()

	a.Action = ActionAllowWithConstraints
	a.Constraints = nil
	if err := a.Validate(); !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("expected error for ALLOW_WITH_CONSTRAINTS without constraints, got %v", err)
	}

	a.Action = ActionBlock
	a.Constraints = []string{"should not be here"}
	if err := a.Validate(); !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("expected error for BLOCK with constraints, got %v", err)
	}

	a.Constraints = nil
	if err := a.Validate(); err != nil {
		t.Fatalf("expected BLOCK without constraints to be valid, got %v", err)
	}
}

func TestValidate_DanglingChainReference(t *testing.T) {
	a := validAnalysis()
	a.AttackChains[0].CompositionSurplusesUsed = []string{"S99"}
	if err := a.Validate(); !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("expected error for dangling surplus reference, got %v", err)
	}
}

func TestValidate_DuplicateSurplusID(t *testing.T) {
	a := validAnalysis()
	dup := a.CompositionSurpluses[0]
	a.CompositionSurpluses = append(a.CompositionSurpluses, dup)
	a.TotalTools = 7
	if err := a.Validate(); !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("expected error for duplicate surplus id, got %v", err)
	}
}

func TestValidate_CapabilityVectorVocabulary(t *testing.T) {
	a := validAnalysis()
	a.ToolCapabilityVectors = []ToolCapabilityVector{
		{ToolName: "read_file", ServerOrigin: "filesystem", CapabilityClasses: []CapabilityClass{
			{ClassName: "ReadFiles", Confidence: RiskHigh},
		}},
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("expected valid vector, got %v", err)
	}

	a.ToolCapabilityVectors[0].CapabilityClasses[0].ClassName = "MindReading"
	if err := a.Validate(); !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("expected rejection of class outside the vocabulary, got %v", err)
	}
}

func TestStructuredValidate(t *testing.T) {
	sa := StructuredAnalysis{
		ToolAssessments: []ToolRiskAssessment{
			{ToolName: "run_shell", RiskSummary: "unrestricted execution", RiskLevel: RiskHigh},
		},
		OverallRiskScore: RiskHigh,
		Action:           ActionBlock,
	}
	if err := sa.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	sa.Action = ActionAllowWithConstraints
	if err := sa.Validate(); !errors.Is(err, ErrInvalidAnalysis) {
		t.Fatalf("per-server analysis must only ALLOW or BLOCK, got %v", err)
	}
}
