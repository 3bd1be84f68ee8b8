package model

import (
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

func compile(t *testing.T, schemaJSON string) *jsonschema.Schema {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		t.Fatalf("add resource: %v", err)
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return sch
}

// schemaInstance marshals a fully populated analysis into the generic
// shape the validator operates on. The schema requires every field, so
// all collections are non-nil.
func schemaInstance(t *testing.T) map[string]any {
	t.Helper()
	a := validAnalysis()
	a.ToolCapabilityVectors = []ToolCapabilityVector{
		{ToolName: "read_file", ServerOrigin: "filesystem", CapabilityClasses: []CapabilityClass{
			{ClassName: "ReadFiles", Confidence: RiskHigh},
		}},
	}
	a.GovernanceBlindSpots = []string{}
	a.Recommendations = []string{}
	a.CrossServerRiskSummary = "combined read+egress enables exfiltration"
	a.CompositionSurpluses[0].AdditionalTools = []string{}
	a.CompositionSurpluses[0].Reasoning = "chain read into post"
	a.AttackChains[0].HumanApprovalBypass = "each step looks routine"
	a.AttackChains[0].Mitigation = "mutual exclusion"

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var inst map[string]any
	if err := json.Unmarshal(raw, &inst); err != nil {
		t.Fatal(err)
	}
	return inst
}

func TestCompositionSchema_AcceptsValidAnalysis(t *testing.T) {
	sch := compile(t, CompositionAnalysisSchema)
	if err := sch.Validate(schemaInstance(t)); err != nil {
		t.Fatalf("expected round-tripped analysis to satisfy schema: %v", err)
	}
}

func TestCompositionSchema_RejectsUnknownAction(t *testing.T) {
	sch := compile(t, CompositionAnalysisSchema)
	inst := schemaInstance(t)
	inst["action"] = "MAYBE"
	if err := sch.Validate(inst); err == nil {
		t.Fatal("expected schema violation for unknown action")
	}
}

func TestCompositionSchema_RejectsMissingField(t *testing.T) {
	sch := compile(t, CompositionAnalysisSchema)
	inst := schemaInstance(t)
	delete(inst, "composition_risk_score")
	if err := sch.Validate(inst); err == nil {
		t.Fatal("expected schema violation for missing composition_risk_score")
	}
}

func TestCompositionSchema_RejectsUnknownCapabilityClass(t *testing.T) {
	sch := compile(t, CompositionAnalysisSchema)
	inst := schemaInstance(t)
	vectors := inst["tool_capability_vectors"].([]any)
	classes := vectors[0].(map[string]any)["capability_classes"].([]any)
	classes[0].(map[string]any)["class_name"] = "MindReading"
	if err := sch.Validate(inst); err == nil {
		t.Fatal("expected schema violation for class outside the closed vocabulary")
	}
}

func TestStructuredSchema_Compiles(t *testing.T) {
	sch := compile(t, StructuredAnalysisSchema)

	inst := map[string]any{
		"tool_assessments":        []any{},
		"overall_risk_score":      "Low",
		"risk_evaluation_summary": "nothing notable",
		"attack_paths":            []any{},
		"overlapping_functionality": map[string]any{
			"description": "", "predicted_precedence": []any{},
		},
		"influencing_or_persuasive_language":           map[string]any{"description": "", "affected_tools": []any{}},
		"crafted_or_informal_tone":                     map[string]any{"description": "", "affected_tools": []any{}},
		"attention_seeking_wording":                    map[string]any{"description": "", "affected_tools": []any{}},
		"inconsistency_in_tone_or_structure":           map[string]any{"description": "", "affected_tools": []any{}},
		"agentic_capability_tool_delta_expansion_risk": map[string]any{"description": "", "affected_tools": []any{}},
		"recommendations": map[string]any{"suggestions": []any{}},
		"action":          "ALLOW",
	}
	if err := sch.Validate(inst); err != nil {
		t.Fatalf("expected minimal instance to satisfy schema: %v", err)
	}

	inst["action"] = "ALLOW_WITH_CONSTRAINTS"
	if err := sch.Validate(inst); err == nil {
		t.Fatal("per-server schema must reject ALLOW_WITH_CONSTRAINTS")
	}
}
