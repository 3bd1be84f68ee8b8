package model

// JSON Schemas for the two oracle target types. These are handed to the
// oracle as the structured-output contract and re-used to validate its
// answer at the boundary before decoding into the typed model.

const severityEnum = `{"type": "string", "enum": ["Low", "Medium", "High", "Critical"]}`
const riskLevelEnum = `{"type": "string", "enum": ["Low", "Medium", "High"]}`
const stringArray = `{"type": "array", "items": {"type": "string"}}`

// CompositionAnalysisSchema is the structured-output contract for
// cross-server composition analysis.
const CompositionAnalysisSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "CompositionAnalysis",
  "type": "object",
  "additionalProperties": false,
  "required": [
    "servers_analyzed", "total_tools", "pairwise_combinations",
    "tool_capability_vectors", "composition_surpluses", "attack_chains",
    "cross_server_risk_summary", "composition_risk_score",
    "governance_blind_spots", "recommendations", "action", "constraints"
  ],
  "properties": {
    "servers_analyzed": ` + stringArray + `,
    "total_tools": {"type": "integer", "minimum": 0},
    "pairwise_combinations": {"type": "integer", "minimum": 0},
    "tool_capability_vectors": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["tool_name", "server_origin", "capability_classes"],
        "properties": {
          "tool_name": {"type": "string"},
          "server_origin": {"type": "string"},
          "capability_classes": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["class_name", "confidence"],
              "properties": {
                "class_name": {
                  "type": "string",
                  "enum": [
                    "ReadFiles", "WriteFiles", "Execute", "NetworkEgress",
                    "NetworkIngress", "InstallSoftware", "DatabaseAccess",
                    "Messaging", "Authentication", "FinancialTransaction",
                    "CloudInfra", "BrowserAutomation", "Scheduling",
                    "CodeGeneration", "PackageManagement", "DNSManagement",
                    "CICD", "Surveillance", "DataExfiltration",
                    "SupplyChainModification"
                  ]
                },
                "confidence": ` + riskLevelEnum + `
              }
            }
          }
        }
      }
    },
    "composition_surpluses": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": [
          "id", "tool_a", "tool_a_server", "tool_b", "tool_b_server",
          "additional_tools", "emergent_capability",
          "emergent_capability_class", "severity", "reasoning",
          "is_cross_server", "environment_conditions",
          "existing_governance_gap"
        ],
        "properties": {
          "id": {"type": "string"},
          "tool_a": {"type": "string"},
          "tool_a_server": {"type": "string"},
          "tool_b": {"type": "string"},
          "tool_b_server": {"type": "string"},
          "additional_tools": ` + stringArray + `,
          "emergent_capability": {"type": "string"},
          "emergent_capability_class": {"type": "string"},
          "severity": ` + severityEnum + `,
          "reasoning": {"type": "string"},
          "is_cross_server": {"type": "boolean"},
          "environment_conditions": {"type": "string"},
          "existing_governance_gap": {"type": "string"}
        }
      }
    },
    "attack_chains": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": [
          "chain_id", "name", "composition_surpluses_used", "steps",
          "final_capability", "severity", "human_approval_bypass",
          "mitigation"
        ],
        "properties": {
          "chain_id": {"type": "string"},
          "name": {"type": "string"},
          "composition_surpluses_used": ` + stringArray + `,
          "steps": ` + stringArray + `,
          "final_capability": {"type": "string"},
          "severity": ` + severityEnum + `,
          "human_approval_bypass": {"type": "string"},
          "mitigation": {"type": "string"}
        }
      }
    },
    "cross_server_risk_summary": {"type": "string"},
    "composition_risk_score": ` + severityEnum + `,
    "governance_blind_spots": ` + stringArray + `,
    "recommendations": ` + stringArray + `,
    "action": {"type": "string", "enum": ["ALLOW", "BLOCK", "ALLOW_WITH_CONSTRAINTS"]},
    "constraints": ` + stringArray + `
  }
}`

const issueCategorySchema = `{
      "type": "object",
      "additionalProperties": false,
      "required": ["description", "affected_tools"],
      "properties": {
        "description": {"type": "string"},
        "affected_tools": ` + stringArray + `
      }
    }`

// StructuredAnalysisSchema is the structured-output contract for
// per-server analysis.
const StructuredAnalysisSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "StructuredAnalysis",
  "type": "object",
  "additionalProperties": false,
  "required": [
    "tool_assessments", "overall_risk_score", "risk_evaluation_summary",
    "attack_paths", "overlapping_functionality",
    "influencing_or_persuasive_language", "crafted_or_informal_tone",
    "attention_seeking_wording", "inconsistency_in_tone_or_structure",
    "agentic_capability_tool_delta_expansion_risk", "recommendations",
    "action"
  ],
  "properties": {
    "tool_assessments": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": [
          "tool_name", "risk_summary", "suspicious_language_patterns",
          "risk_level", "mitigation_suggestions"
        ],
        "properties": {
          "tool_name": {"type": "string"},
          "risk_summary": {"type": "string"},
          "suspicious_language_patterns": ` + stringArray + `,
          "risk_level": ` + riskLevelEnum + `,
          "mitigation_suggestions": ` + stringArray + `
        }
      }
    },
    "overall_risk_score": ` + riskLevelEnum + `,
    "risk_evaluation_summary": {"type": "string"},
    "attack_paths": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["description", "involved_tools", "severity", "steps", "mitigation"],
        "properties": {
          "description": {"type": "string"},
          "involved_tools": ` + stringArray + `,
          "severity": ` + severityEnum + `,
          "steps": ` + stringArray + `,
          "mitigation": {"type": "string"}
        }
      }
    },
    "overlapping_functionality": {
      "type": "object",
      "additionalProperties": false,
      "required": ["description", "predicted_precedence"],
      "properties": {
        "description": {"type": "string"},
        "predicted_precedence": {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["tools", "likely_selection", "reason", "conflicting_tools"],
            "properties": {
              "tools": ` + stringArray + `,
              "likely_selection": {"type": "string"},
              "reason": {"type": "string"},
              "conflicting_tools": ` + stringArray + `
            }
          }
        }
      }
    },
    "influencing_or_persuasive_language": ` + issueCategorySchema + `,
    "crafted_or_informal_tone": ` + issueCategorySchema + `,
    "attention_seeking_wording": ` + issueCategorySchema + `,
    "inconsistency_in_tone_or_structure": ` + issueCategorySchema + `,
    "agentic_capability_tool_delta_expansion_risk": ` + issueCategorySchema + `,
    "recommendations": {
      "type": "object",
      "additionalProperties": false,
      "required": ["suggestions"],
      "properties": {
        "suggestions": ` + stringArray + `
      }
    },
    "action": {"type": "string", "enum": ["ALLOW", "BLOCK"]}
  }
}`
