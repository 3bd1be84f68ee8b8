package model

import (
	"errors"
	"fmt"
)

// ErrInvalidAnalysis marks validation failures on oracle output. Wrapped
// errors carry the specific field-level violation.
var ErrInvalidAnalysis = errors.New("invalid analysis")

var validSeverities = map[Severity]bool{
	SeverityLow: true, SeverityMedium: true, SeverityHigh: true, SeverityCritical: true,
}

var validRiskLevels = map[RiskLevel]bool{
	RiskLow: true, RiskMedium: true, RiskHigh: true,
}

var validClassNames = func() map[string]bool {
	m := make(map[string]bool, len(CapabilityClassNames))
	for _, name := range CapabilityClassNames {
		m[name] = true
	}
	return m
}()

// Validate enforces the structural invariants the schema alone cannot
// express: the pairwise count formula, the computed is_cross_server
// flag, and the constraints-iff-ALLOW_WITH_CONSTRAINTS rule.
func (a *CompositionAnalysis) Validate() error {
	if want := a.TotalTools * (a.TotalTools - 1) / 2; a.PairwiseCombinations != want {
		return fmt.Errorf("%w: pairwise_combinations %d != n*(n-1)/2 = %d for n=%d",
			ErrInvalidAnalysis, a.PairwiseCombinations, want, a.TotalTools)
	}
	if !validSeverities[a.CompositionRiskScore] {
		return fmt.Errorf("%w: unknown composition_risk_score %q", ErrInvalidAnalysis, a.CompositionRiskScore)
	}
	switch a.Action {
	case ActionAllow, ActionBlock:
		if len(a.Constraints) > 0 {
			return fmt.Errorf("%w: action %s must not carry constraints", ErrInvalidAnalysis, a.Action)
		}
	case ActionAllowWithConstraints:
		if len(a.Constraints) == 0 {
			return fmt.Errorf("%w: action ALLOW_WITH_CONSTRAINTS requires at least one constraint", ErrInvalidAnalysis)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAnalysis, a.Action)
	}

	seen := make(map[string]bool, len(a.CompositionSurpluses))
	for i := range a.CompositionSurpluses {
		s := &a.CompositionSurpluses[i]
		if s.ID == "" {
			return fmt.Errorf("%w: surplus %d has empty id", ErrInvalidAnalysis, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate surplus id %q", ErrInvalidAnalysis, s.ID)
		}
		seen[s.ID] = true
		if !validSeverities[s.Severity] {
			return fmt.Errorf("%w: surplus %s has unknown severity %q", ErrInvalidAnalysis, s.ID, s.Severity)
		}
		// is_cross_server is computed from the constituents, never trusted
		// as asserted by the oracle.
		if s.IsCrossServer != s.CrossServer() {
			return fmt.Errorf("%w: surplus %s asserts is_cross_server=%t but constituents say %t",
				ErrInvalidAnalysis, s.ID, s.IsCrossServer, s.CrossServer())
		}
	}

	for _, c := range a.AttackChains {
		if !validSeverities[c.Severity] {
			return fmt.Errorf("%w: chain %s has unknown severity %q", ErrInvalidAnalysis, c.ChainID, c.Severity)
		}
		for _, ref := range c.CompositionSurplusesUsed {
			if !seen[ref] {
				return fmt.Errorf("%w: chain %s references unknown surplus %q", ErrInvalidAnalysis, c.ChainID, ref)
			}
		}
	}

	for _, v := range a.ToolCapabilityVectors {
		for _, cc := range v.CapabilityClasses {
			if !validClassNames[cc.ClassName] {
				return fmt.Errorf("%w: vector %s has unknown capability class %q",
					ErrInvalidAnalysis, v.ToolName, cc.ClassName)
			}
			if !validRiskLevels[cc.Confidence] {
				return fmt.Errorf("%w: vector %s has unknown confidence %q",
					ErrInvalidAnalysis, v.ToolName, cc.Confidence)
			}
		}
	}

	return nil
}

// NormalizeCrossServer recomputes every surplus' is_cross_server flag
// from its constituent tool origins.
func (a *CompositionAnalysis) NormalizeCrossServer() {
	for i := range a.CompositionSurpluses {
		a.CompositionSurpluses[i].IsCrossServer = a.CompositionSurpluses[i].CrossServer()
	}
}

// Validate checks the per-server analysis enums.
func (a *StructuredAnalysis) Validate() error {
	if !validRiskLevels[a.OverallRiskScore] {
		return fmt.Errorf("%w: unknown overall_risk_score %q", ErrInvalidAnalysis, a.OverallRiskScore)
	}
	if a.Action != ActionAllow && a.Action != ActionBlock {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAnalysis, a.Action)
	}
	for _, ta := range a.ToolAssessments {
		if !validRiskLevels[ta.RiskLevel] {
			return fmt.Errorf("%w: tool %s has unknown risk_level %q", ErrInvalidAnalysis, ta.ToolName, ta.RiskLevel)
		}
	}
	for _, p := range a.AttackPaths {
		if !validSeverities[p.Severity] {
			return fmt.Errorf("%w: attack path has unknown severity %q", ErrInvalidAnalysis, p.Severity)
		}
	}
	return nil
}
