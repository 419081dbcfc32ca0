package engine

import (
	"strings"
	"time"

	"mineguard/warden/pkg/placeholder"
	"mineguard/warden/pkg/rulelang/ast"
	rlErrors "mineguard/warden/pkg/rulelang/errors"
)

// CompileRule compiles one rule, merging in the resolved group when the rule
// references one. Capture references beyond the pattern's group count and
// unparsable patterns are load-time errors.
func CompileRule(rule ast.Rule, group *ast.Group, timeout time.Duration) (*CompiledRule, *rlErrors.Error) {
	matcher, cerr := CompileMatcher(rule.Match, timeout, rule.File, rule.Line)
	if cerr != nil {
		return nil, cerr
	}

	compiled := &CompiledRule{
		Rule:                rule,
		Matcher:             matcher,
		Conditions:          rule.Conditions,
		Operators:           rule.Operators,
		IgnoreCommandPrefix: rule.IgnoreCommandPrefix,
		LogDisabled:         rule.LogDisabled,
		SpyDisabled:         rule.SpyDisabled,
		VerboseDisabled:     rule.VerboseDisabled,
	}

	if group != nil {
		compiled.Conditions = mergeConditions(rule.Conditions, group.Conditions)
		compiled.Operators = append(append([]ast.Operator{}, rule.Operators...), group.Operators...)
		compiled.IgnoreCommandPrefix = compiled.IgnoreCommandPrefix || group.IgnoreCommandPrefix
		compiled.LogDisabled = compiled.LogDisabled || group.LogDisabled
		compiled.SpyDisabled = compiled.SpyDisabled || group.SpyDisabled
		compiled.VerboseDisabled = compiled.VerboseDisabled || group.VerboseDisabled
	}

	for _, pair := range rule.BeforeReplace {
		m, cerr := CompileMatcher(pair.Pattern, timeout, rule.File, rule.Line)
		if cerr != nil {
			return nil, cerr
		}
		compiled.Before = append(compiled.Before, CompiledReplace{Matcher: m, Replacement: pair.Replacement})
	}

	if cerr := validateConditions(compiled.Conditions, timeout); cerr != nil {
		return nil, cerr
	}
	if cerr := validateCaptures(compiled.Operators, matcher.GroupCount()); cerr != nil {
		return nil, cerr
	}

	return compiled, nil
}

// CompileMessageGroup compiles one structural message group.
func CompileMessageGroup(group ast.MessageGroup, timeout time.Duration) (*CompiledMessageGroup, *rlErrors.Error) {
	compiled := &CompiledMessageGroup{
		Group:      group,
		Conditions: group.Conditions,
		Operators:  group.Operators,
	}

	if cerr := validateConditions(compiled.Conditions, timeout); cerr != nil {
		return nil, cerr
	}
	return compiled, nil
}

// mergeConditions unions the rule's and group's condition sets, rule-local
// conditions first. Duplicates are dropped so merge order cannot change the
// outcome.
func mergeConditions(local, group []ast.Condition) []ast.Condition {
	merged := append([]ast.Condition{}, local...)
	for _, cond := range group {
		if !containsCondition(merged, cond) {
			merged = append(merged, cond)
		}
	}
	return merged
}

func containsCondition(set []ast.Condition, cond ast.Condition) bool {
	for _, have := range set {
		if have.Kind == cond.Kind && have.Mode == cond.Mode && have.Qualifier == cond.Qualifier &&
			have.Key == cond.Key && have.Script == cond.Script && have.Pattern == cond.Pattern &&
			have.Variable == cond.Variable && strings.Join(have.Values, "|") == strings.Join(cond.Values, "|") {
			return true
		}
	}
	return false
}

// validateConditions compiles string-condition patterns so broken ones fail
// the load instead of the first event.
func validateConditions(conditions []ast.Condition, timeout time.Duration) *rlErrors.Error {
	for _, cond := range conditions {
		if cond.Kind != ast.CondString {
			continue
		}
		if _, cerr := CompileMatcher(cond.Pattern, timeout, cond.File, cond.Line); cerr != nil {
			return cerr
		}
	}
	return nil
}

// validateCaptures rejects $N references beyond the pattern's group count.
func validateCaptures(operators []ast.Operator, groupCount int) *rlErrors.Error {
	for _, op := range operators {
		for _, text := range placeholder.SplitAlternatives(op.Text) {
			if ref := placeholder.MaxCaptureRef(text); ref > groupCount {
				return rlErrors.Semanticf(op.File, op.Line,
					"capture reference $%d exceeds the pattern's %d group(s)", ref, groupCount)
			}
		}
	}
	return nil
}
