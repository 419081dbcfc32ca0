package engine

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"mineguard/warden/pkg/game"
	"mineguard/warden/pkg/rulelang/ast"
)

// Evaluator checks merged condition sets against an event. Conditions never
// mutate state; a collaborator failure makes the condition evaluate false and
// is logged as a warning.
type Evaluator struct {
	deps    *Deps
	timeout time.Duration

	// string-condition patterns are compiled on first use and cached for the
	// evaluator's lifetime.
	mu       sync.Mutex
	patterns map[string]*Matcher
}

// NewEvaluator creates an evaluator with the given match timeout for string
// conditions.
func NewEvaluator(deps *Deps, timeout time.Duration) *Evaluator {
	return &Evaluator{deps: deps, timeout: timeout, patterns: make(map[string]*Matcher)}
}

// CheckResult is the outcome of evaluating a condition set.
type CheckResult struct {
	// Pass reports that no ignore condition held and every require condition
	// held.
	Pass bool

	// FailMessage is the custom message of a failed require-perm condition.
	// When set, the host should deliver it and cancel the event.
	FailMessage string
}

// Check evaluates conditions in declaration order. Any true ignore condition
// or false require condition stops the walk.
func (e *Evaluator) Check(ctx context.Context, conditions []ast.Condition, ev *EventContext, working string) CheckResult {
	for i := range conditions {
		cond := &conditions[i]
		holds := e.evaluate(ctx, cond, ev, working)

		if cond.Mode == ast.ModeIgnore {
			if holds {
				return CheckResult{Pass: false}
			}
			continue
		}

		if !holds {
			return CheckResult{Pass: false, FailMessage: cond.FailMessage}
		}
	}
	return CheckResult{Pass: true}
}

func (e *Evaluator) evaluate(ctx context.Context, cond *ast.Condition, ev *EventContext, working string) bool {
	subject, ok := ev.qualified(cond.Qualifier)
	if !ok {
		return false
	}

	switch cond.Kind {
	case ast.CondPerm:
		return e.deps.Permissions.HasPermission(subject, cond.Key)

	case ast.CondCommand:
		label := commandLabel(ev.Text)
		for _, v := range cond.Values {
			if strings.EqualFold(label, v) {
				return true
			}
		}
		return false

	case ast.CondCommandPrefix:
		return strings.HasPrefix(ev.Text, "/")

	case ast.CondString:
		matcher, err := e.pattern(cond.Pattern)
		if err != nil {
			e.warn(cond, ev, "failed to compile string condition", err)
			return false
		}
		cs, err := matcher.Find(working)
		if err != nil {
			e.warn(cond, ev, "string condition match failed", err)
			return false
		}
		return cs != nil

	case ast.CondChannel:
		return e.deps.Channels.InChannel(subject, cond.Key, cond.ChannelMode)

	case ast.CondWorld:
		return containsFold(cond.Values, subject.World)

	case ast.CondGamemode:
		return slices.Contains(cond.Values, strings.ToLower(subject.Gamemode))

	case ast.CondKey:
		value, exists, err := e.deps.Keys.Get(ctx, subject.ID, cond.Key)
		if err != nil {
			e.warn(cond, ev, "key lookup failed", err)
			return false
		}
		if !exists {
			return false
		}
		if cond.Script == "" {
			return true
		}
		result, err := e.deps.Scripts.EvalBool(cond.Script, map[string]any{"value": value})
		if err != nil {
			e.warn(cond, ev, "key value check failed", err)
			return false
		}
		return result

	case ast.CondScript:
		result, err := e.deps.Scripts.EvalBool(cond.Script, scriptEnv(ev, subject, working))
		if err != nil {
			e.warn(cond, ev, "script condition failed", err)
			return false
		}
		return result

	case ast.CondVariable:
		if e.deps.Variables == nil {
			return false
		}
		token := strings.Trim(cond.Variable, "{}")
		value, known := e.deps.Variables.Resolve(subject, token)
		if !known {
			return false
		}
		return strings.EqualFold(value, cond.Expect)

	case ast.CondPlayedBefore:
		return subject.PlayedBefore

	case ast.CondNPC:
		return subject.NPC

	case ast.CondSelf:
		return ev.Death != nil && ev.Death.Self

	case ast.CondProjectile:
		return ev.Death != nil && slices.Contains(cond.Values, ev.Death.Projectile)

	case ast.CondKiller:
		return ev.Death != nil && slices.Contains(cond.Values, ev.Death.Killer)

	case ast.CondKillerItem:
		return ev.Death != nil && slices.Contains(cond.Values, ev.Death.KillerItem)

	case ast.CondCause:
		return ev.Death != nil && slices.Contains(cond.Values, ev.Death.Cause)

	case ast.CondBoss:
		if ev.Death == nil || ev.Death.Boss == "" {
			return false
		}
		return slices.Contains(cond.Values, "*") || containsFold(cond.Values, ev.Death.Boss)

	default:
		e.deps.Logger.Warn("unknown condition kind",
			"kind", cond.Kind, "file", cond.File, "line", cond.Line)
		return false
	}
}

func (e *Evaluator) pattern(src string) (*Matcher, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m, ok := e.patterns[src]; ok {
		return m, nil
	}
	m, err := CompileMatcher(src, e.timeout, "", 0)
	if err != nil {
		return nil, err
	}
	e.patterns[src] = m
	return m, nil
}

func (e *Evaluator) warn(cond *ast.Condition, ev *EventContext, msg string, err error) {
	e.deps.Logger.Warn(msg,
		"error", err,
		"condition", string(cond.Kind),
		"file", cond.File,
		"line", cond.Line,
		"event_id", ev.ID,
	)
}

// qualified resolves the subject a condition inspects. The second return is
// false when the event has no actor in that role.
func (ev *EventContext) qualified(q ast.Qualifier) (game.Subject, bool) {
	switch q {
	case ast.QualifierReceiver:
		if ev.Receiver == nil {
			return game.Subject{}, false
		}
		return *ev.Receiver, true
	case ast.QualifierKiller:
		if ev.Killer == nil {
			return game.Subject{}, false
		}
		return *ev.Killer, true
	default:
		return ev.Subject, true
	}
}

// scriptEnv builds the variable environment script conditions run against.
func scriptEnv(ev *EventContext, subject game.Subject, working string) map[string]any {
	env := map[string]any{
		"player":        subject.Name,
		"world":         subject.World,
		"gamemode":      subject.Gamemode,
		"channel":       subject.Channel,
		"message":       working,
		"played_before": subject.PlayedBefore,
	}
	if ev.Death != nil {
		env["cause"] = ev.Death.Cause
		env["killer"] = ev.Death.Killer
		env["killer_item"] = ev.Death.KillerItem
		env["projectile"] = ev.Death.Projectile
		env["killer_distance"] = ev.Death.Distance
		env["boss"] = ev.Death.Boss
	}
	return env
}

// commandLabel extracts the command word, e.g. "/msg" from "/msg bob hi".
func commandLabel(text string) string {
	label, _, _ := strings.Cut(text, " ")
	return label
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
