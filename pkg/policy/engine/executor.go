package engine

import (
	"context"
	"strconv"
	"strings"

	"mineguard/warden/pkg/placeholder"
	"mineguard/warden/pkg/rulelang/ast"
)

// Executor runs merged operator chains. Operators execute strictly in
// declaration order and keep executing after a deny; only abort and kick
// terminate the chain. A failed side effect is logged and the chain
// continues.
type Executor struct {
	deps *Deps
}

// NewExecutor creates an executor acting through the given collaborators.
func NewExecutor(deps *Deps) *Executor {
	return &Executor{deps: deps}
}

// ExecState threads the working text and accumulated verdict through one
// rule's operator chain.
type ExecState struct {
	Text       string
	Verdict    Verdict
	Silent     bool
	Aborted    bool
	KickReason string
}

// Terminal reports whether the chain (and for kick/abort, the pipeline)
// should stop.
func (s *ExecState) Terminal() bool {
	return s.Aborted || s.Verdict == VerdictKick
}

// Run executes the chain against the event. cs may be nil for structural
// events, which have no matched span.
func (x *Executor) Run(ctx context.Context, operators []ast.Operator, ev *EventContext, cs *CaptureSet, state *ExecState, ruleName string) {
	for i := range operators {
		op := &operators[i]
		x.execute(ctx, op, ev, cs, state, ruleName)
		if state.Terminal() {
			return
		}
	}
}

func (x *Executor) execute(ctx context.Context, op *ast.Operator, ev *EventContext, cs *CaptureSet, state *ExecState, ruleName string) {
	switch op.Type {
	case ast.OpDeny:
		state.Verdict = VerdictDeny
		if op.Silent {
			state.Silent = true
		}

	case ast.OpAbort:
		state.Aborted = true

	case ast.OpReplace:
		if cs == nil {
			return
		}
		replacement := x.render(op.Text, ev, cs, state, ruleName, true)
		state.Text = ReplaceSpan(state.Text, cs, replacement)

	case ast.OpRewrite:
		state.Text = x.render(op.Text, ev, cs, state, ruleName, true)

	case ast.OpWarn:
		x.deps.Messenger.Tell(ev.Subject, x.render(op.Text, ev, cs, state, ruleName, false))

	case ast.OpNotify:
		x.deps.Messenger.NotifyPermission(op.Permission, x.render(op.Text, ev, cs, state, ruleName, false))

	case ast.OpConsole:
		for _, command := range placeholder.SplitAlternatives(op.Text) {
			command = strings.TrimSpace(command)
			if command == "" {
				continue
			}
			x.deps.Dispatcher.DispatchConsole(x.render(command, ev, cs, state, ruleName, false))
		}

	case ast.OpCommand:
		x.deps.Dispatcher.DispatchAs(ev.Subject, x.render(op.Text, ev, cs, state, ruleName, false))

	case ast.OpKick:
		reason := x.render(op.Text, ev, cs, state, ruleName, false)
		x.deps.Kicker.Kick(ev.Subject, reason)
		state.Verdict = VerdictKick
		state.KickReason = reason

	case ast.OpPoints:
		if x.deps.Points == nil {
			return
		}
		if _, err := x.deps.Points.Add(ctx, ev.Subject.ID, op.Category, op.Amount); err != nil {
			x.operatorError(op, ev, "failed to add warning points", err)
		}

	case ast.OpSaveKey:
		if x.deps.Keys == nil {
			return
		}
		var err error
		if op.Value == "" {
			err = x.deps.Keys.Delete(ctx, ev.Subject.ID, op.Key)
		} else {
			err = x.deps.Keys.Set(ctx, ev.Subject.ID, op.Key, x.render(op.Value, ev, cs, state, ruleName, false))
		}
		if err != nil {
			x.operatorError(op, ev, "failed to save key", err)
		}

	case ast.OpLog:
		x.deps.Logger.Info(x.render(op.Text, ev, cs, state, ruleName, false),
			"rule", ruleName, "player", ev.Subject.Name, "event_id", ev.ID)

	case ast.OpSound:
		x.deps.Messenger.PlaySound(ev.Subject, op.Sound.Name, op.Sound.Volume, op.Sound.Pitch)

	default:
		x.deps.Logger.Warn("unknown operator",
			"operator", string(op.Type), "file", op.File, "line", op.Line)
	}
}

// render resolves a template: random |-alternative selection (when wanted),
// @prolong expansion, $N capture substitution, then {token} placeholders.
func (x *Executor) render(template string, ev *EventContext, cs *CaptureSet, state *ExecState, ruleName string, alternatives bool) string {
	if alternatives {
		parts := placeholder.SplitAlternatives(template)
		template = parts[x.deps.intn(len(parts))]
	}

	if cs != nil {
		if expanded, ok := ExpandProlong(template, cs); ok {
			return expanded
		}
		template = placeholder.ApplyCaptures(template, cs.Groups)
	}

	return placeholder.Substitute(template, x.resolver(ev, cs, state, ruleName))
}

func (x *Executor) resolver(ev *EventContext, cs *CaptureSet, state *ExecState, ruleName string) placeholder.Resolver {
	return func(token string) (string, bool) {
		switch token {
		case "player":
			return ev.Subject.Name, true
		case "player_uuid":
			return ev.Subject.ID.String(), true
		case "world":
			return ev.Subject.World, true
		case "gamemode":
			return ev.Subject.Gamemode, true
		case "channel":
			return ev.Subject.Channel, true
		case "message":
			return state.Text, true
		case "original_message":
			return ev.Text, true
		case "matched_message":
			if cs != nil {
				return cs.Matched(), true
			}
			return "", false
		case "rule_name":
			return ruleName, true
		case "receiver":
			if ev.Receiver != nil {
				return ev.Receiver.Name, true
			}
			return "", false
		}

		if ev.Death != nil {
			switch token {
			case "killer":
				if ev.Death.KillerName != "" {
					return ev.Death.KillerName, true
				}
				return ev.Death.Killer, true
			case "killer_item":
				return ev.Death.KillerItem, true
			case "killer_distance":
				return strconv.Itoa(int(ev.Death.Distance + 0.5)), true
			case "cause":
				return ev.Death.Cause, true
			case "projectile":
				return ev.Death.Projectile, true
			case "boss":
				return ev.Death.Boss, true
			}
		}

		if x.deps.Variables != nil {
			return x.deps.Variables.Resolve(ev.Subject, token)
		}
		return "", false
	}
}

func (x *Executor) operatorError(op *ast.Operator, ev *EventContext, msg string, err error) {
	x.deps.Metrics.RecordOperatorError(string(op.Type))
	x.deps.Logger.Warn(msg,
		"error", err,
		"operator", string(op.Type),
		"file", op.File,
		"line", op.Line,
		"event_id", ev.ID,
	)
}
