// Package engine evaluates game events against compiled rule snapshots and
// executes the operators of matching rules.
package engine

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"mineguard/warden/pkg/game"
	"mineguard/warden/pkg/rulelang/ast"
)

// EventContext carries everything a single evaluation needs. It is built by
// the host per event and never retained by the engine.
type EventContext struct {
	// ID identifies the event in logs and spy streams.
	ID uuid.UUID

	// Type is set for text events (chat, command, sign, tag).
	Type ast.RuleType

	// MessageType is set for structural events (join, quit, kick, death,
	// timed).
	MessageType ast.MessageType

	// Subject is the player the event originates from.
	Subject game.Subject

	// Receiver, when set, is the player a per-recipient evaluation targets.
	Receiver *game.Subject

	// Killer, when set, is the killing player for death events.
	Killer *game.Subject

	// Text is the original event text. For death events it is the vanilla
	// death message, available as {original_message}.
	Text string

	// Death carries death-event attributes.
	Death *game.DeathFacts

	// Time is when the event happened; zero means "now".
	Time time.Time
}

// Verdict is the final fate of the evaluated event.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictDeny  Verdict = "deny"
	VerdictKick  Verdict = "kick"
)

// Decision is the evaluation result handed back to the host. Side effects
// (warnings, notifications, commands, kicks) have already been delivered
// through the game interfaces by the time the Decision is returned.
type Decision struct {
	Verdict Verdict

	// Text is the final working text after all replacements. Meaningful for
	// allowed text events.
	Text string

	// Silent suppresses the host's own deny feedback ("deny silently").
	Silent bool

	// Aborted reports that an abort operator terminated the pipeline early;
	// the verdict is then whatever had accumulated before it.
	Aborted bool

	// KickReason is set when Verdict is VerdictKick.
	KickReason string

	// Matched lists the display names of rules and groups that fired, for
	// logging and spy streams.
	Matched []string

	// LogSuppressed and SpySuppressed report that a matched rule opted out of
	// match logging or the moderator spy stream.
	LogSuppressed bool
	SpySuppressed bool

	// Messages holds the fully substituted lines a structural event produced.
	Messages []string
}

// CompiledRule is a text rule with its pattern compiled and its group
// reference merged in. Compiled rules are immutable after load.
type CompiledRule struct {
	Rule ast.Rule

	// Matcher is the compiled match pattern.
	Matcher *Matcher

	// Before are the compiled `before replace` pairs, applied in order to the
	// working text before the match runs.
	Before []CompiledReplace

	// Conditions and Operators are the merged sets: the referenced group's
	// conditions unioned in, rule-local operators first.
	Conditions []ast.Condition
	Operators  []ast.Operator

	// Merged flags (rule or group may set them).
	IgnoreCommandPrefix bool
	LogDisabled         bool
	SpyDisabled         bool
	VerboseDisabled     bool

	// matchErrOnce limits engine-error logging to once per rule per reload.
	matchErrOnce sync.Once
}

// CompiledReplace is a compiled before-replace pair.
type CompiledReplace struct {
	Matcher     *Matcher
	Replacement string
}

// CompiledMessageGroup is a structural message group with its conditions
// merged and ready for dispatch.
type CompiledMessageGroup struct {
	Group ast.MessageGroup

	Conditions []ast.Condition
	Operators  []ast.Operator
}

// Key identifies the group across reloads (rotation cursors and broadcast
// schedules survive a reload of an unchanged group).
func (g *CompiledMessageGroup) Key() string {
	return string(g.Group.Type) + "/" + g.Group.Name
}

// DisplayName returns the rule's name, or a file:line fallback for unnamed
// rules.
func (r *CompiledRule) DisplayName() string {
	if r.Rule.Name != "" {
		return r.Rule.Name
	}
	return r.Rule.File + ":" + strconv.Itoa(r.Rule.Line)
}

// Key identifies the rule across evaluations for throttle bookkeeping.
func (r *CompiledRule) Key() string {
	return r.Rule.File + ":" + strconv.Itoa(r.Rule.Line)
}

// Snapshot is one immutable compiled view of every rule and message file.
// The engine swaps snapshots atomically on reload.
type Snapshot struct {
	Rules    map[ast.RuleType][]*CompiledRule
	Messages map[ast.MessageType][]*CompiledMessageGroup

	LoadedAt time.Time
}
