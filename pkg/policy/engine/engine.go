package engine

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mineguard/warden/pkg/rulelang/ast"
)

// Options tune pipeline behavior; they come from the rules section of the
// settings file.
type Options struct {
	// StopOnFirstMatch halts the pipeline once a rule denies, kicks or
	// aborts. When false, later rules keep applying cumulatively.
	StopOnFirstMatch bool

	// ApplyOn lists the text event types rules run for. Empty means all.
	ApplyOn []ast.RuleType

	// StripColors and StripAccents are the engine-wide preprocessing
	// defaults; individual rules may override them.
	StripColors  bool
	StripAccents bool

	// Verbose logs every rule match with full context.
	Verbose bool

	// MatchTimeout bounds string-condition pattern evaluation.
	MatchTimeout time.Duration
}

// Engine evaluates events against the current snapshot. Evaluation runs
// synchronously on the caller's goroutine; the snapshot is immutable and
// swapped atomically on reload, so concurrent evaluations are safe.
type Engine struct {
	deps     Deps
	opts     Options
	eval     *Evaluator
	exec     *Executor
	snapshot atomic.Pointer[Snapshot]

	// throttle bookkeeping survives snapshot swaps.
	mu        sync.Mutex
	ruleFired map[string]time.Time
	cursors   map[string]int
}

// New creates an engine with an empty snapshot.
func New(deps Deps, opts Options) *Engine {
	deps.fill()
	if opts.MatchTimeout <= 0 {
		opts.MatchTimeout = 100 * time.Millisecond
	}

	e := &Engine{
		deps:      deps,
		opts:      opts,
		ruleFired: make(map[string]time.Time),
		cursors:   make(map[string]int),
	}
	e.eval = NewEvaluator(&e.deps, opts.MatchTimeout)
	e.exec = NewExecutor(&e.deps)
	return e
}

// Swap installs a new snapshot. In-flight evaluations finish on the old one.
func (e *Engine) Swap(s *Snapshot) {
	e.snapshot.Store(s)
}

// Snapshot returns the current snapshot, or nil before the first load.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// FilterText evaluates a chat, command, sign or tag event. The returned
// Decision carries the verdict and the final working text; warnings,
// notifications and commands have already been delivered.
func (e *Engine) FilterText(ctx context.Context, ev *EventContext) *Decision {
	started := e.deps.now()
	defer func() {
		e.deps.Metrics.RecordEvaluation(string(ev.Type), e.deps.now().Sub(started).Seconds())
	}()

	decision := &Decision{Verdict: VerdictAllow, Text: ev.Text}
	if len(e.opts.ApplyOn) > 0 && !slices.Contains(e.opts.ApplyOn, ev.Type) {
		return decision
	}
	snapshot := e.snapshot.Load()
	if snapshot == nil {
		return decision
	}

	working := ev.Text
	now := eventTime(ev, e.deps.now)

	for _, rule := range snapshot.Rules[ev.Type] {
		if !e.ruleActive(rule, ev.Type, now) {
			continue
		}

		// Working copy the pattern runs against, with the command label
		// peeled off when the rule asks for it.
		label, body := "", working
		if rule.IgnoreCommandPrefix && ev.Type == ast.RuleCommand {
			label, body = splitCommand(working)
		}
		matchText := e.prepare(body, rule)

		cs, err := rule.Matcher.Find(matchText)
		if err != nil {
			rule.matchErrOnce.Do(func() {
				e.deps.Logger.Error("match engine failure, rule disabled until reload",
					"error", err, "rule", rule.DisplayName(), "pattern", rule.Matcher.Pattern())
			})
			continue
		}
		if cs == nil {
			continue
		}

		check := e.eval.Check(ctx, rule.Conditions, ev, matchText)
		if !check.Pass {
			if check.FailMessage != "" {
				e.deps.Messenger.Tell(ev.Subject, check.FailMessage)
				decision.Verdict = VerdictDeny
				decision.Matched = append(decision.Matched, rule.DisplayName())
				return decision
			}
			continue
		}

		if remaining, throttled := e.throttled(rule.Key(), "", rule.Rule.Delay, now); throttled {
			e.cooldownMessage(ev, rule.Rule.Delay, remaining)
			continue
		}
		if remaining, throttled := e.throttled(rule.Key(), ev.Subject.ID.String(), rule.Rule.PlayerDelay, now); throttled {
			e.cooldownMessage(ev, rule.Rule.PlayerDelay, remaining)
			continue
		}

		state := &ExecState{Text: matchText, Verdict: decision.Verdict, Silent: decision.Silent}
		e.exec.Run(ctx, rule.Operators, ev, cs, state, rule.DisplayName())

		decision.Verdict = state.Verdict
		decision.Silent = state.Silent
		decision.Matched = append(decision.Matched, rule.DisplayName())
		decision.LogSuppressed = decision.LogSuppressed || rule.LogDisabled
		decision.SpySuppressed = decision.SpySuppressed || rule.SpyDisabled

		e.deps.Metrics.RecordMatch(string(ev.Type), rule.DisplayName())
		if e.opts.Verbose && !rule.VerboseDisabled {
			e.deps.Logger.Info("rule matched",
				"rule", rule.DisplayName(), "player", ev.Subject.Name,
				"type", string(ev.Type), "verdict", string(state.Verdict), "text", state.Text)
		}

		if state.Text != matchText {
			working = joinCommand(label, state.Text)
		} else if label != "" {
			working = joinCommand(label, body)
		}

		if state.Verdict == VerdictKick {
			decision.KickReason = state.KickReason
			break
		}
		if state.Aborted {
			decision.Aborted = true
			break
		}
		if e.opts.StopOnFirstMatch && state.Verdict == VerdictDeny {
			break
		}
	}

	decision.Text = working
	e.deps.Metrics.RecordVerdict(string(ev.Type), string(decision.Verdict))
	return decision
}

// HandleEvent evaluates a join, quit, kick or death event and delivers the
// winning group's message. The returned Decision reports whether the host
// should suppress its own default message (VerdictDeny) and which lines were
// sent.
func (e *Engine) HandleEvent(ctx context.Context, ev *EventContext) *Decision {
	started := e.deps.now()
	defer func() {
		e.deps.Metrics.RecordEvaluation(string(ev.MessageType), e.deps.now().Sub(started).Seconds())
	}()

	decision := &Decision{Verdict: VerdictAllow, Text: ev.Text}
	snapshot := e.snapshot.Load()
	if snapshot == nil {
		return decision
	}

	now := eventTime(ev, e.deps.now)

	for _, group := range snapshot.Messages[ev.MessageType] {
		if group.Group.Expires != nil && now.After(*group.Group.Expires) {
			continue
		}

		check := e.eval.Check(ctx, group.Conditions, ev, ev.Text)
		if !check.Pass {
			if check.FailMessage != "" {
				e.deps.Messenger.Tell(ev.Subject, check.FailMessage)
				decision.Verdict = VerdictDeny
				return decision
			}
			continue
		}

		if _, throttled := e.throttled(group.Key(), "", group.Group.Delay, now); throttled {
			continue
		}

		state := &ExecState{Text: ev.Text, Verdict: decision.Verdict}
		e.exec.Run(ctx, group.Operators, ev, nil, state, group.Group.Name)

		decision.Verdict = state.Verdict
		decision.Matched = append(decision.Matched, group.Group.Name)
		decision.LogSuppressed = decision.LogSuppressed || group.Group.LogDisabled
		decision.SpySuppressed = decision.SpySuppressed || group.Group.SpyDisabled
		e.deps.Metrics.RecordMatch(string(ev.MessageType), group.Group.Name)

		if state.Aborted {
			decision.Aborted = true
			break
		}
		if state.Verdict == VerdictKick {
			decision.KickReason = state.KickReason
			break
		}

		if state.Verdict != VerdictDeny {
			if line, ok := e.composeMessage(group, ev, state); ok {
				e.deps.Messenger.Broadcast(line, group.Group.Proxy)
				decision.Messages = append(decision.Messages, line)
				// A custom message replaces the host's default one.
				decision.Verdict = VerdictDeny
				decision.Silent = true
			}
		}

		if e.opts.StopOnFirstMatch {
			break
		}
	}

	e.deps.Metrics.RecordVerdict(string(ev.MessageType), string(decision.Verdict))
	return decision
}

// DeliverTimed runs one fire of a timed broadcast group: conditions are
// evaluated per online player, the group's operator chain runs for each
// passing player, and players not denied by it receive the selected line.
// It reports whether anyone received it.
func (e *Engine) DeliverTimed(ctx context.Context, group *CompiledMessageGroup) bool {
	line, ok := e.selectMessage(group)
	if !ok {
		return false
	}

	delivered := false
	for _, player := range e.deps.Players.OnlinePlayers() {
		ev := &EventContext{
			MessageType: ast.MessageTimed,
			Subject:     player,
		}

		if check := e.eval.Check(ctx, group.Conditions, ev, ""); !check.Pass {
			continue
		}

		state := &ExecState{Verdict: VerdictAllow}
		e.exec.Run(ctx, group.Operators, ev, nil, state, group.Group.Name)
		if state.Aborted || state.Verdict != VerdictAllow {
			continue
		}

		rendered := e.exec.render(e.decorate(group, line), ev, nil, state, group.Group.Name, false)
		e.deps.Messenger.Tell(player, rendered)
		delivered = true
	}

	if delivered {
		e.deps.Metrics.RecordBroadcastFire(group.Group.Name)
	}
	return delivered
}

// composeMessage picks the group's next message line and renders it with
// prefix, suffix and placeholders. ok is false when the group has no lines.
func (e *Engine) composeMessage(group *CompiledMessageGroup, ev *EventContext, state *ExecState) (string, bool) {
	line, ok := e.selectMessage(group)
	if !ok {
		return "", false
	}
	return e.exec.render(e.decorate(group, line), ev, nil, state, group.Group.Name, false), true
}

func (e *Engine) decorate(group *CompiledMessageGroup, line string) string {
	if group.Group.Prefix != "" {
		line = group.Group.Prefix + " " + line
	}
	if group.Group.Suffix != "" {
		line = line + " " + group.Group.Suffix
	}
	return line
}

// selectMessage returns the group's next message: random when the flag is
// set, otherwise rotating through the list with a cursor that survives
// reloads of an unchanged group.
func (e *Engine) selectMessage(group *CompiledMessageGroup) (string, bool) {
	messages := group.Group.Messages
	if len(messages) == 0 {
		return "", false
	}

	if group.Group.Random {
		return messages[e.deps.intn(len(messages))], true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cursor := e.cursors[group.Key()] % len(messages)
	e.cursors[group.Key()] = cursor + 1
	return messages[cursor], true
}

// ruleActive applies the begins/expires window and global-rule type filter.
func (e *Engine) ruleActive(rule *CompiledRule, eventType ast.RuleType, now time.Time) bool {
	if rule.Rule.Begins != nil && now.Before(*rule.Rule.Begins) {
		return false
	}
	if rule.Rule.Expires != nil && now.After(*rule.Rule.Expires) {
		return false
	}
	if rule.Rule.Type == ast.RuleGlobal && slices.Contains(rule.Rule.IgnoreTypes, eventType) {
		return false
	}
	return true
}

// prepare applies strip preprocessing per the rule's overrides.
func (e *Engine) prepare(text string, rule *CompiledRule) string {
	if boolOr(rule.Rule.StripColors, e.opts.StripColors) {
		text = StripColors(text)
	}
	if boolOr(rule.Rule.StripAccents, e.opts.StripAccents) {
		text = StripAccents(text)
	}
	for _, before := range rule.Before {
		replaced, err := before.Matcher.ReplaceAll(text, before.Replacement)
		if err != nil {
			continue
		}
		text = replaced
	}
	return text
}

// throttled checks and arms a cooldown in one step. scope distinguishes the
// rule-wide cooldown ("") from per-player ones.
func (e *Engine) throttled(key, scope string, throttle *ast.Throttle, now time.Time) (time.Duration, bool) {
	if throttle == nil {
		return 0, false
	}
	if scope != "" {
		key = key + "#" + scope
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	last, ok := e.ruleFired[key]
	if ok {
		if elapsed := now.Sub(last); elapsed < throttle.Every {
			return throttle.Every - elapsed, true
		}
	}
	e.ruleFired[key] = now
	return 0, false
}

func (e *Engine) cooldownMessage(ev *EventContext, throttle *ast.Throttle, remaining time.Duration) {
	if throttle == nil || throttle.Message == "" {
		return
	}
	seconds := int(remaining.Round(time.Second) / time.Second)
	message := strings.ReplaceAll(throttle.Message, "{delay}", strconv.Itoa(seconds))
	e.deps.Messenger.Tell(ev.Subject, message)
}

func eventTime(ev *EventContext, now func() time.Time) time.Time {
	if !ev.Time.IsZero() {
		return ev.Time
	}
	return now()
}

func boolOr(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}

func splitCommand(text string) (label, rest string) {
	label, rest, found := strings.Cut(text, " ")
	if !found {
		return text, ""
	}
	return label, rest
}

func joinCommand(label, body string) string {
	if label == "" {
		return body
	}
	if body == "" {
		return label
	}
	return label + " " + body
}
