package ast

import "time"

// RuleType identifies which text event stream a rule file applies to.
type RuleType string

const (
	RuleChat    RuleType = "chat"
	RuleCommand RuleType = "command"
	RuleSign    RuleType = "sign"
	RuleTag     RuleType = "tag"

	// RuleGlobal rules are spliced into other rule types via @import.
	RuleGlobal RuleType = "global"
)

// RuleTypes lists all text rule types in load order.
func RuleTypes() []RuleType {
	return []RuleType{RuleGlobal, RuleChat, RuleCommand, RuleSign, RuleTag}
}

// MessageType identifies a structural event stream served by message groups.
type MessageType string

const (
	MessageJoin  MessageType = "join"
	MessageQuit  MessageType = "quit"
	MessageKick  MessageType = "kick"
	MessageDeath MessageType = "death"
	MessageTimed MessageType = "timed"
)

// MessageTypes lists all structural event types in load order.
func MessageTypes() []MessageType {
	return []MessageType{MessageJoin, MessageQuit, MessageKick, MessageDeath, MessageTimed}
}

// ConditionMode distinguishes ignore conditions (any true skips the rule)
// from require conditions (all must hold for the rule to fire).
type ConditionMode int

const (
	ModeRequire ConditionMode = iota
	ModeIgnore
)

func (m ConditionMode) String() string {
	if m == ModeIgnore {
		return "ignore"
	}
	return "require"
}

// Qualifier selects whose attributes a condition inspects.
// The default is the sender; structural events may also inspect the
// receiver (per-recipient message evaluation) or the killer (death events).
type Qualifier string

const (
	QualifierSender   Qualifier = "sender"
	QualifierReceiver Qualifier = "receiver"
	QualifierKiller   Qualifier = "killer"
)

// ConditionKind enumerates the predicate variants of the rule language.
type ConditionKind string

const (
	CondPerm          ConditionKind = "perm"
	CondCommand       ConditionKind = "command"
	CondCommandPrefix ConditionKind = "commandprefix"
	CondString        ConditionKind = "string"
	CondChannel       ConditionKind = "channel"
	CondWorld         ConditionKind = "world"
	CondGamemode      ConditionKind = "gamemode"
	CondKey           ConditionKind = "key"
	CondScript        ConditionKind = "script"
	CondVariable      ConditionKind = "variable"
	CondProjectile    ConditionKind = "projectile"
	CondKiller        ConditionKind = "killer"
	CondKillerItem    ConditionKind = "killeritem"
	CondCause         ConditionKind = "cause"
	CondSelf          ConditionKind = "self"
	CondPlayedBefore  ConditionKind = "playedbefore"
	CondBoss          ConditionKind = "boss"
	CondNPC           ConditionKind = "npc"
)

// Condition is one predicate of a rule or group. Exactly which fields are
// meaningful depends on Kind; the parser guarantees the combination is valid.
type Condition struct {
	Kind      ConditionKind
	Mode      ConditionMode
	Qualifier Qualifier

	// Values holds |-split alternatives: world names, gamemodes, command
	// labels, damage causes, projectile types, killer types or boss names.
	Values []string

	// Key is the persisted-key name (CondKey) or channel name (CondChannel).
	Key string

	// ChannelMode is "", "read" or "write" for CondChannel.
	ChannelMode string

	// Script is the boolean expression source for CondScript, or the
	// optional value check for CondKey (empty checks bare existence).
	Script string

	// Pattern is the raw regex tested against the working text (CondString).
	Pattern string

	// Variable is the placeholder token for CondVariable; Expect is the
	// textual value it must resolve to ("true" when omitted).
	Variable string
	Expect   string

	// FailMessage, when set on a require-perm condition, is delivered to the
	// subject when the permission check fails.
	FailMessage string

	File string
	Line int
}

// OperatorType enumerates the action variants of the rule language.
type OperatorType string

const (
	OpDeny    OperatorType = "deny"
	OpAbort   OperatorType = "abort"
	OpReplace OperatorType = "replace"
	OpRewrite OperatorType = "rewrite"
	OpWarn    OperatorType = "warn"
	OpNotify  OperatorType = "notify"
	OpConsole OperatorType = "console"
	OpCommand OperatorType = "command"
	OpKick    OperatorType = "kick"
	OpPoints  OperatorType = "points"
	OpSaveKey OperatorType = "savekey"
	OpLog     OperatorType = "log"
	OpSound   OperatorType = "sound"
)

// Sound is a sound cue played to the subject.
type Sound struct {
	Name   string
	Volume float64
	Pitch  float64
}

// Operator is one action in a rule's chain. Operators execute strictly in
// declaration order; rule-local operators precede referenced-group operators.
type Operator struct {
	Type OperatorType

	// Text carries the operator's free-form argument: the warn/notify/log
	// message, replace/rewrite template, kick reason or command line.
	// |-separated alternatives are picked at random where documented.
	Text string

	// Permission is the audience filter for notify.
	Permission string

	// Category and Amount parameterize points.
	Category string
	Amount   float64

	// Key and Value parameterize save key; an empty Value deletes the key.
	Key   string
	Value string

	// Silent marks "deny silently".
	Silent bool

	Sound Sound

	File string
	Line int
}

// Throttle is a cooldown between firings, with an optional message shown to
// the subject while the rule is still cooling down ({delay} is substituted
// with the remaining seconds).
type Throttle struct {
	Every   time.Duration
	Message string
}

// ReplacePair rewrites the working text before the rule's pattern is matched.
type ReplacePair struct {
	Pattern     string
	Replacement string
}

// Rule is one parsed text-event rule declaration.
type Rule struct {
	Type  RuleType
	Match string

	// Name is the optional diagnostic identifier exposed as {rule_name}.
	Name string

	// Group names a reusable group whose conditions and operators are merged
	// into this rule at compile time. Unresolved references fail the load.
	Group string

	// IgnoreTypes limits a global rule: it is skipped when evaluated for the
	// listed event types. Only valid on global rules.
	IgnoreTypes []RuleType

	// StripColors and StripAccents override the engine-wide defaults when
	// non-nil.
	StripColors  *bool
	StripAccents *bool

	Conditions []Condition
	Operators  []Operator

	BeforeReplace []ReplacePair

	Delay       *Throttle
	PlayerDelay *Throttle

	Begins  *time.Time
	Expires *time.Time

	// IgnoreCommandPrefix drops the leading command label before matching,
	// so "/msg example.com" is tested as "example.com".
	IgnoreCommandPrefix bool

	// Flags; logging, spying and verbose output default to on.
	LogDisabled     bool
	SpyDisabled     bool
	VerboseDisabled bool

	File string
	Line int
}

// Group is a reusable named bundle of conditions and operators referenced by
// rules. It has no match pattern of its own.
type Group struct {
	Name string

	Conditions []Condition
	Operators  []Operator

	IgnoreCommandPrefix bool
	LogDisabled         bool
	SpyDisabled         bool
	VerboseDisabled     bool

	File string
	Line int
}

// MessageGroup is a structural-event dispatch unit: the first group (in file
// order) whose merged conditions pass fires its operators and sends its
// message lines to the audience.
type MessageGroup struct {
	Type MessageType
	Name string

	Prefix string
	Suffix string

	// Proxy requests network-wide delivery instead of server-local.
	Proxy bool

	// Random selects messages randomly instead of rotating through the list.
	Random bool

	// Delay is the broadcast interval (timed groups only; the engine default
	// applies when nil).
	Delay *Throttle

	// Expires disables the group permanently once passed.
	Expires *time.Time

	Conditions []Condition
	Operators  []Operator

	Messages []string

	LogDisabled     bool
	SpyDisabled     bool
	VerboseDisabled bool

	File string
	Line int
}

// RuleFile is the parse result of a single rule file.
type RuleFile struct {
	Path string

	// Imports lists @import directives in file order, each splicing the named
	// file's rules before this file's own rules.
	Imports []string

	Groups        []Group
	Rules         []Rule
	MessageGroups []MessageGroup
}
