// Package game defines the server-platform abstraction the policy engine
// evaluates against. The engine never talks to a game server directly; hosts
// implement these interfaces and hand them to the engine.
package game

import "github.com/google/uuid"

// Subject is the player (or console actor) an event originates from.
type Subject struct {
	ID   uuid.UUID
	Name string

	// World and Gamemode describe where the subject currently is. Gamemode is
	// lowercase ("survival", "creative", "adventure", "spectator").
	World    string
	Gamemode string

	// Channel is the chat channel the subject is writing to, if any.
	Channel string

	// NPC marks scripted actors that most structural messages should skip.
	NPC bool

	// PlayedBefore reports whether the subject has connected previously.
	PlayedBefore bool
}

// DeathFacts carries the death-specific attributes condition kinds inspect.
type DeathFacts struct {
	// Cause is the lowercase damage cause ("fall", "lava", "entity_attack").
	Cause string

	// Killer is the lowercase killer type ("player", "zombie", "arrow" owner
	// type). Empty when the death had no killer entity.
	Killer string

	// KillerName is the display name used for {killer}.
	KillerName string

	// KillerItem is the lowercase item type in the killer's hand.
	KillerItem string

	// Projectile is the lowercase projectile type for ranged kills.
	Projectile string

	// Distance is the killer distance in blocks, for {killer_distance}.
	Distance float64

	// Boss is the boss display name when a boss-mob plugin owns the killer.
	Boss string

	// Self marks deaths where the killer is the victim.
	Self bool
}

// PermissionProvider answers permission checks for subjects.
type PermissionProvider interface {
	HasPermission(subject Subject, node string) bool
}

// ChannelDirectory answers channel membership checks.
type ChannelDirectory interface {
	// InChannel reports whether the subject is joined to the channel; mode is
	// "", "read" or "write" ("" means joined at all).
	InChannel(subject Subject, channel, mode string) bool
}

// Messenger delivers text to players and moderator streams.
type Messenger interface {
	// Tell sends a message to a single subject.
	Tell(subject Subject, message string)

	// Broadcast sends a message to every online player. When proxy is true the
	// host should relay it network-wide.
	Broadcast(message string, proxy bool)

	// NotifyPermission sends a message to every online player holding the
	// permission node.
	NotifyPermission(node, message string)

	// PlaySound plays a sound cue to the subject.
	PlaySound(subject Subject, name string, volume, pitch float64)
}

// CommandDispatcher runs commands produced by console and command operators.
type CommandDispatcher interface {
	// DispatchConsole runs a command with full privileges.
	DispatchConsole(command string)

	// DispatchAs runs a command as the subject, with the subject's own
	// permissions.
	DispatchAs(subject Subject, command string)
}

// Kicker disconnects subjects.
type Kicker interface {
	Kick(subject Subject, reason string)
}

// PlayerDirectory enumerates the online audience for structural messages and
// timed broadcasts.
type PlayerDirectory interface {
	OnlinePlayers() []Subject
}

// VariableResolver resolves external {placeholder} tokens that the engine does
// not own, such as ones provided by other plugins.
type VariableResolver interface {
	// Resolve returns the token's value for the subject and whether the token
	// is known.
	Resolve(subject Subject, token string) (string, bool)
}
