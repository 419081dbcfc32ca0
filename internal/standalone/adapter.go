// Package standalone adapts the game interfaces for running warden without a
// connected game server. Deliveries are logged instead of sent, permission
// checks always fail and the player list is empty. Real hosts embed the
// engine and bring their own adapter.
package standalone

import (
	"log/slog"

	"mineguard/warden/pkg/game"
)

// Adapter implements every game interface over a logger.
type Adapter struct {
	logger *slog.Logger
}

// New creates an adapter logging through logger.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger.With("component", "standalone")}
}

func (a *Adapter) HasPermission(game.Subject, string) bool { return false }

func (a *Adapter) InChannel(game.Subject, string, string) bool { return false }

func (a *Adapter) Resolve(game.Subject, string) (string, bool) { return "", false }

func (a *Adapter) Tell(subject game.Subject, message string) {
	a.logger.Info("tell", "player", subject.Name, "message", message)
}

func (a *Adapter) Broadcast(message string, proxy bool) {
	a.logger.Info("broadcast", "message", message, "proxy", proxy)
}

func (a *Adapter) NotifyPermission(node, message string) {
	a.logger.Info("notify", "permission", node, "message", message)
}

func (a *Adapter) PlaySound(subject game.Subject, name string, volume, pitch float64) {
	a.logger.Info("sound", "player", subject.Name, "sound", name, "volume", volume, "pitch", pitch)
}

func (a *Adapter) DispatchConsole(command string) {
	a.logger.Info("console command", "command", command)
}

func (a *Adapter) DispatchAs(subject game.Subject, command string) {
	a.logger.Info("player command", "player", subject.Name, "command", command)
}

func (a *Adapter) Kick(subject game.Subject, reason string) {
	a.logger.Info("kick", "player", subject.Name, "reason", reason)
}

func (a *Adapter) OnlinePlayers() []game.Subject { return nil }
