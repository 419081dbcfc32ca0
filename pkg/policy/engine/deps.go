package engine

import (
	"log/slog"
	"math/rand"
	"time"

	"mineguard/warden/pkg/game"
	"mineguard/warden/pkg/keystore"
	"mineguard/warden/pkg/points"
	"mineguard/warden/pkg/script"
	"mineguard/warden/pkg/telemetry"
)

// Deps bundles the collaborators the engine evaluates against and acts
// through. All fields are required unless noted.
type Deps struct {
	Permissions game.PermissionProvider
	Channels    game.ChannelDirectory
	Messenger   game.Messenger
	Dispatcher  game.CommandDispatcher
	Kicker      game.Kicker
	Players     game.PlayerDirectory

	// Variables resolves external placeholder tokens. Optional; unknown
	// tokens pass through when nil.
	Variables game.VariableResolver

	Keys    keystore.Store
	Points  points.Store
	Scripts script.Evaluator

	Logger  *slog.Logger
	Metrics *telemetry.Metrics

	// Rand drives the |-alternative and random-message selection. Defaults
	// to the global source; tests inject a seeded one.
	Rand *rand.Rand

	// Now defaults to time.Now; tests inject a fixed clock.
	Now func() time.Time
}

func (d *Deps) fill() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NewNopMetrics()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

func (d *Deps) intn(n int) int {
	if n <= 1 {
		return 0
	}
	if d.Rand != nil {
		return d.Rand.Intn(n)
	}
	return rand.Intn(n)
}

func (d *Deps) now() time.Time {
	return d.Now()
}
