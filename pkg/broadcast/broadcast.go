// Package broadcast schedules timed message groups. Every group gets its own
// timer; a slow delivery never delays or overlaps the next fire of another
// group, and an expired group is disabled until it is edited.
package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mineguard/warden/pkg/policy/engine"
	"mineguard/warden/pkg/rulelang/ast"
)

// Broadcaster runs timed groups from the current snapshot on independent
// schedules.
type Broadcaster struct {
	engine       *engine.Engine
	defaultDelay time.Duration
	logger       *slog.Logger
	now          func() time.Time

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a broadcaster. defaultDelay applies to timed groups without
// their own delay directive.
func New(eng *engine.Engine, defaultDelay time.Duration, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.DiscardLogger

	return &Broadcaster{
		engine:       eng,
		defaultDelay: defaultDelay,
		logger:       logger,
		now:          time.Now,
		cron: cron.New(
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
			cron.WithLogger(cronLogger),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins firing schedules. Call Schedule first or via the manager's
// swap hook.
func (b *Broadcaster) Start() {
	b.cron.Start()
}

// Stop halts scheduling and returns once running deliveries finish.
func (b *Broadcaster) Stop() {
	<-b.cron.Stop().Done()
}

// Schedule replaces all schedules with the timed groups of the snapshot.
// The manager calls this after every successful reload.
func (b *Broadcaster) Schedule(snapshot *engine.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, id := range b.entries {
		b.cron.Remove(id)
		delete(b.entries, key)
	}

	for _, group := range snapshot.Messages[ast.MessageTimed] {
		group := group

		if b.expired(group) {
			b.logger.Info("timed group expired, not scheduling",
				"group", group.Group.Name, "expires", group.Group.Expires)
			continue
		}

		delay := b.defaultDelay
		if group.Group.Delay != nil {
			delay = group.Group.Delay.Every
		}

		id, err := b.cron.AddFunc("@every "+delay.String(), func() { b.fire(group) })
		if err != nil {
			b.logger.Error("failed to schedule timed group",
				"group", group.Group.Name, "delay", delay, "error", err)
			continue
		}
		b.entries[group.Key()] = id
		b.logger.Debug("timed group scheduled", "group", group.Group.Name, "every", delay)
	}
}

// Entries returns the number of active schedules.
func (b *Broadcaster) Entries() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// fire delivers one round of the group, disabling it permanently when its
// expiry passed since scheduling.
func (b *Broadcaster) fire(group *engine.CompiledMessageGroup) {
	if b.expired(group) {
		b.disable(group)
		return
	}
	b.engine.DeliverTimed(context.Background(), group)
}

func (b *Broadcaster) expired(group *engine.CompiledMessageGroup) bool {
	return group.Group.Expires != nil && b.now().After(*group.Group.Expires)
}

func (b *Broadcaster) disable(group *engine.CompiledMessageGroup) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.entries[group.Key()]; ok {
		b.cron.Remove(id)
		delete(b.entries, group.Key())
		b.logger.Info("timed group expired, disabled", "group", group.Group.Name)
	}
}
