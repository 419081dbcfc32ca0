package broadcast

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"mineguard/warden/pkg/game"
	"mineguard/warden/pkg/game/gametest"
	"mineguard/warden/pkg/policy/engine"
	"mineguard/warden/pkg/rulelang/ast"
	"mineguard/warden/pkg/rulelang/parser"
	"mineguard/warden/pkg/script"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(fake *gametest.Fake) *engine.Engine {
	return engine.New(engine.Deps{
		Permissions: fake,
		Channels:    fake,
		Messenger:   fake,
		Dispatcher:  fake,
		Kicker:      fake,
		Players:     fake,
		Scripts:     script.NewExprEvaluator(),
		Logger:      testLogger(),
	}, engine.Options{})
}

func timedSnapshot(t *testing.T, src string) *engine.Snapshot {
	t.Helper()

	file, err := parser.NewParser().ParseMessagesSource(src, "timed.rs", ast.MessageTimed)
	if err != nil {
		t.Fatal(err)
	}

	var groups []*engine.CompiledMessageGroup
	for _, g := range file.MessageGroups {
		cg, cerr := engine.CompileMessageGroup(g, time.Second)
		if cerr != nil {
			t.Fatal(cerr)
		}
		groups = append(groups, cg)
	}

	return &engine.Snapshot{
		Messages: map[ast.MessageType][]*engine.CompiledMessageGroup{ast.MessageTimed: groups},
	}
}

func TestScheduleUsesGroupAndDefaultDelays(t *testing.T) {
	fake := gametest.NewFake()
	b := New(testEngine(fake), 3*time.Minute, testLogger())

	b.Schedule(timedSnapshot(t, `
group fast
delay 30 seconds
message:
- quick tip

group slow
message:
- slow tip
`))

	if got := b.Entries(); got != 2 {
		t.Errorf("Entries = %d, want 2", got)
	}
}

func TestExpiredGroupNeverScheduled(t *testing.T) {
	fake := gametest.NewFake()
	fake.Players = []game.Subject{{ID: uuid.New(), Name: "Steve"}}
	b := New(testEngine(fake), time.Minute, testLogger())
	b.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.Local) }

	b.Schedule(timedSnapshot(t, `
group old-event
expires 31 Dec 2026, 23:59
message:
- the event is on!
`))

	if got := b.Entries(); got != 0 {
		t.Fatalf("Entries = %d, want 0 for expired group", got)
	}
	if fake.BroadcastCount() != 0 || len(fake.Told) != 0 {
		t.Error("expired group delivered messages")
	}
}

func TestFireDisablesGroupThatExpiredSinceScheduling(t *testing.T) {
	fake := gametest.NewFake()
	fake.Players = []game.Subject{{ID: uuid.New(), Name: "Steve"}}
	b := New(testEngine(fake), time.Minute, testLogger())

	current := time.Date(2026, 12, 31, 23, 0, 0, 0, time.Local)
	b.now = func() time.Time { return current }

	b.Schedule(timedSnapshot(t, `
group countdown
expires 31 Dec 2026, 23:30
message:
- almost there
`))
	if b.Entries() != 1 {
		t.Fatalf("Entries = %d, want 1", b.Entries())
	}

	snapshot := timedSnapshot(t, `
group countdown
expires 31 Dec 2026, 23:30
message:
- almost there
`)
	group := snapshot.Messages[ast.MessageTimed][0]

	// Still active: the fire delivers.
	b.fire(group)
	if got := fake.Told["Steve"]; len(got) != 1 {
		t.Fatalf("Told = %v, want one delivery", got)
	}

	// Past expiry: the fire disables the schedule and delivers nothing.
	current = time.Date(2026, 12, 31, 23, 45, 0, 0, time.Local)
	b.fire(group)
	if got := fake.Told["Steve"]; len(got) != 1 {
		t.Errorf("expired fire delivered: %v", got)
	}
	if b.Entries() != 0 {
		t.Errorf("Entries = %d, want 0 after terminal disable", b.Entries())
	}
}

func TestScheduleReplacesOldEntries(t *testing.T) {
	fake := gametest.NewFake()
	b := New(testEngine(fake), time.Minute, testLogger())

	b.Schedule(timedSnapshot(t, "group a\nmessage:\n- x\n\ngroup b\nmessage:\n- y\n"))
	if b.Entries() != 2 {
		t.Fatalf("Entries = %d, want 2", b.Entries())
	}

	b.Schedule(timedSnapshot(t, "group a\nmessage:\n- x\n"))
	if b.Entries() != 1 {
		t.Errorf("Entries after reload = %d, want 1", b.Entries())
	}
}

func TestRotationAcrossFires(t *testing.T) {
	fake := gametest.NewFake()
	fake.Players = []game.Subject{{ID: uuid.New(), Name: "Steve"}}
	eng := testEngine(fake)
	b := New(eng, time.Minute, testLogger())

	group := timedSnapshot(t, `
group tips
message:
- tip one
- tip two
`).Messages[ast.MessageTimed][0]

	b.fire(group)
	b.fire(group)
	b.fire(group)

	got := fake.Told["Steve"]
	if len(got) != 3 || got[0] != "tip one" || got[1] != "tip two" || got[2] != "tip one" {
		t.Errorf("rotation = %v", got)
	}
}
