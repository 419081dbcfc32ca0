// Package gametest provides in-memory fakes of the game platform interfaces
// for engine and broadcaster tests.
package gametest

import (
	"sync"

	"mineguard/warden/pkg/game"
)

// SoundCall records one PlaySound invocation.
type SoundCall struct {
	Subject game.Subject
	Name    string
	Volume  float64
	Pitch   float64
}

// Fake implements every game interface and records what was delivered.
type Fake struct {
	mu sync.Mutex

	// Permissions maps "name:node" to granted.
	Permissions map[string]bool

	// Channels maps "name:channel:mode" to joined.
	Channels map[string]bool

	// Variables maps "name:token" to a resolved value.
	Variables map[string]string

	Players []game.Subject

	Told       map[string][]string // subject name -> messages
	Broadcasts []string
	Proxied    []string
	Notified   map[string][]string // permission node -> messages
	Sounds     []SoundCall
	Console    []string
	AsPlayer   map[string][]string // subject name -> commands
	Kicked     map[string]string   // subject name -> reason
}

// NewFake creates an empty fake.
func NewFake() *Fake {
	return &Fake{
		Permissions: make(map[string]bool),
		Channels:    make(map[string]bool),
		Variables:   make(map[string]string),
		Told:        make(map[string][]string),
		Notified:    make(map[string][]string),
		AsPlayer:    make(map[string][]string),
		Kicked:      make(map[string]string),
	}
}

// Grant gives the named subject a permission node.
func (f *Fake) Grant(name, node string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Permissions[name+":"+node] = true
}

// Join marks the named subject as joined to a channel in the given mode.
func (f *Fake) Join(name, channel, mode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Channels[name+":"+channel+":"+mode] = true
}

func (f *Fake) HasPermission(subject game.Subject, node string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Permissions[subject.Name+":"+node]
}

func (f *Fake) InChannel(subject game.Subject, channel, mode string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Channels[subject.Name+":"+channel+":"+mode]
}

func (f *Fake) Resolve(subject game.Subject, token string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Variables[subject.Name+":"+token]
	return v, ok
}

func (f *Fake) Tell(subject game.Subject, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Told[subject.Name] = append(f.Told[subject.Name], message)
}

func (f *Fake) Broadcast(message string, proxy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Broadcasts = append(f.Broadcasts, message)
	if proxy {
		f.Proxied = append(f.Proxied, message)
	}
}

func (f *Fake) NotifyPermission(node, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Notified[node] = append(f.Notified[node], message)
}

func (f *Fake) PlaySound(subject game.Subject, name string, volume, pitch float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sounds = append(f.Sounds, SoundCall{Subject: subject, Name: name, Volume: volume, Pitch: pitch})
}

func (f *Fake) DispatchConsole(command string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Console = append(f.Console, command)
}

func (f *Fake) DispatchAs(subject game.Subject, command string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AsPlayer[subject.Name] = append(f.AsPlayer[subject.Name], command)
}

func (f *Fake) Kick(subject game.Subject, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Kicked[subject.Name] = reason
}

func (f *Fake) OnlinePlayers() []game.Subject {
	f.mu.Lock()
	defer f.mu.Unlock()
	players := make([]game.Subject, len(f.Players))
	copy(players, f.Players)
	return players
}

// BroadcastCount returns the number of broadcasts delivered so far.
func (f *Fake) BroadcastCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Broadcasts)
}
