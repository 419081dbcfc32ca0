package parser

import (
	"strings"
	"testing"
	"time"

	"mineguard/warden/pkg/rulelang/ast"
)

func TestParseRulesSource(t *testing.T) {
	src := `
# Filter advertisements
@import global

match \bexample\.(com|net)\b
name advertisement
ignore perm warden.bypass.ads
then warn &cPlease do not advertise.
then deny

match (?i)\bhack(ed|ing)?\b
name hacking
group swear
strip colors
before replace [0o] with o
then replace ****
`

	p := NewParser()
	file, err := p.ParseRulesSource(src, "chat.rs", ast.RuleChat)
	if err != nil {
		t.Fatalf("ParseRulesSource() error = %v", err)
	}

	if len(file.Imports) != 1 || file.Imports[0] != "global" {
		t.Errorf("Imports = %v, want [global]", file.Imports)
	}
	if len(file.Rules) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(file.Rules))
	}

	ad := file.Rules[0]
	if ad.Match != `\bexample\.(com|net)\b` {
		t.Errorf("rule 0 Match = %q", ad.Match)
	}
	if ad.Name != "advertisement" {
		t.Errorf("rule 0 Name = %q, want advertisement", ad.Name)
	}
	if ad.Type != ast.RuleChat {
		t.Errorf("rule 0 Type = %q, want chat", ad.Type)
	}
	if len(ad.Conditions) != 1 {
		t.Fatalf("rule 0 len(Conditions) = %d, want 1", len(ad.Conditions))
	}
	cond := ad.Conditions[0]
	if cond.Kind != ast.CondPerm || cond.Mode != ast.ModeIgnore || cond.Key != "warden.bypass.ads" {
		t.Errorf("rule 0 condition = %+v", cond)
	}
	if len(ad.Operators) != 2 {
		t.Fatalf("rule 0 len(Operators) = %d, want 2", len(ad.Operators))
	}
	if ad.Operators[0].Type != ast.OpWarn || ad.Operators[1].Type != ast.OpDeny {
		t.Errorf("rule 0 operators = %v, %v", ad.Operators[0].Type, ad.Operators[1].Type)
	}

	hack := file.Rules[1]
	if hack.Group != "swear" {
		t.Errorf("rule 1 Group = %q, want swear", hack.Group)
	}
	if hack.StripColors == nil || !*hack.StripColors {
		t.Errorf("rule 1 StripColors = %v, want true", hack.StripColors)
	}
	if len(hack.BeforeReplace) != 1 || hack.BeforeReplace[0].Pattern != "[0o]" || hack.BeforeReplace[0].Replacement != "o" {
		t.Errorf("rule 1 BeforeReplace = %+v", hack.BeforeReplace)
	}
	if hack.Line == 0 || hack.File != "chat.rs" {
		t.Errorf("rule 1 location = %s:%d", hack.File, hack.Line)
	}
}

func TestParseConditionVariants(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ast.Condition
	}{
		{
			name: "require perm with fail message",
			line: "require perm warden.vip &cOnly VIPs may say this.",
			want: ast.Condition{Kind: ast.CondPerm, Mode: ast.ModeRequire, Qualifier: ast.QualifierSender, Key: "warden.vip", FailMessage: "&cOnly VIPs may say this."},
		},
		{
			name: "receiver qualifier",
			line: "ignore receiver perm warden.spy",
			want: ast.Condition{Kind: ast.CondPerm, Mode: ast.ModeIgnore, Qualifier: ast.QualifierReceiver, Key: "warden.spy"},
		},
		{
			name: "killer qualifier perm",
			line: "require killer perm warden.pvp",
			want: ast.Condition{Kind: ast.CondPerm, Mode: ast.ModeRequire, Qualifier: ast.QualifierKiller, Key: "warden.pvp"},
		},
		{
			name: "killer as kind",
			line: "require killer player|zombie",
			want: ast.Condition{Kind: ast.CondKiller, Mode: ast.ModeRequire, Qualifier: ast.QualifierSender, Values: []string{"player", "zombie"}},
		},
		{
			name: "killer item",
			line: "require killer item bow|crossbow",
			want: ast.Condition{Kind: ast.CondKillerItem, Mode: ast.ModeRequire, Qualifier: ast.QualifierSender, Values: []string{"bow", "crossbow"}},
		},
		{
			name: "worlds",
			line: "ignore world creative|lobby",
			want: ast.Condition{Kind: ast.CondWorld, Mode: ast.ModeIgnore, Qualifier: ast.QualifierSender, Values: []string{"creative", "lobby"}},
		},
		{
			name: "gamemode lowercased",
			line: "require gamemode SURVIVAL|Adventure",
			want: ast.Condition{Kind: ast.CondGamemode, Mode: ast.ModeRequire, Qualifier: ast.QualifierSender, Values: []string{"survival", "adventure"}},
		},
		{
			name: "channel with mode",
			line: "require channel global write",
			want: ast.Condition{Kind: ast.CondChannel, Mode: ast.ModeRequire, Qualifier: ast.QualifierSender, Key: "global", ChannelMode: "write"},
		},
		{
			name: "key with value script",
			line: "ignore key muted value == \"true\"",
			want: ast.Condition{Kind: ast.CondKey, Mode: ast.ModeIgnore, Qualifier: ast.QualifierSender, Key: "muted", Script: `value == "true"`},
		},
		{
			name: "script",
			line: "require script player.Health < 10",
			want: ast.Condition{Kind: ast.CondScript, Mode: ast.ModeRequire, Qualifier: ast.QualifierSender, Script: "player.Health < 10"},
		},
		{
			name: "variable with default expect",
			line: "ignore variable {vanished}",
			want: ast.Condition{Kind: ast.CondVariable, Mode: ast.ModeIgnore, Qualifier: ast.QualifierSender, Variable: "{vanished}", Expect: "true"},
		},
		{
			name: "cause",
			line: "require cause FALL|LAVA",
			want: ast.Condition{Kind: ast.CondCause, Mode: ast.ModeRequire, Qualifier: ast.QualifierSender, Values: []string{"fall", "lava"}},
		},
		{
			name: "npc",
			line: "ignore npc",
			want: ast.Condition{Kind: ast.CondNPC, Mode: ast.ModeIgnore, Qualifier: ast.QualifierSender},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "match test\n" + tt.line + "\n"
			file, err := NewParser().ParseRulesSource(src, "test.rs", ast.RuleChat)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if len(file.Rules) != 1 || len(file.Rules[0].Conditions) != 1 {
				t.Fatalf("expected 1 rule with 1 condition, got %+v", file.Rules)
			}
			got := file.Rules[0].Conditions[0]
			got.File, got.Line = "", 0
			if !conditionsEqual(got, tt.want) {
				t.Errorf("condition = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func conditionsEqual(a, b ast.Condition) bool {
	if a.Kind != b.Kind || a.Mode != b.Mode || a.Qualifier != b.Qualifier ||
		a.Key != b.Key || a.ChannelMode != b.ChannelMode || a.Script != b.Script ||
		a.Pattern != b.Pattern || a.Variable != b.Variable || a.Expect != b.Expect ||
		a.FailMessage != b.FailMessage || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}

func TestParseOperatorVariants(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		check func(t *testing.T, op ast.Operator)
	}{
		{
			name: "deny silently",
			line: "then deny silently",
			check: func(t *testing.T, op ast.Operator) {
				if op.Type != ast.OpDeny || !op.Silent {
					t.Errorf("op = %+v", op)
				}
			},
		},
		{
			name: "notify",
			line: "then notify warden.notify.rules &c{player} tripped {rule_name}",
			check: func(t *testing.T, op ast.Operator) {
				if op.Type != ast.OpNotify || op.Permission != "warden.notify.rules" {
					t.Errorf("op = %+v", op)
				}
				if op.Text != "&c{player} tripped {rule_name}" {
					t.Errorf("Text = %q", op.Text)
				}
			},
		},
		{
			name: "points",
			line: "then points swearing 2.5",
			check: func(t *testing.T, op ast.Operator) {
				if op.Type != ast.OpPoints || op.Category != "swearing" || op.Amount != 2.5 {
					t.Errorf("op = %+v", op)
				}
			},
		},
		{
			name: "sound",
			line: "then sound ENTITY_VILLAGER_NO, 1.0, 0.8",
			check: func(t *testing.T, op ast.Operator) {
				if op.Type != ast.OpSound || op.Sound.Name != "ENTITY_VILLAGER_NO" || op.Sound.Volume != 1.0 || op.Sound.Pitch != 0.8 {
					t.Errorf("op = %+v", op)
				}
			},
		},
		{
			name: "console",
			line: "then console say {player} was warned|mute {player} 5m",
			check: func(t *testing.T, op ast.Operator) {
				if op.Type != ast.OpConsole || !strings.Contains(op.Text, "|") {
					t.Errorf("op = %+v", op)
				}
			},
		},
		{
			name: "kick without reason",
			line: "then kick",
			check: func(t *testing.T, op ast.Operator) {
				if op.Type != ast.OpKick || op.Text != "" {
					t.Errorf("op = %+v", op)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "match test\n" + tt.line + "\n"
			file, err := NewParser().ParseRulesSource(src, "test.rs", ast.RuleChat)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if len(file.Rules) != 1 || len(file.Rules[0].Operators) != 1 {
				t.Fatalf("expected 1 rule with 1 operator, got %+v", file.Rules)
			}
			tt.check(t, file.Rules[0].Operators[0])
		})
	}
}

func TestParseSaveKey(t *testing.T) {
	src := `match congrats
save key congratulated true
match reset
save key congratulated
`
	file, err := NewParser().ParseRulesSource(src, "test.rs", ast.RuleChat)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	set := file.Rules[0].Operators[0]
	if set.Type != ast.OpSaveKey || set.Key != "congratulated" || set.Value != "true" {
		t.Errorf("set operator = %+v", set)
	}

	del := file.Rules[1].Operators[0]
	if del.Type != ast.OpSaveKey || del.Key != "congratulated" || del.Value != "" {
		t.Errorf("delete operator = %+v", del)
	}
}

func TestParseThrottleAndDates(t *testing.T) {
	src := `match spam
delay 2 minutes &cSlow down, wait {delay} more seconds.
player delay 30 seconds
begins 1 Jun 2026
expires 31 Dec 2026, 15:00
`
	file, err := NewParser().ParseRulesSource(src, "test.rs", ast.RuleChat)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	rule := file.Rules[0]
	if rule.Delay == nil || rule.Delay.Every != 2*time.Minute {
		t.Fatalf("Delay = %+v", rule.Delay)
	}
	if !strings.Contains(rule.Delay.Message, "{delay}") {
		t.Errorf("Delay.Message = %q", rule.Delay.Message)
	}
	if rule.PlayerDelay == nil || rule.PlayerDelay.Every != 30*time.Second {
		t.Errorf("PlayerDelay = %+v", rule.PlayerDelay)
	}
	if rule.Begins == nil || rule.Begins.Month() != time.June {
		t.Errorf("Begins = %v", rule.Begins)
	}
	if rule.Expires == nil || rule.Expires.Hour() != 15 {
		t.Errorf("Expires = %v", rule.Expires)
	}
}

func TestParseGroupsSource(t *testing.T) {
	src := `
group swear
ignore perm warden.bypass.swear
then warn &cWatch your language.
then points swearing 1

group confiscate
then deny silently
dont spy
`
	file, err := NewParser().ParseGroupsSource(src, "groups.rs")
	if err != nil {
		t.Fatalf("ParseGroupsSource() error = %v", err)
	}
	if len(file.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(file.Groups))
	}

	swear := file.Groups[0]
	if swear.Name != "swear" || len(swear.Conditions) != 1 || len(swear.Operators) != 2 {
		t.Errorf("group swear = %+v", swear)
	}

	conf := file.Groups[1]
	if conf.Name != "confiscate" || !conf.SpyDisabled {
		t.Errorf("group confiscate = %+v", conf)
	}
	if len(conf.Operators) != 1 || !conf.Operators[0].Silent {
		t.Errorf("confiscate operators = %+v", conf.Operators)
	}
}

func TestParseMessagesSource(t *testing.T) {
	src := `
group default
prefix &8[&c☠&8]
message:
- {player} died
- {player} is no more

group arrow
require projectile arrow
require killer player
message:
- {player} was shot by {killer} from {killer_distance} blocks

group timed-ad
delay 20 minutes
expires 31 Dec 2026, 23:59
random
message:
- &eVisit our store!
`
	file, err := NewParser().ParseMessagesSource(src, "death.rs", ast.MessageDeath)
	if err != nil {
		t.Fatalf("ParseMessagesSource() error = %v", err)
	}
	if len(file.MessageGroups) != 3 {
		t.Fatalf("len(MessageGroups) = %d, want 3", len(file.MessageGroups))
	}

	def := file.MessageGroups[0]
	if def.Name != "default" || def.Type != ast.MessageDeath {
		t.Errorf("group 0 = %+v", def)
	}
	if def.Prefix == "" || len(def.Messages) != 2 {
		t.Errorf("group 0 prefix=%q messages=%v", def.Prefix, def.Messages)
	}

	arrow := file.MessageGroups[1]
	if len(arrow.Conditions) != 2 {
		t.Errorf("group 1 conditions = %+v", arrow.Conditions)
	}
	if arrow.Conditions[0].Kind != ast.CondProjectile || arrow.Conditions[1].Kind != ast.CondKiller {
		t.Errorf("group 1 condition kinds = %v, %v", arrow.Conditions[0].Kind, arrow.Conditions[1].Kind)
	}

	timed := file.MessageGroups[2]
	if timed.Delay == nil || timed.Delay.Every != 20*time.Minute {
		t.Errorf("group 2 Delay = %+v", timed.Delay)
	}
	if timed.Expires == nil || !timed.Random {
		t.Errorf("group 2 Expires=%v Random=%v", timed.Expires, timed.Random)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantSub string
	}{
		{
			name:    "directive before declaration",
			src:     "then deny\n",
			wantSub: "before any declaration",
		},
		{
			name:    "match without pattern",
			src:     "match\n",
			wantSub: "regular expression",
		},
		{
			name:    "unknown operator",
			src:     "match x\nthen explode\n",
			wantSub: "unrecognized operator",
		},
		{
			name:    "unknown condition",
			src:     "match x\nrequire altitude 99\n",
			wantSub: "unknown condition kind",
		},
		{
			name:    "bad points amount",
			src:     "match x\nthen points spam lots\n",
			wantSub: "invalid points amount",
		},
		{
			name:    "bad expires date",
			src:     "match x\nexpires whenever\n",
			wantSub: "invalid 'expires'",
		},
		{
			name:    "duplicate delay",
			src:     "match x\ndelay 1 minute\ndelay 2 minutes\n",
			wantSub: "already defined",
		},
		{
			name:    "unrecognized directive",
			src:     "match x\nfrobnicate all the things\n",
			wantSub: "unrecognized directive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().ParseRulesSource(tt.src, "bad.rs", ast.RuleChat)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestParseErrorsAreCollected(t *testing.T) {
	src := `match x
then explode
require altitude 99
`
	_, err := NewParser().ParseRulesSource(src, "bad.rs", ast.RuleChat)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "2 error(s)") {
		t.Errorf("error = %q, want both errors reported", err.Error())
	}
}

func TestSplitVertically(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a|b|c", []string{"a", "b", "c"}},
		{"single", []string{"single"}},
		{`pipe\|literal|other`, []string{"pipe|literal", "other"}},
		{`regex\d+|x`, []string{`regex\d+`, "x"}},
	}

	for _, tt := range tests {
		got := splitVertically(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitVertically(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitVertically(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
