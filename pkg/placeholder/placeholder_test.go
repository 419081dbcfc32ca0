package placeholder

import "testing"

func TestSubstitute(t *testing.T) {
	resolve := MapResolver(map[string]string{
		"player":    "Steve",
		"world":     "overworld",
		"rule_name": "advertisement",
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single token", "{player} joined", "Steve joined"},
		{"multiple tokens", "{player} tripped {rule_name} in {world}", "Steve tripped advertisement in overworld"},
		{"unknown token passes through", "{player} has {points} points", "Steve has {points} points"},
		{"no tokens", "plain text", "plain text"},
		{"unclosed brace", "hello {player", "hello {player"},
		{"empty token", "a {} b", "a {} b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Substitute(tt.in, resolve); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyCaptures(t *testing.T) {
	captures := []string{"example.com", "example", "com"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"whole match", "matched: $0", "matched: example.com"},
		{"groups", "$1 dot $2", "example dot com"},
		{"out of range drops", "$1 $5", "example "},
		{"escaped dollar", `costs \$5`, "costs $5"},
		{"bare dollar", "pay $ now", "pay $ now"},
		{"no references", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyCaptures(tt.in, captures); got != tt.want {
				t.Errorf("ApplyCaptures(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyCapturesLongestDigitRun(t *testing.T) {
	captures := make([]string, 13)
	captures[1] = "one"
	captures[12] = "twelve"

	if got := ApplyCaptures("$12", captures); got != "twelve" {
		t.Errorf("ApplyCaptures($12) = %q, want twelve", got)
	}
}

func TestMaxCaptureRef(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"no refs", -1},
		{"$0", 0},
		{"$1 and $3", 3},
		{"$12", 12},
		{`escaped \$9`, -1},
	}

	for _, tt := range tests {
		if got := MaxCaptureRef(tt.in); got != tt.want {
			t.Errorf("MaxCaptureRef(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
