package policy

import (
	"testing"

	"github.com/pozitronik/audio-device-monitor-go/internal/config"
)

func rule(name string, mt config.MatchType, enabled bool) config.DeviceRule {
	return config.DeviceRule{Name: name, Weight: 1, MatchType: mt, Enabled: enabled}
}

func TestMatchesDisabledRuleNeverMatches(t *testing.T) {
	r := rule("AirPods", config.MatchContains, false)
	if Matches(r, "AirPods Pro") {
		t.Error("disabled rule should never match")
	}
}

func TestMatchesExact(t *testing.T) {
	r := rule("AirPods", config.MatchExact, true)
	if !Matches(r, "AirPods") {
		t.Error("expected exact match")
	}
	if Matches(r, "AirPods Pro") {
		t.Error("expected no match for non-exact string")
	}
}

func TestMatchesEmptyNameSemantics(t *testing.T) {
	exact := rule("", config.MatchExact, true)
	if !Matches(exact, "") || Matches(exact, "anything") {
		t.Error("empty-name Exact rule should match only empty input")
	}

	contains := rule("", config.MatchContains, true)
	if !Matches(contains, "anything") {
		t.Error("empty-name Contains rule should match any input")
	}
}

func TestMatchesContainsStartsEnds(t *testing.T) {
	if !Matches(rule("Pods", config.MatchContains, true), "AirPods Pro") {
		t.Error("expected Contains match")
	}
	if !Matches(rule("Air", config.MatchStartsWith, true), "AirPods Pro") {
		t.Error("expected StartsWith match")
	}
	if !Matches(rule("Pro", config.MatchEndsWith, true), "AirPods Pro") {
		t.Error("expected EndsWith match")
	}
}

func TestMatchesRegex(t *testing.T) {
	r := rule("^AirPods.*Pro$", config.MatchRegex, true)
	if !Matches(r, "AirPods Max Pro") {
		t.Error("expected regex match")
	}
	if Matches(r, "MacBook Pro") {
		t.Error("expected no regex match")
	}
}

func TestMatchesRegexFallsBackOnBadPattern(t *testing.T) {
	r := rule("(unterminated", config.MatchRegex, true)
	if !Matches(r, "(unterminated group") {
		t.Error("expected fallback to Contains semantics on compile failure")
	}
}
